package services

import (
	"errors"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
)

var (
	// ErrForbidden is returned when the actor may not touch the resource.
	ErrForbidden = errors.New("not allowed to access this resource")
	// ErrInvalidTransition is returned when a status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrInvalidRefundAmount is returned for refunds that are not positive or exceed what is left.
	ErrInvalidRefundAmount = errors.New("invalid refund amount")
	// ErrRoomUnavailable is returned when a room type has no free inventory for some night.
	ErrRoomUnavailable = errors.New("no rooms available for the selected dates")
	// ErrHotelUnavailable is returned when booking a catalogue hotel that is not active.
	ErrHotelUnavailable = errors.New("hotel is not accepting bookings")
	// ErrOutsideCalendar is returned when the requested nights fall outside the availability horizon.
	ErrOutsideCalendar = errors.New("dates are outside the availability calendar")
	// ErrEmailExists is returned when an attempt is made to use an email that already exists.
	ErrEmailExists = errors.New("email already in use by another account")
	// ErrInvalidCredentials is returned for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserSuspended is returned when a suspended account tries to log in.
	ErrUserSuspended = errors.New("account is suspended")
	// ErrAlreadyReviewed is returned when a user reviews the same hotel twice.
	ErrAlreadyReviewed = errors.New("hotel already reviewed by this user")
	// ErrInvalidAmount is returned for negative money amounts.
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrBookingsDisabled is returned when new bookings are switched off in the settings.
	ErrBookingsDisabled = errors.New("new bookings are currently disabled")
	// ErrInvalidRating is returned for review ratings outside 1 to 5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrInvalidDates is returned when check-out is not after check-in.
	ErrInvalidDates = errors.New("check-out must be after check-in")
	// ErrRequestExpired is returned when an admin request is no longer pending or has expired.
	ErrRequestExpired = errors.New("admin request expired or already decided")

	ErrVersionConflict = db.ErrVersionConflict
)
