package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// CreateBookingInput is a hotel booking request. Hotel.ID is set for catalogue hotels
// and left zero for hotels that only exist as a snapshot.
type CreateBookingInput struct {
	Hotel           models.HotelSnapshot
	ServiceID       *utils.SixID
	RoomType        string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Rooms           int
	TotalAmount     float64
	Currency        string
	SpecialRequests string
}

// BookingFilter narrows booking lists. Zero values are ignored.
type BookingFilter struct {
	Status        models.BookingStatus
	PaymentStatus models.BookingPaymentStatus
	UserID        *utils.SixID
	HotelID       *utils.SixID
}

// IBookingService manages the booking lifecycle.
type IBookingService interface {
	Create(ctx context.Context, actor Actor, in CreateBookingInput) (*models.Booking, error)
	Confirm(ctx context.Context, actor Actor, bookingID utils.SixID) (*models.Booking, error)
	Cancel(ctx context.Context, actor Actor, bookingID utils.SixID, reason string) (*models.Booking, []models.Payment, error)
	Complete(ctx context.Context, bookingID utils.SixID) (*models.Booking, error)
	AutoComplete(ctx context.Context, now time.Time) ([]models.Booking, error)
	FindByID(ctx context.Context, bookingID utils.SixID) (*models.Booking, error)
	GetForActor(ctx context.Context, actor Actor, bookingID utils.SixID) (*models.Booking, error)
	List(ctx context.Context, filter BookingFilter, page Page) (*PagedResult[models.Booking], error)
	FindStay(ctx context.Context, userID, hotelID utils.SixID) (*models.Booking, error)
}

type bookingService struct {
	db       *mongo.Database
	cfg      *config.Config
	settings ISettingsService
	hotels   IHotelService
	payments IPaymentService
}

// NewBookingService creates a booking service.
func NewBookingService(database *mongo.Database, cfg *config.Config, settings ISettingsService, hotels IHotelService, payments IPaymentService) IBookingService {
	return &bookingService{db: database, cfg: cfg, settings: settings, hotels: hotels, payments: payments}
}

func (s *bookingService) coll() *mongo.Collection {
	return s.db.Collection(db.BookingsCollection)
}

func (s *bookingService) Create(ctx context.Context, actor Actor, in CreateBookingInput) (*models.Booking, error) {
	if !s.settings.GetBool(ctx, SettingBookingsEnabled, true) {
		return nil, ErrBookingsDisabled
	}
	if !in.CheckOut.After(in.CheckIn) || len(models.StayNights(in.CheckIn, in.CheckOut)) == 0 {
		return nil, ErrInvalidDates
	}
	if in.TotalAmount < 0 {
		return nil, ErrInvalidAmount
	}
	if in.Rooms < 1 {
		in.Rooms = 1
	}
	if in.Guests < 1 {
		in.Guests = 1
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		UserID:          actor.ID,
		ServiceID:       in.ServiceID,
		Hotel:           in.Hotel,
		RoomType:        strings.TrimSpace(in.RoomType),
		Rooms:           in.Rooms,
		CheckIn:         in.CheckIn.UTC(),
		CheckOut:        in.CheckOut.UTC(),
		Guests:          in.Guests,
		TotalAmount:     models.RoundMoney(in.TotalAmount),
		Currency:        strings.ToUpper(in.Currency),
		Status:          models.BookingStatusPending,
		PaymentStatus:   models.BookingPaymentPending,
		SpecialRequests: in.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if booking.Currency == "" {
		booking.Currency = s.settings.GetString(ctx, SettingDefaultCurrency, s.cfg.DefaultCurrency)
	}

	if !in.Hotel.ID.IsZero() {
		hotel, err := s.hotels.FindByID(ctx, in.Hotel.ID)
		if err != nil {
			return nil, err
		}
		if hotel.Status != models.HotelStatusActive {
			return nil, fmt.Errorf("hotel %s is %s: %w", hotel.ID, hotel.Status, ErrHotelUnavailable)
		}
		snapshot := hotel.Snapshot()
		booking.Hotel = snapshot
		if room, ok := hotel.RoomByType(booking.RoomType); ok {
			if err := s.hotels.ReserveRooms(ctx, hotel.ID, room.Type, booking.CheckIn, booking.CheckOut, booking.Rooms); err != nil {
				return nil, err
			}
			booking.InventoryHeld = true
			if booking.TotalAmount == 0 {
				booking.TotalAmount = models.RoundMoney(room.Price * float64(booking.Nights()*booking.Rooms))
			}
		}
	}

	if err := db.InsertOne(ctx, s.coll(), booking); err != nil {
		if booking.InventoryHeld {
			s.release(ctx, booking)
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) release(ctx context.Context, b *models.Booking) {
	if err := s.hotels.ReleaseRooms(ctx, b.Hotel.ID, b.RoomType, b.CheckIn, b.CheckOut, b.Rooms); err != nil {
		log.Printf("Error releasing rooms of booking %s at hotel %s: %v", b.ID, b.Hotel.ID, err)
	}
}

// transition moves a booking into target only if its stored status still allows it.
func (s *bookingService) transition(ctx context.Context, bookingID utils.SixID, target models.BookingStatus, set bson.M) (*models.Booking, error) {
	if set == nil {
		set = bson.M{}
	}
	set["status"] = target
	set["updated_at"] = time.Now().UTC()

	var updated models.Booking
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID, "status": bson.M{"$in": models.BookingSourceStatuses(target)}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s cannot become %s: %w", bookingID, target, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("error updating booking %s: %w", bookingID, err)
	}
	return &updated, nil
}

func (s *bookingService) Confirm(ctx context.Context, actor Actor, bookingID utils.SixID) (*models.Booking, error) {
	booking, err := s.GetForActor(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, booking.ID, models.BookingStatusConfirmed, bson.M{"confirmation_date": time.Now().UTC()})
}

// refundLease is how long a cancellation holds the refund step before a retry may take it over.
const refundLease = 2 * time.Minute

// Cancel cancels the caller's booking, gives back held inventory and refunds what was paid.
// Only one of several concurrent cancels passes the status guard. The booking keeps
// refund_pending until its payments are settled, so a cancel whose refund failed can be
// repeated by the owner to finish it.
func (s *bookingService) Cancel(ctx context.Context, actor Actor, bookingID utils.SixID, reason string) (*models.Booking, []models.Payment, error) {
	current, err := s.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if current.UserID != actor.ID {
		return nil, nil, ErrForbidden
	}

	now := time.Now().UTC()
	var booking *models.Booking
	if current.Status == models.BookingStatusCancelled && current.RefundPending {
		booking, err = s.claimRefund(ctx, bookingID, now)
		if err != nil {
			return nil, nil, err
		}
	} else {
		booking, err = s.transition(ctx, bookingID, models.BookingStatusCancelled, bson.M{
			"cancellation_date":   now,
			"cancellation_reason": reason,
			"inventory_held":      false,
			"refund_pending":      true,
			"refund_claimed_at":   now,
		})
		if err != nil {
			return nil, nil, err
		}
		if current.InventoryHeld {
			s.release(ctx, booking)
		}
	}

	refunds, err := s.payments.RefundBookingPayments(ctx, booking, booking.CancellationReason, actor.ID)
	if err != nil {
		s.dropRefundClaim(ctx, booking.ID)
		return nil, nil, fmt.Errorf("booking %s cancelled but refund failed: %w", booking.ID, err)
	}

	settled, err := s.settleRefund(ctx, booking.ID)
	if err != nil {
		return nil, nil, err
	}
	return settled, refunds, nil
}

// claimRefund takes over the refund step of a cancelled booking whose earlier attempt
// failed or whose lease ran out.
func (s *bookingService) claimRefund(ctx context.Context, bookingID utils.SixID, now time.Time) (*models.Booking, error) {
	var b models.Booking
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{
			"_id":            bookingID,
			"status":         models.BookingStatusCancelled,
			"refund_pending": true,
			"$or": bson.A{
				bson.M{"refund_claimed_at": bson.M{"$exists": false}},
				bson.M{"refund_claimed_at": bson.M{"$lt": now.Add(-refundLease)}},
			},
		},
		bson.M{"$set": bson.M{"refund_claimed_at": now, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s is already being cancelled: %w", bookingID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("error claiming refund of booking %s: %w", bookingID, err)
	}
	return &b, nil
}

func (s *bookingService) dropRefundClaim(ctx context.Context, bookingID utils.SixID) {
	_, err := s.coll().UpdateOne(ctx,
		bson.M{"_id": bookingID, "refund_pending": true},
		bson.M{"$unset": bson.M{"refund_claimed_at": ""}})
	if err != nil {
		log.Printf("Error releasing refund claim of booking %s: %v", bookingID, err)
	}
}

func (s *bookingService) settleRefund(ctx context.Context, bookingID utils.SixID) (*models.Booking, error) {
	var b models.Booking
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID, "status": models.BookingStatusCancelled},
		bson.M{
			"$set":   bson.M{"payment_status": models.BookingPaymentRefunded, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"refund_pending": "", "refund_claimed_at": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		return nil, fmt.Errorf("booking %s refunded but not marked settled: %w", bookingID, err)
	}
	return &b, nil
}

// Complete closes a confirmed booking. Admins may do so before check-out.
func (s *bookingService) Complete(ctx context.Context, bookingID utils.SixID) (*models.Booking, error) {
	if _, err := s.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.transition(ctx, bookingID, models.BookingStatusCompleted, bson.M{"completed_at": time.Now().UTC()})
}

// AutoComplete completes every confirmed booking whose check-out is not after now.
func (s *bookingService) AutoComplete(ctx context.Context, now time.Time) ([]models.Booking, error) {
	cursor, err := s.coll().Find(ctx, bson.M{
		"status":    models.BookingStatusConfirmed,
		"check_out": bson.M{"$lte": now},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("error finding bookings to complete: %w", err)
	}
	var due []models.Base
	if err := cursor.All(ctx, &due); err != nil {
		return nil, fmt.Errorf("error decoding bookings to complete: %w", err)
	}

	var completed []models.Booking
	for _, b := range due {
		booking, err := s.transition(ctx, b.ID, models.BookingStatusCompleted, bson.M{"completed_at": now.UTC()})
		if err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				log.Printf("Error auto-completing booking %s: %v", b.ID, err)
			}
			continue
		}
		completed = append(completed, *booking)
	}
	return completed, nil
}

func (s *bookingService) FindByID(ctx context.Context, bookingID utils.SixID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.coll().FindOne(ctx, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (s *bookingService) GetForActor(ctx context.Context, actor Actor, bookingID utils.SixID) (*models.Booking, error) {
	booking, err := s.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(booking.UserID) {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter BookingFilter, page Page) (*PagedResult[models.Booking], error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		q["payment_status"] = filter.PaymentStatus
	}
	if filter.UserID != nil {
		q["user_id"] = *filter.UserID
	}
	if filter.HotelID != nil {
		q["hotel.id"] = *filter.HotelID
	}
	return findPage[models.Booking](ctx, s.coll(), q, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}

// FindStay returns a confirmed or completed booking of the user at the hotel, if any.
func (s *bookingService) FindStay(ctx context.Context, userID, hotelID utils.SixID) (*models.Booking, error) {
	var booking models.Booking
	err := s.coll().FindOne(ctx, bson.M{
		"user_id":  userID,
		"hotel.id": hotelID,
		"status":   bson.M{"$in": []models.BookingStatus{models.BookingStatusConfirmed, models.BookingStatusCompleted}},
	}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding stay of user %s: %w", userID, err)
	}
	return &booking, nil
}
