package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

func TestCancelBooking_WithoutPaymentRecordsRefund(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_unpaid")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 500)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, models.BookingPaymentPending, b.PaymentStatus)

	cancelled, refunds, err := e.bookings.Cancel(ctx, owner, b.ID, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, models.BookingPaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancellationDate)
	require.Len(t, refunds, 1)

	payments := e.paymentsOf(t, b.ID)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, models.PaymentStatusRefunded, p.Status)
	assert.Equal(t, 500.0, p.Total)
	assert.Equal(t, "RON", p.Currency)
	require.Len(t, p.Refunds, 1)
	assert.Equal(t, 500.0, p.Refunds[0].Amount)
	assert.Equal(t, models.RefundStatusCompleted, p.Refunds[0].Status)
	assert.Equal(t, 500.0, p.TotalRefunded)
}

func TestCancelBooking_RefundsPaidPayment(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_paid")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 320)

	paid, _, err := e.payments.ProcessPayment(ctx, owner, ProcessPaymentInput{BookingID: b.ID, PaymentMethod: "card", PaymentMethodID: "pm_1"})
	require.NoError(t, err)

	_, _, err = e.bookings.Cancel(ctx, owner, b.ID, "")
	require.NoError(t, err)

	payments := e.paymentsOf(t, b.ID)
	require.Len(t, payments, 1, "the existing payment is refunded, no new one is made")
	assert.Equal(t, paid.ID, payments[0].ID)
	assert.Equal(t, models.PaymentStatusRefunded, payments[0].Status)
	assert.Equal(t, 320.0, payments[0].TotalRefunded)
}

func TestCancelBooking_SecondCancelRejected(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_twice")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 200)

	_, _, err := e.bookings.Cancel(ctx, owner, b.ID, "")
	require.NoError(t, err)
	_, _, err = e.bookings.Cancel(ctx, owner, b.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, e.paymentsOf(t, b.ID), 1)
}

func TestCancelBooking_ConcurrentCancelsRefundOnce(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_concurrent")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 750)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.bookings.Cancel(ctx, owner, b.ID, "race")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, succeeded)

	payments := e.paymentsOf(t, b.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, 750.0, payments[0].TotalRefunded)
}

func TestCancelBooking_OnlyOwner(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_owner")
	owner := e.user(t, "owner@example.com", models.RoleClient)
	other := e.user(t, "other@example.com", models.RoleClient)
	admin := e.user(t, "admin@example.com", models.RoleAdmin)
	b := e.snapshotBooking(t, owner, 100)

	_, _, err := e.bookings.Cancel(context.Background(), other, b.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, _, err = e.bookings.Cancel(context.Background(), admin, b.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

// flakyRefunds fails RefundBookingPayments a set number of times before delegating.
type flakyRefunds struct {
	IPaymentService
	failures int
}

func (f *flakyRefunds) RefundBookingPayments(ctx context.Context, booking *models.Booking, reason string, actorID utils.SixID) ([]models.Payment, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("server selection timeout")
	}
	return f.IPaymentService.RefundBookingPayments(ctx, booking, reason, actorID)
}

func TestCancelBooking_FailedRefundCanBeRetried(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_refund_retry")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 400)
	paid, _, err := e.payments.ProcessPayment(ctx, owner, ProcessPaymentInput{BookingID: b.ID, PaymentMethod: "card", PaymentMethodID: "pm_1"})
	require.NoError(t, err)

	flaky := NewBookingService(e.db, e.cfg, e.settings, e.hotels, &flakyRefunds{IPaymentService: e.payments, failures: 1})
	_, _, err = flaky.Cancel(ctx, owner, b.ID, "flight cancelled")
	require.Error(t, err)

	stored, err := e.bookings.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)
	assert.Equal(t, models.BookingPaymentPaid, stored.PaymentStatus, "not marked refunded before the refund happened")
	assert.True(t, stored.RefundPending)
	still, err := e.payments.FindByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, still.Status)

	cancelled, refunds, err := flaky.Cancel(ctx, owner, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPaymentRefunded, cancelled.PaymentStatus)
	assert.False(t, cancelled.RefundPending)
	assert.Equal(t, "flight cancelled", cancelled.CancellationReason)
	require.Len(t, refunds, 1)

	payments := e.paymentsOf(t, b.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusRefunded, payments[0].Status)
	assert.Equal(t, 400.0, payments[0].TotalRefunded)
	require.Len(t, payments[0].Refunds, 1)
	assert.Equal(t, "flight cancelled", payments[0].Refunds[0].Reason)

	_, _, err = e.bookings.Cancel(ctx, owner, b.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBooking_RetryWaitsForLiveClaim(t *testing.T) {
	e := newTestEnv(t, "test_booking_cancel_claim")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 90)

	// A cancel that is still refunding holds a fresh claim.
	now := time.Now().UTC()
	_, err := e.db.Collection(db.BookingsCollection).UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
		"status": models.BookingStatusCancelled, "refund_pending": true, "refund_claimed_at": now,
	}})
	require.NoError(t, err)
	_, _, err = e.bookings.Cancel(ctx, owner, b.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, e.paymentsOf(t, b.ID))

	// Once the lease runs out a retry finishes the job.
	_, err = e.db.Collection(db.BookingsCollection).UpdateOne(ctx, bson.M{"_id": b.ID}, bson.M{"$set": bson.M{
		"refund_claimed_at": now.Add(-2 * refundLease),
	}})
	require.NoError(t, err)
	cancelled, _, err := e.bookings.Cancel(ctx, owner, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPaymentRefunded, cancelled.PaymentStatus)
	payments := e.paymentsOf(t, b.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusRefunded, payments[0].Status)
}

func TestCreateBooking_InactiveHotelRejected(t *testing.T) {
	e := newTestEnv(t, "test_booking_inactive_hotel")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	admin := e.user(t, "admin@example.com", models.RoleAdmin)
	hotel := e.hotel(t, models.Room{Type: "double", Capacity: 2, Price: 100, Count: 1})
	inactive := models.HotelStatusInactive
	_, err := e.hotels.Update(ctx, admin, hotel.ID, HotelUpdate{Status: &inactive})
	require.NoError(t, err)
	in, out := stay(5, 1)

	_, err = e.bookings.Create(ctx, owner, CreateBookingInput{
		Hotel: models.HotelSnapshot{ID: hotel.ID}, RoomType: "double", CheckIn: in, CheckOut: out, Guests: 2,
	})
	assert.ErrorIs(t, err, ErrHotelUnavailable)

	free, err := e.hotels.CheckAvailability(ctx, hotel.ID, "double", in, out, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, free, "nothing was reserved")
}

func TestCreateBooking_Validation(t *testing.T) {
	e := newTestEnv(t, "test_booking_validation")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	in, out := stay(5, 2)

	_, err := e.bookings.Create(ctx, owner, CreateBookingInput{RoomType: "double", CheckIn: out, CheckOut: in, TotalAmount: 10})
	assert.ErrorIs(t, err, ErrInvalidDates)
	_, err = e.bookings.Create(ctx, owner, CreateBookingInput{RoomType: "double", CheckIn: in, CheckOut: out, TotalAmount: -1})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.settings.Set(ctx, SettingBookingsEnabled, false, true)
	require.NoError(t, err)
	_, err = e.bookings.Create(ctx, owner, CreateBookingInput{RoomType: "double", CheckIn: in, CheckOut: out, TotalAmount: 10})
	assert.ErrorIs(t, err, ErrBookingsDisabled)
}

func TestCreateBooking_ReservesCatalogueInventory(t *testing.T) {
	e := newTestEnv(t, "test_booking_inventory")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	hotel := e.hotel(t, models.Room{Type: "double", Capacity: 2, Price: 120, Count: 2})
	in, out := stay(3, 2)

	b, err := e.bookings.Create(ctx, owner, CreateBookingInput{
		Hotel:    models.HotelSnapshot{ID: hotel.ID},
		RoomType: "double",
		CheckIn:  in,
		CheckOut: out,
		Guests:   2,
	})
	require.NoError(t, err)
	assert.True(t, b.InventoryHeld)
	assert.Equal(t, "Grand Hotel", b.Hotel.Name)
	assert.Equal(t, 240.0, b.TotalAmount, "priced from the room rate when no amount is given")

	free, err := e.hotels.CheckAvailability(ctx, hotel.ID, "double", in, out, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, free)

	_, _, err = e.bookings.Cancel(ctx, owner, b.ID, "")
	require.NoError(t, err)
	free, err = e.hotels.CheckAvailability(ctx, hotel.ID, "double", in, out, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, free, "cancel gives the room back")
}

func TestCreateBooking_LastRoomGoesToOneCaller(t *testing.T) {
	e := newTestEnv(t, "test_booking_last_room")
	ctx := context.Background()
	hotel := e.hotel(t, models.Room{Type: "suite", Capacity: 2, Price: 300, Count: 1})
	in, out := stay(7, 3)

	const callers = 6
	actors := make([]Actor, callers)
	for i := range actors {
		actors[i] = e.user(t, "guest"+string(rune('a'+i))+"@example.com", models.RoleClient)
	}

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for _, a := range actors {
		wg.Add(1)
		go func(a Actor) {
			defer wg.Done()
			_, err := e.bookings.Create(ctx, a, CreateBookingInput{
				Hotel: models.HotelSnapshot{ID: hotel.ID}, RoomType: "suite", CheckIn: in, CheckOut: out, Guests: 2,
			})
			errs <- err
		}(a)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrRoomUnavailable)
	}
	assert.Equal(t, 1, succeeded)

	days, err := e.hotels.GetAvailability(ctx, hotel.ID, in, out)
	require.NoError(t, err)
	require.Len(t, days, 3)
	for _, d := range days {
		assert.Equal(t, 1, d.Rooms[0].Booked)
		assert.Equal(t, 0, d.Rooms[0].Available)
	}
}

func TestCreateBooking_OutsideCalendar(t *testing.T) {
	e := newTestEnv(t, "test_booking_outside_calendar")
	owner := e.user(t, "owner@example.com", models.RoleClient)
	hotel := e.hotel(t)
	in, out := stay(200, 2)

	_, err := e.bookings.Create(context.Background(), owner, CreateBookingInput{
		Hotel: models.HotelSnapshot{ID: hotel.ID}, RoomType: "double", CheckIn: in, CheckOut: out,
	})
	assert.ErrorIs(t, err, ErrOutsideCalendar)
}

func TestBookingLifecycle_ConfirmAndComplete(t *testing.T) {
	e := newTestEnv(t, "test_booking_lifecycle")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	other := e.user(t, "other@example.com", models.RoleClient)
	b := e.snapshotBooking(t, owner, 100)

	_, err := e.bookings.Complete(ctx, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending bookings cannot complete")

	_, err = e.bookings.Confirm(ctx, other, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	confirmed, err := e.bookings.Confirm(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmationDate)

	_, err = e.bookings.Confirm(ctx, owner, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	completed, err := e.bookings.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, completed.Status)

	_, _, err = e.bookings.Cancel(ctx, owner, b.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAutoComplete_OnlyPastCheckout(t *testing.T) {
	e := newTestEnv(t, "test_booking_autocomplete")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	past := e.snapshotBooking(t, owner, 100)
	future := e.snapshotBooking(t, owner, 100)
	for _, b := range []*models.Booking{past, future} {
		_, err := e.bookings.Confirm(ctx, owner, b.ID)
		require.NoError(t, err)
	}
	_, err := e.db.Collection(db.BookingsCollection).UpdateOne(ctx, bson.M{"_id": past.ID},
		bson.M{"$set": bson.M{"check_in": time.Now().AddDate(0, 0, -3), "check_out": time.Now().AddDate(0, 0, -1)}})
	require.NoError(t, err)

	completed, err := e.bookings.AutoComplete(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, past.ID, completed[0].ID)

	still, err := e.bookings.FindByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, still.Status)
}

func TestBookingList_Filters(t *testing.T) {
	e := newTestEnv(t, "test_booking_list")
	ctx := context.Background()
	a := e.user(t, "a@example.com", models.RoleClient)
	b := e.user(t, "b@example.com", models.RoleClient)
	e.snapshotBooking(t, a, 10)
	e.snapshotBooking(t, a, 20)
	cancelled := e.snapshotBooking(t, b, 30)
	_, _, err := e.bookings.Cancel(ctx, b, cancelled.ID, "")
	require.NoError(t, err)

	res, err := e.bookings.List(ctx, BookingFilter{UserID: &a.ID}, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = e.bookings.List(ctx, BookingFilter{Status: models.BookingStatusCancelled}, Page{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, cancelled.ID, res.Items[0].ID)

	_, err = e.bookings.GetForActor(ctx, a, cancelled.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
