package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/florentincondu/proiect-web-sub000/internal/api/handlers"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

type bookingFixture struct {
	bookings *MockBookingService
	payments *MockPaymentService
	effects  *MockSideEffects
	handler  *handlers.BookingHandler
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookings: new(MockBookingService),
		payments: new(MockPaymentService),
		effects:  new(MockSideEffects),
	}
	f.handler = handlers.NewBookingHandler(f.bookings, f.payments, f.effects)
	return f
}

func bookingBody(hotelID utils.SixID) map[string]interface{} {
	return map[string]interface{}{
		"hotel":        map[string]string{"id": hotelID.String(), "name": "Aro Palace", "location": "Brasov"},
		"room_type":    "double",
		"check_in":     "2026-11-01",
		"check_out":    "2026-11-04",
		"guests":       2,
		"total_amount": 500,
		"currency":     "RON",
	}
}

func TestBookingHandler_Create(t *testing.T) {
	f := newBookingFixture()
	actor := newActor(models.RoleClient)
	r := newTestEngine()
	r.POST("/api/bookings/hotel", asActor(actor), f.handler.CreateHotelBooking)

	hotelID := utils.NewSixID()
	booking := &models.Booking{Base: models.NewBase(), UserID: actor.ID, Status: models.BookingStatusPending}
	f.bookings.On("Create", mock.Anything, actor, mock.MatchedBy(func(in services.CreateBookingInput) bool {
		return in.Hotel.ID == hotelID && in.Hotel.Name == "Aro Palace" &&
			in.CheckIn.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) &&
			in.CheckOut.Equal(time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC)) &&
			in.Guests == 2 && in.TotalAmount == 500 && in.Currency == "RON"
	})).Return(booking, nil)
	f.effects.On("BookingChanged", mock.Anything, booking, models.ActionBookingCreated).Return()

	w := doRequest(r, http.MethodPost, "/api/bookings/hotel", bookingBody(hotelID))

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f.bookings.AssertExpectations(t)
	f.effects.AssertExpectations(t)
}

func TestBookingHandler_Create_BadInput(t *testing.T) {
	f := newBookingFixture()
	r := newTestEngine()
	r.POST("/api/bookings/hotel", asActor(newActor(models.RoleClient)), f.handler.CreateHotelBooking)

	body := bookingBody(utils.NewSixID())
	body["check_in"] = "01/11/2026"
	w := doRequest(r, http.MethodPost, "/api/bookings/hotel", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid check_in", decodeBody(t, w)["message"])

	body = bookingBody(utils.NewSixID())
	body["currency"] = "lei"
	body["guests"] = 0
	w = doRequest(r, http.MethodPost, "/api/bookings/hotel", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errText := decodeBody(t, w)["error"]
	assert.Contains(t, errText, "guests failed on 'required'")
	assert.Contains(t, errText, "currency failed on 'currency'")

	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Create_RoomUnavailable(t *testing.T) {
	f := newBookingFixture()
	actor := newActor(models.RoleClient)
	r := newTestEngine()
	r.POST("/api/bookings/hotel", asActor(actor), f.handler.CreateHotelBooking)

	f.bookings.On("Create", mock.Anything, actor, mock.Anything).Return(nil, services.ErrRoomUnavailable)

	w := doRequest(r, http.MethodPost, "/api/bookings/hotel", bookingBody(utils.NewSixID()))
	assert.Equal(t, http.StatusConflict, w.Code)
	f.effects.AssertNotCalled(t, "BookingChanged", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_List_ScopesNonAdmins(t *testing.T) {
	f := newBookingFixture()
	client := newActor(models.RoleClient)
	r := newTestEngine()
	r.GET("/api/bookings", asActor(client), f.handler.List)

	someoneElse := utils.NewSixID()
	f.bookings.On("List", mock.Anything, mock.MatchedBy(func(filter services.BookingFilter) bool {
		return filter.UserID != nil && *filter.UserID == client.ID && filter.Status == models.BookingStatusConfirmed
	}), mock.Anything).Return(&services.PagedResult[models.Booking]{Items: []models.Booking{}}, nil)

	w := doRequest(r, http.MethodGet, "/api/bookings?status=confirmed&user_id="+someoneElse.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.bookings.AssertExpectations(t)
}

func TestBookingHandler_List_AdminFilters(t *testing.T) {
	f := newBookingFixture()
	r := newTestEngine()
	r.GET("/api/admin/bookings", asActor(newActor(models.RoleAdmin)), f.handler.List)

	userID := utils.NewSixID()
	hotelID := utils.NewSixID()
	f.bookings.On("List", mock.Anything, services.BookingFilter{UserID: &userID, HotelID: &hotelID}, mock.Anything).
		Return(&services.PagedResult[models.Booking]{Items: []models.Booking{}}, nil)

	w := doRequest(r, http.MethodGet, "/api/admin/bookings?user_id="+userID.String()+"&hotel_id="+hotelID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/admin/bookings?user_id=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user ID", decodeBody(t, w)["message"])
}

func TestBookingHandler_Confirm_InvalidTransition(t *testing.T) {
	f := newBookingFixture()
	actor := newActor(models.RoleClient)
	r := newTestEngine()
	r.PUT("/api/bookings/confirm/:id", asActor(actor), f.handler.Confirm)

	id := utils.NewSixID()
	f.bookings.On("Confirm", mock.Anything, actor, id).Return(nil, services.ErrInvalidTransition)

	w := doRequest(r, http.MethodPut, "/api/bookings/confirm/"+id.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	f.effects.AssertNotCalled(t, "BookingChanged", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Cancel_RefundsPayments(t *testing.T) {
	f := newBookingFixture()
	actor := newActor(models.RoleClient)
	r := newTestEngine()
	r.PUT("/api/bookings/cancel/:id", asActor(actor), f.handler.Cancel)

	id := utils.NewSixID()
	booking := &models.Booking{Base: models.Base{ID: id}, UserID: actor.ID, Status: models.BookingStatusCancelled, PaymentStatus: models.BookingPaymentRefunded}
	payments := []models.Payment{
		{Base: models.NewBase(), Status: models.PaymentStatusRefunded, Total: 500, TotalRefunded: 500},
		{Base: models.NewBase(), Status: models.PaymentStatusPartiallyRefunded, Total: 300, TotalRefunded: 100},
	}
	f.bookings.On("Cancel", mock.Anything, actor, id, "plans changed").Return(booking, payments, nil)
	f.effects.On("BookingChanged", mock.Anything, booking, models.ActionBookingCancelled).Return()
	f.effects.On("PaymentChanged", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool { return p.ID == payments[0].ID }), models.ActionPaymentRefunded).Return()
	f.effects.On("PaymentChanged", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool { return p.ID == payments[1].ID }), models.ActionPaymentPartiallyRefunded).Return()

	w := doRequest(r, http.MethodPut, "/api/bookings/cancel/"+id.String(), map[string]string{"reason": "plans changed"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Len(t, body["payments"], 2)
	f.effects.AssertExpectations(t)
}

func TestBookingHandler_Cancel_NoBodyNoPayments(t *testing.T) {
	f := newBookingFixture()
	actor := newActor(models.RoleClient)
	r := newTestEngine()
	r.PUT("/api/bookings/cancel/:id", asActor(actor), f.handler.Cancel)

	id := utils.NewSixID()
	booking := &models.Booking{Base: models.Base{ID: id}, Status: models.BookingStatusCancelled}
	f.bookings.On("Cancel", mock.Anything, actor, id, "").Return(booking, nil, nil)
	f.effects.On("BookingChanged", mock.Anything, booking, models.ActionBookingCancelled).Return()

	w := doRequest(r, http.MethodPut, "/api/bookings/cancel/"+id.String(), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{}, decodeBody(t, w)["payments"])
	f.effects.AssertNotCalled(t, "PaymentChanged", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Complete(t *testing.T) {
	f := newBookingFixture()
	r := newTestEngine()
	r.PUT("/api/bookings/:id/complete", asActor(newActor(models.RoleAdmin)), f.handler.Complete)

	id := utils.NewSixID()
	booking := &models.Booking{Base: models.Base{ID: id}, Status: models.BookingStatusCompleted}
	f.bookings.On("Complete", mock.Anything, id).Return(booking, nil)
	f.effects.On("BookingChanged", mock.Anything, booking, models.ActionBookingCompleted).Return()

	w := doRequest(r, http.MethodPut, "/api/bookings/"+id.String()+"/complete", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	f.effects.AssertExpectations(t)
}

func TestBookingHandler_UpdatePaymentStatus(t *testing.T) {
	f := newBookingFixture()
	r := newTestEngine()
	r.PUT("/api/bookings/:id/payment-status", asActor(newActor(models.RoleAdmin)), f.handler.UpdatePaymentStatus)

	id := utils.NewSixID()
	w := doRequest(r, http.MethodPut, "/api/bookings/"+id.String()+"/payment-status", map[string]string{"payment_status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	booking := &models.Booking{Base: models.Base{ID: id}, PaymentStatus: models.BookingPaymentPaid}
	f.payments.On("UpdateBookingPaymentStatus", mock.Anything, id, models.BookingPaymentPaid, "paid at desk").Return(booking, nil)
	f.effects.On("BookingChanged", mock.Anything, booking, models.ActionBookingPaymentUpdated).Return()

	w = doRequest(r, http.MethodPut, "/api/bookings/"+id.String()+"/payment-status", map[string]string{"payment_status": "paid", "notes": "paid at desk"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.payments.AssertExpectations(t)
	f.effects.AssertExpectations(t)
}
