package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:                 "Hotel Booking",
		PublicBaseURL:           "http://localhost:5000",
		DefaultCurrency:         "RON",
		TaxRate:                 0.19,
		InvoiceDueDays:          14,
		AvailabilityHorizonDays: 90,
		AdminRequestTTL:         48 * time.Hour,
		GetCacheTTL:             time.Minute,
		SystemLogRetention:      24 * time.Hour,
	}
}

// testEnv wires every service against a fresh database.
type testEnv struct {
	db            *mongo.Database
	cfg           *config.Config
	settings      ISettingsService
	users         IUserService
	hotels        IHotelService
	payments      IPaymentService
	bookings      IBookingService
	reviews       IReviewService
	tickets       ISupportTicketService
	notifications INotificationService
	approvals     IAdminApprovalService
	logs          ISystemLogService
}

func newTestEnv(t *testing.T, dbName string) *testEnv {
	t.Helper()
	database := utils.SetupTestDB(t, dbName)
	cfg := testConfig()
	require.NoError(t, db.EnsureIndexes(context.Background(), database, cfg.SystemLogRetention))

	e := &testEnv{db: database, cfg: cfg}
	e.settings = NewSettingsService(database, cfg, nil)
	e.users = NewUserService(database)
	e.hotels = NewHotelService(database, cfg, nil)
	e.payments = NewPaymentService(database, cfg, e.settings, e.users)
	e.bookings = NewBookingService(database, cfg, e.settings, e.hotels, e.payments)
	e.reviews = NewReviewService(database, e.users, e.hotels, e.bookings)
	e.tickets = NewSupportTicketService(database)
	e.notifications = NewNotificationService(database)
	e.approvals = NewAdminApprovalService(database, cfg, e.users)
	e.logs = NewSystemLogService(database)
	return e
}

func (e *testEnv) user(t *testing.T, email string, role models.Role) Actor {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.Register(ctx, "Test "+email, email, "secret123", "")
	require.NoError(t, err)
	if role != u.Role {
		u, err = e.users.SetRole(ctx, u.ID, role)
		require.NoError(t, err)
	}
	return Actor{ID: u.ID, Role: u.Role}
}

func (e *testEnv) hotel(t *testing.T, rooms ...models.Room) *models.Hotel {
	t.Helper()
	if len(rooms) == 0 {
		rooms = []models.Room{{Type: "double", Capacity: 2, Price: 100, Count: 3}}
	}
	h, err := e.hotels.Create(context.Background(), Actor{ID: utils.NewSixID(), Role: models.RoleAdmin}, HotelInput{
		Name:        "Grand Hotel",
		Description: "Central",
		Location:    models.Location{City: "Cluj-Napoca", Country: "Romania"},
		Rooms:       rooms,
	})
	require.NoError(t, err)
	return h
}

// stay returns check-in/check-out dates nights long, starting offset days from today.
func stay(offset, nights int) (time.Time, time.Time) {
	in := models.TruncateDay(time.Now()).AddDate(0, 0, offset)
	return in, in.AddDate(0, 0, nights)
}

func (e *testEnv) snapshotBooking(t *testing.T, owner Actor, total float64) *models.Booking {
	t.Helper()
	in, out := stay(10, 2)
	b, err := e.bookings.Create(context.Background(), owner, CreateBookingInput{
		Hotel:       models.HotelSnapshot{Name: "Seaside Inn", Location: "Constanta, Romania"},
		RoomType:    "double",
		CheckIn:     in,
		CheckOut:    out,
		Guests:      2,
		TotalAmount: total,
		Currency:    "RON",
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) paymentsOf(t *testing.T, bookingID utils.SixID) []models.Payment {
	t.Helper()
	res, err := e.payments.List(context.Background(), PaymentFilter{BookingID: &bookingID}, Page{Limit: 100})
	require.NoError(t, err)
	return res.Items
}
