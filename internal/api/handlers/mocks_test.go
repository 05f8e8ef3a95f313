package handlers_test

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// --- Mocks ---

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password, phone string) (*models.User, error) {
	args := m.Called(ctx, name, email, password, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindAdmins(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID utils.SixID, upd services.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID utils.SixID, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

func (m *MockUserService) List(ctx context.Context, filter services.UserFilter, page services.Page) (*services.PagedResult[models.User], error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.User]), args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, userID utils.SixID, role models.Role) (*models.User, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetAdminRequested(ctx context.Context, userID utils.SixID, requested bool) error {
	args := m.Called(ctx, userID, requested)
	return args.Error(0)
}

func (m *MockUserService) SuspendUser(ctx context.Context, userID, adminUserID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID, adminUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UnsuspendUser(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.Role]int64), args.Error(1)
}

// MockHotelService
type MockHotelService struct {
	mock.Mock
}

func (m *MockHotelService) Create(ctx context.Context, actor services.Actor, in services.HotelInput) (*models.Hotel, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}

func (m *MockHotelService) Update(ctx context.Context, actor services.Actor, hotelID utils.SixID, upd services.HotelUpdate) (*models.Hotel, error) {
	args := m.Called(ctx, actor, hotelID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}

func (m *MockHotelService) Delete(ctx context.Context, actor services.Actor, hotelID utils.SixID) error {
	args := m.Called(ctx, actor, hotelID)
	return args.Error(0)
}

func (m *MockHotelService) FindByID(ctx context.Context, hotelID utils.SixID) (*models.Hotel, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}

func (m *MockHotelService) GetPublic(ctx context.Context, hotelID utils.SixID) (*models.Hotel, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}

func (m *MockHotelService) Search(ctx context.Context, q services.HotelSearch, page services.Page) (*services.PagedResult[models.Hotel], error) {
	args := m.Called(ctx, q, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.Hotel]), args.Error(1)
}

func (m *MockHotelService) AuthorizeManage(ctx context.Context, actor services.Actor, hotelID utils.SixID) (*models.Hotel, error) {
	args := m.Called(ctx, actor, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotel), args.Error(1)
}

func (m *MockHotelService) GetAvailability(ctx context.Context, hotelID utils.SixID, from, to time.Time) ([]models.AvailabilityDay, error) {
	args := m.Called(ctx, hotelID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailabilityDay), args.Error(1)
}

func (m *MockHotelService) CheckAvailability(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) (int, error) {
	args := m.Called(ctx, hotelID, roomType, checkIn, checkOut, rooms)
	return args.Int(0), args.Error(1)
}

func (m *MockHotelService) ReserveRooms(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) error {
	args := m.Called(ctx, hotelID, roomType, checkIn, checkOut, rooms)
	return args.Error(0)
}

func (m *MockHotelService) ReleaseRooms(ctx context.Context, hotelID utils.SixID, roomType string, checkIn, checkOut time.Time, rooms int) error {
	args := m.Called(ctx, hotelID, roomType, checkIn, checkOut, rooms)
	return args.Error(0)
}

func (m *MockHotelService) EnsureCalendar(ctx context.Context, hotelID utils.SixID) error {
	args := m.Called(ctx, hotelID)
	return args.Error(0)
}

func (m *MockHotelService) RollAllCalendars(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockHotelService) AddImage(ctx context.Context, hotelID utils.SixID, imageURL string) error {
	args := m.Called(ctx, hotelID, imageURL)
	return args.Error(0)
}

func (m *MockHotelService) UpdateRating(ctx context.Context, hotelID utils.SixID, rating float64, count int) error {
	args := m.Called(ctx, hotelID, rating, count)
	return args.Error(0)
}

func (m *MockHotelService) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockBookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, actor services.Actor, in services.CreateBookingInput) (*models.Booking, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) Confirm(ctx context.Context, actor services.Actor, bookingID utils.SixID) (*models.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, actor services.Actor, bookingID utils.SixID, reason string) (*models.Booking, []models.Payment, error) {
	args := m.Called(ctx, actor, bookingID, reason)
	var payments []models.Payment
	if args.Get(1) != nil {
		payments = args.Get(1).([]models.Payment)
	}
	if args.Get(0) == nil {
		return nil, payments, args.Error(2)
	}
	return args.Get(0).(*models.Booking), payments, args.Error(2)
}

func (m *MockBookingService) Complete(ctx context.Context, bookingID utils.SixID) (*models.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) AutoComplete(ctx context.Context, now time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) FindByID(ctx context.Context, bookingID utils.SixID) (*models.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) GetForActor(ctx context.Context, actor services.Actor, bookingID utils.SixID) (*models.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) List(ctx context.Context, filter services.BookingFilter, page services.Page) (*services.PagedResult[models.Booking], error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.Booking]), args.Error(1)
}

func (m *MockBookingService) FindStay(ctx context.Context, userID, hotelID utils.SixID) (*models.Booking, error) {
	args := m.Called(ctx, userID, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

// MockPaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, actor services.Actor, in services.ProcessPaymentInput) (*models.Payment, bool, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Payment), args.Bool(1), args.Error(2)
}

func (m *MockPaymentService) ProcessRefund(ctx context.Context, paymentID utils.SixID, amount *float64, reason string, adminID utils.SixID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID, amount, reason, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) RefundBookingPayments(ctx context.Context, booking *models.Booking, reason string, actorID utils.SixID) ([]models.Payment, error) {
	args := m.Called(ctx, booking, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentService) UpdateBookingPaymentStatus(ctx context.Context, bookingID utils.SixID, status models.BookingPaymentStatus, notes string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, status, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockPaymentService) CreateInvoice(ctx context.Context, in services.InvoiceInput) (*models.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) UpdateStatus(ctx context.Context, paymentID utils.SixID, status models.PaymentStatus) (*models.Payment, error) {
	args := m.Called(ctx, paymentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) FindByID(ctx context.Context, paymentID utils.SixID) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) GetForActor(ctx context.Context, actor services.Actor, paymentID utils.SixID) (*models.Payment, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) GetInvoice(ctx context.Context, actor services.Actor, paymentID utils.SixID) (*services.Invoice, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Invoice), args.Error(1)
}

func (m *MockPaymentService) GetInvoicePDFMetadata(ctx context.Context, actor services.Actor, paymentID utils.SixID) (*services.InvoicePDFMetadata, error) {
	args := m.Called(ctx, actor, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InvoicePDFMetadata), args.Error(1)
}

func (m *MockPaymentService) GenerateInvoiceNumber(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentService) FindOverdue(ctx context.Context, now time.Time) ([]models.Payment, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentService) MarkOverdueNotified(ctx context.Context, paymentID utils.SixID) (bool, error) {
	args := m.Called(ctx, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentService) List(ctx context.Context, filter services.PaymentFilter, page services.Page) (*services.PagedResult[models.Payment], error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.Payment]), args.Error(1)
}

// MockReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, actor services.Actor, in services.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) ListForHotel(ctx context.Context, hotelID utils.SixID, page services.Page) (*services.PagedResult[models.Review], error) {
	args := m.Called(ctx, hotelID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.Review]), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, actor services.Actor, reviewID utils.SixID) error {
	args := m.Called(ctx, actor, reviewID)
	return args.Error(0)
}

func (m *MockReviewService) Respond(ctx context.Context, adminID, reviewID utils.SixID, text string) (*models.Review, error) {
	args := m.Called(ctx, adminID, reviewID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) RecomputeRating(ctx context.Context, hotelID utils.SixID) error {
	args := m.Called(ctx, hotelID)
	return args.Error(0)
}

// MockSupportTicketService
type MockSupportTicketService struct {
	mock.Mock
}

func (m *MockSupportTicketService) Create(ctx context.Context, actor services.Actor, in services.TicketInput) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockSupportTicketService) ListForUser(ctx context.Context, userID utils.SixID, page services.Page) (*services.PagedResult[models.SupportTicket], error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.SupportTicket]), args.Error(1)
}

func (m *MockSupportTicketService) List(ctx context.Context, status models.TicketStatus, page services.Page) (*services.PagedResult[models.SupportTicket], error) {
	args := m.Called(ctx, status, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.SupportTicket]), args.Error(1)
}

func (m *MockSupportTicketService) Get(ctx context.Context, actor services.Actor, ticketID utils.SixID) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockSupportTicketService) AddMessage(ctx context.Context, actor services.Actor, ticketID utils.SixID, body string) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, ticketID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockSupportTicketService) Close(ctx context.Context, actor services.Actor, ticketID utils.SixID) (*models.SupportTicket, error) {
	args := m.Called(ctx, actor, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

func (m *MockSupportTicketService) UpdateStatus(ctx context.Context, ticketID utils.SixID, status models.TicketStatus) (*models.SupportTicket, error) {
	args := m.Called(ctx, ticketID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportTicket), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationService) CreateBookingNotification(ctx context.Context, booking *models.Booking, action models.NotificationAction) (*models.Notification, error) {
	args := m.Called(ctx, booking, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) CreatePaymentNotification(ctx context.Context, payment *models.Payment, action models.NotificationAction) (*models.Notification, error) {
	args := m.Called(ctx, payment, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) ListForUser(ctx context.Context, userID utils.SixID, unreadOnly bool, page services.Page) (*services.PagedResult[models.Notification], error) {
	args := m.Called(ctx, userID, unreadOnly, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.Notification]), args.Error(1)
}

func (m *MockNotificationService) CountUnread(ctx context.Context, userID utils.SixID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID utils.SixID) (*models.Notification, error) {
	args := m.Called(ctx, userID, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID utils.SixID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, userID, notificationID utils.SixID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

// MockSettingsService
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Load(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSettingsService) SubscribeToChanges(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSettingsService) GetAllPublic(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockSettingsService) List(ctx context.Context) ([]models.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Setting), args.Error(1)
}

func (m *MockSettingsService) Get(ctx context.Context, key string) (interface{}, error) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Error(1)
}

func (m *MockSettingsService) GetInt(ctx context.Context, key string, defaultValue int) int {
	args := m.Called(ctx, key, defaultValue)
	return args.Int(0)
}

func (m *MockSettingsService) GetString(ctx context.Context, key string, defaultValue string) string {
	args := m.Called(ctx, key, defaultValue)
	return args.String(0)
}

func (m *MockSettingsService) GetBool(ctx context.Context, key string, defaultValue bool) bool {
	args := m.Called(ctx, key, defaultValue)
	return args.Bool(0)
}

func (m *MockSettingsService) GetFloat64(ctx context.Context, key string, defaultValue float64) float64 {
	args := m.Called(ctx, key, defaultValue)
	return args.Get(0).(float64)
}

func (m *MockSettingsService) GetDuration(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	args := m.Called(ctx, key, defaultValue)
	return args.Get(0).(time.Duration)
}

func (m *MockSettingsService) Set(ctx context.Context, key string, value interface{}, isPublic bool) (*models.Setting, error) {
	args := m.Called(ctx, key, value, isPublic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Setting), args.Error(1)
}

func (m *MockSettingsService) GetEndpointRateLimit(ctx context.Context, method, endpoint string) *models.RateLimitConfig {
	args := m.Called(ctx, method, endpoint)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.RateLimitConfig)
}

// MockSystemLogService
type MockSystemLogService struct {
	mock.Mock
}

func (m *MockSystemLogService) Record(ctx context.Context, entry *models.SystemLog) {
	m.Called(ctx, entry)
}

func (m *MockSystemLogService) List(ctx context.Context, filter services.SystemLogFilter, page services.Page) (*services.PagedResult[models.SystemLog], error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.SystemLog]), args.Error(1)
}

func (m *MockSystemLogService) Latest(ctx context.Context, n int) ([]models.SystemLog, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SystemLog), args.Error(1)
}

// MockDashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Stats(ctx context.Context) (*services.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardStats), args.Error(1)
}

// MockAdminApprovalService
type MockAdminApprovalService struct {
	mock.Mock
}

func (m *MockAdminApprovalService) RequestAdminAccess(ctx context.Context, userID utils.SixID, reason string) (*models.AdminRequest, error) {
	args := m.Called(ctx, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminRequest), args.Error(1)
}

func (m *MockAdminApprovalService) DecideAdminRequest(ctx context.Context, requestID utils.SixID, approve bool, decidedBy *utils.SixID) (*models.AdminRequest, error) {
	args := m.Called(ctx, requestID, approve, decidedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminRequest), args.Error(1)
}

func (m *MockAdminApprovalService) DecideByToken(ctx context.Context, token string, approve bool) (*models.AdminRequest, error) {
	args := m.Called(ctx, token, approve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminRequest), args.Error(1)
}

func (m *MockAdminApprovalService) FindByID(ctx context.Context, requestID utils.SixID) (*models.AdminRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminRequest), args.Error(1)
}

func (m *MockAdminApprovalService) List(ctx context.Context, status models.AdminRequestStatus, page services.Page) (*services.PagedResult[models.AdminRequest], error) {
	args := m.Called(ctx, status, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PagedResult[models.AdminRequest]), args.Error(1)
}

func (m *MockAdminApprovalService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSideEffects records dispatcher calls.
type MockSideEffects struct {
	mock.Mock
}

func (m *MockSideEffects) BookingChanged(ctx context.Context, b *models.Booking, action models.NotificationAction) {
	m.Called(ctx, b, action)
}

func (m *MockSideEffects) PaymentChanged(ctx context.Context, p *models.Payment, action models.NotificationAction) {
	m.Called(ctx, p, action)
}

func (m *MockSideEffects) TicketUpdated(ctx context.Context, t *models.SupportTicket, action models.NotificationAction) {
	m.Called(ctx, t, action)
}

func (m *MockSideEffects) AdminAccessRequested(ctx context.Context, req *models.AdminRequest) {
	m.Called(ctx, req)
}

func (m *MockSideEffects) AdminAccessDecided(ctx context.Context, req *models.AdminRequest) {
	m.Called(ctx, req)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, ownerID, hotelID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, ownerID, hotelID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockS3Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockS3Storage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
