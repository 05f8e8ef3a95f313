package services

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
)

// Registry holds one instance of every service, wired in dependency order.
type Registry struct {
	Users         IUserService
	Settings      ISettingsService
	Hotels        IHotelService
	Payments      IPaymentService
	Bookings      IBookingService
	Reviews       IReviewService
	Tickets       ISupportTicketService
	Notifications INotificationService
	Logs          ISystemLogService
	Dashboard     IDashboardService
	Approvals     IAdminApprovalService
	Templates     *EmailTemplateService
}

func NewRegistry(database *mongo.Database, cfg *config.Config, rdb *redis.Client) *Registry {
	r := &Registry{}
	r.Users = NewUserService(database)
	r.Settings = NewSettingsService(database, cfg, rdb)
	r.Hotels = NewHotelService(database, cfg, rdb)
	r.Payments = NewPaymentService(database, cfg, r.Settings, r.Users)
	r.Bookings = NewBookingService(database, cfg, r.Settings, r.Hotels, r.Payments)
	r.Reviews = NewReviewService(database, r.Users, r.Hotels, r.Bookings)
	r.Tickets = NewSupportTicketService(database)
	r.Notifications = NewNotificationService(database)
	r.Logs = NewSystemLogService(database)
	r.Dashboard = NewDashboardService(database, r.Users, r.Hotels, r.Logs)
	r.Approvals = NewAdminApprovalService(database, cfg, r.Users)
	r.Templates = NewEmailTemplateService(database)
	return r
}
