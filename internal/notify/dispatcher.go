package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/events"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/tasks"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifications is the in-app notification store.
type Notifications interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBookingNotification(ctx context.Context, booking *models.Booking, action models.NotificationAction) (*models.Notification, error)
	CreatePaymentNotification(ctx context.Context, payment *models.Payment, action models.NotificationAction) (*models.Notification, error)
}

// Users resolves recipients.
type Users interface {
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	FindAdmins(ctx context.Context) ([]models.User, error)
}

type AuditLog interface {
	Record(ctx context.Context, entry *models.SystemLog)
}

// Dispatcher turns a state change into its side effects: an in-app notification,
// a templated e-mail, a domain event and a system log entry. Every step is best
// effort; failures are logged and never reach the caller.
type Dispatcher struct {
	cfg           *config.Config
	notifications Notifications
	users         Users
	logs          AuditLog
	publisher     events.Publisher
	queue         Enqueuer
}

// NewDispatcher wires the side-effect sinks. queue may be nil, in which case no e-mail is sent.
func NewDispatcher(cfg *config.Config, notifications Notifications, users Users, logs AuditLog, publisher events.Publisher, queue Enqueuer) *Dispatcher {
	if publisher == nil {
		publisher = events.NewLogPublisher()
	}
	return &Dispatcher{
		cfg:           cfg,
		notifications: notifications,
		users:         users,
		logs:          logs,
		publisher:     publisher,
		queue:         queue,
	}
}

var bookingSubjects = map[models.NotificationAction]string{
	models.ActionBookingCreated:   events.SubjectBookingCreated,
	models.ActionBookingConfirmed: events.SubjectBookingConfirmed,
	models.ActionBookingCancelled: events.SubjectBookingCancelled,
	models.ActionBookingCompleted: events.SubjectBookingCompleted,
}

var paymentSubjects = map[models.NotificationAction]string{
	models.ActionPaymentPaid:              events.SubjectPaymentProcessed,
	models.ActionPaymentRefunded:          events.SubjectPaymentRefunded,
	models.ActionPaymentPartiallyRefunded: events.SubjectPaymentRefunded,
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// BookingChanged runs the side effects of a booking state change.
func (d *Dispatcher) BookingChanged(ctx context.Context, b *models.Booking, action models.NotificationAction) {
	if _, err := d.notifications.CreateBookingNotification(ctx, b, action); err != nil {
		log.Printf("Error creating %s notification for booking %s: %v", action, b.ID, err)
	}

	data := map[string]interface{}{
		"hotel":     b.Hotel.Name,
		"check_in":  b.CheckIn.Format("2006-01-02"),
		"check_out": b.CheckOut.Format("2006-01-02"),
		"total":     money(b.TotalAmount),
		"currency":  b.Currency,
		"status":    string(b.PaymentStatus),
	}
	if b.TotalAmount <= 0 {
		data["total"] = ""
	}
	d.emailUser(ctx, b.UserID, models.NotificationTypeBooking, services.BookingTemplateID(action), data)

	subject, ok := bookingSubjects[action]
	if !ok {
		subject = "bookings." + string(action)
	}
	d.publish(ctx, subject, map[string]interface{}{
		"booking_id":     b.ID.String(),
		"user_id":        b.UserID.String(),
		"hotel_id":       b.Hotel.ID.String(),
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
		"total_amount":   b.TotalAmount,
		"currency":       b.Currency,
	})

	userID := b.UserID
	d.logs.Record(ctx, &models.SystemLog{
		Category: models.LogCategoryBooking,
		Message:  fmt.Sprintf("Booking %s %s", b.ID, action),
		UserID:   &userID,
		Metadata: map[string]interface{}{"booking_id": b.ID.String(), "status": string(b.Status)},
	})
}

// PaymentChanged runs the side effects of a payment state change.
func (d *Dispatcher) PaymentChanged(ctx context.Context, p *models.Payment, action models.NotificationAction) {
	if _, err := d.notifications.CreatePaymentNotification(ctx, p, action); err != nil {
		log.Printf("Error creating %s notification for payment %s: %v", action, p.ID, err)
	}

	data := map[string]interface{}{
		"invoice_number": p.InvoiceNumber,
		"total":          money(p.Total),
		"refunded":       money(p.TotalRefunded),
		"currency":       p.Currency,
	}
	if p.DueDate != nil {
		data["due_date"] = p.DueDate.Format("2006-01-02")
	}
	d.emailUser(ctx, p.UserID, models.NotificationTypePayment, services.PaymentTemplateID(action), data)

	subject, ok := paymentSubjects[action]
	if !ok {
		subject = events.SubjectPaymentUpdated
	}
	payload := map[string]interface{}{
		"payment_id":     p.ID.String(),
		"invoice_number": p.InvoiceNumber,
		"user_id":        p.UserID.String(),
		"status":         p.Status,
		"total":          p.Total,
		"total_refunded": p.TotalRefunded,
		"currency":       p.Currency,
	}
	if p.BookingID != nil {
		payload["booking_id"] = p.BookingID.String()
	}
	d.publish(ctx, subject, payload)

	level := models.LogLevelInfo
	if action == models.ActionPaymentOverdue {
		level = models.LogLevelWarning
	}
	userID := p.UserID
	d.logs.Record(ctx, &models.SystemLog{
		Level:    level,
		Category: models.LogCategoryPayment,
		Message:  fmt.Sprintf("Payment %s %s", p.InvoiceNumber, action),
		UserID:   &userID,
		Metadata: map[string]interface{}{"payment_id": p.ID.String(), "status": string(p.Status)},
	})
}

// TicketUpdated tells the ticket owner about a staff reply or a status change.
func (d *Dispatcher) TicketUpdated(ctx context.Context, t *models.SupportTicket, action models.NotificationAction) {
	title := "Support ticket updated"
	message := fmt.Sprintf("Your ticket \"%s\" is now %s.", t.Subject, t.Status)
	last := ""
	if len(t.Messages) > 0 {
		last = t.Messages[len(t.Messages)-1].Body
	}
	if action == models.ActionSupportReply {
		title = "New reply from support"
		message = fmt.Sprintf("Our team replied to your ticket \"%s\".", t.Subject)
	}

	n := &models.Notification{
		UserID:  t.UserID,
		Type:    models.NotificationTypeSupport,
		Action:  action,
		Title:   title,
		Message: message,
		Data:    map[string]interface{}{"ticket_id": t.ID.String(), "status": string(t.Status)},
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		log.Printf("Error creating %s notification for ticket %s: %v", action, t.ID, err)
	}

	d.emailUser(ctx, t.UserID, models.NotificationTypeSupport, services.SupportTemplateID(action), map[string]interface{}{
		"subject": t.Subject,
		"status":  string(t.Status),
		"message": last,
	})
	d.publish(ctx, events.SubjectSupportUpdated, map[string]interface{}{
		"ticket_id": t.ID.String(),
		"user_id":   t.UserID.String(),
		"action":    action,
		"status":    t.Status,
	})
	d.logs.Record(ctx, &models.SystemLog{
		Category: models.LogCategorySupport,
		Message:  fmt.Sprintf("Ticket %s %s", t.ID, action),
		Metadata: map[string]interface{}{"ticket_id": t.ID.String()},
	})
}

// AdminAccessRequested e-mails the approval link to the configured approver and
// notifies every current admin.
func (d *Dispatcher) AdminAccessRequested(ctx context.Context, req *models.AdminRequest) {
	verifyURL := fmt.Sprintf("%s/api/auth/admin-verification/%s", d.cfg.PublicBaseURL, req.Token)
	data := map[string]interface{}{
		"requester_name":  req.Name,
		"requester_email": req.Email,
		"reason":          req.Reason,
		"approve_url":     verifyURL + "?decision=approve",
		"reject_url":      verifyURL + "?decision=reject",
		"expires_at":      req.ExpiresAt.Format("2006-01-02 15:04 MST"),
	}
	if d.cfg.AdminApprovalEmail != "" {
		d.enqueueEmail(ctx, d.cfg.AdminApprovalEmail, services.TemplateAdminApprovalRequest, data, asynq.Queue(tasks.QueueCritical))
	} else {
		log.Printf("ADMIN_APPROVAL_EMAIL not set, admin request %s is only visible on the dashboard", req.ID)
	}

	admins, err := d.users.FindAdmins(ctx)
	if err != nil {
		log.Printf("Error loading admins to notify about request %s: %v", req.ID, err)
	}
	for _, admin := range admins {
		n := &models.Notification{
			UserID:  admin.ID,
			Type:    models.NotificationTypeAdmin,
			Action:  models.ActionAdminRequested,
			Title:   "Admin access requested",
			Message: fmt.Sprintf("%s (%s) asked for admin access.", req.Name, req.Email),
			Data:    map[string]interface{}{"request_id": req.ID.String(), "user_id": req.UserID.String()},
		}
		if err := d.notifications.Create(ctx, n); err != nil {
			log.Printf("Error notifying admin %s about request %s: %v", admin.ID, req.ID, err)
		}
	}

	d.publish(ctx, events.SubjectAdminRequested, map[string]interface{}{
		"request_id": req.ID.String(),
		"user_id":    req.UserID.String(),
		"expires_at": req.ExpiresAt,
	})
	userID := req.UserID
	d.logs.Record(ctx, &models.SystemLog{
		Category: models.LogCategoryAdmin,
		Message:  fmt.Sprintf("Admin access requested by %s", req.Email),
		UserID:   &userID,
		Metadata: map[string]interface{}{"request_id": req.ID.String()},
	})
}

// AdminAccessDecided tells the requester how their request was decided.
func (d *Dispatcher) AdminAccessDecided(ctx context.Context, req *models.AdminRequest) {
	action := models.ActionAdminRejected
	if req.Status == models.AdminRequestApproved {
		action = models.ActionAdminApproved
	}
	n := &models.Notification{
		UserID:  req.UserID,
		Type:    models.NotificationTypeAdmin,
		Action:  action,
		Title:   "Admin access " + string(req.Status),
		Message: fmt.Sprintf("Your request for admin access was %s.", req.Status),
		Data:    map[string]interface{}{"request_id": req.ID.String()},
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		log.Printf("Error notifying %s about admin request %s: %v", req.Email, req.ID, err)
	}

	d.emailUser(ctx, req.UserID, models.NotificationTypeAdmin, services.TemplateAdminRequestDecided, map[string]interface{}{
		"decision": string(req.Status),
	})
	d.publish(ctx, events.SubjectAdminDecided, map[string]interface{}{
		"request_id": req.ID.String(),
		"user_id":    req.UserID.String(),
		"status":     req.Status,
	})

	entry := &models.SystemLog{
		Category: models.LogCategoryAdmin,
		Message:  fmt.Sprintf("Admin request of %s %s", req.Email, req.Status),
		UserID:   req.DecidedBy,
		Metadata: map[string]interface{}{"request_id": req.ID.String(), "requester_id": req.UserID.String()},
	}
	d.logs.Record(ctx, entry)
}

// emailUser queues a templated e-mail when the user accepts e-mail of type t.
func (d *Dispatcher) emailUser(ctx context.Context, userID utils.SixID, t models.NotificationType, templateID string, data map[string]interface{}) {
	if d.queue == nil {
		return
	}
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Error loading user %s for %s e-mail: %v", userID, templateID, err)
		return
	}
	if !user.WantsEmail(t) {
		return
	}
	data["name"] = user.Name
	d.enqueueEmail(ctx, user.Email, templateID, data, asynq.Queue(tasks.QueueDefault))
}

func (d *Dispatcher) enqueueEmail(ctx context.Context, to, templateID string, data map[string]interface{}, opts ...asynq.Option) {
	if d.queue == nil {
		return
	}
	if _, ok := data["app_name"]; !ok {
		data["app_name"] = d.cfg.AppName
	}
	task, err := tasks.NewEmailTask(tasks.EmailTaskPayload{To: to, TemplateID: templateID, Data: data})
	if err != nil {
		log.Printf("Error building %s e-mail to %s: %v", templateID, to, err)
		return
	}
	if _, err := d.queue.EnqueueContext(ctx, task, opts...); err != nil {
		log.Printf("Error enqueueing %s e-mail to %s: %v", templateID, to, err)
	}
}

func (d *Dispatcher) publish(ctx context.Context, subject string, data interface{}) {
	if err := d.publisher.Publish(ctx, subject, data); err != nil {
		log.Printf("Error publishing %s: %v", subject, err)
	}
}
