package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// INotificationService stores in-app notifications.
type INotificationService interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBookingNotification(ctx context.Context, booking *models.Booking, action models.NotificationAction) (*models.Notification, error)
	CreatePaymentNotification(ctx context.Context, payment *models.Payment, action models.NotificationAction) (*models.Notification, error)
	ListForUser(ctx context.Context, userID utils.SixID, unreadOnly bool, page Page) (*PagedResult[models.Notification], error)
	CountUnread(ctx context.Context, userID utils.SixID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID utils.SixID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID utils.SixID) (int64, error)
	Delete(ctx context.Context, userID, notificationID utils.SixID) error
}

type notificationService struct {
	db *mongo.Database
}

func NewNotificationService(database *mongo.Database) INotificationService {
	return &notificationService{db: database}
}

func (s *notificationService) coll() *mongo.Collection {
	return s.db.Collection(db.NotificationsCollection)
}

// BookingNotificationText returns the title and message for a booking change.
func BookingNotificationText(b *models.Booking, action models.NotificationAction) (string, string) {
	hotel := b.Hotel.Name
	if hotel == "" {
		hotel = "your hotel"
	}
	stay := fmt.Sprintf("%s, %s to %s", hotel, b.CheckIn.Format("2006-01-02"), b.CheckOut.Format("2006-01-02"))
	switch action {
	case models.ActionBookingCreated:
		return "Booking received", fmt.Sprintf("Your booking at %s has been received and is awaiting confirmation.", stay)
	case models.ActionBookingConfirmed:
		return "Booking confirmed", fmt.Sprintf("Your booking at %s is confirmed.", stay)
	case models.ActionBookingCancelled:
		msg := fmt.Sprintf("Your booking at %s has been cancelled.", stay)
		if b.TotalAmount > 0 {
			msg += fmt.Sprintf(" A refund of %.2f %s has been issued.", b.TotalAmount, b.Currency)
		}
		return "Booking cancelled", msg
	case models.ActionBookingCompleted:
		return "Stay completed", fmt.Sprintf("Thank you for staying at %s. We would love to hear your review.", hotel)
	case models.ActionBookingPaymentUpdated:
		return "Payment status updated", fmt.Sprintf("The payment status of your booking at %s is now %s.", stay, b.PaymentStatus)
	}
	return "Booking updated", fmt.Sprintf("Your booking at %s has been updated.", stay)
}

// PaymentNotificationText returns the title and message for a payment change.
func PaymentNotificationText(p *models.Payment, action models.NotificationAction) (string, string) {
	switch action {
	case models.ActionPaymentPaid:
		return "Payment received", fmt.Sprintf("We received your payment of %.2f %s (invoice %s).", p.Total, p.Currency, p.InvoiceNumber)
	case models.ActionPaymentRefunded:
		return "Payment refunded", fmt.Sprintf("Invoice %s has been fully refunded: %.2f %s.", p.InvoiceNumber, p.TotalRefunded, p.Currency)
	case models.ActionPaymentPartiallyRefunded:
		return "Partial refund issued", fmt.Sprintf("%.2f %s of invoice %s has been refunded so far.", p.TotalRefunded, p.Currency, p.InvoiceNumber)
	case models.ActionPaymentInvoiceCreated:
		msg := fmt.Sprintf("Invoice %s for %.2f %s has been issued.", p.InvoiceNumber, p.Total, p.Currency)
		if p.DueDate != nil {
			msg += fmt.Sprintf(" It is due on %s.", p.DueDate.Format("2006-01-02"))
		}
		return "New invoice", msg
	case models.ActionPaymentOverdue:
		return "Invoice overdue", fmt.Sprintf("Invoice %s for %.2f %s is past its due date.", p.InvoiceNumber, p.Total, p.Currency)
	}
	return "Payment updated", fmt.Sprintf("Invoice %s is now %s.", p.InvoiceNumber, p.Status)
}

func (s *notificationService) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return db.InsertOne(ctx, s.coll(), n)
}

func (s *notificationService) CreateBookingNotification(ctx context.Context, booking *models.Booking, action models.NotificationAction) (*models.Notification, error) {
	title, message := BookingNotificationText(booking, action)
	n := &models.Notification{
		UserID:  booking.UserID,
		Type:    models.NotificationTypeBooking,
		Action:  action,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"booking_id":     booking.ID.String(),
			"status":         string(booking.Status),
			"payment_status": string(booking.PaymentStatus),
		},
	}
	if err := s.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notificationService) CreatePaymentNotification(ctx context.Context, payment *models.Payment, action models.NotificationAction) (*models.Notification, error) {
	title, message := PaymentNotificationText(payment, action)
	data := map[string]interface{}{
		"payment_id":     payment.ID.String(),
		"invoice_number": payment.InvoiceNumber,
		"status":         string(payment.Status),
	}
	if payment.BookingID != nil {
		data["booking_id"] = payment.BookingID.String()
	}
	n := &models.Notification{
		UserID:  payment.UserID,
		Type:    models.NotificationTypePayment,
		Action:  action,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := s.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID utils.SixID, unreadOnly bool, page Page) (*PagedResult[models.Notification], error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	return findPage[models.Notification](ctx, s.coll(), filter, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}

func (s *notificationService) CountUnread(ctx context.Context, userID utils.SixID) (int64, error) {
	return s.coll().CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID utils.SixID) (*models.Notification, error) {
	now := time.Now().UTC()
	var n models.Notification
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": notificationID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true, "read_at": now}},
		returnAfter(),
	).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error marking notification %s read: %w", notificationID, err)
	}
	return &n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID utils.SixID) (int64, error) {
	res, err := s.coll().UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, notificationID utils.SixID) error {
	res, err := s.coll().DeleteOne(ctx, bson.M{"_id": notificationID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("error deleting notification %s: %w", notificationID, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
