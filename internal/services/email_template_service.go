package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

const DefaultLocale = "en-US"

// Template IDs that are not derived from a notification action.
const (
	TemplateAdminApprovalRequest = "admin_approval_request"
	TemplateAdminRequestDecided  = "admin_request_decided"
)

// BookingTemplateID and PaymentTemplateID name the e-mail sent for a notification action.
func BookingTemplateID(action models.NotificationAction) string {
	return "booking_" + string(action)
}

func PaymentTemplateID(action models.NotificationAction) string {
	return "payment_" + string(action)
}

func SupportTemplateID(action models.NotificationAction) string {
	return "support_" + string(action)
}

// Default email templates used as fallback when not found in database
var defaultEmailTemplates = map[string]models.EmailTemplate{
	"booking_created": {
		Subject: "Booking received: {{.hotel}}",
		Body:    "Hello {{.name}},\n\nWe received your booking at {{.hotel}} from {{.check_in}} to {{.check_out}} ({{.total}} {{.currency}}). It is awaiting confirmation.\n\n{{.app_name}}",
	},
	"booking_confirmed": {
		Subject: "Booking confirmed: {{.hotel}}",
		Body:    "Hello {{.name}},\n\nYour booking at {{.hotel}} from {{.check_in}} to {{.check_out}} is confirmed.\n\n{{.app_name}}",
	},
	"booking_cancelled": {
		Subject: "Booking cancelled: {{.hotel}}",
		Body:    "Hello {{.name}},\n\nYour booking at {{.hotel}} from {{.check_in}} to {{.check_out}} has been cancelled.{{if .total}} A refund of {{.total}} {{.currency}} has been issued.{{end}}\n\n{{.app_name}}",
	},
	"booking_completed": {
		Subject: "Thank you for staying at {{.hotel}}",
		Body:    "Hello {{.name}},\n\nWe hope you enjoyed your stay at {{.hotel}}. Leave a review to help other travellers.\n\n{{.app_name}}",
	},
	"booking_payment_updated": {
		Subject: "Payment status updated: {{.hotel}}",
		Body:    "Hello {{.name}},\n\nThe payment status of your booking at {{.hotel}} is now {{.status}}.\n\n{{.app_name}}",
	},
	"booking_updated": {
		Subject: "Booking updated: {{.hotel}}",
		Body:    "Hello {{.name}},\n\nYour booking at {{.hotel}} has been updated.\n\n{{.app_name}}",
	},
	"payment_paid": {
		Subject: "Payment received: {{.invoice_number}}",
		Body:    "Hello {{.name}},\n\nWe received your payment of {{.total}} {{.currency}} for invoice {{.invoice_number}}.\n\n{{.app_name}}",
	},
	"payment_refunded": {
		Subject: "Refund issued: {{.invoice_number}}",
		Body:    "Hello {{.name}},\n\nInvoice {{.invoice_number}} has been fully refunded ({{.refunded}} {{.currency}}).\n\n{{.app_name}}",
	},
	"payment_partially_refunded": {
		Subject: "Partial refund issued: {{.invoice_number}}",
		Body:    "Hello {{.name}},\n\n{{.refunded}} {{.currency}} of invoice {{.invoice_number}} has been refunded.\n\n{{.app_name}}",
	},
	"payment_invoice_created": {
		Subject: "New invoice {{.invoice_number}}",
		Body:    "Hello {{.name}},\n\nInvoice {{.invoice_number}} for {{.total}} {{.currency}} has been issued{{if .due_date}} and is due on {{.due_date}}{{end}}.\n\n{{.app_name}}",
	},
	"payment_overdue": {
		Subject: "Invoice {{.invoice_number}} is overdue",
		Body:    "Hello {{.name}},\n\nInvoice {{.invoice_number}} for {{.total}} {{.currency}} was due on {{.due_date}} and is still unpaid.\n\n{{.app_name}}",
	},
	"support_reply": {
		Subject: "New reply on your ticket: {{.subject}}",
		Body:    "Hello {{.name}},\n\nOur team replied to your support ticket \"{{.subject}}\":\n\n{{.message}}\n\n{{.app_name}}",
	},
	"support_status_changed": {
		Subject: "Ticket {{.status}}: {{.subject}}",
		Body:    "Hello {{.name}},\n\nYour support ticket \"{{.subject}}\" is now {{.status}}.\n\n{{.app_name}}",
	},
	TemplateAdminApprovalRequest: {
		Subject: "Admin access requested by {{.requester_email}}",
		Body:    "{{.requester_name}} <{{.requester_email}}> asked for admin access.\n\nReason: {{.reason}}\n\nApprove: {{.approve_url}}\nReject: {{.reject_url}}\n\nThe request expires at {{.expires_at}}.",
	},
	TemplateAdminRequestDecided: {
		Subject: "Your admin access request was {{.decision}}",
		Body:    "Hello {{.name}},\n\nYour request for admin access was {{.decision}}.\n\n{{.app_name}}",
	},
}

// IEmailTemplateService defines the interface for email template operations.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
	Render(ctx context.Context, templateID, locale string, data map[string]interface{}) (subject, body string, err error)
	SaveTemplate(ctx context.Context, template *models.EmailTemplate) error
}

// ErrTemplateNotFound is returned when neither the database nor the defaults know a template.
var ErrTemplateNotFound = errors.New("email template not found")

// EmailTemplateService handles operations related to email templates
type EmailTemplateService struct {
	db *mongo.Database
}

// NewEmailTemplateService creates a new instance of EmailTemplateService
func NewEmailTemplateService(database *mongo.Database) *EmailTemplateService {
	return &EmailTemplateService{db: database}
}

// GetTemplate retrieves an email template by ID and locale, falling back to the built-in default.
func (s *EmailTemplateService) GetTemplate(ctx context.Context, templateID string, locale string) (*models.EmailTemplate, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	var tmpl models.EmailTemplate
	err := s.db.Collection(db.EmailTemplatesCollection).FindOne(ctx, bson.M{"template_id": templateID, "locale": locale}).Decode(&tmpl)
	if err == nil {
		return &tmpl, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}
	def, ok := defaultEmailTemplates[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %s (locale: %s)", ErrTemplateNotFound, templateID, locale)
	}
	def.TemplateID = templateID
	def.Locale = DefaultLocale
	return &def, nil
}

// Render executes the template's subject and body with data. Missing keys render empty.
func (s *EmailTemplateService) Render(ctx context.Context, templateID, locale string, data map[string]interface{}) (string, string, error) {
	tmpl, err := s.GetTemplate(ctx, templateID, locale)
	if err != nil {
		return "", "", err
	}
	subject, err := execute(templateID+".subject", tmpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err := execute(templateID+".body", tmpl.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// execute renders text with data flattened to strings, so absent keys render as "".
func execute(name, text string, data map[string]interface{}) (string, error) {
	values := make(map[string]string, len(data))
	for k, v := range data {
		if v != nil {
			values[k] = fmt.Sprint(v)
		}
	}
	t, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("error rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}

// SaveTemplate saves an email template to the database
func (s *EmailTemplateService) SaveTemplate(ctx context.Context, tmpl *models.EmailTemplate) error {
	if tmpl.Locale == "" {
		tmpl.Locale = DefaultLocale
	}
	tmpl.GenIDIfEmpty()
	filter := bson.M{"template_id": tmpl.TemplateID, "locale": tmpl.Locale}
	update := bson.M{
		"$set":         bson.M{"subject": tmpl.Subject, "body": tmpl.Body, "updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"_id": tmpl.ID},
	}
	if _, err := s.db.Collection(db.EmailTemplatesCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("error saving template: %w", err)
	}
	return nil
}
