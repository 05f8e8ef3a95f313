package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// ProcessPaymentInput describes a payment for a booking. Amount 0 means the booking total.
type ProcessPaymentInput struct {
	BookingID       utils.SixID
	PaymentMethod   string
	PaymentMethodID string
	Amount          float64
	Currency        string
	IdempotencyKey  string
}

// InvoiceInput describes a manually issued invoice. Nil TaxRate and DueDate use the settings.
type InvoiceInput struct {
	UserID    utils.SixID
	BookingID *utils.SixID
	Items     []models.PaymentLineItem
	Currency  string
	TaxRate   *float64
	Discount  float64
	DueDate   *time.Time
	Notes     string
}

// PaymentFilter narrows payment lists. Zero values are ignored.
type PaymentFilter struct {
	Status    models.PaymentStatus
	UserID    *utils.SixID
	BookingID *utils.SixID
}

// InvoiceCustomer is the billed party printed on an invoice.
type InvoiceCustomer struct {
	ID    utils.SixID `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Phone string      `json:"phone,omitempty"`
}

// InvoiceBooking is the stay printed on an invoice.
type InvoiceBooking struct {
	ID       utils.SixID          `json:"id"`
	Hotel    models.HotelSnapshot `json:"hotel"`
	RoomType string               `json:"room_type"`
	CheckIn  time.Time            `json:"check_in"`
	CheckOut time.Time            `json:"check_out"`
	Nights   int                  `json:"nights"`
	Guests   int                  `json:"guests"`
}

// Invoice is the printable view of a payment.
type Invoice struct {
	PaymentID     utils.SixID              `json:"payment_id"`
	InvoiceNumber string                   `json:"invoice_number"`
	IssuedAt      time.Time                `json:"issued_at"`
	DueDate       *time.Time               `json:"due_date,omitempty"`
	PaidAt        *time.Time               `json:"paid_at,omitempty"`
	Status        models.PaymentStatus     `json:"status"`
	Customer      InvoiceCustomer          `json:"customer"`
	Booking       *InvoiceBooking          `json:"booking,omitempty"`
	Items         []models.PaymentLineItem `json:"items"`
	Currency      string                   `json:"currency"`
	Subtotal      float64                  `json:"subtotal"`
	TaxRate       float64                  `json:"tax_rate"`
	Tax           float64                  `json:"tax"`
	Discount      float64                  `json:"discount"`
	Total         float64                  `json:"total"`
	Refunds       []models.Refund          `json:"refunds"`
	TotalRefunded float64                  `json:"total_refunded"`
	AmountDue     float64                  `json:"amount_due"`
	PaymentMethod string                   `json:"payment_method,omitempty"`
	TransactionID string                   `json:"transaction_id,omitempty"`
}

// InvoicePDFMetadata describes the PDF rendition of an invoice.
type InvoicePDFMetadata struct {
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	InvoiceNumber string    `json:"invoice_number"`
	GeneratedAt   time.Time `json:"generated_at"`
	InvoiceURL    string    `json:"invoice_url"`
}

// IPaymentService handles payments, invoices and refunds.
type IPaymentService interface {
	ProcessPayment(ctx context.Context, actor Actor, in ProcessPaymentInput) (payment *models.Payment, replayed bool, err error)
	ProcessRefund(ctx context.Context, paymentID utils.SixID, amount *float64, reason string, adminID utils.SixID) (*models.Payment, error)
	RefundBookingPayments(ctx context.Context, booking *models.Booking, reason string, actorID utils.SixID) ([]models.Payment, error)
	UpdateBookingPaymentStatus(ctx context.Context, bookingID utils.SixID, status models.BookingPaymentStatus, notes string) (*models.Booking, error)
	CreateInvoice(ctx context.Context, in InvoiceInput) (*models.Payment, error)
	UpdateStatus(ctx context.Context, paymentID utils.SixID, status models.PaymentStatus) (*models.Payment, error)
	FindByID(ctx context.Context, paymentID utils.SixID) (*models.Payment, error)
	GetForActor(ctx context.Context, actor Actor, paymentID utils.SixID) (*models.Payment, error)
	GetInvoice(ctx context.Context, actor Actor, paymentID utils.SixID) (*Invoice, error)
	GetInvoicePDFMetadata(ctx context.Context, actor Actor, paymentID utils.SixID) (*InvoicePDFMetadata, error)
	GenerateInvoiceNumber(ctx context.Context, year int) (string, error)
	FindOverdue(ctx context.Context, now time.Time) ([]models.Payment, error)
	MarkOverdueNotified(ctx context.Context, paymentID utils.SixID) (bool, error)
	List(ctx context.Context, filter PaymentFilter, page Page) (*PagedResult[models.Payment], error)
}

type paymentService struct {
	db       *mongo.Database
	cfg      *config.Config
	settings ISettingsService
	users    IUserService
}

// NewPaymentService creates a payment service.
func NewPaymentService(database *mongo.Database, cfg *config.Config, settings ISettingsService, users IUserService) IPaymentService {
	return &paymentService{db: database, cfg: cfg, settings: settings, users: users}
}

func (s *paymentService) coll() *mongo.Collection {
	return s.db.Collection(db.PaymentsCollection)
}

func (s *paymentService) bookings() *mongo.Collection {
	return s.db.Collection(db.BookingsCollection)
}

func newTransactionID() string {
	return "txn_" + uuid.NewString()
}

// GenerateInvoiceNumber takes the next number of the year's counter.
func (s *paymentService) GenerateInvoiceNumber(ctx context.Context, year int) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	// Two first-of-year upserts may race on the counter _id; the loser retries and increments.
	err := db.Try(func() error {
		return s.db.Collection(db.CountersCollection).FindOneAndUpdate(ctx,
			bson.M{"_id": fmt.Sprintf("invoice-%d", year)},
			bson.M{"$inc": bson.M{"seq": 1}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&counter)
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%d-%05d", year, counter.Seq), nil
}

func (s *paymentService) findBooking(ctx context.Context, bookingID utils.SixID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.bookings().FindOne(ctx, bson.M{"_id": bookingID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (s *paymentService) setBookingPaymentStatus(ctx context.Context, bookingID utils.SixID, status models.BookingPaymentStatus) {
	_, err := s.bookings().UpdateOne(ctx, bson.M{"_id": bookingID},
		bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		log.Printf("Error setting payment status of booking %s to %s: %v", bookingID, status, err)
	}
}

func stayLineItem(b *models.Booking, amount float64) models.PaymentLineItem {
	return models.PaymentLineItem{
		Description: fmt.Sprintf("Stay at %s, %s room, %d night(s)", b.Hotel.Name, b.RoomType, b.Nights()),
		Quantity:    1,
		UnitPrice:   amount,
		Amount:      amount,
	}
}

// newBookingPayment builds a payment covering amount of the booking.
func (s *paymentService) newBookingPayment(ctx context.Context, b *models.Booking, amount float64, currency string) (*models.Payment, error) {
	now := time.Now().UTC()
	number, err := s.GenerateInvoiceNumber(ctx, now.Year())
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = b.Currency
	}
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	bookingID := b.ID
	p := &models.Payment{
		UserID:        b.UserID,
		BookingID:     &bookingID,
		InvoiceNumber: number,
		Items:         []models.PaymentLineItem{stayLineItem(b, models.RoundMoney(amount))},
		Currency:      strings.ToUpper(currency),
		Status:        models.PaymentStatusPending,
		Refunds:       []models.Refund{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.ComputeTotals()
	return p, nil
}

func (s *paymentService) findByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	var p models.Payment
	if err := s.coll().FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProcessPayment records a successful payment for the caller's booking. Calls carrying the
// same idempotency key return the first payment with replayed set; calls without a key
// always insert.
func (s *paymentService) ProcessPayment(ctx context.Context, actor Actor, in ProcessPaymentInput) (*models.Payment, bool, error) {
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		existing, err := s.findByIdempotencyKey(ctx, key)
		if err == nil {
			if existing.UserID != actor.ID {
				return nil, false, ErrForbidden
			}
			return existing, true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, fmt.Errorf("error checking idempotency key: %w", err)
		}
	}

	booking, err := s.findBooking(ctx, in.BookingID)
	if err != nil {
		return nil, false, err
	}
	if booking.UserID != actor.ID {
		return nil, false, ErrForbidden
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, false, fmt.Errorf("booking %s is cancelled: %w", booking.ID, ErrInvalidTransition)
	}
	if in.Amount < 0 {
		return nil, false, ErrInvalidAmount
	}
	amount := in.Amount
	if amount == 0 {
		amount = booking.TotalAmount
	}

	p, err := s.newBookingPayment(ctx, booking, amount, in.Currency)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	p.Status = models.PaymentStatusPaid
	p.PaymentMethod = in.PaymentMethod
	p.PaymentMethodID = in.PaymentMethodID
	p.TransactionID = newTransactionID()
	p.IdempotencyKey = key
	p.PaidAt = &now

	var replay *models.Payment
	err = db.Try(func() error {
		p.GenID()
		_, err := s.coll().InsertOne(ctx, p)
		if err != nil && key != "" && db.IsMongoDuplicateKeyError(err) {
			if existing, ferr := s.findByIdempotencyKey(ctx, key); ferr == nil {
				replay = existing
				return nil
			}
		}
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert payment: %w", err)
	}
	if replay != nil {
		if replay.UserID != actor.ID {
			return nil, false, ErrForbidden
		}
		return replay, true, nil
	}

	s.setBookingPaymentStatus(ctx, booking.ID, models.BookingPaymentPaid)
	return p, false, nil
}

// applyRefund appends a completed refund under an optimistic version check and
// returns the updated payment. A nil amount refunds whatever is left.
func (s *paymentService) applyRefund(ctx context.Context, paymentID utils.SixID, amount *float64, reason string, processedBy *utils.SixID) (*models.Payment, error) {
	var updated *models.Payment
	err := db.TryVersioned(func() error {
		p, err := s.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if !p.Status.Refundable() {
			return fmt.Errorf("payment %s is %s: %w", p.ID, p.Status, ErrInvalidTransition)
		}
		remaining := p.RefundableAmount()
		value := remaining
		if amount != nil {
			value = models.RoundMoney(*amount)
		}
		if value <= 0 || value > remaining {
			return fmt.Errorf("refund of %.2f with %.2f left: %w", value, remaining, ErrInvalidRefundAmount)
		}

		now := time.Now().UTC()
		p.Refunds = append(p.Refunds, models.Refund{
			ID:            utils.NewSixID(),
			Amount:        value,
			Reason:        reason,
			Status:        models.RefundStatusCompleted,
			TransactionID: newTransactionID(),
			ProcessedBy:   processedBy,
			CreatedAt:     now,
		})
		p.TotalRefunded = p.CompletedRefundTotal()
		p.Status = p.StatusAfterRefunds()

		res, err := s.coll().UpdateOne(ctx,
			bson.M{"_id": p.ID, "version": p.Version},
			bson.M{
				"$set": bson.M{"refunds": p.Refunds, "total_refunded": p.TotalRefunded, "status": p.Status, "updated_at": now},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return fmt.Errorf("error saving refund on payment %s: %w", p.ID, err)
		}
		if res.MatchedCount == 0 {
			return ErrVersionConflict
		}
		p.Version++
		p.UpdatedAt = now
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *paymentService) ProcessRefund(ctx context.Context, paymentID utils.SixID, amount *float64, reason string, adminID utils.SixID) (*models.Payment, error) {
	p, err := s.applyRefund(ctx, paymentID, amount, reason, &adminID)
	if err != nil {
		return nil, err
	}
	if p.BookingID != nil {
		s.setBookingPaymentStatus(ctx, *p.BookingID, p.Status.BookingPaymentStatus())
	}
	return p, nil
}

// RefundBookingPayments settles the payments of a cancelled booking: money taken is refunded in
// full, unpaid invoices are cancelled, and when nothing was ever refunded for a booking with a
// positive total a refunded payment is recorded for it. Returns the refunded payments.
func (s *paymentService) RefundBookingPayments(ctx context.Context, booking *models.Booking, reason string, actorID utils.SixID) ([]models.Payment, error) {
	cursor, err := s.coll().Find(ctx, bson.M{"booking_id": booking.ID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing payments of booking %s: %w", booking.ID, err)
	}
	var existing []models.Payment
	if err := cursor.All(ctx, &existing); err != nil {
		return nil, fmt.Errorf("error decoding payments of booking %s: %w", booking.ID, err)
	}

	var refunded []models.Payment
	hasRefund := false
	for _, p := range existing {
		switch {
		case p.Status.Refundable() && p.RefundableAmount() > 0:
			updated, err := s.applyRefund(ctx, p.ID, nil, reason, &actorID)
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrInvalidRefundAmount) {
				// Refunded in full by someone else after it was listed.
				hasRefund = true
				continue
			}
			if err != nil {
				return refunded, err
			}
			refunded = append(refunded, *updated)
			hasRefund = true
		case p.Status == models.PaymentStatusRefunded || p.Status == models.PaymentStatusPartiallyRefunded:
			hasRefund = true
		case p.Status == models.PaymentStatusPending || p.Status == models.PaymentStatusFailed:
			_, err := s.coll().UpdateOne(ctx, bson.M{"_id": p.ID, "status": p.Status},
				bson.M{"$set": bson.M{"status": models.PaymentStatusCancelled, "updated_at": time.Now().UTC()}, "$inc": bson.M{"version": 1}})
			if err != nil {
				log.Printf("Error cancelling unpaid payment %s of booking %s: %v", p.ID, booking.ID, err)
			}
		}
	}

	if hasRefund || booking.TotalAmount <= 0 {
		return refunded, nil
	}

	p, err := s.newBookingPayment(ctx, booking, booking.TotalAmount, "")
	if err != nil {
		return refunded, err
	}
	now := time.Now().UTC()
	p.Status = models.PaymentStatusRefunded
	p.TransactionID = newTransactionID()
	p.Refunds = []models.Refund{{
		ID:            utils.NewSixID(),
		Amount:        p.Total,
		Reason:        reason,
		Status:        models.RefundStatusCompleted,
		TransactionID: newTransactionID(),
		ProcessedBy:   &actorID,
		CreatedAt:     now,
	}}
	p.TotalRefunded = p.Total
	if err := db.InsertOne(ctx, s.coll(), p); err != nil {
		return refunded, err
	}
	return append(refunded, *p), nil
}

// UpdateBookingPaymentStatus sets a booking's payment status by hand. Marking it paid
// also makes sure a paid payment exists for it.
func (s *paymentService) UpdateBookingPaymentStatus(ctx context.Context, bookingID utils.SixID, status models.BookingPaymentStatus, notes string) (*models.Booking, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown payment status %q: %w", status, ErrInvalidTransition)
	}
	set := bson.M{"payment_status": status, "updated_at": time.Now().UTC()}
	if notes != "" {
		set["payment_notes"] = notes
	}
	var booking models.Booking
	err := s.bookings().FindOneAndUpdate(ctx, bson.M{"_id": bookingID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating payment status of booking %s: %w", bookingID, err)
	}

	if status == models.BookingPaymentPaid {
		if err := s.ensurePaidPayment(ctx, &booking); err != nil {
			return nil, err
		}
	}
	return &booking, nil
}

func (s *paymentService) ensurePaidPayment(ctx context.Context, booking *models.Booking) error {
	cursor, err := s.coll().Find(ctx, bson.M{"booking_id": booking.ID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return fmt.Errorf("error listing payments of booking %s: %w", booking.ID, err)
	}
	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return fmt.Errorf("error decoding payments of booking %s: %w", booking.ID, err)
	}

	now := time.Now().UTC()
	for _, p := range payments {
		if p.Status == models.PaymentStatusPaid {
			return nil
		}
	}
	for _, p := range payments {
		if p.Status == models.PaymentStatusPending || p.Status == models.PaymentStatusFailed {
			_, err := s.coll().UpdateOne(ctx, bson.M{"_id": p.ID, "status": p.Status}, bson.M{
				"$set": bson.M{"status": models.PaymentStatusPaid, "paid_at": now, "transaction_id": newTransactionID(), "updated_at": now},
				"$inc": bson.M{"version": 1},
			})
			if err != nil {
				return fmt.Errorf("error marking payment %s paid: %w", p.ID, err)
			}
			return nil
		}
	}

	p, err := s.newBookingPayment(ctx, booking, booking.TotalAmount, "")
	if err != nil {
		return err
	}
	p.Status = models.PaymentStatusPaid
	p.PaymentMethod = "manual"
	p.TransactionID = newTransactionID()
	p.PaidAt = &now
	return db.InsertOne(ctx, s.coll(), p)
}

func (s *paymentService) CreateInvoice(ctx context.Context, in InvoiceInput) (*models.Payment, error) {
	if len(in.Items) == 0 {
		return nil, errors.New("invoice needs at least one item")
	}
	if in.Discount < 0 {
		return nil, errors.New("discount must not be negative")
	}
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	if in.BookingID != nil {
		if _, err := s.findBooking(ctx, *in.BookingID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	taxRate := s.settings.GetFloat64(ctx, SettingTaxRate, s.cfg.TaxRate)
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	due := in.DueDate
	if due == nil {
		d := now.AddDate(0, 0, s.settings.GetInt(ctx, SettingInvoiceDueDays, s.cfg.InvoiceDueDays))
		due = &d
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = s.settings.GetString(ctx, SettingDefaultCurrency, s.cfg.DefaultCurrency)
	}
	number, err := s.GenerateInvoiceNumber(ctx, now.Year())
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		UserID:        in.UserID,
		BookingID:     in.BookingID,
		InvoiceNumber: number,
		Items:         in.Items,
		Currency:      currency,
		TaxRate:       taxRate,
		Discount:      models.RoundMoney(in.Discount),
		Status:        models.PaymentStatusPending,
		Refunds:       []models.Refund{},
		Notes:         in.Notes,
		DueDate:       due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	p.ComputeTotals()
	if err := db.InsertOne(ctx, s.coll(), p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus applies a manual status change allowed by the payment state machine.
func (s *paymentService) UpdateStatus(ctx context.Context, paymentID utils.SixID, status models.PaymentStatus) (*models.Payment, error) {
	current, err := s.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(status) {
		return nil, fmt.Errorf("payment %s cannot go from %s to %s: %w", paymentID, current.Status, status, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	set := bson.M{"status": status, "updated_at": now}
	if status == models.PaymentStatusPaid {
		set["paid_at"] = now
		if current.TransactionID == "" {
			set["transaction_id"] = newTransactionID()
		}
	}
	var updated models.Payment
	err = s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": paymentID, "status": current.Status},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("payment %s changed concurrently: %w", paymentID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("error updating payment %s: %w", paymentID, err)
	}
	if updated.BookingID != nil && status == models.PaymentStatusPaid {
		s.setBookingPaymentStatus(ctx, *updated.BookingID, models.BookingPaymentPaid)
	}
	return &updated, nil
}

func (s *paymentService) FindByID(ctx context.Context, paymentID utils.SixID) (*models.Payment, error) {
	var p models.Payment
	if err := s.coll().FindOne(ctx, bson.M{"_id": paymentID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding payment %s: %w", paymentID, err)
	}
	return &p, nil
}

func (s *paymentService) GetForActor(ctx context.Context, actor Actor, paymentID utils.SixID) (*models.Payment, error) {
	p, err := s.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(p.UserID) {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *paymentService) GetInvoice(ctx context.Context, actor Actor, paymentID utils.SixID) (*Invoice, error) {
	p, err := s.GetForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		PaymentID:     p.ID,
		InvoiceNumber: p.InvoiceNumber,
		IssuedAt:      p.CreatedAt,
		DueDate:       p.DueDate,
		PaidAt:        p.PaidAt,
		Status:        p.Status,
		Customer:      InvoiceCustomer{ID: p.UserID},
		Items:         p.Items,
		Currency:      p.Currency,
		Subtotal:      p.Subtotal,
		TaxRate:       p.TaxRate,
		Tax:           p.Tax,
		Discount:      p.Discount,
		Total:         p.Total,
		Refunds:       p.Refunds,
		TotalRefunded: p.TotalRefunded,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
	}
	if p.Status == models.PaymentStatusPending || p.Status == models.PaymentStatusFailed {
		inv.AmountDue = p.Total
	}
	if inv.Refunds == nil {
		inv.Refunds = []models.Refund{}
	}

	if user, err := s.users.FindByID(ctx, p.UserID); err == nil {
		inv.Customer.Name = user.Name
		inv.Customer.Email = user.Email
		inv.Customer.Phone = user.Phone
	} else {
		log.Printf("Warning: invoice %s customer %s not found: %v", p.InvoiceNumber, p.UserID, err)
	}
	if p.BookingID != nil {
		if b, err := s.findBooking(ctx, *p.BookingID); err == nil {
			inv.Booking = &InvoiceBooking{
				ID:       b.ID,
				Hotel:    b.Hotel,
				RoomType: b.RoomType,
				CheckIn:  b.CheckIn,
				CheckOut: b.CheckOut,
				Nights:   b.Nights(),
				Guests:   b.Guests,
			}
		}
	}
	return inv, nil
}

func (s *paymentService) GetInvoicePDFMetadata(ctx context.Context, actor Actor, paymentID utils.SixID) (*InvoicePDFMetadata, error) {
	p, err := s.GetForActor(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	return &InvoicePDFMetadata{
		FileName:      fmt.Sprintf("invoice-%s.pdf", p.InvoiceNumber),
		ContentType:   "application/pdf",
		InvoiceNumber: p.InvoiceNumber,
		GeneratedAt:   time.Now().UTC(),
		InvoiceURL:    fmt.Sprintf("%s/api/payments/%s/invoice", s.cfg.PublicBaseURL, p.ID),
	}, nil
}

// FindOverdue returns unpaid invoices past their due date that were not flagged yet.
func (s *paymentService) FindOverdue(ctx context.Context, now time.Time) ([]models.Payment, error) {
	cursor, err := s.coll().Find(ctx, bson.M{
		"status":           models.PaymentStatusPending,
		"due_date":         bson.M{"$lt": now},
		"overdue_notified": false,
	})
	if err != nil {
		return nil, fmt.Errorf("error finding overdue payments: %w", err)
	}
	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("error decoding overdue payments: %w", err)
	}
	return payments, nil
}

// MarkOverdueNotified flags the payment and reports whether this call did it.
func (s *paymentService) MarkOverdueNotified(ctx context.Context, paymentID utils.SixID) (bool, error) {
	res, err := s.coll().UpdateOne(ctx,
		bson.M{"_id": paymentID, "overdue_notified": false},
		bson.M{"$set": bson.M{"overdue_notified": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, fmt.Errorf("error flagging payment %s overdue: %w", paymentID, err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *paymentService) List(ctx context.Context, filter PaymentFilter, page Page) (*PagedResult[models.Payment], error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.UserID != nil {
		q["user_id"] = *filter.UserID
	}
	if filter.BookingID != nil {
		q["booking_id"] = *filter.BookingID
	}
	return findPage[models.Payment](ctx, s.coll(), q, bson.D{{Key: "created_at", Value: -1}}, page, nil)
}
