package tasks

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

// HandleBookingAutoCompleteTask completes confirmed bookings whose check-out has passed.
func (p *TaskProcessor) HandleBookingAutoCompleteTask(ctx context.Context, t *asynq.Task) error {
	completed, err := p.bookings.AutoComplete(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Error auto-completing bookings: %v", err)
		return err
	}
	for i := range completed {
		p.notifier.BookingChanged(ctx, &completed[i], models.ActionBookingCompleted)
	}
	log.Printf("Auto-complete finished. Completed %d bookings.", len(completed))
	return nil
}

// HandleCalendarRollTask drops past days from every calendar and extends it to the horizon.
func (p *TaskProcessor) HandleCalendarRollTask(ctx context.Context, t *asynq.Task) error {
	rolled, err := p.hotels.RollAllCalendars(ctx)
	if err != nil {
		log.Printf("Error rolling availability calendars after %d hotels: %v", rolled, err)
		return err
	}
	log.Printf("Rolled availability calendars of %d hotels.", rolled)
	return nil
}

// HandleInvoiceCheckOverdueTask notifies each owner of an unpaid invoice past its due date once.
func (p *TaskProcessor) HandleInvoiceCheckOverdueTask(ctx context.Context, t *asynq.Task) error {
	overdue, err := p.payments.FindOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Error finding overdue invoices: %v", err)
		return err
	}
	notified := 0
	for i := range overdue {
		marked, err := p.payments.MarkOverdueNotified(ctx, overdue[i].ID)
		if err != nil {
			log.Printf("Error flagging invoice %s as overdue: %v", overdue[i].InvoiceNumber, err)
			continue
		}
		if !marked {
			// Paid or flagged by another worker in the meantime.
			continue
		}
		p.notifier.PaymentChanged(ctx, &overdue[i], models.ActionPaymentOverdue)
		notified++
	}
	log.Printf("Overdue invoice check finished. Notified %d of %d.", notified, len(overdue))
	return nil
}

func (p *TaskProcessor) HandleAdminRequestPurgeTask(ctx context.Context, t *asynq.Task) error {
	purged, err := p.approvals.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Error purging expired admin requests: %v", err)
		return err
	}
	if purged > 0 {
		log.Printf("Purged %d expired admin requests.", purged)
	}
	return nil
}
