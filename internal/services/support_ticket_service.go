package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// TicketInput opens a support ticket with its first message.
type TicketInput struct {
	Subject   string
	Message   string
	Category  models.TicketCategory
	Priority  models.TicketPriority
	BookingID *utils.SixID
}

type ISupportTicketService interface {
	Create(ctx context.Context, actor Actor, in TicketInput) (*models.SupportTicket, error)
	ListForUser(ctx context.Context, userID utils.SixID, page Page) (*PagedResult[models.SupportTicket], error)
	List(ctx context.Context, status models.TicketStatus, page Page) (*PagedResult[models.SupportTicket], error)
	Get(ctx context.Context, actor Actor, ticketID utils.SixID) (*models.SupportTicket, error)
	AddMessage(ctx context.Context, actor Actor, ticketID utils.SixID, body string) (*models.SupportTicket, error)
	Close(ctx context.Context, actor Actor, ticketID utils.SixID) (*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID utils.SixID, status models.TicketStatus) (*models.SupportTicket, error)
}

type supportTicketService struct {
	db *mongo.Database
}

func NewSupportTicketService(database *mongo.Database) ISupportTicketService {
	return &supportTicketService{db: database}
}

func (s *supportTicketService) coll() *mongo.Collection {
	return s.db.Collection(db.SupportTicketsCollection)
}

func (s *supportTicketService) Create(ctx context.Context, actor Actor, in TicketInput) (*models.SupportTicket, error) {
	now := time.Now().UTC()
	if in.Category == "" {
		in.Category = models.TicketCategoryOther
	}
	if in.Priority == "" {
		in.Priority = models.TicketPriorityMedium
	}
	ticket := &models.SupportTicket{
		UserID:    actor.ID,
		Subject:   strings.TrimSpace(in.Subject),
		Category:  in.Category,
		Priority:  in.Priority,
		Status:    models.TicketStatusOpen,
		BookingID: in.BookingID,
		Messages: []models.TicketMessage{{
			SenderID:  actor.ID,
			FromAdmin: actor.IsAdmin(),
			Body:      strings.TrimSpace(in.Message),
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertOne(ctx, s.coll(), ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *supportTicketService) ListForUser(ctx context.Context, userID utils.SixID, page Page) (*PagedResult[models.SupportTicket], error) {
	return findPage[models.SupportTicket](ctx, s.coll(), bson.M{"user_id": userID}, bson.D{{Key: "updated_at", Value: -1}}, page, nil)
}

func (s *supportTicketService) List(ctx context.Context, status models.TicketStatus, page Page) (*PagedResult[models.SupportTicket], error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.SupportTicket](ctx, s.coll(), filter, bson.D{{Key: "updated_at", Value: -1}}, page, nil)
}

func (s *supportTicketService) findByID(ctx context.Context, ticketID utils.SixID) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := s.coll().FindOne(ctx, bson.M{"_id": ticketID}).Decode(&ticket); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding ticket %s: %w", ticketID, err)
	}
	return &ticket, nil
}

func (s *supportTicketService) Get(ctx context.Context, actor Actor, ticketID utils.SixID) (*models.SupportTicket, error) {
	ticket, err := s.findByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(ticket.UserID) {
		return nil, ErrForbidden
	}
	return ticket, nil
}

// AddMessage appends to an open conversation. The first staff reply moves the ticket to in_progress.
func (s *supportTicketService) AddMessage(ctx context.Context, actor Actor, ticketID utils.SixID, body string) (*models.SupportTicket, error) {
	if _, err := s.Get(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	msg := models.TicketMessage{SenderID: actor.ID, FromAdmin: actor.IsAdmin(), Body: strings.TrimSpace(body), CreatedAt: now}

	var ticket models.SupportTicket
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": ticketID, "status": bson.M{"$ne": models.TicketStatusClosed}},
		bson.M{"$push": bson.M{"messages": msg}, "$set": bson.M{"updated_at": now}},
		returnAfter(),
	).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("ticket %s is closed: %w", ticketID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("error adding message to ticket %s: %w", ticketID, err)
	}

	if actor.IsAdmin() && ticket.Status == models.TicketStatusOpen {
		res, err := s.coll().UpdateOne(ctx,
			bson.M{"_id": ticketID, "status": models.TicketStatusOpen},
			bson.M{"$set": bson.M{"status": models.TicketStatusInProgress}})
		if err != nil {
			return nil, fmt.Errorf("error updating ticket %s status: %w", ticketID, err)
		}
		if res.ModifiedCount == 1 {
			ticket.Status = models.TicketStatusInProgress
		}
	}
	return &ticket, nil
}

func (s *supportTicketService) Close(ctx context.Context, actor Actor, ticketID utils.SixID) (*models.SupportTicket, error) {
	ticket, err := s.findByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return s.setStatus(ctx, ticketID, models.TicketStatusClosed)
}

func (s *supportTicketService) UpdateStatus(ctx context.Context, ticketID utils.SixID, status models.TicketStatus) (*models.SupportTicket, error) {
	switch status {
	case models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusResolved, models.TicketStatusClosed:
	default:
		return nil, fmt.Errorf("unknown ticket status %q: %w", status, ErrInvalidTransition)
	}
	if _, err := s.findByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.setStatus(ctx, ticketID, status)
}

// setStatus changes the status of a ticket that is not closed yet.
func (s *supportTicketService) setStatus(ctx context.Context, ticketID utils.SixID, status models.TicketStatus) (*models.SupportTicket, error) {
	now := time.Now().UTC()
	set := bson.M{"status": status, "updated_at": now}
	if status == models.TicketStatusClosed {
		set["closed_at"] = now
	}
	var ticket models.SupportTicket
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": ticketID, "status": bson.M{"$ne": models.TicketStatusClosed}},
		bson.M{"$set": set},
		returnAfter(),
	).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("ticket %s is already closed: %w", ticketID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("error updating ticket %s: %w", ticketID, err)
	}
	return &ticket, nil
}
