package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

func TestSupportTicket_Conversation(t *testing.T) {
	e := newTestEnv(t, "test_support_conversation")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)
	other := e.user(t, "other@example.com", models.RoleClient)
	admin := e.user(t, "admin@example.com", models.RoleAdmin)

	ticket, err := e.tickets.Create(ctx, owner, TicketInput{Subject: "Refund?", Message: "Where is my refund?", Category: models.TicketCategoryPayment})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.Equal(t, models.TicketPriorityMedium, ticket.Priority)
	require.Len(t, ticket.Messages, 1)

	_, err = e.tickets.Get(ctx, other, ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.tickets.AddMessage(ctx, other, ticket.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	ticket, err = e.tickets.AddMessage(ctx, owner, ticket.ID, "Any news?")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status, "owner messages keep the ticket open")

	ticket, err = e.tickets.AddMessage(ctx, admin, ticket.ID, "Refund issued today.")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, ticket.Status)
	require.Len(t, ticket.Messages, 3)
	assert.True(t, ticket.Messages[2].FromAdmin)

	_, err = e.tickets.Close(ctx, admin, ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden, "only the owner closes")
	closed, err := e.tickets.Close(ctx, owner, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	_, err = e.tickets.AddMessage(ctx, owner, ticket.ID, "one more thing")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = e.tickets.UpdateStatus(ctx, ticket.ID, models.TicketStatusOpen)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSupportTicket_AdminListAndStatus(t *testing.T) {
	e := newTestEnv(t, "test_support_admin")
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleClient)

	a, err := e.tickets.Create(ctx, owner, TicketInput{Subject: "A", Message: "a"})
	require.NoError(t, err)
	_, err = e.tickets.Create(ctx, owner, TicketInput{Subject: "B", Message: "b", Priority: models.TicketPriorityUrgent})
	require.NoError(t, err)

	resolved, err := e.tickets.UpdateStatus(ctx, a.ID, models.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, resolved.Status)
	_, err = e.tickets.UpdateStatus(ctx, a.ID, "escalated")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	open, err := e.tickets.List(ctx, models.TicketStatusOpen, Page{})
	require.NoError(t, err)
	require.Len(t, open.Items, 1)
	assert.Equal(t, "B", open.Items[0].Subject)

	mine, err := e.tickets.ListForUser(ctx, owner.ID, Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)
}
