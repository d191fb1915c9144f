package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/infrastructure/realtime"
)

type stubProposalService struct {
	ports.ProposalService
	createFn func(ctx context.Context, actor domain.Actor, in ports.CreateProposalInput) (*domain.Proposal, bool, error)
	acceptFn func(ctx context.Context, actor domain.Actor, id string) (*ports.AcceptResult, error)
}

func (s *stubProposalService) Create(ctx context.Context, actor domain.Actor, in ports.CreateProposalInput) (*domain.Proposal, bool, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubProposalService) Accept(ctx context.Context, actor domain.Actor, id string) (*ports.AcceptResult, error) {
	return s.acceptFn(ctx, actor, id)
}

type stubOrderService struct {
	ports.OrderService
	cancelFn func(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error)
}

func (s *stubOrderService) Cancel(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error) {
	return s.cancelFn(ctx, actor, id, reason)
}

type stubNotificationService struct {
	ports.NotificationService
	markReadFn func(ctx context.Context, userID, id string) error
}

func (s *stubNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.markReadFn(ctx, userID, id)
}

func TestProposalHandler_Create_UsesRequestPath(t *testing.T) {
	stub := &stubProposalService{
		createFn: func(ctx context.Context, actor domain.Actor, in ports.CreateProposalInput) (*domain.Proposal, bool, error) {
			assert.Equal(t, "r1", in.RequestID)
			assert.Equal(t, 250.0, in.Price)
			return &domain.Proposal{ID: "p1", RequestID: in.RequestID, CrafterID: actor.UserID}, false, nil
		},
	}
	h := NewProposalHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/requests/r1/proposals", `{"price":250,"duration":"2 days"}`)
	withParam(asUser(c, "k1", "crafter", ""), "id", "r1")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestProposalHandler_Create_RejectsNonPositivePrice(t *testing.T) {
	h := NewProposalHandler(&stubProposalService{})

	c, _ := newContext(http.MethodPost, "/v1/requests/r1/proposals", `{"price":0,"duration":"2 days"}`)
	withParam(asUser(c, "k1", "crafter", ""), "id", "r1")

	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, h.Create(c)))
}

func TestProposalHandler_Accept(t *testing.T) {
	stub := &stubProposalService{
		acceptFn: func(ctx context.Context, actor domain.Actor, id string) (*ports.AcceptResult, error) {
			return &ports.AcceptResult{
				Proposal: &domain.Proposal{ID: id, Status: domain.ProposalAccepted},
				Request:  &domain.ServiceRequest{ID: "r1", Status: domain.RequestClosed, AcceptedProposalID: id},
				Frozen:   []*domain.Proposal{{ID: "p2", Status: domain.ProposalFrozen}},
			}, nil
		},
	}
	h := NewProposalHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/proposals/p1/accept", "")
	withParam(asUser(c, "c1", "client", ""), "id", "p1")

	require.NoError(t, h.Accept(c))
	var resp acceptProposalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ProposalAccepted, resp.Proposal.Status)
	assert.Equal(t, "p1", resp.Request.AcceptedProposalID)
	require.Len(t, resp.Frozen, 1)
	assert.Equal(t, domain.ProposalFrozen, resp.Frozen[0].Status)
}

func TestProposalHandler_Accept_PassesConflictThrough(t *testing.T) {
	stub := &stubProposalService{
		acceptFn: func(ctx context.Context, actor domain.Actor, id string) (*ports.AcceptResult, error) {
			return nil, domain.ErrConflict
		},
	}
	h := NewProposalHandler(stub)

	c, _ := newContext(http.MethodPost, "/v1/proposals/p1/accept", "")
	withParam(asUser(c, "c1", "client", ""), "id", "p1")

	assert.ErrorIs(t, h.Accept(c), domain.ErrConflict)
}

func TestOrderHandler_Cancel_ReasonIsOptional(t *testing.T) {
	var gotReason string
	stub := &stubOrderService{
		cancelFn: func(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error) {
			gotReason = reason
			return &domain.Order{ID: id, Status: domain.OrderCancelled}, nil
		},
	}
	h := NewOrderHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/orders/o1/cancel", "")
	withParam(asUser(c, "c1", "client", ""), "id", "o1")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gotReason)

	c, _ = newContext(http.MethodPost, "/v1/orders/o1/cancel", `{"reason":"found someone closer"}`)
	withParam(asUser(c, "c1", "client", ""), "id", "o1")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, "found someone closer", gotReason)
}

func TestOrderHandler_Rate_RejectsOutOfRange(t *testing.T) {
	h := NewOrderHandler(&stubOrderService{})

	for _, body := range []string{`{"rating":0}`, `{"rating":6}`} {
		c, _ := newContext(http.MethodPost, "/v1/orders/o1/rate", body)
		withParam(asUser(c, "c1", "client", ""), "id", "o1")
		assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, h.Rate(c)), body)
	}
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	stub := &stubNotificationService{
		markReadFn: func(ctx context.Context, userID, id string) error {
			if userID != "u1" {
				return domain.ErrNotificationNotFound
			}
			return nil
		},
	}
	h := NewNotificationHandler(stub, nil)

	c, rec := newContext(http.MethodPost, "/v1/notifications/n1/read", "")
	withParam(asUser(c, "u1", "client", ""), "id", "n1")
	require.NoError(t, h.MarkRead(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = newContext(http.MethodPost, "/v1/notifications/n1/read", "")
	withParam(asUser(c, "u2", "client", ""), "id", "n1")
	assert.ErrorIs(t, h.MarkRead(c), domain.ErrNotificationNotFound)
}

func TestNotificationHandler_Stream(t *testing.T) {
	hub := realtime.NewHub(time.Hour)
	defer hub.Close()
	h := NewNotificationHandler(&stubNotificationService{}, hub)

	c, rec := newContext(http.MethodGet, "/v1/notifications/stream", "")
	ctx, cancel := context.WithCancel(context.Background())
	c.SetRequest(c.Request().WithContext(ctx))
	asUser(c, "u1", "crafter", "")

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	require.Eventually(t, func() bool { return hub.SubscriberCount("u1") == 1 }, time.Second, 5*time.Millisecond)
	hub.SendToUser("u1", ports.RealtimeEvent{Type: "notification", Data: map[string]string{"title": "New proposal"}})
	hub.SendToUser("u2", ports.RealtimeEvent{Type: "notification", Data: map[string]string{"title": "not for u1"}})

	// Give the stream loop a moment to write the event before disconnecting.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not stop after client disconnect")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: notification\ndata: {\"title\":\"New proposal\"}")
	assert.NotContains(t, body, "not for u1")
	assert.Zero(t, hub.SubscriberCount("u1"))
}
