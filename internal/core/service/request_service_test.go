package service

import (
	"context"
	"errors"
	"testing"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

func TestRequestService_Create_Success(t *testing.T) {
	f := newMarketplaceFixture()

	req := f.openRequest(t)

	if req.Status != domain.RequestOpen {
		t.Fatalf("expected open, got %s", req.Status)
	}
	if req.ClientID != f.client.ID || req.ClientName != "Client" {
		t.Fatalf("client fields not copied: %+v", req)
	}
	if req.Images == nil {
		t.Fatalf("images must default to an empty slice")
	}
}

func TestRequestService_Create_Validation(t *testing.T) {
	f := newMarketplaceFixture()

	_, _, err := f.requestSvc.Create(context.Background(), clientActor(f.client.ID), ports.CreateRequestInput{Title: "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, _, err = f.requestSvc.Create(context.Background(), crafterActor(f.crafter.ID), ports.CreateRequestInput{Title: "x", Description: "y", Category: "z"})
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for crafter, got %v", err)
	}
}

func TestRequestService_Create_IdempotencyReplay(t *testing.T) {
	f := newMarketplaceFixture()
	in := ports.CreateRequestInput{Title: "Paint", Description: "Two rooms", Category: "painting", IdempotencyKey: "abc"}

	first, _, err := f.requestSvc.Create(context.Background(), clientActor(f.client.ID), in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, replayed, err := f.requestSvc.Create(context.Background(), clientActor(f.client.ID), in)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !replayed || second.ID != first.ID {
		t.Fatalf("expected replay of %s", first.ID)
	}
	if len(f.requests.requests) != 1 {
		t.Fatalf("expected exactly one stored request, got %d", len(f.requests.requests))
	}
}

func TestRequestService_Create_IdempotencyLookupErrorProcessesAnyway(t *testing.T) {
	f := newMarketplaceFixture()
	f.idem.lookupErr = errors.New("redis down")

	_, replayed, err := f.requestSvc.Create(context.Background(), clientActor(f.client.ID), ports.CreateRequestInput{
		Title: "Paint", Description: "Two rooms", Category: "painting", IdempotencyKey: "abc",
	})
	if err != nil || replayed {
		t.Fatalf("expected fresh create, got replayed=%v err=%v", replayed, err)
	}
}

func TestRequestService_List_Visibility(t *testing.T) {
	f := newMarketplaceFixture()
	f.openRequest(t)
	other := seedClient(f.users, "Other")
	if _, _, err := f.requestSvc.Create(context.Background(), clientActor(other.ID), ports.CreateRequestInput{
		Title: "Tiles", Description: "Bathroom", Category: "tiling",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	own, err := f.requestSvc.List(context.Background(), clientActor(f.client.ID), ports.ListRequestsInput{})
	if err != nil || own.Total != 1 {
		t.Fatalf("client should see only own request, got %d (%v)", own.Total, err)
	}
	all, err := f.requestSvc.List(context.Background(), crafterActor(f.crafter.ID), ports.ListRequestsInput{})
	if err != nil || all.Total != 2 {
		t.Fatalf("crafter should see all requests, got %d (%v)", all.Total, err)
	}
	tiling, err := f.requestSvc.List(context.Background(), crafterActor(f.crafter.ID), ports.ListRequestsInput{Category: "tiling"})
	if err != nil || tiling.Total != 1 {
		t.Fatalf("category filter failed, got %d (%v)", tiling.Total, err)
	}
	if all.Limit != ports.DefaultPageLimit || all.Page != 1 {
		t.Fatalf("expected default pagination, got page=%d limit=%d", all.Page, all.Limit)
	}
}

func TestRequestService_List_InvalidStatus(t *testing.T) {
	f := newMarketplaceFixture()
	if _, err := f.requestSvc.List(context.Background(), crafterActor(f.crafter.ID), ports.ListRequestsInput{Status: "archived"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRequestService_Get_HidesOtherClientsRequests(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)
	other := seedClient(f.users, "Other")

	if _, err := f.requestSvc.Get(context.Background(), clientActor(other.ID), req.ID); err != domain.ErrRequestNotFound {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if _, err := f.requestSvc.Get(context.Background(), crafterActor(f.crafter.ID), req.ID); err != nil {
		t.Fatalf("crafter should see request: %v", err)
	}
}

func TestRequestService_Cancel_DeletesProposals(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)
	f.propose(t, req.ID, f.crafter, 100)
	f.propose(t, req.ID, f.rival, 90)

	got, err := f.requestSvc.Cancel(context.Background(), clientActor(f.client.ID), req.ID)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if got.Status != domain.RequestCancelled || f.requests.requests[req.ID].Status != domain.RequestCancelled {
		t.Fatalf("request not cancelled")
	}
	if len(f.proposals.proposals) != 0 {
		t.Fatalf("expected proposals deleted, %d remain", len(f.proposals.proposals))
	}
}

func TestRequestService_Cancel_OnlyOwner(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)
	other := seedClient(f.users, "Other")

	if _, err := f.requestSvc.Cancel(context.Background(), clientActor(other.ID), req.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.requestSvc.Cancel(context.Background(), adminActor(domain.AdminRoleModerator), req.ID); err != nil {
		t.Fatalf("moderator may cancel: %v", err)
	}
	if _, err := f.requestSvc.Cancel(context.Background(), clientActor(f.client.ID), req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancelled request cannot be cancelled again, got %v", err)
	}
}

func TestRequestService_StartAndComplete_ByAcceptedCrafter(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)
	p := f.propose(t, req.ID, f.crafter, 100)
	if _, err := f.proposalSvc.Accept(context.Background(), clientActor(f.client.ID), p.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	f.notifier.sent = nil

	if _, err := f.requestSvc.Start(context.Background(), crafterActor(f.rival.ID), req.ID); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for other crafter, got %v", err)
	}

	started, err := f.requestSvc.Start(context.Background(), crafterActor(f.crafter.ID), req.ID)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if started.Status != domain.RequestInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}

	done, err := f.requestSvc.Complete(context.Background(), crafterActor(f.crafter.ID), req.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if done.Status != domain.RequestCompleted || done.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", done)
	}

	got := f.notifier.to(f.client.ID)
	if len(got) != 2 || got[0].Type != domain.NotifyOrderStarted || got[1].Type != domain.NotifyOrderCompleted {
		t.Fatalf("expected started then completed notifications, got %+v", got)
	}
}

func TestRequestService_Start_RequiresAcceptedProposal(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)

	if _, err := f.requestSvc.Start(context.Background(), crafterActor(f.crafter.ID), req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRequestService_AddImage(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)

	got, err := f.requestSvc.AddImage(context.Background(), clientActor(f.client.ID), req.ID, "/v1/files/f1")
	if err != nil {
		t.Fatalf("AddImage returned error: %v", err)
	}
	if len(got.Images) != 1 || len(f.requests.requests[req.ID].Images) != 1 {
		t.Fatalf("image not stored")
	}
}

func TestRequestService_SetStatus_AdminOverride(t *testing.T) {
	f := newMarketplaceFixture()
	req := f.openRequest(t)

	if _, err := f.requestSvc.SetStatus(context.Background(), clientActor(f.client.ID), req.ID, domain.RequestCompleted); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	got, err := f.requestSvc.SetStatus(context.Background(), adminActor(domain.AdminRoleSupport), req.ID, domain.RequestCompleted)
	if err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if got.Status != domain.RequestCompleted || f.requests.requests[req.ID].Status != domain.RequestCompleted {
		t.Fatalf("status not overridden")
	}
}
