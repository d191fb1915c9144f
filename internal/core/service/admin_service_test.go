package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

type adminFixture struct {
	users    *stubUserRepo
	requests *stubRequestRepo
	orders   *stubOrderRepo
	finances *stubFinanceRepo
	notifier *recordingNotifier
	svc      *AdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		users:    newStubUserRepo(),
		requests: newStubRequestRepo(),
		orders:   newStubOrderRepo(),
		finances: newStubFinanceRepo(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewAdminService(f.users, f.requests, f.orders, f.finances, f.notifier, zerolog.Nop())
	return f
}

func TestAdminService_Stats(t *testing.T) {
	f := newAdminFixture()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	client := seedClient(f.users, "Client")
	seedCrafter(f.users, "Crafter", "painter")
	seedCrafter(f.users, "Other", "painter")
	_ = f.requests.Create(context.Background(), &domain.ServiceRequest{ClientID: client.ID, Status: domain.RequestOpen})
	for _, status := range []domain.OrderStatus{domain.OrderInProgress, domain.OrderCompleted, domain.OrderRated, domain.OrderPending} {
		_ = f.orders.Create(context.Background(), &domain.Order{ClientID: client.ID, Status: status})
	}
	_ = f.finances.Apply(context.Background(), "2025-05", domain.TxMembership, 200, 1, domain.DefaultCurrency)
	_ = f.finances.Apply(context.Background(), "2025-06", domain.TxCommission, 300, 2, domain.DefaultCurrency)

	st, err := f.svc.Stats(context.Background(), adminActor(domain.AdminRoleSupport))
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if st.TotalUsers != 3 || st.Clients != 1 || st.Crafters != 2 || st.Requests != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.ActiveOrders != 1 || st.CompletedOrders != 2 {
		t.Fatalf("expected 1 active and 2 completed orders, got %+v", st)
	}
	if st.TotalRevenue != 500 || st.MonthlyGrowth != 50 {
		t.Fatalf("expected revenue 500 and growth 50%%, got %+v", st)
	}

	if _, err := f.svc.Stats(context.Background(), clientActor(client.ID)); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdminService_UpdateUser(t *testing.T) {
	f := newAdminFixture()
	crafter := seedCrafter(f.users, "Crafter", "painter")
	blocked := domain.UserStatusBlocked
	verified := true

	got, err := f.svc.UpdateUser(context.Background(), adminActor(domain.AdminRoleModerator), crafter.ID, ports.UserPatch{Status: &blocked, Verified: &verified})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if got.Status != domain.UserStatusBlocked || !got.Verified {
		t.Fatalf("unexpected user: %+v", got)
	}
	if stored := f.users.users[crafter.ID]; stored.Status != domain.UserStatusBlocked || !stored.Verified {
		t.Fatalf("patch not stored: %+v", stored)
	}

	bogus := domain.UserStatus("archived")
	if _, err := f.svc.UpdateUser(context.Background(), adminActor(domain.AdminRoleModerator), crafter.ID, ports.UserPatch{Status: &bogus}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.UpdateUser(context.Background(), adminActor(domain.AdminRoleSupport), crafter.ID, ports.UserPatch{Status: &blocked}); err != domain.ErrForbidden {
		t.Fatalf("support lacks manage_users, got %v", err)
	}
}

func TestAdminService_AdminTargetsGuarded(t *testing.T) {
	f := newAdminFixture()
	moderator := f.users.add(&domain.User{
		Email: "mod@example.com",
		Name:  "Mod",
		Type:  domain.UserTypeAdmin,
		Admin: &domain.AdminProfile{Role: domain.AdminRoleModerator},
	})
	actor := domain.Actor{UserID: moderator.ID, Type: domain.UserTypeAdmin, AdminRole: domain.AdminRoleModerator}
	blocked := domain.UserStatusBlocked

	if _, err := f.svc.UpdateUser(context.Background(), actor, moderator.ID, ports.UserPatch{Status: &blocked}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("admins cannot edit themselves, got %v", err)
	}
	if _, err := f.svc.UpdateUser(context.Background(), adminActor(domain.AdminRoleModerator), moderator.ID, ports.UserPatch{Status: &blocked}); err != domain.ErrForbidden {
		t.Fatalf("moderator cannot edit another admin, got %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), adminActor(domain.AdminRoleModerator), moderator.ID); err != domain.ErrForbidden {
		t.Fatalf("moderator cannot delete another admin, got %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), adminActor(domain.AdminRoleSuperAdmin), moderator.ID); err != nil {
		t.Fatalf("super admin may delete admins: %v", err)
	}
	if _, ok := f.users.users[moderator.ID]; ok {
		t.Fatalf("user not deleted")
	}
}

func TestAdminService_Broadcast(t *testing.T) {
	f := newAdminFixture()
	client := seedClient(f.users, "Client")
	crafter := seedCrafter(f.users, "Crafter", "painter")
	inactive := seedCrafter(f.users, "Inactive", "painter")
	_ = f.users.SetStatus(context.Background(), inactive.ID, domain.UserStatusSuspended, nil)
	moderator := adminActor(domain.AdminRoleModerator)

	n, err := f.svc.Broadcast(context.Background(), moderator, ports.BroadcastInput{Audience: domain.UserTypeCrafter, Title: "Update", Message: "New categories"})
	if err != nil {
		t.Fatalf("Broadcast returned error: %v", err)
	}
	if n != 1 || len(f.notifier.to(crafter.ID)) != 1 || len(f.notifier.to(inactive.ID)) != 0 {
		t.Fatalf("expected only the active crafter, sent %d", n)
	}
	if f.notifier.sent[0].Type != domain.NotifyAdminMessage {
		t.Fatalf("expected admin_message, got %s", f.notifier.sent[0].Type)
	}

	n, err = f.svc.Broadcast(context.Background(), moderator, ports.BroadcastInput{UserID: client.ID, Title: "Hi", Message: "Welcome"})
	if err != nil || n != 1 || len(f.notifier.to(client.ID)) != 1 {
		t.Fatalf("direct message failed: n=%d err=%v", n, err)
	}

	n, err = f.svc.Broadcast(context.Background(), moderator, ports.BroadcastInput{Title: "All", Message: "Maintenance tonight"})
	if err != nil || n != 2 {
		t.Fatalf("empty audience should reach every active user, got n=%d err=%v", n, err)
	}

	if _, err := f.svc.Broadcast(context.Background(), moderator, ports.BroadcastInput{Title: " "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.Broadcast(context.Background(), adminActor(domain.AdminRoleSupport), ports.BroadcastInput{Title: "x", Message: "y"}); err != domain.ErrForbidden {
		t.Fatalf("support cannot broadcast, got %v", err)
	}
}
