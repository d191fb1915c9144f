package domain

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestOpen, RequestClosed, true},
		{RequestOpen, RequestCancelled, true},
		{RequestOpen, RequestInProgress, false},
		{RequestClosed, RequestInProgress, true},
		{RequestInProgress, RequestCompleted, true},
		{RequestCompleted, RequestCancelled, false},
		{RequestCancelled, RequestOpen, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestProposalStatus_OnlyPendingMoves(t *testing.T) {
	for _, next := range []ProposalStatus{ProposalAccepted, ProposalRejected, ProposalFrozen} {
		if !ProposalPending.CanTransitionTo(next) {
			t.Errorf("pending -> %s should be allowed", next)
		}
		if ProposalAccepted.CanTransitionTo(next) || ProposalFrozen.CanTransitionTo(next) {
			t.Errorf("only pending proposals may move to %s", next)
		}
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderAccepted, true},
		{OrderAccepted, OrderInProgress, true},
		{OrderInProgress, OrderCompleted, true},
		{OrderCompleted, OrderRated, true},
		{OrderPending, OrderCompleted, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderRated, OrderRated, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestTransactionStatus_RefundOnlyFromCompleted(t *testing.T) {
	if !TxCompleted.CanTransitionTo(TxRefunded) {
		t.Fatal("completed -> refunded should be allowed")
	}
	if TxPending.CanTransitionTo(TxRefunded) {
		t.Fatal("pending -> refunded must be rejected")
	}
}

func TestAdminRole_Permissions(t *testing.T) {
	if n := len(AdminRoleSuperAdmin.Permissions()); n != 7 {
		t.Fatalf("super_admin: expected 7 permissions, got %d", n)
	}
	if AdminRoleModerator.Has(PermManagePayments) {
		t.Error("moderator must not manage payments")
	}
	if !AdminRoleModerator.Has(PermSendNotifications) {
		t.Error("moderator should send notifications")
	}
	if AdminRoleSupport.Has(PermManageUsers) || !AdminRoleSupport.Has(PermManageRequests) {
		t.Error("support permissions wrong")
	}
	if AdminRole("janitor").Valid() {
		t.Error("unknown role must be invalid")
	}
}

func TestActor_Can(t *testing.T) {
	admin := Actor{UserID: "a1", Type: UserTypeAdmin, AdminRole: AdminRoleSupport}
	if !admin.Can(PermViewAnalytics) {
		t.Error("support admin should view analytics")
	}
	client := Actor{UserID: "c1", Type: UserTypeClient, AdminRole: AdminRoleSuperAdmin}
	if client.Can(PermViewAnalytics) {
		t.Error("non-admin actor must never pass a permission check")
	}
}

func TestUser_IsPremium(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	u := &User{Crafter: &CrafterProfile{MembershipType: MembershipPremium, MembershipExpiresAt: &future}}
	if !u.IsPremium(now) {
		t.Error("expected premium")
	}
	u.Crafter.MembershipExpiresAt = &past
	if u.IsPremium(now) {
		t.Error("expired membership must not count as premium")
	}
	if (&User{}).IsPremium(now) {
		t.Error("non-crafter must not be premium")
	}
}

func TestSubscription_Expired(t *testing.T) {
	now := time.Now()
	s := &Subscription{Status: SubscriptionActive, ExpiresAt: now.Add(-time.Minute)}
	if !s.Expired(now) {
		t.Error("expected expired")
	}
	s.Status = SubscriptionCancelled
	if s.Expired(now) {
		t.Error("cancelled subscriptions are never reported as expired")
	}
}

func TestPeriods(t *testing.T) {
	jan := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	if got := PeriodOf(jan); got != "2026-01" {
		t.Errorf("PeriodOf: got %s", got)
	}
	if got := PreviousPeriod(jan); got != "2025-12" {
		t.Errorf("PreviousPeriod: got %s", got)
	}
}

func TestCompanyFinances_Apply(t *testing.T) {
	f := &CompanyFinances{}
	f.Apply(TxMembership, 499, 1)
	f.Apply(TxCommission, 10, 1)
	f.Apply(TxMembership, -499, -1)

	if f.MembershipRevenueTotal != 0 || f.CommissionRevenueTotal != 10 {
		t.Fatalf("unexpected buckets: %+v", f)
	}
	if f.TotalRevenue != 10 || f.TotalTransactions != 1 {
		t.Fatalf("unexpected totals: %+v", f)
	}
}

func TestRevenueBuckets_MatchStoredFields(t *testing.T) {
	tags := map[string]bool{}
	typ := reflect.TypeOf(CompanyFinances{})
	for i := 0; i < typ.NumField(); i++ {
		tags[typ.Field(i).Tag.Get("bson")] = true
	}
	for _, b := range RevenueBuckets {
		if !tags[string(b)] {
			t.Errorf("bucket %q has no CompanyFinances field", b)
		}
	}

	cases := map[TransactionType]RevenueBucket{
		TxMembership:               BucketMembership,
		TxCommission:               BucketCommission,
		TxAdvertising:              BucketAdvertising,
		TxFeatured:                 BucketFeatured,
		TxOther:                    BucketOther,
		TransactionType("unknown"): BucketOther,
	}
	for tx, want := range cases {
		if got := BucketOf(tx); got != want {
			t.Errorf("BucketOf(%s): expected %s, got %s", tx, want, got)
		}
	}
}

func TestGrowthPercent(t *testing.T) {
	cases := []struct {
		cur, prev, want float64
	}{
		{150, 100, 50},
		{50, 100, -50},
		{10, 0, 100},
		{0, 0, 0},
		{100, 300, -66.67},
	}
	for _, tc := range cases {
		if got := GrowthPercent(tc.cur, tc.prev); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("GrowthPercent(%v, %v): expected %v, got %v", tc.cur, tc.prev, tc.want, got)
		}
	}
}

func TestRevenueRules_Commission(t *testing.T) {
	rules := DefaultRevenueRules(time.Now())
	if got := rules.Commission(200); got != 10 {
		t.Fatalf("expected 10, got %v", got)
	}
	if got := rules.Commission(33.5); got != 1.68 {
		t.Fatalf("expected 1.68, got %v", got)
	}
}
