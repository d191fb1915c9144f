package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// In-memory repositories shared by the service tests. Each returns copies so
// tests observe only what was written through the repository.

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

func pageOf[T any](items []T, p ports.Pagination) []T {
	start := int(p.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// ── users ────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	seq       idSeq
	users     map[string]*domain.User
	ratingErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Crafter != nil {
		cp := *u.Crafter
		c.Crafter = &cp
	}
	if u.Client != nil {
		cp := *u.Client
		c.Client = &cp
	}
	if u.Admin != nil {
		cp := *u.Admin
		c.Admin = &cp
	}
	return &c
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	if u.ID == "" {
		u.ID = r.seq.next("user")
	}
	if u.Status == "" {
		u.Status = domain.UserStatusActive
	}
	r.users[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	r.add(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) SetStatus(_ context.Context, id string, status domain.UserStatus, verified *bool) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Status = status
	if verified != nil {
		u.Verified = *verified
	}
	return nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *stubUserRepo) ApplyRating(_ context.Context, crafterID string, score int) error {
	if r.ratingErr != nil {
		return r.ratingErr
	}
	u, ok := r.users[crafterID]
	if !ok || u.Crafter == nil {
		return domain.ErrUserNotFound
	}
	n := float64(u.Crafter.CompletedOrders)
	u.Crafter.Rating = (u.Crafter.Rating*n + float64(score)) / (n + 1)
	u.Crafter.CompletedOrders++
	return nil
}

func (r *stubUserRepo) SetMembership(_ context.Context, crafterID string, tier domain.MembershipType, expiresAt *time.Time) error {
	u, ok := r.users[crafterID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Crafter == nil {
		u.Crafter = &domain.CrafterProfile{}
	}
	u.Crafter.MembershipType = tier
	u.Crafter.MembershipExpiresAt = expiresAt
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) match(f ports.UserFilter) []*domain.User {
	out := []*domain.User{}
	for _, u := range r.users {
		if f.Type != "" && u.Type != f.Type {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter, p ports.Pagination) ([]*domain.User, int64, error) {
	all := r.match(f)
	return pageOf(all, p), int64(len(all)), nil
}

func (r *stubUserRepo) Count(_ context.Context, f ports.UserFilter) (int64, error) {
	return int64(len(r.match(f))), nil
}

func (r *stubUserRepo) SearchCrafters(_ context.Context, f ports.CrafterFilter) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range r.match(ports.UserFilter{Type: domain.UserTypeCrafter, Status: domain.UserStatusActive}) {
		if f.Specialty != "" && (u.Crafter == nil || u.Crafter.Specialty != f.Specialty) {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(u.Location), strings.ToLower(f.Location)) {
			continue
		}
		out = append(out, u)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *stubUserRepo) ListIDs(_ context.Context, f ports.UserFilter) ([]string, error) {
	ids := []string{}
	for _, u := range r.match(f) {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// ── requests and proposals ───────────────────────────────────────────────────

type stubRequestRepo struct {
	seq       idSeq
	requests  map[string]*domain.ServiceRequest
	updateErr error
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{requests: make(map[string]*domain.ServiceRequest)}
}

func cloneRequest(r *domain.ServiceRequest) *domain.ServiceRequest {
	c := *r
	c.Images = slices.Clone(r.Images)
	return &c
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.ServiceRequest) error {
	if req.ID == "" {
		req.ID = r.seq.next("req")
	}
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *stubRequestRepo) FindByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *stubRequestRepo) match(f ports.RequestFilter) []*domain.ServiceRequest {
	out := []*domain.ServiceRequest{}
	for _, req := range r.requests {
		if f.ClientID != "" && req.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.Category != "" && req.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(req.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubRequestRepo) List(_ context.Context, f ports.RequestFilter, p ports.Pagination) ([]*domain.ServiceRequest, int64, error) {
	all := r.match(f)
	return pageOf(all, p), int64(len(all)), nil
}

func (r *stubRequestRepo) Count(_ context.Context, f ports.RequestFilter) (int64, error) {
	return int64(len(r.match(f))), nil
}

func (r *stubRequestRepo) UpdateStatus(_ context.Context, id string, change ports.RequestStatusChange) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if len(change.From) > 0 && !slices.Contains(change.From, req.Status) {
		return domain.ErrConflict
	}
	req.Status = change.To
	req.UpdatedAt = change.At
	if change.AcceptedProposalID != "" {
		req.AcceptedProposalID = change.AcceptedProposalID
	}
	if change.To == domain.RequestCompleted {
		at := change.At
		req.CompletedAt = &at
	}
	return nil
}

func (r *stubRequestRepo) AddImage(_ context.Context, id, url string) error {
	req, ok := r.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	req.Images = append(req.Images, url)
	return nil
}

type stubProposalRepo struct {
	seq       idSeq
	proposals map[string]*domain.Proposal
	freezeErr error
}

func newStubProposalRepo() *stubProposalRepo {
	return &stubProposalRepo{proposals: make(map[string]*domain.Proposal)}
}

func cloneProposal(p *domain.Proposal) *domain.Proposal {
	c := *p
	return &c
}

func (r *stubProposalRepo) Create(_ context.Context, p *domain.Proposal) error {
	for _, existing := range r.proposals {
		if existing.RequestID == p.RequestID && existing.CrafterID == p.CrafterID {
			return domain.ErrDuplicateProposal
		}
	}
	if p.ID == "" {
		p.ID = r.seq.next("prop")
	}
	r.proposals[p.ID] = cloneProposal(p)
	return nil
}

func (r *stubProposalRepo) FindByID(_ context.Context, id string) (*domain.Proposal, error) {
	p, ok := r.proposals[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	return cloneProposal(p), nil
}

func (r *stubProposalRepo) ListByRequest(_ context.Context, requestID string) ([]*domain.Proposal, error) {
	out := []*domain.Proposal{}
	for _, p := range r.proposals {
		if p.RequestID == requestID {
			out = append(out, cloneProposal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProposalRepo) ListByCrafter(_ context.Context, crafterID string, p ports.Pagination) ([]*domain.Proposal, int64, error) {
	all := []*domain.Proposal{}
	for _, prop := range r.proposals {
		if prop.CrafterID == crafterID {
			all = append(all, cloneProposal(prop))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, p), int64(len(all)), nil
}

func (r *stubProposalRepo) UpdateTerms(_ context.Context, id string, price float64, duration, notes string) error {
	p, ok := r.proposals[id]
	if !ok {
		return domain.ErrProposalNotFound
	}
	if p.Status != domain.ProposalPending {
		return domain.ErrConflict
	}
	p.Price, p.Duration, p.Notes = price, duration, notes
	return nil
}

func (r *stubProposalRepo) UpdateStatus(_ context.Context, id string, from, to domain.ProposalStatus) error {
	p, ok := r.proposals[id]
	if !ok {
		return domain.ErrProposalNotFound
	}
	if p.Status != from {
		return domain.ErrConflict
	}
	p.Status = to
	return nil
}

func (r *stubProposalRepo) FreezeCompeting(_ context.Context, requestID, acceptedID string) ([]*domain.Proposal, error) {
	if r.freezeErr != nil {
		return nil, r.freezeErr
	}
	frozen := []*domain.Proposal{}
	for _, p := range r.proposals {
		if p.RequestID == requestID && p.ID != acceptedID && p.Status == domain.ProposalPending {
			p.Status = domain.ProposalFrozen
			frozen = append(frozen, cloneProposal(p))
		}
	}
	sort.Slice(frozen, func(i, j int) bool { return frozen[i].ID < frozen[j].ID })
	return frozen, nil
}

func (r *stubProposalRepo) DeleteByRequest(_ context.Context, requestID string) (int64, error) {
	var n int64
	for id, p := range r.proposals {
		if p.RequestID == requestID {
			delete(r.proposals, id)
			n++
		}
	}
	return n, nil
}

// ── orders and notifications ─────────────────────────────────────────────────

type stubOrderRepo struct {
	seq    idSeq
	orders map[string]*domain.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = r.seq.next("order")
	}
	c := *o
	r.orders[o.ID] = &c
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	c := *o
	return &c, nil
}

func (r *stubOrderRepo) match(f ports.OrderFilter) []*domain.Order {
	out := []*domain.Order{}
	for _, o := range r.orders {
		if f.ClientID != "" && o.ClientID != f.ClientID {
			continue
		}
		if f.CrafterID != "" {
			open := f.IncludeOpen && o.CrafterID == "" && o.Status == domain.OrderPending
			if o.CrafterID != f.CrafterID && !open {
				continue
			}
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Category != "" && o.Category != f.Category {
			continue
		}
		c := *o
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubOrderRepo) List(_ context.Context, f ports.OrderFilter, p ports.Pagination) ([]*domain.Order, int64, error) {
	all := r.match(f)
	return pageOf(all, p), int64(len(all)), nil
}

func (r *stubOrderRepo) Count(_ context.Context, f ports.OrderFilter) (int64, error) {
	return int64(len(r.match(f))), nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, change ports.OrderStatusChange) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if len(change.From) > 0 && !slices.Contains(change.From, o.Status) {
		return domain.ErrConflict
	}
	o.Status = change.To
	if change.CrafterID != "" {
		o.CrafterID, o.CrafterName, o.CrafterPhone = change.CrafterID, change.CrafterName, change.CrafterPhone
	}
	if change.CancelReason != "" {
		o.CancelReason = change.CancelReason
	}
	if change.Rating != 0 {
		o.Rating, o.Review = change.Rating, change.Review
	}
	if change.ClearRating {
		o.Rating, o.Review, o.RatedAt = 0, "", nil
	}
	return nil
}

type stubNotificationRepo struct {
	seq       idSeq
	items     []*domain.Notification
	createErr error
}

func (r *stubNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	if n.ID == "" {
		n.ID = r.seq.next("notif")
	}
	c := *n
	r.items = append(r.items, &c)
	return nil
}

func (r *stubNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	out := []*domain.Notification{}
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			c := *n
			out = append(out, &c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

// recordingNotifier captures queued notifications instead of delivering them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification *domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) to(userID string) []*domain.Notification {
	out := []*domain.Notification{}
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type recordingPublisher struct {
	events map[string][]ports.RealtimeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, ev ports.RealtimeEvent) error {
	if p.err != nil {
		return p.err
	}
	if p.events == nil {
		p.events = make(map[string][]ports.RealtimeEvent)
	}
	p.events[userID] = append(p.events[userID], ev)
	return nil
}

type stubIdempotency struct {
	keys      map[string]string
	lookupErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Lookup(_ context.Context, scope, key string) (string, bool, error) {
	if s.lookupErr != nil {
		return "", false, s.lookupErr
	}
	id, ok := s.keys[scope+"|"+key]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, scope, key, resourceID string) error {
	s.keys[scope+"|"+key] = resourceID
	return nil
}

// ── ledger ───────────────────────────────────────────────────────────────────

type stubPlanRepo struct {
	seq   idSeq
	plans map[string]*domain.Plan
}

func newStubPlanRepo() *stubPlanRepo {
	return &stubPlanRepo{plans: make(map[string]*domain.Plan)}
}

func (r *stubPlanRepo) Create(_ context.Context, p *domain.Plan) error {
	if p.ID == "" {
		p.ID = r.seq.next("plan")
	}
	c := *p
	r.plans[p.ID] = &c
	return nil
}

func (r *stubPlanRepo) FindByID(_ context.Context, id string) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	c := *p
	return &c, nil
}

func (r *stubPlanRepo) List(_ context.Context, activeOnly bool) ([]*domain.Plan, error) {
	out := []*domain.Plan{}
	for _, p := range r.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r *stubPlanRepo) Update(_ context.Context, p *domain.Plan) error {
	if _, ok := r.plans[p.ID]; !ok {
		return domain.ErrPlanNotFound
	}
	c := *p
	r.plans[p.ID] = &c
	return nil
}

func (r *stubPlanRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.plans)), nil
}

type stubSubscriptionRepo struct {
	seq       idSeq
	subs      map[string]*domain.Subscription
	createErr error
	// missActive makes FindActiveByUser miss, as a concurrent subscribe would
	// between the check and the insert.
	missActive bool
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{subs: make(map[string]*domain.Subscription)}
}

func (r *stubSubscriptionRepo) Create(_ context.Context, s *domain.Subscription) error {
	if r.createErr != nil {
		return r.createErr
	}
	if s.Status == domain.SubscriptionActive {
		for _, existing := range r.subs {
			if existing.UserID == s.UserID && existing.Status == domain.SubscriptionActive {
				return domain.ErrActiveSubscription
			}
		}
	}
	if s.ID == "" {
		s.ID = r.seq.next("sub")
	}
	c := *s
	r.subs[s.ID] = &c
	return nil
}

func (r *stubSubscriptionRepo) FindByID(_ context.Context, id string) (*domain.Subscription, error) {
	s, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	c := *s
	return &c, nil
}

func (r *stubSubscriptionRepo) FindActiveByUser(_ context.Context, userID string) (*domain.Subscription, error) {
	if r.missActive {
		return nil, domain.ErrSubscriptionNotFound
	}
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == domain.SubscriptionActive {
			c := *s
			return &c, nil
		}
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (r *stubSubscriptionRepo) UpdateStatus(_ context.Context, id string, status domain.SubscriptionStatus) error {
	s, ok := r.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	s.Status = status
	return nil
}

func (r *stubSubscriptionRepo) RecordPayment(_ context.Context, id, paymentRef string) error {
	s, ok := r.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	s.LastPaymentRef = paymentRef
	s.PaymentCount++
	return nil
}

func (r *stubSubscriptionRepo) ListByStatus(_ context.Context, status domain.SubscriptionStatus, p ports.Pagination) ([]*domain.Subscription, int64, error) {
	all := []*domain.Subscription{}
	for _, s := range r.subs {
		if s.Status == status {
			c := *s
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return pageOf(all, p), int64(len(all)), nil
}

type stubTransactionRepo struct {
	seq idSeq
	txs map[string]*domain.Transaction
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{txs: make(map[string]*domain.Transaction)}
}

func (r *stubTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = r.seq.next("tx")
	}
	c := *tx
	r.txs[tx.ID] = &c
	return nil
}

func (r *stubTransactionRepo) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	c := *tx
	return &c, nil
}

func (r *stubTransactionRepo) UpdateStatus(_ context.Context, id string, from, to domain.TransactionStatus, at time.Time) error {
	tx, ok := r.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if tx.Status != from {
		return domain.ErrConflict
	}
	tx.Status = to
	switch to {
	case domain.TxCompleted:
		tx.CompletedAt = &at
	case domain.TxRefunded:
		tx.Meta.RefundedAt = &at
	}
	return nil
}

func (r *stubTransactionRepo) SetRefs(_ context.Context, id string, refs ports.TransactionRefs) error {
	tx, ok := r.txs[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if refs.SubscriptionRef != "" {
		tx.SubscriptionRef = refs.SubscriptionRef
	}
	if refs.OrderRef != "" {
		tx.OrderRef = refs.OrderRef
	}
	return nil
}

func (r *stubTransactionRepo) match(f ports.TransactionFilter) []*domain.Transaction {
	out := []*domain.Transaction{}
	for _, tx := range r.txs {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		if f.UserID != "" && tx.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && tx.CreatedAt.After(f.To) {
			continue
		}
		c := *tx
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *stubTransactionRepo) List(_ context.Context, f ports.TransactionFilter, p ports.Pagination) ([]*domain.Transaction, int64, error) {
	all := r.match(f)
	return pageOf(all, p), int64(len(all)), nil
}

func (r *stubTransactionRepo) Sum(_ context.Context, f ports.TransactionFilter) (float64, int64, error) {
	var total float64
	matched := r.match(f)
	for _, tx := range matched {
		total += tx.PlatformShare
	}
	return total, int64(len(matched)), nil
}

type stubFinanceRepo struct {
	mu      sync.Mutex
	periods map[string]*domain.CompanyFinances
}

func newStubFinanceRepo() *stubFinanceRepo {
	return &stubFinanceRepo{periods: make(map[string]*domain.CompanyFinances)}
}

func (r *stubFinanceRepo) Apply(_ context.Context, period string, t domain.TransactionType, amount float64, count int64, currency string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.periods[period]
	if !ok {
		f = &domain.CompanyFinances{Period: period, Currency: currency}
		r.periods[period] = f
	}
	f.Apply(t, amount, count)
	return nil
}

func (r *stubFinanceRepo) Get(_ context.Context, period string) (*domain.CompanyFinances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.periods[period]; ok {
		c := *f
		return &c, nil
	}
	return &domain.CompanyFinances{Period: period, Currency: domain.DefaultCurrency}, nil
}

func (r *stubFinanceRepo) Total(_ context.Context) (*domain.CompanyFinances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := &domain.CompanyFinances{Period: domain.PeriodAllTime, Currency: domain.DefaultCurrency}
	for _, f := range r.periods {
		total.MembershipRevenueTotal += f.MembershipRevenueTotal
		total.CommissionRevenueTotal += f.CommissionRevenueTotal
		total.AdvertisingRevenueTotal += f.AdvertisingRevenueTotal
		total.FeaturedRevenueTotal += f.FeaturedRevenueTotal
		total.OtherRevenueTotal += f.OtherRevenueTotal
		total.TotalRevenue += f.TotalRevenue
		total.TotalTransactions += f.TotalTransactions
	}
	return total, nil
}

func (r *stubFinanceRepo) Range(_ context.Context, from, to string) ([]*domain.CompanyFinances, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.CompanyFinances{}
	for period, f := range r.periods {
		if period >= from && period <= to {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (r *stubFinanceRepo) Recent(_ context.Context, n int) ([]*domain.CompanyFinances, error) {
	all, _ := r.Range(context.Background(), "", "9999-99")
	slices.Reverse(all)
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

type stubSettingsRepo struct {
	rules *domain.RevenueRules
	saves int
}

func (r *stubSettingsRepo) RevenueRules(_ context.Context) (*domain.RevenueRules, error) {
	if r.rules == nil {
		return nil, domain.ErrSettingsNotFound
	}
	c := *r.rules
	return &c, nil
}

func (r *stubSettingsRepo) SaveRevenueRules(_ context.Context, rules domain.RevenueRules) error {
	r.rules = &rules
	r.saves++
	return nil
}

// ── featured and files ───────────────────────────────────────────────────────

type stubFeaturedRepo struct {
	seq      idSeq
	requests map[string]*domain.FeaturedRequest
	crafters []*domain.FeaturedCrafter
}

func newStubFeaturedRepo() *stubFeaturedRepo {
	return &stubFeaturedRepo{requests: make(map[string]*domain.FeaturedRequest)}
}

func (r *stubFeaturedRepo) CreateRequest(_ context.Context, fr *domain.FeaturedRequest) error {
	if fr.ID == "" {
		fr.ID = r.seq.next("feat")
	}
	c := *fr
	r.requests[fr.ID] = &c
	return nil
}

func (r *stubFeaturedRepo) FindRequest(_ context.Context, id string) (*domain.FeaturedRequest, error) {
	fr, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrFeaturedRequestNotFound
	}
	c := *fr
	return &c, nil
}

func (r *stubFeaturedRepo) LatestRequestByCrafter(_ context.Context, crafterID string) (*domain.FeaturedRequest, error) {
	var latest *domain.FeaturedRequest
	for _, fr := range r.requests {
		if fr.CrafterID != crafterID {
			continue
		}
		if latest == nil || fr.RequestedAt.After(latest.RequestedAt) {
			latest = fr
		}
	}
	if latest == nil {
		return nil, domain.ErrFeaturedRequestNotFound
	}
	c := *latest
	return &c, nil
}

func (r *stubFeaturedRepo) ListRequests(_ context.Context, status domain.FeaturedRequestStatus) ([]*domain.FeaturedRequest, error) {
	out := []*domain.FeaturedRequest{}
	for _, fr := range r.requests {
		if status == "" || fr.Status == status {
			c := *fr
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubFeaturedRepo) ReviewRequest(_ context.Context, id string, status domain.FeaturedRequestStatus, adminNotes, reviewer string, at time.Time) error {
	fr, ok := r.requests[id]
	if !ok {
		return domain.ErrFeaturedRequestNotFound
	}
	if fr.Status != domain.FeaturedPending {
		return domain.ErrConflict
	}
	fr.Status, fr.AdminNotes, fr.ReviewedBy, fr.ReviewedAt = status, adminNotes, reviewer, &at
	return nil
}

func (r *stubFeaturedRepo) AddCrafter(_ context.Context, fc *domain.FeaturedCrafter) error {
	for _, existing := range r.crafters {
		if existing.CrafterID == fc.CrafterID {
			return domain.ErrAlreadyFeatured
		}
	}
	c := *fc
	r.crafters = append(r.crafters, &c)
	return nil
}

func (r *stubFeaturedRepo) RemoveCrafter(_ context.Context, crafterID string) error {
	for i, fc := range r.crafters {
		if fc.CrafterID == crafterID {
			r.crafters = append(r.crafters[:i], r.crafters[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFeatured
}

func (r *stubFeaturedRepo) ListCrafters(_ context.Context) ([]*domain.FeaturedCrafter, error) {
	out := make([]*domain.FeaturedCrafter, 0, len(r.crafters))
	for _, fc := range r.crafters {
		c := *fc
		out = append(out, &c)
	}
	return out, nil
}

type memFileStore struct {
	seq   idSeq
	files map[string][]byte
	meta  map[string]*ports.StoredFile
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[string][]byte), meta: make(map[string]*ports.StoredFile)}
}

func (s *memFileStore) Save(_ context.Context, filename, contentType string, r io.Reader) (*ports.StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	id := s.seq.next("file")
	s.files[id] = data
	s.meta[id] = &ports.StoredFile{ID: id, Filename: filename, ContentType: contentType, Size: int64(len(data)), UploadedAt: time.Now().UTC()}
	return s.meta[id], nil
}

func (s *memFileStore) Open(_ context.Context, id string) (io.ReadCloser, *ports.StoredFile, error) {
	data, ok := s.files[id]
	if !ok {
		return nil, nil, domain.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), s.meta[id], nil
}

// ── fixtures ─────────────────────────────────────────────────────────────────

func clientActor(id string) domain.Actor {
	return domain.Actor{UserID: id, Type: domain.UserTypeClient}
}

func crafterActor(id string) domain.Actor {
	return domain.Actor{UserID: id, Type: domain.UserTypeCrafter}
}

func adminActor(role domain.AdminRole) domain.Actor {
	return domain.Actor{UserID: "admin-" + string(role), Type: domain.UserTypeAdmin, AdminRole: role}
}

func seedClient(users *stubUserRepo, name string) *domain.User {
	return users.add(&domain.User{
		Email:    strings.ToLower(name) + "@example.com",
		Name:     name,
		Phone:    "0500000000",
		Location: "Riyadh",
		Type:     domain.UserTypeClient,
		Client:   &domain.ClientProfile{},
	})
}

func seedCrafter(users *stubUserRepo, name, specialty string) *domain.User {
	return users.add(&domain.User{
		Email:    strings.ToLower(name) + "@example.com",
		Name:     name,
		Phone:    "0550000000",
		Location: "Jeddah",
		Type:     domain.UserTypeCrafter,
		Crafter: &domain.CrafterProfile{
			Specialty:      specialty,
			Rating:         4,
			MembershipType: domain.MembershipFree,
		},
	})
}
