package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/herfa/marketplace-api/internal/api/handler"
	"github.com/herfa/marketplace-api/internal/api/middleware"
	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// Deps is everything the HTTP layer needs. Services are wired in main.
type Deps struct {
	Log            zerolog.Logger
	JWTSecret      string
	CORSOrigins    []string
	RateLimitRPS   float64
	MaxUploadBytes int64

	Auth          ports.AuthService
	Media         ports.MediaService
	Requests      ports.RequestService
	Proposals     ports.ProposalService
	Orders        ports.OrderService
	Notifications ports.NotificationService
	Crafters      ports.CrafterService
	Membership    ports.MembershipService
	Featured      ports.FeaturedService
	Ledger        ports.LedgerService
	Settings      ports.SettingsService
	Admin         ports.AdminService

	Realtime     handler.Subscriptions
	HealthChecks map[string]handler.HealthCheck

	// Metrics overrides the default Prometheus registry when set.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.ContextLogger(d.Log))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  d.CORSOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		ExposeHeaders: []string{"Idempotent-Replayed", echo.HeaderXRequestID},
	}))

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: registerer,
	}))

	// --- Health probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(d.HealthChecks)
	e.GET("/health", health.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	authH := handler.NewAuthHandler(d.Auth, d.Media)
	mediaH := handler.NewMediaHandler(d.Media)
	requestH := handler.NewRequestHandler(d.Requests, d.Media)
	proposalH := handler.NewProposalHandler(d.Proposals)
	orderH := handler.NewOrderHandler(d.Orders)
	notificationH := handler.NewNotificationHandler(d.Notifications, d.Realtime)
	crafterH := handler.NewCrafterHandler(d.Crafters, d.Featured)
	membershipH := handler.NewMembershipHandler(d.Membership, d.Featured)
	ledgerH := handler.NewLedgerHandler(d.Ledger, d.Settings)
	adminH := handler.NewAdminHandler(d.Admin)

	v1 := e.Group("/v1",
		echomiddleware.BodyLimit(fmt.Sprintf("%dK", d.MaxUploadBytes>>10+1024)),
		echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Skipper: func(echo.Context) bool { return d.RateLimitRPS <= 0 },
			Store:   echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.RateLimitRPS)),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			},
		}),
	)

	// --- Public routes ---
	v1.POST("/auth/register", authH.Register)
	v1.POST("/auth/login", authH.Login)
	v1.GET("/files/:id", mediaH.Download)
	v1.GET("/crafters", crafterH.Search)
	v1.GET("/crafters/featured", crafterH.Featured)
	v1.GET("/crafters/:id", crafterH.Profile)
	v1.GET("/membership/plans", membershipH.Plans)

	// --- Authenticated routes ---
	authed := v1.Group("", middleware.Auth(d.JWTSecret))
	clients := middleware.RBAC(domain.UserTypeClient)
	crafters := middleware.RBAC(domain.UserTypeCrafter)

	authed.GET("/me", authH.Me)
	authed.PATCH("/me", authH.UpdateMe)
	authed.POST("/me/avatar", authH.UploadAvatar)
	authed.POST("/files", mediaH.Upload)

	authed.POST("/requests", requestH.Create, clients)
	authed.GET("/requests", requestH.List)
	authed.GET("/requests/:id", requestH.Get)
	authed.POST("/requests/:id/cancel", requestH.Cancel, clients)
	authed.POST("/requests/:id/start", requestH.Start, crafters)
	authed.POST("/requests/:id/complete", requestH.Complete, crafters)
	authed.POST("/requests/:id/images", requestH.AddImage, clients)

	authed.POST("/requests/:id/proposals", proposalH.Create, crafters)
	authed.GET("/requests/:id/proposals", proposalH.ListForRequest)
	authed.GET("/proposals", proposalH.ListMine, crafters)
	authed.PATCH("/proposals/:id", proposalH.Update, crafters)
	authed.POST("/proposals/:id/accept", proposalH.Accept, clients)
	authed.POST("/proposals/:id/reject", proposalH.Reject, clients)

	authed.POST("/orders", orderH.Create, clients)
	authed.GET("/orders", orderH.List)
	authed.GET("/orders/:id", orderH.Get)
	authed.POST("/orders/:id/accept", orderH.Accept, crafters)
	authed.POST("/orders/:id/start", orderH.Start, crafters)
	authed.POST("/orders/:id/complete", orderH.Complete, crafters)
	authed.POST("/orders/:id/cancel", orderH.Cancel)
	authed.POST("/orders/:id/rate", orderH.Rate, clients)

	authed.GET("/notifications", notificationH.List)
	authed.GET("/notifications/unread-count", notificationH.UnreadCount)
	authed.GET("/notifications/stream", notificationH.Stream)
	authed.POST("/notifications/read-all", notificationH.MarkAllRead)
	authed.POST("/notifications/:id/read", notificationH.MarkRead)

	authed.GET("/membership", membershipH.Current)
	authed.POST("/membership/subscribe", membershipH.Subscribe, crafters)
	authed.POST("/membership/cancel", membershipH.Cancel, crafters)

	authed.POST("/featured-requests", membershipH.RequestFeatured, crafters)
	authed.GET("/featured-requests/mine", membershipH.MyFeaturedRequest, crafters)

	// --- Back office ---
	admin := authed.Group("/admin", middleware.RBAC(domain.UserTypeAdmin))
	can := middleware.RequirePermission

	admin.GET("/stats", adminH.Stats, can(domain.PermViewAnalytics))

	admin.GET("/users", adminH.ListUsers, can(domain.PermManageUsers))
	admin.PATCH("/users/:id", adminH.UpdateUser, can(domain.PermManageUsers))
	admin.DELETE("/users/:id", adminH.DeleteUser, can(domain.PermManageUsers))
	admin.GET("/admins", adminH.ListAdmins, can(domain.PermManageUsers))
	admin.POST("/admins", authH.RegisterAdmin, can(domain.PermManageUsers))

	admin.GET("/requests", requestH.List, can(domain.PermManageRequests))
	admin.PATCH("/requests/:id/status", requestH.SetStatus, can(domain.PermManageRequests))
	admin.GET("/orders", orderH.List, can(domain.PermManageOrders))

	payments := can(domain.PermManagePayments)
	admin.GET("/plans", membershipH.AllPlans, payments)
	admin.POST("/plans", membershipH.CreatePlan, payments)
	admin.GET("/plans/:id", membershipH.Plan, payments)
	admin.PUT("/plans/:id", membershipH.UpdatePlan, payments)
	admin.GET("/subscriptions", membershipH.ActiveSubscriptions, payments)
	admin.POST("/subscriptions/:id/cancel", membershipH.CancelSubscription, payments)
	admin.GET("/transactions", ledgerH.ListTransactions, payments)
	admin.POST("/transactions", ledgerH.RecordTransaction, payments)
	admin.GET("/transactions/:id", ledgerH.GetTransaction, payments)
	admin.POST("/transactions/:id/complete", ledgerH.CompleteTransaction, payments)
	admin.POST("/transactions/:id/refund", ledgerH.RefundTransaction, payments)

	finance := can(domain.PermViewAnalytics, domain.PermManagePayments)
	admin.GET("/finances", ledgerH.FinancesRange, finance)
	admin.GET("/finances/current", ledgerH.CurrentFinances, finance)
	admin.GET("/finances/total", ledgerH.TotalFinances, finance)
	admin.GET("/earnings", ledgerH.Earnings, finance)

	admin.GET("/settings/revenue", ledgerH.RevenueRules, can(domain.PermManageSystemSettings, domain.PermManagePayments, domain.PermViewAnalytics))
	admin.PATCH("/settings/revenue", ledgerH.UpdateRevenueRules, can(domain.PermManageSystemSettings))

	admin.GET("/featured-requests", membershipH.FeaturedRequests, can(domain.PermManageUsers))
	admin.POST("/featured-requests/:id/review", membershipH.ReviewFeatured, can(domain.PermManageUsers))
	admin.GET("/featured-crafters", crafterH.Featured, can(domain.PermManageUsers))
	admin.POST("/featured-crafters", membershipH.AddFeatured, can(domain.PermManageUsers))
	admin.DELETE("/featured-crafters/:id", membershipH.RemoveFeatured, can(domain.PermManageUsers))

	admin.POST("/notifications", adminH.Broadcast, can(domain.PermSendNotifications))

	return e
}
