package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/charlesng35/campushub/internal/auth"
	"github.com/charlesng35/campushub/internal/handlers"
	"github.com/charlesng35/campushub/internal/middleware"
	"github.com/charlesng35/campushub/internal/monitoring"
	"github.com/charlesng35/campushub/internal/realtime"
	"github.com/charlesng35/campushub/internal/services"
)

// Deps bundles everything the router needs. Optional fields (Hub, RateStore)
// may be nil; the matching surface is then disabled.
type Deps struct {
	JWT *iauth.JWTService
	Hub *realtime.Hub

	Users         *services.UserService
	Blogs         *services.BlogService
	Contests      *services.ContestService
	Payments      *services.PaymentService
	Notifications *services.NotificationService
	Dispatcher    *services.Dispatcher
	Audit         *services.AuditService

	Health *monitoring.Registry

	RateStore   middleware.RateStore
	RateLimit   int
	RateWindow  time.Duration
	MetricsPath string
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	for name, svc := range map[string]any{
		"user":         deps.Users,
		"blog":         deps.Blogs,
		"contest":      deps.Contests,
		"payment":      deps.Payments,
		"notification": deps.Notifications,
		"dispatcher":   deps.Dispatcher,
	} {
		if svc == nil {
			return nil, fmt.Errorf("%s service must be provided", name)
		}
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if deps.RateStore != nil {
		r.Use(middleware.RateLimit(deps.RateStore, deps.RateLimit, deps.RateWindow))
	}
	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/health", handlers.Health(deps.Health))
	metricsPath := deps.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.Auth(deps.JWT)
	requireAdmin := middleware.RequireAdmin()

	api := r.Group("/api")
	api.Use(requireAuth)

	registerAuthRoutes(r, api, handlers.NewAuthHandler(deps.Users, deps.Audit))
	registerUserRoutes(api, handlers.NewUserHandler(deps.Users), requireAdmin)
	registerBlogRoutes(api, handlers.NewBlogHandler(deps.Blogs), requireAdmin)
	registerContestRoutes(api, handlers.NewContestHandler(deps.Contests), requireAdmin)
	registerPaymentRoutes(api, handlers.NewPaymentHandler(deps.Payments), requireAdmin)
	registerNotificationRoutes(api, handlers.NewNotificationHandler(deps.Notifications, deps.Dispatcher), requireAdmin)

	if deps.Audit != nil {
		registerAuditRoutes(api, handlers.NewAuditHandler(deps.Audit), requireAdmin)
	}
	if deps.Hub != nil {
		registerRealtimeRoutes(r, handlers.NewRealtimeHandler(deps.Hub, deps.JWT))
	}

	return r, nil
}
