package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/api"
	"github.com/charlesng35/campushub/internal/app"
	"github.com/charlesng35/campushub/internal/app/maintenance"
	iauth "github.com/charlesng35/campushub/internal/auth"
	"github.com/charlesng35/campushub/internal/cache"
	"github.com/charlesng35/campushub/internal/database"
	"github.com/charlesng35/campushub/internal/gateway"
	"github.com/charlesng35/campushub/internal/middleware"
	"github.com/charlesng35/campushub/internal/monitoring"
	"github.com/charlesng35/campushub/internal/monitoring/checks"
	"github.com/charlesng35/campushub/internal/realtime"
	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, services, background jobs, and
// the HTTP router.
func bootstrapRuntime(_ context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(app.JWTConfigFromApp(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Hub = realtime.NewHub()

	notificationSvc, err := services.NewNotificationService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	dispatcher, err := services.NewDispatcher(stack.DB, notificationSvc, stack.Hub)
	if err != nil {
		return nil, fmt.Errorf("initialise dispatcher: %w", err)
	}

	provider, err := buildPaymentProvider(cfg, log)
	if err != nil {
		return nil, err
	}

	paymentSvc, err := services.NewPaymentService(stack.DB, provider, dispatcher, cfg.Payments.Currency)
	if err != nil {
		return nil, fmt.Errorf("initialise payment service: %w", err)
	}

	contestSvc, err := services.NewContestService(stack.DB, paymentSvc, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("initialise contest service: %w", err)
	}

	userSvc, err := services.NewUserService(stack.DB, jwtSvc, dispatcher, notificationSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	blogSvc, err := services.NewBlogService(stack.DB, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("initialise blog service: %w", err)
	}

	auditSvc, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.DB, auditSvc, paymentSvc,
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
			maintenance.WithPaymentExpiry(cfg.Maintenance.PaymentExpiry),
			maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule),
			maintenance.WithPaymentSchedule(cfg.Maintenance.PaymentSchedule),
			maintenance.WithCacheSchedule(cfg.Maintenance.CacheSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	if cfg.Server.RateLimit.Enabled {
		stack.RateStore = middleware.NewDatabaseRateStore(cache.NewDatabaseStore(stack.DB))
	}

	health := monitoring.NewRegistry()
	health.Register(checks.Database(stack.DB, 0))
	health.Register(checks.Realtime(stack.Hub))
	health.Register(checks.PendingPayments(stack.DB, cfg.Maintenance.PaymentExpiry, 0))

	deps := api.Deps{
		JWT:           jwtSvc,
		Hub:           stack.Hub,
		Users:         userSvc,
		Blogs:         blogSvc,
		Contests:      contestSvc,
		Payments:      paymentSvc,
		Notifications: notificationSvc,
		Dispatcher:    dispatcher,
		Audit:         auditSvc,
		Health:        health,
		RateStore:     stack.RateStore,
		RateLimit:     cfg.Server.RateLimit.MaxRequests,
		RateWindow:    cfg.Server.RateLimit.Window,
		MetricsPath:   cfg.Monitoring.Prometheus.Endpoint,
	}

	stack.Router, err = api.NewRouter(deps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// buildPaymentProvider returns the hosted checkout client, or an offline stub
// when payments are disabled so free flows keep working.
func buildPaymentProvider(cfg *app.Config, log *zap.Logger) (gateway.Provider, error) {
	if !cfg.Payments.Enabled {
		log.Info("payments disabled; paid registrations will be rejected")
		return offlineProvider{}, nil
	}

	client, err := gateway.NewClient(app.GatewayConfigFromApp(cfg))
	if err != nil {
		return nil, fmt.Errorf("initialise payment provider: %w", err)
	}
	return client, nil
}

// offlineProvider stands in when no checkout credentials are configured.
// Every order attempt fails upstream and no signature ever verifies.
type offlineProvider struct{}

func (offlineProvider) CreateOrder(context.Context, int64, string, string) (*gateway.Order, error) {
	return nil, errors.New("payment provider is not configured")
}

func (offlineProvider) VerifySignature(string, string, string) bool { return false }

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := app.DatabaseConfigFromApp(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
