// Package http contains the HTTP adapters of the local ops API.
//
// Package layout:
// - common/: shared response types and the domain error mapper
// - middleware/: HTTP middleware (auth guard, logging, metrics, recovery)
// - handlers/: HTTP handlers per resource
// - router.go: route composition
// - server.go: HTTP server lifecycle
//
// Pattern: Adapter (Hexagonal Architecture)
// - HTTP is an outer adapter turning requests into use case calls
// - No business logic lives here
package http

import (
	"database/sql"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mimi6060/festivals-pos/internal/adapters/http/common"
	"github.com/mimi6060/festivals-pos/internal/adapters/http/handlers"
	"github.com/mimi6060/festivals-pos/internal/adapters/http/middleware"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig configures the router.
type RouterConfig struct {
	// Logger for the middleware chain
	Logger *slog.Logger
	// DB backs the readiness probe
	DB *sql.DB
	// Version of the agent
	Version string
	// BuildTime of the binary
	BuildTime string
	// Environment (development, production)
	Environment string
	// AllowedOrigins for CORS in production
	AllowedOrigins []string
	// Auth guards the API; nil means the loopback-only default
	Auth *middleware.AuthConfig
	// TracingEnabled adds the otelgin middleware
	TracingEnabled bool
}

// DefaultRouterConfig is the development configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		Version:        "dev",
		BuildTime:      "unknown",
		Environment:    "development",
		AllowedOrigins: []string{"*"},
		Auth:           middleware.DefaultAuthConfig(),
	}
}

// ============================================
// Use Case Providers
// ============================================

// PaymentUseCases provides the payment use cases.
type PaymentUseCases struct {
	CreatePayment handlers.CreatePaymentUseCase
	GetPayment    handlers.GetPaymentUseCase
	ListPayments  handlers.ListPaymentsUseCase
}

// WalletUseCases provides the wallet use cases.
type WalletUseCases struct {
	GetWallet handlers.GetWalletUseCase
}

// CatalogUseCases provides the catalogue use cases.
type CatalogUseCases struct {
	ListCatalog    handlers.ListCatalogUseCase
	RefreshCatalog handlers.RefreshCatalogUseCase
}

// SyncUseCases provides the sync queue use cases.
type SyncUseCases struct {
	GetStats   handlers.GetSyncStatsUseCase
	ListFailed handlers.ListFailedItemsUseCase
	RetryItem  handlers.RetryFailedItemUseCase
	Trigger    ports.SyncTrigger
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder assembles the router step by step.
//
// Pattern: Builder
// - Handlers receive only the use cases they need
// - Partial builds keep handler tests small
type RouterBuilder struct {
	config   *RouterConfig
	payments *PaymentUseCases
	wallets  *WalletUseCases
	catalog  *CatalogUseCases
	sync     *SyncUseCases
}

// NewRouterBuilder creates a new builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithPaymentUseCases adds the payment use cases.
func (b *RouterBuilder) WithPaymentUseCases(useCases *PaymentUseCases) *RouterBuilder {
	b.payments = useCases
	return b
}

// WithWalletUseCases adds the wallet use cases.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// WithCatalogUseCases adds the catalogue use cases.
func (b *RouterBuilder) WithCatalogUseCases(useCases *CatalogUseCases) *RouterBuilder {
	b.catalog = useCases
	return b
}

// WithSyncUseCases adds the sync queue use cases.
func (b *RouterBuilder) WithSyncUseCases(useCases *SyncUseCases) *RouterBuilder {
	b.sync = useCases
	return b
}

// Build assembles the configured Gin engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - must come first
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 4. Tracing
	if b.config.TracingEnabled {
		router.Use(otelgin.Middleware("festivals-pos"))
	}

	// 5. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 6. Rate limiting
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 7. Metrics
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.DB,
		b.config.Version,
		b.config.BuildTime,
	)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	authConfig := b.config.Auth
	if authConfig == nil {
		authConfig = middleware.DefaultAuthConfig()
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(authConfig))

	// Payment routes - the hot path of the POS
	if b.payments != nil {
		paymentHandler := handlers.NewPaymentHandler(
			b.payments.CreatePayment,
			b.payments.GetPayment,
			b.payments.ListPayments,
		)
		payments := v1.Group("/payments")
		{
			// Creation rides its own limiter: one operator cannot ring up
			// faster than this, a looping UI can.
			payments.POST("", middleware.PaymentRateLimit(), paymentHandler.CreatePayment)
			payments.GET("", paymentHandler.ListPayments)
			payments.GET("/:id", paymentHandler.GetPayment)
		}
	}

	// Wallet routes
	if b.wallets != nil {
		walletHandler := handlers.NewWalletHandler(b.wallets.GetWallet)
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:id", walletHandler.GetWallet)
			wallets.GET("/:id/qr", walletHandler.GetWalletQR)
			wallets.GET("/by-user/:user_id", walletHandler.GetWalletByUser)
		}
	}

	// Catalogue routes
	if b.catalog != nil {
		catalogHandler := handlers.NewCatalogHandler(
			b.catalog.ListCatalog,
			b.catalog.RefreshCatalog,
		)
		catalogHandler.RegisterRoutes(v1)
	}

	// Sync queue routes
	if b.sync != nil {
		syncHandler := handlers.NewSyncHandler(
			b.sync.GetStats,
			b.sync.ListFailed,
			b.sync.RetryItem,
			b.sync.Trigger,
		)
		syncHandler.RegisterRoutes(v1)
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter builds a router with the given configuration.
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}
