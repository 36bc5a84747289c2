package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	apimiddleware "github.com/biometricfleet/attendance/internal/api/middleware"
	_ "github.com/biometricfleet/attendance/internal/docs"
	"github.com/biometricfleet/attendance/internal/gateway"
	"github.com/biometricfleet/attendance/internal/infrastructure/config"
	"github.com/biometricfleet/attendance/internal/infrastructure/httpclient"
	"github.com/biometricfleet/attendance/pkg/auth"
	"github.com/biometricfleet/attendance/pkg/circuitbreaker"
	"github.com/biometricfleet/attendance/pkg/logger"
	"github.com/biometricfleet/attendance/pkg/metrics"
	"github.com/biometricfleet/attendance/pkg/security"
	"github.com/biometricfleet/attendance/pkg/tracing"
)

// GatewayApplication wires the Unified Gateway (spec §4.1): a Location
// registry of circuit-breaker-wrapped clients, two independent JWT
// issuers (frontend and place_backend), and the fan-out REST API.
type GatewayApplication struct {
	cfgPath string

	store    *config.Store[config.GatewaySnapshot]
	log      *logger.Logger
	registry *gateway.Registry
	srv      *http.Server
	sweep    *cron.Cron

	tracingShutdown func(context.Context) error
}

// NewGatewayApplication builds an uninitialized application reading
// its config from path.
func NewGatewayApplication(path string) *GatewayApplication {
	return &GatewayApplication{cfgPath: path}
}

// Initialize loads config, builds the Location registry, both JWT
// issuers, the health-sweep cron job, tracing, and the HTTP server.
func (a *GatewayApplication) Initialize() error {
	bootLog := logger.New("info", "production")

	store, err := config.LoadGateway(a.cfgPath, bootLog)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.store = store
	snap := store.Snapshot()

	a.log = logger.New(snap.Server.LogLevel, snap.Server.Env)

	tracingShutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		Enabled:      snap.Server.Env != "development",
		CollectorURL: getEnvOrDefault("OTEL_COLLECTOR_URL", "localhost:4317"),
		ServiceName:  "unified-gateway",
		Environment:  snap.Server.Env,
		SampleRate:   sampleRateFor(snap.Server.Env),
	}, a.log.Zap())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracingShutdown = tracingShutdown

	frontendAuth, err := auth.NewService(snap.FrontendSecret, snap.FrontendIssuer)
	if err != nil {
		return authMisconfigured(err)
	}
	placeAuth, err := auth.NewService(snap.PlaceSecret, snap.PlaceIssuer)
	if err != nil {
		return authMisconfigured(err)
	}

	httpc := httpclient.New(10 * time.Second)
	breakerCfg := circuitbreaker.Config{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		OnStateChange: func(from, to circuitbreaker.State) {
			a.log.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
	}
	registry := gateway.NewRegistry(httpc, breakerCfg, a.log)
	registry.Reload(snap.Locations)
	a.registry = registry

	svc := gateway.New(registry, snap.Policy)
	frontendKey := getEnvOrDefault("FRONTEND_API_KEY", "")
	placeKey := getEnvOrDefault("PLACE_BACKEND_API_KEY", "")
	handlers := gateway.NewHandlers(svc, frontendAuth, placeAuth, frontendKey, placeKey)

	router := a.buildRouter(snap, handlers, frontendAuth)

	a.srv = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", snap.Server.Host, snap.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	a.sweep = cron.New()
	if snap.HealthSweepCron != "" {
		if _, err := a.sweep.AddFunc(snap.HealthSweepCron, func() { a.sweepBreakerMetrics() }); err != nil {
			return fmt.Errorf("schedule health sweep: %w", err)
		}
	}

	return nil
}

func (a *GatewayApplication) sweepBreakerMetrics() {
	for id, st := range a.registry.BreakerStates() {
		metrics.CircuitBreakerStateGauge.WithLabelValues(id).Set(float64(st))
	}
}

func (a *GatewayApplication) buildRouter(snap config.GatewaySnapshot, handlers *gateway.Handlers, frontendAuth *auth.Service) *gin.Engine {
	if snap.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := buildLimiter(snap.Security, a.log)
	allowList := security.NewAllowList(snap.Security.AllowedCIDRs)
	screenCfg := security.DefaultScreenConfig()
	if snap.Security.MaxBodyBytes > 0 {
		screenCfg.MaxBodyBytes = snap.Security.MaxBodyBytes
	}
	if len(snap.Security.BlockedPatterns) > 0 {
		screenCfg.BlockedPatterns = snap.Security.BlockedPatterns
	}

	publicChain := security.Chain(security.ChainConfig{
		AllowList: allowList, Limiter: limiter, Screen: screenCfg, AuthProv: frontendAuth, SkipAuth: true,
	})
	protectedChain := security.Chain(security.ChainConfig{
		AllowList: allowList, Limiter: limiter, Screen: screenCfg, AuthProv: frontendAuth,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apimiddleware.TimeoutMiddleware(snap.FanoutDeadline + 2*time.Second))
	router.GET("/metrics", prometheusHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName("gateway")))

	gateway.RegisterRoutes(router, handlers, publicChain, protectedChain)
	return router
}

// Start begins listening and the health-sweep cron.
func (a *GatewayApplication) Start() error {
	a.sweep.Start()
	go func() {
		a.log.Info("gateway listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Fatal("gateway failed", "error", err)
		}
	}()
	return nil
}

// WaitForShutdown blocks until SIGINT or SIGTERM.
func (a *GatewayApplication) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// Shutdown drains in-flight requests, stops the health sweep, and
// flushes tracing.
func (a *GatewayApplication) Shutdown() error {
	a.log.Info("shutting down gateway")

	sweepCtx := a.sweep.Stop()
	<-sweepCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.tracingShutdown != nil {
		_ = a.tracingShutdown(context.Background())
	}
	_ = a.log.Sync()
	return nil
}

// Reload re-reads the Gateway's config file, swapping both the
// snapshot and the derived Location client registry (spec §4.4's
// explicit reload, one level down per internal/gateway/registry.go).
func (a *GatewayApplication) Reload(ctx context.Context) error {
	if err := a.store.Reload(ctx); err != nil {
		return err
	}
	a.registry.Reload(a.store.Snapshot().Locations)
	return nil
}
