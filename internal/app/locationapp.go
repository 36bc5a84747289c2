// Package app assembles each binary's full dependency graph, mirroring
// the teacher's internal/app.Application: a struct with Initialize,
// Start, WaitForShutdown, and Shutdown, built once per service in
// cmd/<service>/main.go.
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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/biometricfleet/attendance/internal/docs"
	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/internal/infrastructure/config"
	"github.com/biometricfleet/attendance/internal/infrastructure/device"
	"github.com/biometricfleet/attendance/internal/locationservice"
	apimiddleware "github.com/biometricfleet/attendance/internal/api/middleware"
	"github.com/biometricfleet/attendance/pkg/auth"
	"github.com/biometricfleet/attendance/pkg/logger"
	"github.com/biometricfleet/attendance/pkg/security"
	"github.com/biometricfleet/attendance/pkg/tracing"
)

// LocationApplication wires one Location Service instance (spec
// §4.2): device pool, JWT issuer, security chain, HTTP server.
type LocationApplication struct {
	cfgPath string

	store *config.Store[config.LocationSnapshot]
	log   *logger.Logger
	pool  *device.Pool
	auth  *auth.Service
	srv   *http.Server

	tracingShutdown func(context.Context) error
}

// NewLocationApplication builds an uninitialized application reading
// its config from path.
func NewLocationApplication(path string) *LocationApplication {
	return &LocationApplication{cfgPath: path}
}

// Initialize loads config, builds the device pool and its idle
// reaper, the JWT issuer, tracing, and the HTTP server. It does not
// start listening; call Start for that.
func (a *LocationApplication) Initialize() error {
	bootLog := logger.New("info", "production")

	store, err := config.LoadLocation(a.cfgPath, bootLog)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.store = store
	snap := store.Snapshot()

	a.log = logger.New(snap.Server.LogLevel, snap.Server.Env)

	tracingShutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		Enabled:      snap.Server.Env != "development",
		CollectorURL: getEnvOrDefault("OTEL_COLLECTOR_URL", "localhost:4317"),
		ServiceName:  "location-service",
		Environment:  snap.Server.Env,
		SampleRate:   sampleRateFor(snap.Server.Env),
	}, a.log.Zap())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.tracingShutdown = tracingShutdown

	authSvc, err := auth.NewService(snap.JWTSecret, snap.JWTIssuer)
	if err != nil {
		return authMisconfigured(err)
	}
	a.auth = authSvc

	devices := make(map[string]struct {
		Host string
		Port int
	}, len(snap.Devices))
	deviceDetails := make(map[string]entities.Device, len(snap.Devices))
	for _, d := range snap.Devices {
		devices[d.Name] = struct {
			Host string
			Port int
		}{Host: d.Host, Port: d.Port}
		deviceDetails[d.Name] = entities.Device{
			Name: d.Name, IP: d.Host, Port: d.Port,
			Password: d.Password, Model: d.Model, Capacity: d.Capacity,
		}
	}
	pool := device.NewPool(devices, snap.DeviceDialTO, snap.IdleTimeout, a.log)
	if err := pool.StartReaper("@every 1m"); err != nil {
		return fmt.Errorf("start device reaper: %w", err)
	}
	a.pool = pool

	svc := locationservice.New(pool, snap.Policy, a.log)
	handlers := locationservice.NewHandlers(svc, authSvc, snap.APIKey, deviceDetails)

	router := a.buildRouter(snap, handlers)

	a.srv = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", snap.Server.Host, snap.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return nil
}

func (a *LocationApplication) buildRouter(snap config.LocationSnapshot, handlers *locationservice.Handlers) *gin.Engine {
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
		AllowList: allowList, Limiter: limiter, Screen: screenCfg, AuthProv: a.auth, SkipAuth: true,
	})
	protectedChain := security.Chain(security.ChainConfig{
		AllowList: allowList, Limiter: limiter, Screen: screenCfg, AuthProv: a.auth,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apimiddleware.TimeoutMiddleware(apimiddleware.DefaultLocationCallTimeout))
	router.GET("/metrics", prometheusHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName("location_service")))

	locationservice.RegisterRoutes(router, handlers, publicChain, protectedChain)
	return router
}

// Start begins listening. The HTTP server runs on its own goroutine so
// the caller can proceed to WaitForShutdown.
func (a *LocationApplication) Start() error {
	go func() {
		a.log.Info("location service listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Fatal("location service failed", "error", err)
		}
	}()
	return nil
}

// WaitForShutdown blocks until SIGINT or SIGTERM.
func (a *LocationApplication) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// Shutdown drains in-flight requests, stops the device reaper, and
// flushes tracing, each bounded by its own timeout.
func (a *LocationApplication) Shutdown() error {
	a.log.Info("shutting down location service")

	a.pool.StopReaper()

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

// Reload re-reads this service's config file and swaps the stored
// snapshot. The device pool, work policy, device details, JWT issuer
// and listen address that Initialize built from the earlier snapshot
// are not rebuilt, so changes to them take effect only on restart.
func (a *LocationApplication) Reload(ctx context.Context) error {
	return a.store.Reload(ctx)
}
