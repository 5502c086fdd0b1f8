// Package server builds the careers service from configuration and runs its HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/breathscript/Deccanbridgecareers/internal/api"
	"github.com/breathscript/Deccanbridgecareers/internal/clock/system"
	"github.com/breathscript/Deccanbridgecareers/internal/config"
	"github.com/breathscript/Deccanbridgecareers/internal/fallback"
	"github.com/breathscript/Deccanbridgecareers/internal/id/uuid"
	"github.com/breathscript/Deccanbridgecareers/internal/metrics"
	"github.com/breathscript/Deccanbridgecareers/internal/odoo"
	"github.com/breathscript/Deccanbridgecareers/internal/policy/ratelimit"
	gcppublisher "github.com/breathscript/Deccanbridgecareers/internal/publisher/pubsub"
	gcsstorage "github.com/breathscript/Deccanbridgecareers/internal/storage/gcs"
	localstorage "github.com/breathscript/Deccanbridgecareers/internal/storage/local"
	memorystorage "github.com/breathscript/Deccanbridgecareers/internal/storage/memory"
	"github.com/breathscript/Deccanbridgecareers/internal/submission"
	"github.com/breathscript/Deccanbridgecareers/internal/telemetry"
)

// ServiceName identifies the service in traces.
const ServiceName = "careers"

// Version is stamped at build time with -ldflags "-X".
var Version = "dev"

// App contains the application's dependencies.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	router       *submission.Router
	pubsubClient *pubsub.Client
	publisher    *gcppublisher.Publisher
	storage      *storage.Client

	tracerShutdown func(context.Context) error
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	app := &App{cfg: cfg, logger: logger}

	tp, err := telemetry.InitTracerProvider(ctx, ServiceName, Version)
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("crm_configured", cfg.Odoo.Enabled()))

	blobStore, err := app.setupStorage(ctx)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	var publisher submission.Publisher
	if err := app.setupPublisher(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	if app.publisher != nil {
		publisher = app.publisher
	}

	ids := uuid.New()
	clock := system.New()
	fallbackLogger, err := fallback.New(blobStore, publisher, ids, clock, fallback.Config{
		Prefix: cfg.Storage.LogPrefix,
		Topic:  cfg.PubSub.TopicName,
	}, logger.Named("fallback"))
	if err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("fallback logger init failed: %w", err)
	}

	crmCfg := odooConfig(cfg.Odoo)
	strategies := odoo.NewStrategies(crmCfg)
	app.router = submission.NewRouter(cfg.Odoo.LeadModel, strategies, fallbackLogger, logger.Named("router"))
	if len(strategies) == 0 {
		logger.Warn("no CRM strategies configured; every submission will be logged locally")
	} else {
		logger.Info("CRM strategies configured", zap.Strings("strategies", app.router.Strategies()))
	}

	var fields submission.FieldDiscoverer
	if crmCfg.HasPasswordAuth() {
		fields = odoo.NewDiscovery(crmCfg, cfg.Odoo.DiscoveryTimeout(), logger.Named("discovery"))
	}

	deps := api.Dependencies{
		Router:    app.router,
		Fallback:  fallbackLogger,
		Fields:    fields,
		Uploads:   blobStore,
		IDs:       ids,
		Clock:     clock,
		RequestID: ids.NewRequestID,
	}
	if cfg.Server.RateLimitRPS > 0 {
		deps.Limiter = ratelimit.New(ratelimit.Config{
			RPS:   cfg.Server.RateLimitRPS,
			Burst: cfg.Server.RateLimitBurst,
		})
		logger.Info("form rate limiting enabled",
			zap.Float64("rps", cfg.Server.RateLimitRPS),
			zap.Int("burst", cfg.Server.RateLimitBurst))
	}
	app.apiServer = api.NewServer(deps, cfg, logger.Named("api"))

	return app, nil
}

// Handler returns the traced HTTP handler.
func (a *App) Handler() http.Handler {
	return otelhttp.NewHandler(a.apiServer.Handler(), "http.server")
}

// Run starts the HTTP server and blocks until the context is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: time.Duration(a.cfg.Server.ReadHeaderTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.Close()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// Close releases cloud clients. Safe to call more than once.
func (a *App) Close() {
	a.closeInfrastructure()
	a.logger.Info("shutdown complete")
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.cfg.Server.ShutdownTimeoutSeconds) * time.Second
}

func (a *App) closeInfrastructure() {
	if a.publisher != nil {
		a.publisher.Stop()
		a.publisher = nil
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
		a.pubsubClient = nil
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.storage = nil
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
		a.tracerShutdown = nil
	}
}

func (a *App) setupStorage(ctx context.Context) (submission.BlobStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Storage.Bucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.storage = client
		store, err := gcsstorage.New(client, gcsstorage.Config{Bucket: a.cfg.Storage.Bucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		return store, nil
	case config.BackendLocal:
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Storage.Local.BaseDir))
		store, err := localstorage.New(a.cfg.Storage.Local)
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		return store, nil
	default:
		a.logger.Warn("using in-memory storage backend; fallback records will not survive a restart")
		return memorystorage.NewBlobStore(), nil
	}
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.TopicName == "" || a.cfg.PubSub.ProjectID == "" {
		a.logger.Info("no Pub/Sub topic configured, review notices disabled")
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	a.publisher = gcppublisher.New(client.Topic(a.cfg.PubSub.TopicName))
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName))
	return nil
}

// odooConfig converts the service configuration into transport settings.
func odooConfig(cfg config.OdooConfig) odoo.Config {
	if !cfg.Enabled() {
		return odoo.Config{}
	}
	return odoo.Config{
		BaseURL:           cfg.Domain,
		Database:          cfg.DatabaseName(),
		Login:             cfg.Login(),
		Password:          cfg.Secret(),
		APIKey:            cfg.APIKey,
		AuthTimeout:       cfg.AuthTimeout(),
		CreateTimeout:     cfg.CreateTimeout(),
		AttachmentTimeout: cfg.AttachmentTimeout(),
	}
}
