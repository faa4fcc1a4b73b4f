package di

import (
	"context"
	"fmt"
	"net/http"

	"ideamap/application/commands/bus"
	commandhandlers "ideamap/application/commands/handlers"
	"ideamap/application/ports"
	querybus "ideamap/application/queries/bus"
	queryhandlers "ideamap/application/queries/handlers"
	"ideamap/application/selection"
	"ideamap/application/sessions"
	"ideamap/domain/layout"
	"ideamap/infrastructure/config"
	"ideamap/infrastructure/llm"
	"ideamap/infrastructure/messaging"
	"ideamap/infrastructure/messaging/eventbridge"
	"ideamap/infrastructure/observability"
	"ideamap/interfaces/http/rest"
	"ideamap/interfaces/http/rest/middleware"
	"ideamap/interfaces/render"
	"ideamap/pkg/auth"
	pkgerrors "ideamap/pkg/errors"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", cfg.ServiceName)), nil
}

// ProvideModelProvider creates the configured model backend
func ProvideModelProvider(cfg *config.Config, logger *zap.Logger) (llm.Provider, error) {
	return llm.NewProvider(cfg.LLM(), logger)
}

// ProvideModelClient creates the structured model client
func ProvideModelClient(provider llm.Provider, cfg *config.Config, logger *zap.Logger) *llm.Client {
	return llm.NewClient(provider, cfg.LLM(), logger)
}

// ProvideModelPort exposes the client through its port
func ProvideModelPort(client *llm.Client) ports.ModelClient {
	return client
}

// ProvideEventPublisher always logs domain events and forwards them to
// EventBridge when events are enabled.
func ProvideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, error) {
	logPublisher := messaging.NewLogPublisher(logger)
	if !cfg.EnableEvents {
		return logPublisher, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := awseventbridge.NewFromConfig(awsCfg)

	return messaging.MultiPublisher{
		logPublisher,
		eventbridge.NewPublisher(client, cfg.EventBusName, logger),
	}, nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.ServiceName)
}

// ProvideRules serves layout sizing rules, hot-reloaded from RulesFile when set
func ProvideRules(cfg *config.Config, logger *zap.Logger) (ports.RulesProvider, func(), error) {
	if cfg.RulesFile == "" {
		return ports.StaticRules(layout.DefaultSizingRules()), func() {}, nil
	}

	watcher, err := config.NewRulesWatcher(cfg.RulesFile, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(rules layout.SizingRules) {
		logger.Info("Layout rules reloaded", zap.String("path", cfg.RulesFile))
	})
	watcher.Start()
	return watcher, watcher.Stop, nil
}

// ProvideSessionRegistry creates the in-memory session registry
func ProvideSessionRegistry(
	client ports.ModelClient,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) (*sessions.Registry, func(), error) {
	registry := sessions.NewRegistry(client, publisher, metrics, cfg.Domain(), logger)
	err := metrics.RegisterGaugeFunc("sessions_active", "Number of live sessions", func() float64 {
		return float64(registry.Len())
	})
	if err != nil {
		registry.Close()
		return nil, nil, err
	}
	return registry, registry.Close, nil
}

// ProvideCommandBus creates the command bus with its handlers registered
func ProvideCommandBus(registry *sessions.Registry, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(busLogger{logger.Sugar()}))
	if err := commandhandlers.NewSessionHandler(registry, logger).Register(commandBus); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideRenderers lists the supported map output formats
func ProvideRenderers() []ports.MapRenderer {
	return []ports.MapRenderer{
		render.NewSVGRenderer(),
		render.NewPNGRenderer(2),
	}
}

// ProvideQueryBus creates the query bus with its handlers registered
func ProvideQueryBus(
	registry *sessions.Registry,
	rules ports.RulesProvider,
	renderers []ports.MapRenderer,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus().WithMetrics(metrics)
	handler := queryhandlers.NewSessionQueryHandler(registry, selection.NewResolver(), rules, renderers, metrics, logger)
	if err := handler.Register(queryBus); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideTokenService creates the session token service. Outside production
// a missing secret is replaced by a random one, which invalidates tokens on
// restart.
func ProvideTokenService(cfg *config.Config, logger *zap.Logger) (*auth.TokenService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using an ephemeral secret")
		secret = uuid.New().String()
	}
	return auth.NewTokenService(auth.TokenConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		TTL:       cfg.JWTTokenTTL,
	})
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter builds the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenService,
	errs *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	client *llm.Client,
	logger *zap.Logger,
) *rest.Router {
	var (
		metricsHandler http.Handler
		observer       middleware.HTTPMetrics
	)
	if cfg.EnableMetrics {
		metricsHandler = metrics.Handler()
		observer = metrics
	}

	routerCfg := rest.RouterConfig{
		Version:              cfg.Version,
		CORSOrigins:          cfg.CORSOrigins,
		EnableCORS:           cfg.EnableCORS,
		MaxRequestBytes:      cfg.MaxRequestBytes,
		ForceWait:            cfg.IsLambda,
		SessionsPerMinute:    cfg.SessionsPerMinute,
		GenerationsPerMinute: cfg.GenerationsPerMinute,
	}
	return rest.NewRouter(commandBus, queryBus, tokens, errs, metricsHandler, observer, client.IsAvailable, routerCfg, logger)
}

// ProvideHTTPHandler returns the fully configured HTTP handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}

// busLogger adapts a sugared logger to the command bus logger
type busLogger struct {
	sugar *zap.SugaredLogger
}

func (l busLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l busLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
