package rest

import (
	"net/http"
	"time"

	"ideamap/application/commands/bus"
	querybus "ideamap/application/queries/bus"
	"ideamap/interfaces/http/rest/handlers"
	"ideamap/interfaces/http/rest/middleware"
	"ideamap/pkg/auth"
	"ideamap/pkg/common"
	pkgerrors "ideamap/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessFunc reports whether the service can take generation traffic
type ReadinessFunc func() bool

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	Version              string
	CORSOrigins          []string
	EnableCORS           bool
	MaxRequestBytes      int64
	ForceWait            bool
	SessionsPerMinute    int
	GenerationsPerMinute int
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	tokens     *auth.TokenService
	errors     *pkgerrors.ErrorHandler
	metrics    http.Handler
	observer   middleware.HTTPMetrics
	ready      ReadinessFunc
	config     RouterConfig
	logger     *zap.Logger
}

// NewRouter creates a new router instance. metricsHandler and observer
// may be nil when metrics are disabled.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenService,
	errs *pkgerrors.ErrorHandler,
	metricsHandler http.Handler,
	observer middleware.HTTPMetrics,
	ready ReadinessFunc,
	config RouterConfig,
	logger *zap.Logger,
) *Router {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		tokens:     tokens,
		errors:     errs,
		metrics:    metricsHandler,
		observer:   observer,
		ready:      ready,
		config:     config,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.observer != nil {
		router.Use(middleware.Metrics(rt.observer))
	}
	router.Use(rt.versionMiddleware)

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Map-Epoch"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics)
	}

	sessionHandler := handlers.NewSessionHandler(rt.commandBus, rt.queryBus, rt.tokens, rt.errors, rt.logger, handlers.Options{
		MaxRequestBytes: rt.config.MaxRequestBytes,
		ForceWait:       rt.config.ForceWait,
		Version:         rt.config.Version,
	})
	sessionLimiter := passthrough
	if n := rt.config.SessionsPerMinute; n > 0 {
		sessionLimiter = middleware.RateLimit(auth.NewIPRateLimiter(n), middleware.ByClientIP, rt.errors, rt.logger)
	}
	generationLimiter := passthrough
	if n := rt.config.GenerationsPerMinute; n > 0 {
		generationLimiter = middleware.RateLimit(auth.NewSessionRateLimiter(n), middleware.BySession, rt.errors, rt.logger)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.With(sessionLimiter).Post("/sessions", sessionHandler.CreateSession)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(middleware.SessionAuth(rt.tokens, rt.errors, rt.logger))

			r.Get("/", sessionHandler.GetSession)
			r.Delete("/", sessionHandler.DeleteSession)
			r.Put("/language", sessionHandler.SetLanguage)
			r.Put("/surface", sessionHandler.ResizeSurface)

			r.With(generationLimiter).Post("/generations", sessionHandler.SubmitGeneration)
			r.Get("/tree", sessionHandler.GetTree)
			r.Get("/tasks", sessionHandler.GetTasks)

			r.Get("/layout", sessionHandler.GetLayout)
			r.Get("/map.svg", sessionHandler.RenderMap("svg"))
			r.Get("/map.png", sessionHandler.RenderMap("png"))

			r.Route("/selection", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSelection)
				r.Post("/", sessionHandler.SelectNode)
				r.Delete("/", sessionHandler.DeselectNode)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": rt.config.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// readinessCheck reports 503 while the model backend is unreachable or its breaker is open
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if !rt.ready() {
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		if rt.config.Version != "" {
			w.Header().Set("X-Service-Version", rt.config.Version)
		}
		next.ServeHTTP(w, r)
	})
}

func passthrough(next http.Handler) http.Handler { return next }
