package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dnsosebee/methodable-sub000/application/commands/bus"
	querybus "github.com/dnsosebee/methodable-sub000/application/queries/bus"
	"github.com/dnsosebee/methodable-sub000/infrastructure/config"
	"github.com/dnsosebee/methodable-sub000/interfaces/http/rest/handlers"
	"github.com/dnsosebee/methodable-sub000/interfaces/http/rest/middleware"
	pkgerrors "github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// Tracer opens a trace segment per request
type Tracer interface {
	Middleware(next http.Handler) http.Handler
}

// Metrics records requests and serves the scrape endpoint
type Metrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	tracer     Tracer
	metrics    Metrics
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tracer Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		tracer:     tracer,
		cfg:        cfg,
		logger:     logger,
	}
}

// WithMetrics instruments every route and mounts GET /metrics
func (rt *Router) WithMetrics(metrics Metrics) *Router {
	rt.metrics = metrics
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.cfg.IsDevelopment())

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(rt.tracer.Middleware)
	router.Use(middleware.Identity)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(rt.metrics.Middleware)
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.UserHeader},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if rt.cfg.RateLimitPerMinute > 0 {
		router.Use(middleware.RateLimit(middleware.NewEditLimiter(rt.cfg.RateLimitPerMinute), errorHandler))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	doc := handlers.NewDocumentHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)

	router.Route("/api/v1/documents", func(r chi.Router) {
		r.Get("/", doc.ListDocuments)
		r.Post("/", doc.CreateDocument)

		r.Route("/{documentID}", func(r chi.Router) {
			r.Get("/", doc.GetDocument)
			r.Delete("/", doc.DeleteDocument)
			r.Get("/outline", doc.GetOutline)
			r.Get("/neighbor", doc.GetNeighbor)
			r.Get("/check", doc.CheckDocument)

			r.Route("/edits", func(r chi.Router) {
				r.Post("/enter", doc.Enter)
				r.Post("/backspace", doc.Backspace)
				r.Post("/indent", doc.Indent)
				r.Post("/outdent", doc.Outdent)
				r.Post("/paste", doc.Paste)
			})

			r.Route("/blocks", func(r chi.Router) {
				r.Post("/", doc.InsertBlock)
				r.Post("/transclude", doc.Transclude)
				r.Post("/{locatedBlockID}/move", doc.MoveBlock)
				r.Put("/{locatedBlockID}/status", doc.SetStatus)
				r.Delete("/{locatedBlockID}", doc.RemoveBlock)
			})

			r.Route("/contents/{contentID}", func(r chi.Router) {
				r.Put("/text", doc.UpdateText)
				r.Put("/verb", doc.UpdateVerb)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready","storage":"` + rt.cfg.StorageBackend + `"}`))
}
