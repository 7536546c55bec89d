// Package chi mounts the storefront API on a Chi router.
// This package is a thin adapter: every route delegates to the shared
// fetcchhttp.Storefront and maps errors with the shared helpers.
package chi

import (
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fetcchhttp "github.com/mark3labs/fetcch-go/http"
	"github.com/mark3labs/fetcch-go/http/internal/helpers"
)

// Config configures the storefront router.
type Config struct {
	// Gatherer serves GET /metrics when set.
	Gatherer prometheus.Gatherer

	// AllowOrigin is sent as Access-Control-Allow-Origin when set.
	AllowOrigin string

	Logger *slog.Logger
}

// NewRouter returns a Chi router exposing store.
//
// Routes:
//   - GET    /healthz
//   - GET    /chains
//   - GET    /countries
//   - GET    /countries/{country}
//   - POST   /sessions
//   - GET    /sessions/{id}
//   - PUT    /sessions/{id}
//   - DELETE /sessions/{id}
//   - POST   /sessions/{id}/buy
//   - GET    /metrics (when Config.Gatherer is set)
//
// Example usage:
//
//	store, _ := fetcchhttp.NewStorefront(client)
//	r := chi.NewRouter(store, chi.Config{Gatherer: prometheus.DefaultGatherer})
//	http.ListenAndServe(":8080", r)
func NewRouter(store *fetcchhttp.Storefront, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if cfg.AllowOrigin != "" {
		r.Use(cors(cfg.AllowOrigin))
	}

	h := &handlers{store: store, logger: logger}

	r.Get("/healthz", h.health)
	r.Get("/chains", h.chains)
	r.Route("/countries", func(r chi.Router) {
		r.Get("/", h.countries)
		r.Get("/{country}", h.country)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.session)
			r.Put("/", h.updateSession)
			r.Delete("/", h.closeSession)
			r.Post("/buy", h.buy)
		})
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

type handlers struct {
	store  *fetcchhttp.Storefront
	logger *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) chains(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, h.store.Chains)
}

func (h *handlers) countries(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string][]string{"countries": h.store.Countries()})
}

func (h *handlers) country(w http.ResponseWriter, r *http.Request) {
	price, err := h.store.Country(chi.URLParam(r, "country"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, price)
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req fetcchhttp.CreateSessionRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}

	view, err := h.store.CreateSession(req.Country)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, view)
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) {
	view, err := h.store.Session(chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, view)
}

func (h *handlers) updateSession(w http.ResponseWriter, r *http.Request) {
	var update fetcchhttp.SessionUpdate
	if err := helpers.DecodeJSON(r, &update); err != nil {
		helpers.WriteError(w, err)
		return
	}

	view, err := h.store.UpdateSession(chi.URLParam(r, "id"), update)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, view)
}

func (h *handlers) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.CloseSession(chi.URLParam(r, "id")); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) buy(w http.ResponseWriter, r *http.Request) {
	resp, err := h.store.Buy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("buy failed", "session", chi.URLParam(r, "id"), "error", err)
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, resp)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// cors answers preflight requests and sets the allowed origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
