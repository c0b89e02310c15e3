package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
	"github.com/grzegorczykanna/UBSWebAPI/internal/metrics"
	"github.com/grzegorczykanna/UBSWebAPI/internal/view"
)

// RouterOptions configure the middleware chain. A nil Limiter disables
// rate limiting.
type RouterOptions struct {
	Log     logrus.FieldLogger
	Limiter *RateLimiter
}

// NewRouter creates and configures a new HTTP router. Logging, recovery and
// rate limiting wrap the whole router so unmatched requests pass through
// them too.
func NewRouter(h *CountryHandler, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.HandleFunc("/api/region/{region}/biggest_countries_in_region", h.View(domain.Region, view.Biggest)).Methods(http.MethodGet)
	r.HandleFunc("/api/subregion/{subregion}/countries_borders", h.View(domain.SubRegion, view.Borders)).Methods(http.MethodGet)
	r.HandleFunc("/api/subregion/{subregion}/subregion_population", h.View(domain.SubRegion, view.Population)).Methods(http.MethodGet)
	r.HandleFunc("/api/region/{region}", h.View(domain.Region, view.All)).Methods(http.MethodGet)
	r.HandleFunc("/api/subregion/{subregion}", h.View(domain.SubRegion, view.All)).Methods(http.MethodGet)

	r.HandleFunc("/api/cache", h.ClearCache).Methods(http.MethodDelete)
	r.HandleFunc("/api/cache/{kind}/{name}", h.InvalidateCache).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// mux skips Use middleware for these, so metrics are attached directly.
	r.NotFoundHandler = metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	}))
	r.MethodNotAllowedHandler = metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}))

	var handler http.Handler = r
	if opts.Limiter != nil {
		handler = opts.Limiter.Handler(handler)
	}
	return RequestLogger(opts.Log)(Recoverer(opts.Log)(handler))
}
