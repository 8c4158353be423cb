package httpserver

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

const serviceName = "peek-server"

// Deps is everything the router needs.
type Deps struct {
	Auth     Authenticator
	Profiles ProfileResolver
	Pool     DatastorePool
	Items    ItemStore
	Log      logging.Logger

	RequestTimeout time.Duration
	CORSOrigins    []string
	RateLimit      string
	// Redis backs the rate limiter when set.
	Redis *redis.Client
}

// NewRouter builds the full handler chain. The returned Metrics is the one
// served on /metrics.
func NewRouter(d Deps) (http.Handler, *Metrics, error) {
	limit, err := RateLimit(d.RateLimit, d.Redis, d.Log)
	if err != nil {
		return nil, nil, err
	}
	metrics := NewMetrics()

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(serviceName))
	r.Use(metrics.Middleware)
	r.Use(RequestLogger(d.Log))
	if d.RequestTimeout > 0 {
		r.Use(Timeout(d.RequestTimeout))
	}
	r.Use(VersionHeaders)

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	h := &itemHandlers{items: d.Items, log: d.Log, validate: newValidator()}

	api := r.PathPrefix("/items").Subrouter()
	api.Use(Auth(d.Auth, d.Log))
	api.Use(limit)
	api.Use(Tenant(d.Profiles, d.Pool, d.Log))

	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("", h.push).Methods(http.MethodPost)
	api.HandleFunc("/since/{timestamp}", h.since).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/tags", h.replaceTags).Methods(http.MethodPatch)

	// mux skips middleware for unmatched routes, so these stamp the
	// version headers themselves.
	r.NotFoundHandler = VersionHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not found")
	}))
	r.MethodNotAllowedHandler = VersionHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}))

	c := cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Authorization", "Content-Type",
			protocol.HeaderDatastoreVersion, protocol.HeaderProtocolVersion, protocol.HeaderClient,
		},
		ExposedHeaders: []string{protocol.HeaderDatastoreVersion, protocol.HeaderProtocolVersion},
		MaxAge:         300,
	})

	return Recover(d.Log)(c.Handler(r)), metrics, nil
}
