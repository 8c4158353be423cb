package httpserver

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/gorilla/mux"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// ProfileResolver maps a profile id or slug onto a profile UUID.
type ProfileResolver interface {
	ResolveProfileID(ctx context.Context, userID, identifier string) (string, error)
}

// DatastorePool hands out the datastore of a profile.
type DatastorePool interface {
	Get(ctx context.Context, userID, profileID string) (*sql.DB, error)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Recover turns a panic into a 500 response.
func Recover(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error(r.Context(), "panic recovered", "panic", p, "method", r.Method, "path", r.URL.Path)
					writeErrorMessage(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with the matched route template.
func RequestLogger(log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			log.Info(r.Context(), "http request",
				"method", r.Method,
				"route", routeTemplate(r),
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// Timeout bounds every request with a deadline.
func Timeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VersionHeaders echoes the server's datastore and protocol versions on
// every response. Requests are never rejected here.
func VersionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protocol.SetHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}

// Auth requires "Authorization: Bearer <api key>" and stores the user id on
// the request context.
func Auth(auth Authenticator, log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, log, common.ErrorUnauthorized)
				return
			}
			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Tenant resolves ?profile= (or ?slug=, or the default profile) for the
// authenticated user and attaches the profile's datastore.
func Tenant(resolver ProfileResolver, pool DatastorePool, log logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserID(r.Context())
			if !ok {
				writeError(w, r, log, common.ErrorUnauthorized)
				return
			}

			q := r.URL.Query()
			identifier := q.Get("profile")
			if identifier == "" {
				identifier = q.Get("slug")
			}

			profileID, err := resolver.ResolveProfileID(r.Context(), userID, identifier)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			db, err := pool.Get(r.Context(), userID, profileID)
			if err != nil {
				writeError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), profileID, db)))
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
