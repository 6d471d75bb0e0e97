package router

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/house"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/workflow"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/respond"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

type requestIDKey struct{}

// RequestIDFrom returns the id assigned by RequestIDMiddleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware propagates X-Request-ID, generating a UUID when the
// client did not send one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// LoggingMiddleware logs every request at debug level, and 5xx responses at warn.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"size", lrw.size,
			}
			if status >= http.StatusInternalServerError {
				logger.Warnw("http request", fields...)
				return
			}
			logger.Debugw("http request", fields...)
		})
	}
}

// RecoverMiddleware turns a handler panic into a generic 500 envelope.
func RecoverMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Errorw("panic serving request", "request_id", RequestIDFrom(r.Context()), "panic", p, "path", r.URL.Path)
					respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Message: apperr.InternalMessage})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware sets conservative security headers on every response.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the routes are mounted on.
type Deps struct {
	Logger   *zap.SugaredLogger
	DB       Pinger
	Tokens   *auth.TokenIssuer
	Loader   auth.AccountLoader
	Accounts *account.Handler
	Houses   *house.Handler
	Requests *workflow.Handler
}

// RegisterRoutes mounts every endpoint on a ServeMux and wraps it in the
// middleware chain.
func RegisterRoutes(d Deps) http.Handler {
	lg := d.Logger
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.PingContext(ctx); err != nil {
			lg.Warnw("health check failed", "err", err)
			respond.JSON(w, http.StatusServiceUnavailable, respond.Envelope{Message: "base de datos no disponible"})
			return
		}
		respond.OK(w, http.StatusOK, "ok", nil)
	})

	mux.HandleFunc("POST /api/auth/login", d.Accounts.Login)
	mux.HandleFunc("POST /api/auth/refresh", d.Accounts.Refresh)
	mux.HandleFunc("POST /api/auth/logout", d.Accounts.Logout)
	mux.HandleFunc("GET /api/auth/me", auth.Require(auth.OpViewSelf, lg, d.Accounts.Me))
	mux.HandleFunc("GET /api/accounts", auth.Require(auth.OpListAccounts, lg, d.Accounts.List))

	mux.HandleFunc("GET /api/houses", auth.Require(auth.OpViewHouses, lg, d.Houses.List))
	mux.HandleFunc("POST /api/houses", auth.Require(auth.OpManageHouses, lg, d.Houses.Create))
	mux.HandleFunc("PUT /api/houses/{id}/payment-status", auth.Require(auth.OpManageHouses, lg, d.Houses.SetPaymentStatus))

	// the engine checks the operation for each kind
	mux.HandleFunc("POST /api/requests/{kind}", d.Requests.Submit)
	mux.HandleFunc("GET /api/requests/{kind}", d.Requests.ListPending)
	mux.HandleFunc("PUT /api/requests/{kind}/{id}/approve", d.Requests.Approve)
	mux.HandleFunc("PUT /api/requests/{kind}/{id}/reject", d.Requests.Reject)

	var h http.Handler = mux
	h = auth.Authenticate(d.Tokens, d.Loader, lg)(h)
	h = SecurityHeadersMiddleware()(h)
	h = RecoverMiddleware(lg)(h)
	h = LoggingMiddleware(lg)(h)
	h = RequestIDMiddleware()(h)
	return h
}
