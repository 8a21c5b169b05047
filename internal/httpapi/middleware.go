package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/league-backend/internal/domain"
	"github.com/DoyleJ11/league-backend/internal/league"
	"github.com/DoyleJ11/league-backend/internal/logging"
)

type actorKey struct{}

func actorFrom(ctx context.Context) league.Actor {
	a, _ := ctx.Value(actorKey{}).(league.Actor)
	return a
}

// requestLogger logs one line per request and feeds the latency histogram.
func requestLogger(d Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			elapsed := time.Since(start)
			d.Metrics.ObserveRequest(r.Method, route, status, elapsed)
			d.Log.Info("http request",
				zap.String(logging.FieldRequestID, middleware.GetReqID(r.Context())),
				zap.String(logging.FieldMethod, r.Method),
				zap.String(logging.FieldPath, r.URL.Path),
				zap.Int(logging.FieldStatus, status),
				zap.Duration(logging.FieldDuration, elapsed),
			)
		})
	}
}

// withActor resolves the session user, if any, into the request context.
func withActor(d Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := d.Sessions.UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := d.League.ActorFor(r.Context(), userID)
			switch {
			case errors.Is(err, domain.ErrForbidden):
				writeError(w, r, http.StatusForbidden, err.Error())
				return
			case err != nil:
				// Stale session; continue anonymously.
				actor = league.Actor{}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
		})
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r.Context()).UserID == "" {
			writeError(w, r, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := actorFrom(r.Context())
		switch {
		case a.UserID == "":
			writeError(w, r, http.StatusUnauthorized, "sign in required")
		case !a.Admin:
			writeError(w, r, http.StatusForbidden, "site admin required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}
