package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	id "gatepass/pkg/domain"
	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/requestcontext"
)

// ActorResolver validates a bearer token and resolves its claims.
type ActorResolver interface {
	ExtractActor(tokenString string) (id.Actor, error)
}

// RequestID stamps every request with an ID for log correlation. An inbound
// X-Request-Id is trusted; otherwise one is minted.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without a valid bearer token and stamps the
// resolved actor into the request context.
func RequireAuth(resolver ActorResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			actor, err := resolver.ExtractActor(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx := requestcontext.WithActorID(r.Context(), actor.ID)
			ctx = requestcontext.WithActorRole(ctx, actor.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin sits behind RequireAuth and gates organizer-only routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestcontext.ActorRole(r.Context()).IsAdmin() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFromContext rebuilds the typed actor stamped by RequireAuth.
func ActorFromContext(r *http.Request) id.Actor {
	return id.Actor{
		ID:   requestcontext.ActorID(r.Context()),
		Role: requestcontext.ActorRole(r.Context()),
	}
}
