// Package testutil holds small helpers shared by handler and service tests.
package testutil

import (
	"net/http"

	id "gatepass/pkg/domain"
	"gatepass/pkg/requestcontext"
)

// WithActor stamps an authenticated actor onto the request context, the way
// the auth middleware would for a real request.
func WithActor(req *http.Request, actor id.Actor) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), actor.ID)
	ctx = requestcontext.WithActorRole(ctx, actor.Role)
	return req.WithContext(ctx)
}

// WithRequestID stamps a request ID for log-correlation assertions.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
