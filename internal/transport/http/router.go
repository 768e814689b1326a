// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and encode; authorization lives in the services and in the
// route middleware, never in handler bodies.
package httptransport

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatepass/internal/platform/middleware"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/platform/middleware/metadata"
	"gatepass/pkg/requestcontext"
)

// Deps carries everything the router needs. Handlers receive only the slice
// of it they use.
type Deps struct {
	Auth        *AuthHandler
	Payments    *PaymentHandler
	Scans       *ScanHandler
	Registrants *RegistrantHandler

	UploadsDir string
}

// NewRouter wires all public endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestClock)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Rendered artifacts (QR codes, certificates) are served as static files
	// under the same paths stored on the registrant record.
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(filepath.Clean(deps.UploadsDir))))
	r.Get("/uploads/*", fs.ServeHTTP)

	deps.Auth.Register(r)
	deps.Payments.Register(r)
	deps.Scans.Register(r)
	deps.Registrants.Register(r)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestClock pins one timestamp per request so every stamp taken while
// serving it agrees.
func requestClock(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
