package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	doubtshandler "docverify/internal/doubts/handler"
	idcardhandler "docverify/internal/idcard/handler"
	"docverify/internal/platform/health"
	schemeshandler "docverify/internal/schemes/handler"
	"docverify/internal/session"
	"docverify/internal/throttle"
	verificationhandler "docverify/internal/verification/handler"
	"docverify/pkg/platform/middleware/auth"
	"docverify/pkg/platform/middleware/metadata"
	"docverify/pkg/platform/middleware/request"
)

const (
	// A submission may run two rounds of model calls back to back.
	defaultRequestTimeout = 2 * time.Minute
	// Two base64 images of up to 5MB each plus JSON framing.
	defaultMaxBodyBytes = 16 << 20
)

// Deps are the handlers and middleware the router mounts. Health, Session and
// Tokens are required; a nil Throttle leaves submissions unthrottled.
type Deps struct {
	Logger         *slog.Logger
	Health         *health.Handler
	Session        *session.Handler
	Tokens         auth.JWTValidator
	Cards          *idcardhandler.Handler
	Verifications  *verificationhandler.Handler
	Doubts         *doubtshandler.Handler
	Schemes        *schemeshandler.Handler
	Throttle       *throttle.Middleware
	RequestMetrics *request.Metrics
	TrustedProxies []netip.Prefix
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(d.TrustedProxies).Handler)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.RequestMetrics))
	r.Use(request.Timeout(timeout))
	r.Use(request.BodyLimit(maxBody))
	r.Use(request.ContentTypeJSON)

	d.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	d.Session.Register(r)
	if d.Schemes != nil {
		d.Schemes.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Tokens, d.Logger))

		if d.Cards != nil {
			d.Cards.Register(r)
		}
		if d.Verifications != nil {
			d.Verifications.Register(r)
			r.With(throttled(d.Throttle, "verifications")...).Post("/verifications", d.Verifications.HandleSubmit)
		}
		if d.Doubts != nil {
			d.Doubts.Register(r)
			r.With(throttled(d.Throttle, "doubts")...).Post("/doubts", d.Doubts.HandlePost)
		}
	})

	return r
}

func throttled(m *throttle.Middleware, route string) []func(http.Handler) http.Handler {
	if m == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{m.Throttle(route)}
}
