package throttle

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/httputil"
	"docverify/pkg/platform/privacy"
	"docverify/pkg/requestcontext"
)

type Metrics struct {
	Rejected *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Rejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_throttle_rejected_total",
			Help: "Submissions rejected by the per-user throttle",
		}, []string{"route"}),
	}
}

func (m *Metrics) incrementRejected(route string) {
	if m != nil {
		m.Rejected.WithLabelValues(route).Inc()
	}
}

type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
	metrics *Metrics
}

func NewMiddleware(limiter Limiter, logger *slog.Logger, metrics *Metrics) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{limiter: limiter, logger: logger, metrics: metrics}
}

// Throttle keys the window by authenticated user, falling back to client IP.
// A limiter failure lets the request through.
func (m *Middleware) Throttle(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "ip:" + requestcontext.ClientIP(ctx)
			if userID := requestcontext.UserID(ctx); !userID.IsNil() {
				key = "user:" + userID.String()
			}
			key = route + ":" + key

			res, err := m.limiter.Allow(ctx, key)
			if err != nil {
				m.logger.ErrorContext(ctx, "throttle check failed",
					"error", err,
					"route", route,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				m.metrics.incrementRejected(route)
				m.logger.WarnContext(ctx, "submission throttled",
					"route", route,
					"user_id", requestcontext.UserID(ctx).String(),
					"ip_prefix", privacy.AnonymizeIP(requestcontext.ClientIP(ctx)),
				)
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter(requestcontext.Now(ctx))))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many submissions, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
