package providers

import (
	"net/http"
	"time"
)

const unmatchedEndpoint = "unmatched"

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

// MetricsMiddleware records request counters and an access log line.
// Paths that are not registered on the router share one label so scanners
// cannot blow up series cardinality.
func MetricsMiddleware(metrics MetricsProviderInterface, logger Logger, router RouterProviderInterface, next http.Handler) http.Handler {
	known := make(map[string]struct{})
	for _, route := range router.GetRoutes() {
		known[route.Url] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := r.URL.Path
		if _, ok := known[endpoint]; !ok {
			endpoint = unmatchedEndpoint
		}
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
		logger.Debugf(GetLogTypeByRequestType(r.Method), "%s %s %d %s", r.Method, r.URL.Path, sw.status, duration)
	})
}
