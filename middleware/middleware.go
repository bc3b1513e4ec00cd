// Package middleware holds the httprouter.Handle wrappers shared by every
// API route: request logging with correlation ids, in-flight accounting,
// and panic recovery, each composed by wrapping a handler in another.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/log"
	"github.com/auracorp/aurastudio/metrics"
)

const correlationIDHeader = "X-Correlation-Id"

// WithLogging assigns a correlation id to the request (reusing the caller's
// X-Correlation-Id header if present), attaches it and the route to the
// request context, logs the outcome, and tracks the in-flight gauge.
func WithLogging(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		started := time.Now()

		correlationID := r.Header.Get(correlationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set(correlationIDHeader, correlationID)

		ctx := log.WithValues(r.Context(), "correlationId", correlationID, "path", r.URL.Path, "method", r.Method)
		r = r.WithContext(ctx)

		metrics.Default.HTTPRequestsInFlight.Inc()
		defer metrics.Default.HTTPRequestsInFlight.Dec()

		next(w, r, ps)

		log.Info(ctx, "request handled", "durationMs", time.Since(started).Milliseconds())
	}
}

// WithRecovery turns a panic inside next into a uniform E_Internal response
// instead of crashing the process, logging the recovered value.
func WithRecovery(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error(r.Context(), "panic recovered in handler", fmt.Errorf("%v", rec))
				errors.WriteHTTP(w, errors.EInternal, "internal server error", log.CorrelationID(r.Context()))
			}
		}()
		next(w, r, ps)
	}
}

// AllowCORS permits cross-origin calls from the studio's local UI, adapted
// from the upstream CORS wrapper: reflect the request's Origin, answer
// preflight OPTIONS requests directly, and never touch the next handler for
// those.
func AllowCORS() func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "*")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")

			if r.Method == http.MethodOptions {
				w.Header().Set("Content-Length", "0")
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r, ps)
		}
	}
}

// Chain applies middlewares to handler in order, so Chain(h, A, B) runs as
// A(B(h)).
func Chain(handler httprouter.Handle, wrappers ...func(httprouter.Handle) httprouter.Handle) httprouter.Handle {
	for i := len(wrappers) - 1; i >= 0; i-- {
		handler = wrappers[i](handler)
	}
	return handler
}
