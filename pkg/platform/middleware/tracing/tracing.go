// Package tracing opens an OpenTelemetry span per request.
package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Middleware wraps each request in a span named after method and path. The
// span is a no-op unless the host process installs a tracer provider.
func Middleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("campusgate/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
