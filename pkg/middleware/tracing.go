package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes added on top of the HTTP semantic conventions.
const (
	attrOwner     = attribute.Key("storefront.owner")
	attrListingID = attribute.Key("storefront.listing_id")
	attrProductID = attribute.Key("storefront.product_id")
	attrStream    = attribute.Key("storefront.stream")
)

// untracedPrefixes are probe and scrape paths that would only add noise.
var untracedPrefixes = []string{"/health/", "/metrics"}

// Tracing starts a server span per API request, continuing inbound W3C trace
// context. Once chi has routed the request the span takes the route pattern
// as its name and records the listing or product it addressed.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/sefaaycicek/fakestore/" + serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untraced(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(requestAttributes(r)...),
			)
			defer span.End()
			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(r.Method + " " + pattern)
					span.SetAttributes(attribute.String("http.route", pattern))
				}
				span.SetAttributes(routeAttributes(rctx)...)
			}

			span.SetAttributes(semconv.HTTPStatusCode(sw.statusCode))
			if sw.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
			}
		})
	}
}

func untraced(path string) bool {
	for _, prefix := range untracedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func requestAttributes(r *http.Request) []attribute.KeyValue {
	owner := r.Header.Get(OwnerHeader)
	if owner == "" {
		owner = DefaultOwner
	}
	attrs := []attribute.KeyValue{
		semconv.HTTPMethod(r.Method),
		semconv.HTTPTarget(r.URL.RequestURI()),
		semconv.HTTPScheme(scheme(r)),
		semconv.UserAgentOriginal(r.UserAgent()),
		attrOwner.String(owner),
	}
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		attrs = append(attrs, attrStream.Bool(true))
	}
	return attrs
}

func routeAttributes(rctx *chi.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := rctx.URLParam("id"); id != "" {
		attrs = append(attrs, attrListingID.String(id))
	}
	if id := rctx.URLParam("productId"); id != "" {
		attrs = append(attrs, attrProductID.String(id))
	}
	return attrs
}

func scheme(r *http.Request) string {
	switch {
	case r.TLS != nil:
		return "https"
	case r.Header.Get("X-Forwarded-Proto") != "":
		return r.Header.Get("X-Forwarded-Proto")
	}
	return "http"
}
