// Package catalog is the client of the public product catalog REST API.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/pkg/httpclient"
)

const (
	upstream   = "catalog"
	tracerName = "github.com/sefaaycicek/fakestore/internal/catalog"
)

// Client is the read side of the catalog consumed by the storefront.
type Client interface {
	FetchPage(ctx context.Context, limit, skip int) (*domain.PageResult, error)
	SearchPage(ctx context.Context, query string, limit, skip int) (*domain.PageResult, error)
	CategoryPage(ctx context.Context, category string, limit, skip int) (*domain.PageResult, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Getter issues GET requests. httpclient.Client and
// httpclient.CircuitBreakerClient both satisfy it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HTTPClient implements Client over the catalog's JSON API.
type HTTPClient struct {
	baseURL string
	http    Getter
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewHTTPClient creates a client rooted at baseURL. Timeouts, retries and
// circuit breaking belong to g.
func NewHTTPClient(baseURL string, g Getter, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    g,
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}
}

// FetchPage returns one page of the unfiltered product listing.
func (c *HTTPClient) FetchPage(ctx context.Context, limit, skip int) (*domain.PageResult, error) {
	return c.page(ctx, "FetchPage", "/products", nil, limit, skip)
}

// SearchPage returns one page of products matching query.
func (c *HTTPClient) SearchPage(ctx context.Context, query string, limit, skip int) (*domain.PageResult, error) {
	return c.page(ctx, "SearchPage", "/products/search", url.Values{"q": {query}}, limit, skip)
}

// CategoryPage returns one page of the products in category.
func (c *HTTPClient) CategoryPage(ctx context.Context, category string, limit, skip int) (*domain.PageResult, error) {
	return c.page(ctx, "CategoryPage", "/products/category/"+url.PathEscape(category), nil, limit, skip)
}

func (c *HTTPClient) page(ctx context.Context, op, path string, params url.Values, limit, skip int) (_ *domain.PageResult, err error) {
	ctx, end := c.startSpan(ctx, op,
		attribute.Int("catalog.limit", limit),
		attribute.Int("catalog.skip", skip),
	)
	defer func() { end(err) }()

	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("skip", strconv.Itoa(skip))

	var dto pageDTO
	if err := c.getJSON(ctx, path+"?"+params.Encode(), &dto); err != nil {
		return nil, classify(op, err)
	}

	page, err := dto.toDomain()
	if err != nil {
		return nil, classify(op, &httpclient.DecodeError{Upstream: upstream, Err: err})
	}

	c.logger.DebugContext(ctx, "catalog page fetched",
		slog.String("op", op),
		slog.Int("skip", page.Skip),
		slog.Int("count", len(page.Products)),
		slog.Int("total", page.Total),
	)
	return page, nil
}

// GetProduct returns a single product. A missing product yields KindNotFound.
func (c *HTTPClient) GetProduct(ctx context.Context, id int) (_ *domain.Product, err error) {
	ctx, end := c.startSpan(ctx, "GetProduct", attribute.Int("catalog.product_id", id))
	defer func() { end(err) }()

	var dto productDTO
	if err := c.getJSON(ctx, "/products/"+strconv.Itoa(id), &dto); err != nil {
		return nil, classify("GetProduct", err)
	}
	p := dto.toDomain()
	return &p, nil
}

// Categories returns the category slugs known to the catalog.
func (c *HTTPClient) Categories(ctx context.Context) (_ []string, err error) {
	ctx, end := c.startSpan(ctx, "Categories")
	defer func() { end(err) }()

	var list categoryList
	if err := c.getJSON(ctx, "/products/categories", &list); err != nil {
		return nil, classify("Categories", err)
	}
	return []string(list), nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return httpclient.DecodeJSON(resp, upstream, dst)
}

func (c *HTTPClient) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append(attrs, attribute.String("catalog.operation", op))
	ctx, span := c.tracer.Start(ctx, "catalog."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
