package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/launchdeck/launchdeck/internal/metrics"
	"github.com/launchdeck/launchdeck/internal/model"
)

const (
	// DefaultBaseURL is the public SpaceX v2 API.
	DefaultBaseURL = "https://api.spacexdata.com/v2/"
	// DefaultTTL applies when the upstream sends no freshness directive.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxTTL caps any upstream-provided freshness lifetime.
	DefaultMaxTTL = time.Hour
	// DefaultFanOut bounds concurrent lookups in GetByIDs.
	DefaultFanOut = 8

	launchesResource = "launches"
	flightNumberKey  = "flight_number"
	tracerName       = "github.com/launchdeck/launchdeck/internal/catalog"
)

// Config configures a Gateway.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	DefaultTTL time.Duration
	MaxTTL     time.Duration
	FanOut     int
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Gateway fetches and normalizes upstream launches. Identical concurrent
// requests share a single upstream call, and successful responses are cached
// in the Store according to their Cache-Control header.
type Gateway struct {
	baseURL    *url.URL
	client     *http.Client
	store      Store
	flights    singleflight.Group
	defaultTTL time.Duration
	maxTTL     time.Duration
	fanOut     int
	logger     *slog.Logger
	metrics    metrics.Recorder
	tracer     trace.Tracer
}

// upstreamResponse is a raw upstream reply shared by coalesced callers.
// body must not be modified.
type upstreamResponse struct {
	status int
	body   []byte
}

func (r *upstreamResponse) ok() bool {
	return r.status >= 200 && r.status < 300
}

// NewGateway creates a Gateway. A nil store disables caching but keeps
// request coalescing.
func NewGateway(cfg Config, store Store, logger *slog.Logger, recorder metrics.Recorder) (*Gateway, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("catalog base URL must be http or https, got %q", cfg.BaseURL)
	}

	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = DefaultMaxTTL
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = DefaultFanOut
	}
	client := cfg.HTTPClient
	if client == nil {
		client = NewHTTPClient(cfg.Timeout)
	}
	if store == nil {
		store = noStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Gateway{
		baseURL:    base,
		client:     client,
		store:      store,
		defaultTTL: cfg.DefaultTTL,
		maxTTL:     cfg.MaxTTL,
		fanOut:     cfg.FanOut,
		logger:     logger.With("component", "catalog.gateway"),
		metrics:    recorder,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// GetAll returns every upstream launch in upstream order (oldest first).
// A non-success status or a body that is not a list yields an empty slice.
// Transport failures are returned as ErrUpstreamUnavailable.
func (g *Gateway) GetAll(ctx context.Context) ([]model.Launch, error) {
	resp, err := g.get(ctx, launchesResource, nil)
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		g.logger.Warn("catalog listing degraded to empty",
			slog.Int("status", resp.status),
		)
		return []model.Launch{}, nil
	}

	records, ok := decodeRecords(resp.body)
	if !ok {
		g.logger.Warn("catalog listing is not a list, degraded to empty")
		return []model.Launch{}, nil
	}

	launches := make([]model.Launch, len(records))
	for i, rec := range records {
		launches[i] = Normalize(rec)
	}
	return launches, nil
}

// GetByID returns the launch with the given flight number.
func (g *Gateway) GetByID(ctx context.Context, id int) (*model.Launch, error) {
	query := url.Values{flightNumberKey: []string{strconv.Itoa(id)}}

	resp, err := g.get(ctx, launchesResource, query)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, fmt.Errorf("%w: status %d for launch %d", ErrUpstreamUnavailable, resp.status, id)
	}

	records, _ := decodeRecords(resp.body)
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	launch := Normalize(records[0])
	return &launch, nil
}

// GetByIDs resolves ids concurrently. The result has one slot per input id in
// input order. Failed slots are nil and reported together in a *BatchError;
// the successful slots are returned regardless.
func (g *Gateway) GetByIDs(ctx context.Context, ids []int) ([]*model.Launch, error) {
	out := make([]*model.Launch, len(ids))
	failures := make([]*LookupError, len(ids))

	var eg errgroup.Group
	eg.SetLimit(g.fanOut)

	for i, id := range ids {
		eg.Go(func() error {
			launch, err := g.GetByID(ctx, id)
			if err != nil {
				failures[i] = &LookupError{Index: i, ID: id, Err: err}
				return nil
			}
			out[i] = launch
			return nil
		})
	}
	_ = eg.Wait()

	var batch BatchError
	for _, f := range failures {
		if f != nil {
			batch.Failures = append(batch.Failures, f)
		}
	}
	if len(batch.Failures) > 0 {
		return out, &batch
	}
	return out, nil
}

// get returns the response for resource, from the store when fresh,
// otherwise from a single shared upstream call.
func (g *Gateway) get(ctx context.Context, resource string, query url.Values) (*upstreamResponse, error) {
	key := cacheKey(g.baseURL, resource, query)

	if body, ok := g.lookup(ctx, key); ok {
		g.metrics.IncCatalogCache(metrics.CacheHit)
		return &upstreamResponse{status: http.StatusOK, body: body}, nil
	}

	// The shared fetch must outlive any single waiter's cancellation;
	// the client timeout bounds it instead.
	fetchCtx := context.WithoutCancel(ctx)
	ch := g.flights.DoChan(key, func() (any, error) {
		if body, ok := g.lookup(fetchCtx, key); ok {
			return &upstreamResponse{status: http.StatusOK, body: body}, nil
		}
		return g.fetch(fetchCtx, key, resource, query)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ctx.Err())
	case res := <-ch:
		if res.Shared {
			g.metrics.IncCatalogCache(metrics.CacheCoalesced)
		} else {
			g.metrics.IncCatalogCache(metrics.CacheMiss)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*upstreamResponse), nil
	}
}

func (g *Gateway) lookup(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("catalog cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return body, ok
}

// fetch performs the upstream call and installs a successful response.
func (g *Gateway) fetch(ctx context.Context, key, resource string, query url.Values) (*upstreamResponse, error) {
	target := g.baseURL.JoinPath(resource)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	ctx, span := g.tracer.Start(ctx, "catalog.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", target.String())),
	)
	defer span.End()

	start := time.Now()
	resp, err := g.do(ctx, target.String())
	if err != nil {
		g.metrics.ObserveUpstreamFetch(0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream request failed")
		g.logger.Error("catalog fetch failed",
			slog.String("url", target.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	g.metrics.ObserveUpstreamFetch(resp.status, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.status))

	if !resp.ok() {
		span.SetStatus(codes.Error, http.StatusText(resp.status))
		return &resp.upstreamResponse, nil
	}

	// A 2xx body that is not a listing is served once but never stored.
	if _, ok := decodeRecords(resp.body); !ok {
		span.SetStatus(codes.Error, "upstream body is not a list")
		return &resp.upstreamResponse, nil
	}

	if ttl := responseTTL(resp.header, g.defaultTTL, g.maxTTL); ttl > 0 {
		if err := g.store.Set(ctx, key, resp.body, ttl); err != nil {
			g.logger.Warn("catalog cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return &resp.upstreamResponse, nil
}

type fetchedResponse struct {
	upstreamResponse
	header http.Header
}

func (g *Gateway) do(ctx context.Context, target string) (*fetchedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	setCatalogHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamUnavailable, err)
	}

	return &fetchedResponse{
		upstreamResponse: upstreamResponse{status: resp.StatusCode, body: body},
		header:           resp.Header,
	}, nil
}

// noStore is used when caching is disabled.
type noStore struct{}

func (noStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

