// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fetcher retrieves paginated batches of asset URLs from the
// billboard API: one signed GET per cursor position, with a circuit breaker
// and rate limiter protecting the remote endpoint from a busy retry loop.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danmao124/vobox-pi-player/internal/auth"
	"github.com/danmao124/vobox-pi-player/internal/log"
	"github.com/danmao124/vobox-pi-player/internal/metrics"
	"github.com/danmao124/vobox-pi-player/internal/resilience"
	"github.com/danmao124/vobox-pi-player/internal/telemetry"
	"golang.org/x/time/rate"
)

// ErrFetch classifies transient batch-fetch failures: network errors,
// non-200 responses, rate-limiter and open-circuit refusals (spec's
// TransientNetworkError).
var ErrFetch = errors.New("fetch error")

// ErrProtocol classifies malformed API responses, including a response with
// no usable URLs; they are treated as "no new batch" (spec's ProtocolError).
var ErrProtocol = errors.New("fetch protocol error")

const (
	connectTimeout = 5 * time.Second
	totalTimeout   = 10 * time.Second

	defaultRateLimit = rate.Limit(2) // 2 req/s steady state
	defaultBurst     = 5

	circuitThreshold    = 3
	circuitMinAttempts  = 5
	circuitWindow       = 60 * time.Second
	circuitResetTimeout = 30 * time.Second
)

// Fetcher calls the paginated billboard endpoint and classifies the
// response into an ordered URL list, the next cursor, and a wrap signal.
type Fetcher struct {
	apiBase          string
	id               string
	staticAuthHeader string
	signer           *auth.Signer

	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *resilience.CircuitBreaker
}

// New builds a Fetcher against apiBase for billboard id. If staticAuthHeader
// is non-empty it is sent as a fixed Authorization header instead of HMAC
// request signing (spec.md §6's AUTH_HEADER override); otherwise signer must
// be non-nil.
func New(apiBase, id, staticAuthHeader string, signer *auth.Signer) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
	}

	return &Fetcher{
		apiBase:          strings.TrimRight(apiBase, "/"),
		id:               id,
		staticAuthHeader: staticAuthHeader,
		signer:           signer,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   totalTimeout,
		},
		limiter: rate.NewLimiter(defaultRateLimit, defaultBurst),
		cb:      resilience.NewCircuitBreaker("fetcher", circuitThreshold, circuitMinAttempts, circuitWindow, circuitResetTimeout),
	}
}

// Result is the outcome of a single batch fetch.
type Result struct {
	URLs       []string
	NextCursor int
	Wrapped    bool
}

// Fetch calls GET {apiBase}/view/billboard?id={id}&index={cursor} and parses
// the ordered URL list and next cursor. An empty URL list is a failure; a
// malformed next-cursor value leaves the cursor unchanged (no advance).
func (f *Fetcher) Fetch(ctx context.Context, cursor int) (Result, error) {
	logger := log.WithComponentFromContext(ctx, "fetcher")
	tracer := telemetry.Tracer("fetcher")

	ctx, span := tracer.Start(ctx, "fetcher.fetch")
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		metrics.RecordFetchAttempt("rate_limited")
		return Result{}, fmt.Errorf("%w: rate limiter: %v", ErrFetch, err)
	}

	if !f.cb.AllowRequest() {
		metrics.RecordFetchAttempt("circuit_open")
		return Result{}, fmt.Errorf("%w: %v", ErrFetch, resilience.ErrCircuitOpen)
	}
	f.cb.RecordAttempt()

	result, err := f.doFetch(ctx, cursor)
	if err != nil {
		f.cb.RecordTechnicalFailure()
		outcome := "error"
		if errors.Is(err, ErrProtocol) {
			outcome = "protocol_error"
		}
		metrics.RecordFetchAttempt(outcome)
		logger.Warn().Err(err).Int(log.FieldCursor, cursor).Msg("batch fetch failed")
		return Result{}, err
	}

	f.cb.RecordSuccess()
	metrics.RecordFetchAttempt("success")
	if result.Wrapped {
		metrics.RecordCursorWrap()
	}

	span.SetAttributes(telemetry.FetchAttributes(cursor, result.NextCursor, len(result.URLs), result.Wrapped)...)
	logger.Debug().
		Int(log.FieldCursor, cursor).
		Int(log.FieldBatchSize, len(result.URLs)).
		Bool("wrapped", result.Wrapped).
		Msg("batch fetched")

	return result, nil
}

func (f *Fetcher) doFetch(ctx context.Context, cursor int) (Result, error) {
	reqURL := fmt.Sprintf("%s/view/billboard?id=%s&index=%d", f.apiBase, url.QueryEscape(f.id), cursor)

	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	f.applyAuth(req)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: request cursor=%d: %v", ErrFetch, cursor, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response body: %v", ErrFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: cursor=%d: unexpected status %d", ErrFetch, cursor, resp.StatusCode)
	}

	return parseBatch(body, cursor)
}

// billboardResponse mirrors the API's envelope: {"response":{"data":[{"url":"..."}],"message":"<next cursor>"}}.
type billboardResponse struct {
	Response struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
		Message string `json:"message"`
	} `json:"response"`
}

func parseBatch(body []byte, cursor int) (Result, error) {
	var payload billboardResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrProtocol, err)
	}

	urls := make([]string, 0, len(payload.Response.Data))
	for _, d := range payload.Response.Data {
		if u := normalizeURL(d.URL); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return Result{}, fmt.Errorf("%w: cursor=%d: empty url list", ErrProtocol, cursor)
	}

	nextCursor, err := strconv.Atoi(strings.TrimSpace(payload.Response.Message))
	if err != nil || nextCursor < 0 {
		nextCursor = cursor
	}

	return Result{
		URLs:       urls,
		NextCursor: nextCursor,
		Wrapped:    nextCursor < cursor,
	}, nil
}

// normalizeURL trims a carriage return, surrounding whitespace, and a
// trailing comma from a raw URL string, matching the playlist file
// normalization rule so the same URL always yields the same cache path.
func normalizeURL(raw string) string {
	raw = strings.TrimRight(raw, "\r")
	raw = strings.TrimSpace(raw)
	raw = strings.TrimRight(raw, ",")
	return strings.TrimSpace(raw)
}

func (f *Fetcher) applyAuth(req *http.Request) {
	if f.staticAuthHeader != "" {
		req.Header.Set("Authorization", f.staticAuthHeader)
		return
	}
	if f.signer != nil {
		f.signer.Apply(req, nil)
	}
}
