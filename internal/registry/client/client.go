// Package client talks to the civil registry over HTTP. It implements the
// wizard's DuplicateSearcher and RecordStore ports.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"civreg/internal/record/models"
	"civreg/internal/registry/metrics"
	id "civreg/pkg/domain"
	"civreg/pkg/platform/circuit"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/platform/sentinel"
	"civreg/pkg/requestcontext"
)

const (
	DefaultTimeout = 10 * time.Second

	opSearch = "search"
	opCreate = "create"
	opUpdate = "update"
	opGet    = "get"

	maxErrorBody = 64 << 10
)

// Client calls the registry API. Duplicate searches go through a circuit
// breaker; writes never do, so a clerk can always retry a submission.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *circuit.Breaker
	tracer  trace.Tracer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Client)

// WithToken sets the bearer credential used when the request context carries none.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		breaker: circuit.New("registry-search"),
		tracer:  otel.Tracer("civreg/registry/client"),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SearchDuplicates queries POST /records/duplicates.
func (c *Client) SearchDuplicates(ctx context.Context, q models.DuplicateQuery) (models.DuplicateResult, error) {
	if !c.breaker.Allow() {
		c.metrics.IncClientRequest(opSearch, string(ErrorCircuitOpen))
		return models.DuplicateResult{}, NewProviderError(ErrorCircuitOpen, opSearch, "duplicate search suspended", nil)
	}

	var res models.DuplicateResult
	err := c.call(ctx, opSearch, http.MethodPost, "/records/duplicates", q, http.StatusOK, &res)
	if err != nil {
		// Field rejections, refused credentials and abandoned calls say
		// nothing about registry health.
		if !IsRetryable(err) {
			return models.DuplicateResult{}, err
		}
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "registry search circuit opened", "error", err)
		}
		return models.DuplicateResult{}, err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "registry search circuit closed")
	}
	if res.SimilarRecords == nil {
		res.SimilarRecords = []models.Candidate{}
	}
	return res, nil
}

// Create submits a new record. A 422 reply is returned as *models.ValidationError.
func (c *Client) Create(ctx context.Context, r models.Record) (models.Record, error) {
	var out models.Record
	if err := c.call(ctx, opCreate, http.MethodPost, "/records", r, http.StatusCreated, &out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// Update replaces a stored record. A 422 reply is returned as *models.ValidationError.
func (c *Client) Update(ctx context.Context, recordID id.RecordID, r models.Record) (models.Record, error) {
	var out models.Record
	if err := c.call(ctx, opUpdate, http.MethodPut, "/records/"+recordID.String(), r, http.StatusOK, &out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// Get fetches a stored record, e.g. to open it for editing.
func (c *Client) Get(ctx context.Context, recordID id.RecordID) (models.Record, error) {
	var out models.Record
	if err := c.call(ctx, opGet, http.MethodGet, "/records/"+recordID.String(), nil, http.StatusOK, &out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, in any, want int, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "registry."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("registry.operation", op),
		),
	)
	defer func() {
		if GetCategory(err) == ErrorCanceled {
			span.SetAttributes(attribute.Bool("registry.canceled", true))
		} else if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	err = c.do(ctx, op, method, path, in, want, out)
	outcome := "ok"
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		outcome = "rejected"
	case err != nil:
		outcome = string(GetCategory(err))
	}
	c.metrics.IncClientRequest(op, outcome)
	c.logger.DebugContext(ctx, "registry call",
		"operation", op,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return NewProviderError(ErrorInternal, op, "encode request", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return NewProviderError(ErrorInternal, op, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.credential(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := requestcontext.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if canceled(ctx, err) {
			return NewProviderError(ErrorCanceled, op, "call abandoned by caller", err)
		}
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return NewProviderError(ErrorTimeout, op, "registry timed out", err)
		}
		return NewProviderError(ErrorOutage, op, "registry unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == want {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if canceled(ctx, err) {
				return NewProviderError(ErrorCanceled, op, "call abandoned by caller", err)
			}
			return NewProviderError(ErrorBadData, op, "decode response", err)
		}
		return nil
	}
	return statusError(op, resp)
}

// canceled reports whether err comes from the caller cancelling ctx, as
// opposed to a deadline or a network failure.
func canceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}

func (c *Client) credential(ctx context.Context) string {
	if cred := requestcontext.Credential(ctx); cred != "" {
		return cred
	}
	return c.token
}

// statusError maps a non-success reply. Only 422 carries field errors.
func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body httputil.ErrorResponse
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode == http.StatusUnprocessableEntity {
		fields := models.FieldErrors{}
		for k, msgs := range body.Fields {
			for _, m := range msgs {
				fields.Add(k, m)
			}
		}
		if fields.Empty() {
			msg := body.ErrorDescription
			if msg == "" {
				msg = "record rejected by registry"
			}
			fields.Add(models.RecordErrorKey, msg)
		}
		return models.NewValidationError(fields)
	}

	var category ErrorCategory
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		category = ErrorAuthentication
	case resp.StatusCode == http.StatusNotFound:
		category = ErrorNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		category = ErrorRateLimited
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		category = ErrorTimeout
	case resp.StatusCode >= 500:
		category = ErrorOutage
	default:
		category = ErrorBadData
	}
	var underlying error
	if category == ErrorNotFound {
		underlying = sentinel.ErrNotFound
	}
	pe := NewProviderError(category, op, fmt.Sprintf("unexpected status %d", resp.StatusCode), underlying)
	pe.StatusCode = resp.StatusCode
	return pe
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
