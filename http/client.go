// Package http provides the Fetcch payment request client and the storefront
// service that the chi and gin routers expose.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/metrics"
	"github.com/mark3labs/fetcch-go/retry"
	"github.com/mark3labs/fetcch-go/validation"
)

// DefaultBaseURL is the Fetcch sandbox request API.
const DefaultBaseURL = "https://sandbox-api.fetcch.xyz"

// SecretKeyHeader carries the pre-shared API credential.
const SecretKeyHeader = "secret-key"

const (
	requestPath     = "/v1/request/"
	maxResponseSize = 1 << 20
)

// RequestClient is a client for the Fetcch payment request API.
// Creating a request is never retried. Status queries are retried only when
// StatusRetry allows more than one attempt; the poller already re-queries on
// every tick.
type RequestClient struct {
	BaseURL     string
	SecretKey   string
	Client      *http.Client
	Timeout     time.Duration // Per-call timeout; zero means the caller's context only
	StatusRetry retry.Config  // Zero value disables retrying
	Logger      *slog.Logger
	Metrics     metrics.Recorder
}

var _ fetcch.RequestService = (*RequestClient)(nil)

// ClientOption configures a RequestClient.
type ClientOption func(*RequestClient) error

// NewRequestClient creates a client for the request API at baseURL,
// authenticated with secretKey.
func NewRequestClient(baseURL, secretKey string, opts ...ClientOption) (*RequestClient, error) {
	if secretKey == "" {
		return nil, fetcch.ErrMissingSecret
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	client := &RequestClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SecretKey: secretKey,
		Client:    &http.Client{},
		Timeout:   10 * time.Second,
		Logger:    slog.Default(),
		Metrics:   metrics.NoopRecorder{},
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *RequestClient) error {
		if httpClient == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.Client = httpClient
		return nil
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *RequestClient) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative: %s", d)
		}
		c.Timeout = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *RequestClient) error {
		c.Logger = logger
		return nil
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) ClientOption {
	return func(c *RequestClient) error {
		c.Metrics = r
		return nil
	}
}

// WithStatusRetry retries status queries that fail transiently.
func WithStatusRetry(cfg retry.Config) ClientOption {
	return func(c *RequestClient) error {
		if cfg.MaxAttempts < 0 || cfg.InitialDelay < 0 || cfg.MaxDelay < 0 {
			return fmt.Errorf("retry configuration cannot be negative")
		}
		c.StatusRetry = cfg
		return nil
	}
}

// CreateRequest submits a payment request and returns the id the service assigned.
// The request is validated first; an invalid payer id fails with
// fetcch.ErrInvalidPayerID without any network call.
func (c *RequestClient) CreateRequest(ctx context.Context, req fetcch.PaymentRequest) (fetcch.RequestID, error) {
	if err := validation.ValidateRequest(req); err != nil {
		return 0, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	labels := metrics.ChainLabels(req.Chain)
	start := time.Now()

	body, err := c.do(ctx, http.MethodPost, c.BaseURL+requestPath, data)
	c.recorder().ObserveLatency(metrics.OpCreateRequest, time.Since(start), labels)
	if err != nil {
		c.recorder().IncCounter(metrics.EventRequestFailed, labels)
		return 0, err
	}

	var resp fetcch.CreateRequestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.recorder().IncCounter(metrics.EventRequestFailed, labels)
		return 0, fmt.Errorf("%w: failed to decode create response: %v", fetcch.ErrProtocol, err)
	}
	if resp.Data.ID == nil {
		c.recorder().IncCounter(metrics.EventRequestFailed, labels)
		return 0, fmt.Errorf("%w: create response has no data.id", fetcch.ErrProtocol)
	}
	if *resp.Data.ID <= 0 {
		c.recorder().IncCounter(metrics.EventRequestFailed, labels)
		return 0, fmt.Errorf("%w: create response has non-positive id %d", fetcch.ErrProtocol, *resp.Data.ID)
	}

	c.recorder().IncCounter(metrics.EventRequestCreated, labels)
	c.logger().Info("payment request created",
		"id", int64(*resp.Data.ID), "payer", req.Payer, "chain", req.Chain, "amount", req.Amount)

	return *resp.Data.ID, nil
}

// GetStatus returns the settlement status of a payment request.
func (c *RequestClient) GetStatus(ctx context.Context, id fetcch.RequestID) (*fetcch.RequestStatus, error) {
	return retry.Do(ctx, c.StatusRetry, retry.Transient, func(ctx context.Context) (*fetcch.RequestStatus, error) {
		return c.getStatus(ctx, id)
	})
}

func (c *RequestClient) getStatus(ctx context.Context, id fetcch.RequestID) (*fetcch.RequestStatus, error) {
	query := url.Values{"id": []string{id.String()}}
	start := time.Now()

	body, err := c.do(ctx, http.MethodGet, c.BaseURL+requestPath+"?"+query.Encode(), nil)
	c.recorder().ObserveLatency(metrics.OpGetStatus, time.Since(start), nil)
	if err != nil {
		return nil, err
	}

	var resp fetcch.StatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode status response: %v", fetcch.ErrProtocol, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: status response for request %d is empty", fetcch.ErrProtocol, id)
	}

	status := resp.Data[0]
	status.ID = id
	return &status, nil
}

// do sends one authenticated request and returns the body of a 2xx response.
func (c *RequestClient) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := NewAuthClient(c.Client, c.SecretKey).Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fetcch.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", fetcch.ErrServiceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger().Warn("request service returned non-success status",
			"method", method, "status", resp.StatusCode, "body", truncate(string(body), 200))
		return nil, fetcch.NewRequestError(fetcch.ErrCodeUnavailable,
			fmt.Sprintf("%s %s: status %d", method, requestPath, resp.StatusCode),
			fetcch.ErrServiceUnavailable).WithDetails("status", resp.StatusCode)
	}

	return body, nil
}

func (c *RequestClient) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *RequestClient) recorder() metrics.Recorder {
	if c.Metrics == nil {
		return metrics.NoopRecorder{}
	}
	return c.Metrics
}
