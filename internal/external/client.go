// Package external is the boundary between storefront logic and the payment
// provider's REST API. Outbound calls go through BaseClient, which applies a
// per-call deadline, request correlation, response decompression and error
// mapping. Each call is attempted exactly once.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"storefront/internal/types"
)

// DefaultTimeout bounds a provider call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// maxResponseBytes caps how much of a provider response is decoded.
const maxResponseBytes = 4 << 20

// BaseClient wraps a shared *http.Client. It is safe for concurrent use.
type BaseClient struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	recorder  FailureRecorder
	provider  string

	zstdPool sync.Pool
}

// BaseClientOption configures a BaseClient.
type BaseClientOption func(*BaseClient)

// WithTimeout sets the per-call deadline. Non-positive values are ignored.
func WithTimeout(d time.Duration) BaseClientOption {
	return func(c *BaseClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithFailureRecorder reports every failed call to r.
func WithFailureRecorder(r FailureRecorder) BaseClientOption {
	return func(c *BaseClient) {
		c.recorder = r
	}
}

// NewBaseClient creates a BaseClient. provider names the upstream in errors
// and metrics.
func NewBaseClient(httpClient *http.Client, provider, userAgent string, opts ...BaseClientOption) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &BaseClient{
		client:    httpClient,
		userAgent: userAgent,
		timeout:   DefaultTimeout,
		provider:  provider,
	}
	c.zstdPool.New = func() any {
		d, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxResponseBytes),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
		}
		return d
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one JSON call.
type Request struct {
	// Operation names the call in errors, logs and metrics.
	Operation string
	Method    string
	URL       string
	Header    http.Header
	// Body is JSON-encoded when non-nil.
	Body any
}

// DoJSON sends req and decodes a 2xx JSON response into out. Every failure
// (request construction, network, deadline, non-2xx status, undecodable body)
// is returned as an *types.AppError with code ErrCodeUpstreamUnavailable.
func (c *BaseClient) DoJSON(ctx context.Context, req Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.doJSON(ctx, req, out); err != nil {
		if c.recorder != nil {
			c.recorder.RecordProviderFailure(context.WithoutCancel(ctx), c.provider, req.Operation)
		}
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("%s %s failed", c.provider, req.Operation),
			err,
			map[string]any{"provider": c.provider, "operation": req.Operation},
		)
	}
	return nil
}

func (c *BaseClient) doJSON(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	c.decorate(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	payload, err := c.readBody(resp)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decorate adds correlation and negotiation headers. Setting Accept-Encoding
// turns off net/http's transparent gzip, so readBody decodes both encodings.
func (c *BaseClient) decorate(req *http.Request) {
	if id := types.GetRequestID(req.Context()); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept-Encoding", "gzip, zstd")
}

func (c *BaseClient) readBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return raw, nil
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip response: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(io.LimitReader(zr, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("gzip response: %w", err)
		}
		return out, nil
	case "zstd":
		dec := c.zstdPool.Get().(*zstd.Decoder)
		defer c.zstdPool.Put(dec)
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd response: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
