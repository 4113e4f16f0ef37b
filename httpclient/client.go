package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*http.Client)(nil)

// Client is safe for concurrent use. Its configuration is fixed once New returns.
type Client struct {
	baseURL         string
	httpClient      Doer
	requestIDKey    any
	defaultHeaders  map[string]string
	limiter         *rate.Limiter
	logger          zerolog.Logger
	maxResponseSize int64 // 0 means no limit
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{ //nolint:exhaustruct
			Timeout: DefaultTimeout,
		},
		requestIDKey: nil,
		defaultHeaders: map[string]string{
			HeaderContentType: ContentTypeJSON,
		},
		limiter:         nil,
		logger:          zerolog.Nop(),
		maxResponseSize: 0,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Get(
	ctx context.Context,
	path string,
	response any,
	opts ...RequestOption,
) error {
	return c.do(ctx, http.MethodGet, path, nil, response, opts...)
}

func (c *Client) Post(
	ctx context.Context,
	path string,
	body any,
	response any,
	opts ...RequestOption,
) error {
	return c.do(ctx, http.MethodPost, path, body, response, opts...)
}

func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	body any,
	response any,
	opts ...RequestOption,
) error {
	return c.do(ctx, method, path, body, response, opts...)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	response any,
	opts ...RequestOption,
) error {
	cfg := c.buildRequestConfig(ctx, opts...)

	reqCtx := ctx

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	req, err := c.buildRequest(reqCtx, method, path, body, cfg)
	if err != nil {
		return err
	}

	resp, err := c.send(reqCtx, req, path, cfg.requestID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, method, path, response, cfg.requestID)
}

// send waits on the rate limiter, performs the round trip and converts
// any failure to reach the server into a *TransportError.
func (c *Client) send(ctx context.Context, req *http.Request, path, requestID string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(req, path, requestID, fmt.Errorf("%w: %w", ErrRateLimited, err))
		}
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(req, path, requestID, err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("request_id", requestID).
		Msg("The request has completed")

	return resp, nil
}

func (c *Client) transportError(req *http.Request, path, requestID string, err error) error {
	c.logger.Warn().
		Err(err).
		Str("method", req.Method).
		Str("path", path).
		Str("request_id", requestID).
		Msg("The request could not reach the server")

	return NewTransportError(req.Method, req.URL.String(), err)
}

func (c *Client) buildRequestConfig(ctx context.Context, opts ...RequestOption) *requestConfig {
	cfg := &requestConfig{
		headers:   make(map[string]string),
		query:     nil,
		timeout:   0,
		requestID: "",
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.requestID == "" {
		cfg.requestID = c.extractRequestID(ctx)
	}

	return cfg
}

func (c *Client) extractRequestID(ctx context.Context) string {
	if c.requestIDKey != nil {
		if id, ok := ctx.Value(c.requestIDKey).(string); ok && id != "" {
			return id
		}
	}

	return uuid.New().String()
}

func (c *Client) buildRequest(
	ctx context.Context,
	method string,
	path string,
	body any,
	cfg *requestConfig,
) (*http.Request, error) {
	url := c.buildURL(path, cfg.query)

	var bodyReader io.Reader

	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
		}

		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateRequest, err)
	}

	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	for k, v := range cfg.headers {
		req.Header.Set(k, v)
	}

	if cfg.requestID != "" {
		req.Header.Set(HeaderXRequestID, cfg.requestID)
	}

	return req, nil
}

func (c *Client) handleResponse(resp *http.Response, method, path string, response any, requestID string) error {
	respRequestID := resp.Header.Get(HeaderXRequestID)
	if respRequestID == "" {
		respRequestID = requestID
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp, method, path, respRequestID)
	}

	if response == nil {
		return nil
	}

	body := io.Reader(resp.Body)
	if c.maxResponseSize > 0 {
		body = io.LimitReader(resp.Body, c.maxResponseSize+1)
	}

	// The timeout also covers the body read.
	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		if resp.Request == nil {
			return NewTransportError(method, c.buildURL(path, nil), err)
		}

		return c.transportError(resp.Request, path, requestID, err)
	}

	if c.maxResponseSize > 0 && int64(len(bodyBytes)) > c.maxResponseSize {
		return ErrResponseTooLarge
	}

	// An empty body is a successful call with nothing to decode.
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, response); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	return nil
}

func (c *Client) handleErrorResponse(resp *http.Response, method, path, requestID string) error {
	svcErr := NewServiceError(resp.StatusCode, method, path, requestID)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return svcErr
	}

	svcErr.Detail = strings.TrimSpace(string(bodyBytes))

	var errResp ErrorResponse
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil {
		svcErr.Message = errResp.Text()
	}

	return svcErr
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) buildURL(path string, query map[string]string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	fullURL := c.baseURL + path

	if len(query) == 0 {
		return fullURL
	}

	params := url.Values{}
	for k, v := range query {
		params.Add(k, v)
	}

	return fullURL + "?" + params.Encode()
}

// unwrapURLError strips the *url.Error wrapper net/http adds so that
// messages name the cause once instead of repeating the method and URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}

	return err
}
