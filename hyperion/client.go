// Package hyperion is a client for the Hyperion operational API: monitoring,
// health, autoscaling and deployment management.
//
// Every call is a single blocking request/response exchange. Failures are
// surfaced immediately as *RemoteError; the client never retries.
package hyperion

import (
	"context"
	"net/http"

	"github.com/andyle182810/hyperion-go/httpclient"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	PathMonitoring    = "/api/monitoring"
	PathHealth        = "/api/health"
	PathAutoscalePlan = "/api/autoscale/plan"
	PathDeployPlan    = "/api/deploy/plan"
	PathDeployApply   = "/api/deploy/apply"
	PathDeployStatus  = "/api/deploy/status"
)

// Result is a decoded JSON object. Numbers decode as float64.
type Result map[string]any

// Client holds no mutable state and may be shared between goroutines.
type Client struct {
	cfg       Config
	transport *httpclient.Client
}

// Option customizes a Client built by New.
type Option func(*options)

type options struct {
	logger     zerolog.Logger
	httpClient httpclient.Doer
}

// WithLogger sets the logger for request events. The default discards them.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient replaces the underlying transport. Config.Timeout is then
// the caller's responsibility.
func WithHTTPClient(doer httpclient.Doer) Option {
	return func(o *options) {
		o.httpClient = doer
	}
}

// New validates cfg, fills in defaults and returns a ready Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()

	o := &options{
		logger:     zerolog.Nop(),
		httpClient: nil,
	}
	for _, opt := range opts {
		opt(o)
	}

	transportOpts := []httpclient.Option{
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithAPIKey(cfg.APIKey),
		httpclient.WithLogger(o.logger.With().Str("component", "hyperion").Logger()),
	}

	if cfg.RateLimit > 0 {
		transportOpts = append(transportOpts,
			httpclient.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	if o.httpClient != nil {
		transportOpts = append(transportOpts, httpclient.WithHTTPClient(o.httpClient))
	}

	return &Client{
		cfg:       cfg,
		transport: httpclient.New(cfg.BaseURL, transportOpts...),
	}, nil
}

// Config returns a copy of the configuration with defaults applied.
func (c *Client) Config() Config {
	return c.cfg
}

// GetMonitoringSnapshot returns the metrics and recent logs snapshot.
func (c *Client) GetMonitoringSnapshot(ctx context.Context) (Result, error) {
	return c.call(ctx, http.MethodGet, PathMonitoring, nil)
}

// GetHealth returns the deployment health report.
func (c *Client) GetHealth(ctx context.Context) (Result, error) {
	return c.call(ctx, http.MethodGet, PathHealth, nil)
}

// AutoscalePlan asks for a scaling decision. A nil replicas sends no body,
// letting the server use its current replica count.
func (c *Client) AutoscalePlan(ctx context.Context, replicas *int) (Result, error) {
	var body map[string]any
	if replicas != nil {
		body = map[string]any{"replicas": *replicas}
	}

	return c.call(ctx, http.MethodPost, PathAutoscalePlan, body)
}

// DeploymentPlan asks the server what applying config would change.
func (c *Client) DeploymentPlan(ctx context.Context, config map[string]any) (Result, error) {
	return c.call(ctx, http.MethodPost, PathDeployPlan, config)
}

// DeploymentApply applies config to the deployment.
func (c *Client) DeploymentApply(ctx context.Context, config map[string]any) (Result, error) {
	return c.call(ctx, http.MethodPost, PathDeployApply, config)
}

// DeploymentStatus returns the state of the last deployment.
func (c *Client) DeploymentStatus(ctx context.Context) (Result, error) {
	return c.call(ctx, http.MethodGet, PathDeployStatus, nil)
}

// Replicas is a helper for building the optional AutoscalePlan argument.
func Replicas(n int) *int {
	return &n
}

func (c *Client) call(ctx context.Context, method, path string, body map[string]any) (Result, error) {
	// A nil map must not reach the encoder as a typed value or it is sent as "null".
	var payload any
	if body != nil {
		payload = body
	}

	result, err := httpclient.DoJSON[Result](ctx, c.transport, method, path, payload)
	if err != nil {
		return nil, classify(method, path, c.transport.BaseURL()+path, err)
	}

	if result == nil {
		result = Result{}
	}

	return result, nil
}
