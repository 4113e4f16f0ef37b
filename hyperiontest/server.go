// Package hyperiontest provides an in-process Hyperion API server for tests.
//
// The default routes answer like a small healthy deployment. Individual routes
// can be overridden with Handle, and every request is recorded for assertions.
package hyperiontest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/andyle182810/hyperion-go/hyperion"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

const (
	DefaultReplicas       = 4
	ScaleUpBelowReplicas  = 6
	DefaultDeployState    = "SUCCEEDED"
	DecisionScaleUp       = "scale-up"
	DecisionNoOp          = "no-op"
	DeployStatusApplied   = "applied"
	errorMessageNotFound  = "not found"
	errorMessageBadJSON   = "invalid json"
	errorMessageNoSupport = "unsupported"
)

// Request is a recorded incoming request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body. An empty body decodes to a nil map.
func (r Request) JSON() (map[string]any, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil //nolint:nilnil
	}

	var payload map[string]any
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// Response overrides a route. Raw wins over Body; with neither set the
// response has no body.
type Response struct {
	Status int
	Body   any
	Raw    []byte
	Delay  time.Duration
}

type routeKey struct {
	method string
	path   string
}

type ServerOption func(*serverOptions)

type serverOptions struct {
	apiKey string
	logger zerolog.Logger
}

// WithAPIKey makes every route answer 401 unless X-API-Key equals key.
func WithAPIKey(key string) ServerOption {
	return func(o *serverOptions) {
		o.apiKey = key
	}
}

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

type Server struct {
	URL string

	httpServer *httptest.Server

	mu        sync.Mutex
	requests  []Request
	overrides map[routeKey]Response
}

// NewServer starts a server that is closed when the test finishes.
func NewServer(tb testing.TB, opts ...ServerOption) *Server {
	tb.Helper()

	o := &serverOptions{
		apiKey: "",
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		URL:        "",
		httpServer: nil,
		mu:         sync.Mutex{},
		requests:   make([]Request, 0),
		overrides:  make(map[routeKey]Response),
	}

	e := echo.New()
	e.Pre(s.record)
	e.Use(requestID, requestLogger(o.logger))

	if o.apiKey != "" {
		e.Use(requireAPIKey(o.apiKey))
	}

	e.GET("/*", s.dispatch)
	e.POST("/*", s.dispatch)

	s.httpServer = httptest.NewServer(e)
	s.URL = s.httpServer.URL

	tb.Cleanup(s.Close)

	return s
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// Handle overrides the response for method and path.
func (s *Server) Handle(method, path string, resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides[routeKey{method: method, path: path}] = resp
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Request{}, false //nolint:exhaustruct
	}

	return s.requests[len(s.requests)-1], true
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx *echo.Context) error {
		req := ctx.Request()

		body, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}

		req.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: req.Method,
			Path:   req.URL.Path,
			Header: req.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		return next(ctx)
	}
}

func (s *Server) override(key routeKey) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.overrides[key]

	return resp, ok
}

func (s *Server) dispatch(ctx *echo.Context) error {
	req := ctx.Request()
	key := routeKey{method: req.Method, path: req.URL.Path}

	if resp, ok := s.override(key); ok {
		return writeResponse(ctx, resp)
	}

	switch key {
	case routeKey{method: http.MethodGet, path: hyperion.PathMonitoring}:
		return ctx.JSON(http.StatusOK, map[string]any{"metrics": []any{}, "logs": []any{}})
	case routeKey{method: http.MethodGet, path: hyperion.PathHealth}:
		return ctx.JSON(http.StatusOK, map[string]any{"active_replicas": DefaultReplicas})
	case routeKey{method: http.MethodGet, path: hyperion.PathDeployStatus}:
		return ctx.JSON(http.StatusOK, map[string]any{"last_state": DefaultDeployState})
	}

	if req.Method != http.MethodPost {
		return ctx.JSON(http.StatusNotFound, map[string]any{"error": errorMessageNotFound})
	}

	payload, err := decodePayload(req.Body)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": errorMessageBadJSON})
	}

	switch req.URL.Path {
	case hyperion.PathAutoscalePlan:
		decision := DecisionNoOp
		if numberOr(payload, "replicas", DefaultReplicas) < ScaleUpBelowReplicas {
			decision = DecisionScaleUp
		}

		return ctx.JSON(http.StatusOK, map[string]any{"decision": decision})
	case hyperion.PathDeployPlan:
		desired, ok := payload["desired_replicas"]
		if !ok {
			desired = DefaultReplicas
		}

		return ctx.JSON(http.StatusOK, map[string]any{"plan": []any{"scale", desired}})
	case hyperion.PathDeployApply:
		return ctx.JSON(http.StatusOK, map[string]any{"status": DeployStatusApplied})
	default:
		return ctx.JSON(http.StatusNotFound, map[string]any{"error": errorMessageNoSupport})
	}
}

func writeResponse(ctx *echo.Context, resp Response) error {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Request().Context().Done():
			return nil
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch {
	case resp.Raw != nil:
		return ctx.Blob(status, echo.MIMEApplicationJSON, resp.Raw)
	case resp.Body != nil:
		return ctx.JSON(status, resp.Body)
	default:
		return ctx.NoContent(status)
	}
}

func decodePayload(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func numberOr(payload map[string]any, key string, fallback float64) float64 {
	if n, ok := payload[key].(float64); ok {
		return n
	}

	return fallback
}
