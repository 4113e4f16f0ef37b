package httpclient_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andyle182810/hyperion-go/httpclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var errSomeOtherError = errors.New("some other error")

func newClosedServerURL(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	return url
}

func TestNew_CreatesClientWithDefaultSettings(t *testing.T) {
	t.Parallel()

	client := httpclient.New("https://api.example.com")

	require.NotNil(t, client)
	require.Equal(t, "https://api.example.com", client.BaseURL())
}

func TestNew_TrimsTrailingSlashesFromBaseURL(t *testing.T) {
	t.Parallel()

	client := httpclient.New("https://api.example.com//")

	require.Equal(t, "https://api.example.com", client.BaseURL())
}

func TestNew_AppliesMaxResponseSizeOption(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"data": string(bytes.Repeat([]byte("a"), 1024))})
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithMaxResponseSize(100))

	var response map[string]string
	err := client.Get(t.Context(), "/test", &response)

	require.ErrorIs(t, err, httpclient.ErrResponseTooLarge)
}

func TestWithTimeout_ReturnsTransportErrorWhenServerIsSlow(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithTimeout(10*time.Millisecond))

	err := client.Get(t.Context(), "/test", nil)

	require.ErrorIs(t, err, httpclient.ErrRequestFailed)

	tErr, ok := httpclient.IsTransportError(err)
	require.True(t, ok)
	require.Equal(t, http.MethodGet, tErr.Method)
	require.Equal(t, server.URL+"/test", tErr.URL)
}

func TestWithAPIKey_SendsHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithAPIKey("secret"))

	require.NoError(t, client.Get(t.Context(), "/test", nil))
}

func TestWithAPIKey_EmptyKeyOmitsHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithAPIKey(""))

	require.NoError(t, client.Get(t.Context(), "/test", nil))
}

func TestWithDefaultHeaders_SetsCustomHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.0", r.Header.Get("X-Client-Ver"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithDefaultHeaders(map[string]string{
		"X-Client-Ver": "1.0",
	}))

	require.NoError(t, client.Get(t.Context(), "/test", nil))
}

func TestWithRateLimiter_AllowsRequestsWithinLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithRateLimiter(rate.NewLimiter(rate.Inf, 1)))

	for range 3 {
		require.NoError(t, client.Get(t.Context(), "/test", nil))
	}
}

func TestWithRateLimiter_ReturnsTransportErrorWhenLimiterRejects(t *testing.T) {
	t.Parallel()

	client := httpclient.New("http://127.0.0.1:1", httpclient.WithRateLimiter(rate.NewLimiter(0, 0)))

	err := client.Get(t.Context(), "/test", nil)

	require.ErrorIs(t, err, httpclient.ErrRateLimited)
	require.ErrorIs(t, err, httpclient.ErrRequestFailed)
}

func TestWithLogger_LogsCompletedRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer

	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	client := httpclient.New(server.URL, httpclient.WithLogger(logger))

	err := client.Get(t.Context(), "/test", nil, httpclient.WithRequestID("req-1"))

	require.NoError(t, err)
	require.Contains(t, buf.String(), `"path":"/test"`)
	require.Contains(t, buf.String(), `"status":204`)
	require.Contains(t, buf.String(), `"request_id":"req-1"`)
}

func TestClient_Get(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, int64(0), r.ContentLength)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "success"})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	var response map[string]string
	err := client.Get(t.Context(), "/test", &response)

	require.NoError(t, err)
	require.Equal(t, "success", response["message"])
}

func TestClient_Post(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "test", body["name"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 1})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	var response map[string]int
	err := client.Post(t.Context(), "/test", map[string]string{"name": "test"}, &response)

	require.NoError(t, err)
	require.Equal(t, 1, response["id"])
}

func TestClient_PostWithNilBodySendsNoBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	require.NoError(t, client.Post(t.Context(), "/test", nil, nil))
}

func TestClient_Do(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"method": r.Method})
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	var response map[string]string
	err := client.Do(t.Context(), "CUSTOM", "/test", nil, &response)

	require.NoError(t, err)
	require.Equal(t, "CUSTOM", response["method"])
}

func TestClient_Head(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("X-Custom-Header", "test-value")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	response, err := client.Head(t.Context(), "/test")

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Equal(t, "test-value", response.Headers["X-Custom-Header"])
}

func TestClient_HeadReturnsServiceErrorWithReasonPhrase(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	_, err := client.Head(t.Context(), "/test")

	svcErr, ok := httpclient.IsServiceError(err)
	require.True(t, ok)
	require.Equal(t, "Service Unavailable", svcErr.DetailOrReason())
}

func TestClient_EmptyBodyLeavesResponseUntouched(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	var response map[string]any
	err := client.Get(t.Context(), "/test", &response)

	require.NoError(t, err)
	require.Nil(t, response)
}

func TestClient_NilResponseIsHandled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	require.NoError(t, client.Do(t.Context(), http.MethodDelete, "/test/1", nil, nil))
}

func TestClient_ReturnsDecodeErrorForInvalidJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	var response map[string]any
	err := client.Get(t.Context(), "/test", &response)

	require.ErrorIs(t, err, httpclient.ErrDecodeResponse)
}

func TestClient_ReturnsEncodeErrorForUnsupportedBody(t *testing.T) {
	t.Parallel()

	client := httpclient.New("http://127.0.0.1:1")

	err := client.Post(t.Context(), "/test", map[string]any{"ch": make(chan int)}, nil)

	require.ErrorIs(t, err, httpclient.ErrEncodeBody)
}

func TestWithRequestHeader_SetsCustomHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "custom-value", req.Header.Get("X-Custom"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Get(t.Context(), "/test", nil, httpclient.WithRequestHeader("X-Custom", "custom-value"))

	require.NoError(t, err)
}

func TestWithRequestTimeout_TimesOutRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Get(t.Context(), "/test", nil, httpclient.WithRequestTimeout(10*time.Millisecond))

	require.ErrorIs(t, err, httpclient.ErrRequestFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRequestID_SetsRequestIDHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "custom-request-id", req.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Get(t.Context(), "/test", nil, httpclient.WithRequestID("custom-request-id"))

	require.NoError(t, err)
}

func TestClient_GeneratesRequestIDWhenNoneGiven(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Len(t, req.Header.Get("X-Request-Id"), 36)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	require.NoError(t, client.Get(t.Context(), "/test", nil))
}

func TestWithQueryParams_SetsMultipleQueryParams(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bar", r.URL.Query().Get("foo"))
		assert.Equal(t, "John Doe", r.URL.Query().Get("name"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Get(t.Context(), "/test", nil,
		httpclient.WithQueryParams(map[string]string{"foo": "bar"}),
		httpclient.WithQuery("name", "John Doe"),
	)

	require.NoError(t, err)
}

func TestWithRequestIDKey_ExtractsRequestIDFromContext(t *testing.T) {
	t.Parallel()

	type ctxKey string

	key := ctxKey("request-id")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ctx-request-id", r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL, httpclient.WithRequestIDKey(key))
	ctx := context.WithValue(t.Context(), key, "ctx-request-id")

	require.NoError(t, client.Get(ctx, "/test", nil))
}

func TestClient_ParsesJSONErrorEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"Service Unavailable","error":"replica pool drained"}`)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Get(t.Context(), "/api/health", nil)

	svcErr, ok := httpclient.IsServiceError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
	require.Equal(t, "Service Unavailable", svcErr.Message)
}

func TestClient_ParsesHyperionErrorKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "Endpoint not found"}`)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Get(t.Context(), "/api/missing", nil)

	svcErr, ok := httpclient.IsServiceError(err)
	require.True(t, ok)
	require.Equal(t, "Endpoint not found", svcErr.Message)
	require.Equal(t, `{"error": "Endpoint not found"}`, svcErr.Detail)
	require.Equal(t,
		`httpclient: HTTP 404 for GET /api/missing: {"error": "Endpoint not found"}`,
		err.Error(),
	)
}

func TestClient_HandlesNonJSONErrorResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom\n")
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	err := client.Post(t.Context(), "/deploy", map[string]any{}, nil)

	svcErr, ok := httpclient.IsServiceError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	require.Equal(t, http.MethodPost, svcErr.Method)
	require.Equal(t, "/deploy", svcErr.Path)
	require.Equal(t, "boom", svcErr.Detail)
	require.Empty(t, svcErr.Message)
}

func TestClient_ReturnsTransportErrorWhenServerIsDown(t *testing.T) {
	t.Parallel()

	url := newClosedServerURL(t)
	client := httpclient.New(url)

	err := client.Get(t.Context(), "/test", nil)

	require.ErrorIs(t, err, httpclient.ErrRequestFailed)

	tErr, ok := httpclient.IsTransportError(err)
	require.True(t, ok)
	require.Contains(t, tErr.Error(), "unable to reach "+url+"/test")
	require.NotContains(t, tErr.Error(), `Get "`)
}

func TestServiceError_FallsBackToReasonPhrase(t *testing.T) {
	t.Parallel()

	err := httpclient.NewServiceError(http.StatusBadGateway, http.MethodGet, "/api/health", "req-123")

	require.Equal(t, "httpclient: HTTP 502 for GET /api/health: Bad Gateway", err.Error())
}

func TestServiceError_UnknownStatusFallsBackToCode(t *testing.T) {
	t.Parallel()

	err := httpclient.NewServiceError(599, http.MethodGet, "/x", "")

	require.Equal(t, "status 599", err.DetailOrReason())
}

func TestServiceError_IsAndUnwrap(t *testing.T) {
	t.Parallel()

	err := httpclient.NewServiceError(500, http.MethodGet, "/", "req-123")

	require.ErrorIs(t, err, httpclient.ErrServiceError)
	require.Equal(t, httpclient.ErrServiceError, err.Unwrap())
	require.NotErrorIs(t, err, httpclient.ErrRequestFailed)
}

func TestIsServiceError_ReturnsFalseForNonServiceError(t *testing.T) {
	t.Parallel()

	_, ok := httpclient.IsServiceError(errSomeOtherError)

	require.False(t, ok)
}

func TestTransportError_UnwrapsCause(t *testing.T) {
	t.Parallel()

	err := httpclient.NewTransportError(http.MethodGet, "http://h/x", context.Canceled)

	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, httpclient.ErrRequestFailed)
	require.NotErrorIs(t, err, httpclient.ErrServiceError)
	require.Equal(t, "httpclient: unable to reach http://h/x: context canceled", err.Error())
}

func TestClient_BuildsURLWithoutLeadingSlash(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL + "/")

	require.NoError(t, client.Get(t.Context(), "users", nil))
}

func TestClient_BuildsURLWithEmptyPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	require.NoError(t, client.Get(t.Context(), "", nil))
}

func TestClient_ReturnsTransportErrorWhenBodyIsCutShort(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		defer conn.Close()

		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 64\r\n\r\n{\"status\":")
		_ = buf.Flush()
	}))
	defer server.Close()

	client := httpclient.New(server.URL)

	var response map[string]any
	err := client.Get(t.Context(), "/api/health", &response)

	require.ErrorIs(t, err, httpclient.ErrRequestFailed)
	require.NotErrorIs(t, err, httpclient.ErrDecodeResponse)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	tErr, ok := httpclient.IsTransportError(err)
	require.True(t, ok)
	require.Equal(t, server.URL+"/api/health", tErr.URL)
}

func TestClient_ReturnsCreateRequestErrorForInvalidMethod(t *testing.T) {
	t.Parallel()

	client := httpclient.New(newClosedServerURL(t))

	err := client.Do(t.Context(), "BAD METHOD", "/api/health", nil, nil)

	require.ErrorIs(t, err, httpclient.ErrCreateRequest)

	_, ok := httpclient.IsTransportError(err)
	require.False(t, ok)
}
