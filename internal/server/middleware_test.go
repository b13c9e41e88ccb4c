package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		corsOrigin     string
		method         string
		expectedStatus int
		shouldCallNext bool
	}{
		{"GET with wildcard", "*", http.MethodGet, http.StatusOK, true},
		{"POST with specific origin", "https://example.com", http.MethodPost, http.StatusOK, true},
		{"OPTIONS preflight", "*", http.MethodOptions, http.StatusNoContent, false},
		{"empty origin", "", http.MethodGet, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{corsOrigin: tt.corsOrigin}

			nextCalled := false
			handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(tt.method, "/test", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.corsOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, tt.shouldCallNext, nextCalled)
		})
	}
}

func TestServer_CORSMiddleware_ErrorInNext(t *testing.T) {
	server := &Server{corsOrigin: "*"}

	handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/v1/estimate", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CORSMiddleware_Chaining(t *testing.T) {
	server := &Server{corsOrigin: "https://test.com"}

	var callOrder []string
	final := func(w http.ResponseWriter, r *http.Request) {
		callOrder = append(callOrder, "final")
		w.WriteHeader(http.StatusOK)
	}
	inner := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			callOrder = append(callOrder, "inner")
			next(w, r)
		}
	}

	w := httptest.NewRecorder()
	server.corsMiddleware(inner(final))(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"inner", "final"}, callOrder)
}

func TestServer_RateLimitMiddleware(t *testing.T) {
	server := newTestServer()
	server.rateLimiter = NewRateLimiter(1, 0, 0, 0)

	calls := 0
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/warp", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body RateLimitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "rate_limit_exceeded", body.ErrorType)
	assert.Equal(t, "minute", body.Type)

	other := httptest.NewRequest(http.MethodPost, "/v1/warp", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	handler(w, other)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
}

func TestServer_RateLimitMiddleware_Disabled(t *testing.T) {
	server := newTestServer()
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for range 5 {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/v1/warp", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestServer_HandleRateLimitError_Quota(t *testing.T) {
	server := newTestServer()
	resets := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	w := httptest.NewRecorder()
	server.handleRateLimitError(w, &QuotaExceededError{Type: "data", Limit: 100, Used: 90, Resets: resets})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "data", w.Header().Get("X-Quota-Type"))
	assert.Equal(t, "100", w.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "90", w.Header().Get("X-Quota-Used"))
	assert.Equal(t, resets.Format(http.TimeFormat), w.Header().Get("X-Quota-Resets"))

	var body RateLimitResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "quota_exceeded", body.ErrorType)
	assert.Equal(t, int64(90), body.Used)
}

func TestServer_HandleRateLimitError_Unknown(t *testing.T) {
	server := newTestServer()
	w := httptest.NewRecorder()
	server.handleRateLimitError(w, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"remote addr without port", nil, "192.168.1.5", "192.168.1.5"},
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:1", "203.0.113.7"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "10.0.0.1:1", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1", "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func BenchmarkServer_CORSMiddleware(b *testing.B) {
	server := &Server{corsOrigin: "*"}
	handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	b.ResetTimer()
	for range b.N {
		handler(httptest.NewRecorder(), req)
	}
}
