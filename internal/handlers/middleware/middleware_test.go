package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-be/internal/handlers/middleware"
	"github.com/ammerola/inventory-be/internal/pkg/logger"
	"github.com/ammerola/inventory-be/test/helpers"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.ContextKeyRequestID).(string)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name              string
		header            string
		existingRequestID string
		validate          func(*testing.T, *http.Response)
	}{
		{
			name: "generates_new_request_id",
			validate: func(t *testing.T, resp *http.Response) {
				requestID := resp.Header.Get("X-Request-ID")
				assert.Len(t, requestID, 36)
				assert.Equal(t, requestID, seen)
			},
		},
		{
			name:              "uses_existing_request_id",
			existingRequestID: "existing-id-123",
			validate: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "existing-id-123", resp.Header.Get("X-Request-ID"))
				assert.Equal(t, "existing-id-123", seen)
			},
		},
		{
			name:              "custom_header",
			header:            "X-Correlation-ID",
			existingRequestID: "corr-1",
			validate: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "corr-1", resp.Header.Get("X-Correlation-ID"))
				assert.Empty(t, resp.Header.Get("X-Request-ID"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			wrapped := middleware.RequestID(tt.header)(handler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.existingRequestID != "" {
				header := tt.header
				if header == "" {
					header = "X-Request-ID"
				}
				req.Header.Set(header, tt.existingRequestID)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			tt.validate(t, w.Result())
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantSeverity string
	}{
		{name: "success_logs_info", status: http.StatusOK, wantSeverity: "INFO"},
		{name: "client_error_logs_warn", status: http.StatusConflict, wantSeverity: "WARN"},
		{name: "server_error_logs_error", status: http.StatusInternalServerError, wantSeverity: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := logger.NewLogger(&logger.LogConfig{Level: "debug", Format: "json", Writer: buf})

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			})
			wrapped := middleware.Chain(handler, middleware.RequestID(""), middleware.Logger(l))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales?x=1", nil)
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
			assert.Equal(t, "request_completed", entry["msg"])
			assert.Equal(t, tt.wantSeverity, entry["severity"])
			assert.Equal(t, http.MethodPost, entry["method"])
			assert.Equal(t, "/api/v1/sales", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status_code"])
			assert.Equal(t, w.Header().Get("X-Request-ID"), entry["request_id"])
			assert.Equal(t, float64(4), entry["bytes"])
		})
	}
}

func TestLogger_PassesFlushThrough(t *testing.T) {
	l := logger.NewLogger(&logger.LogConfig{Level: "error", Format: "json", Writer: &bytes.Buffer{}})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: x\n\n"))
		require.NoError(t, http.NewResponseController(w).Flush())
	})

	w := httptest.NewRecorder()
	middleware.Logger(l)(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/changes", nil))

	assert.True(t, w.Flushed)
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "recovers_from_panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error",
		},
		{
			name: "passes_through_normal_response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("normal response"))
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "normal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.Chain(tt.handler, middleware.RequestID(""), middleware.Recovery(helpers.TestLogger()))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("X-Request-ID", "test-123")
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.Contains(t, w.Body.String(), "test-123")
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	wrapped := middleware.RateLimit(2, time.Second)(okHandler)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:1234"
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	req.RemoteAddr = "192.168.1.1:5678"
	w = httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_UsesForwardedFor(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	wrapped := limiter.Middleware(okHandler)

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:80"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.5, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.5"))
	assert.Equal(t, http.StatusOK, send("203.0.113.6"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		requestMethod  string
		expectedStatus int
		checkHeaders   func(*testing.T, http.Header)
	}{
		{
			name:           "allows_wildcard_origin",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://example.com",
			requestMethod:  http.MethodGet,
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "allows_specific_origin",
			allowedOrigins: []string{"https://app.example.com", "https://admin.example.com"},
			requestOrigin:  "https://app.example.com",
			requestMethod:  http.MethodGet,
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://app.example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "handles_preflight_request",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://example.com",
			requestMethod:  http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://example.com", headers.Get("Access-Control-Allow-Origin"))
				assert.Contains(t, headers.Get("Access-Control-Allow-Methods"), http.MethodPut)
				assert.NotEmpty(t, headers.Get("Access-Control-Allow-Headers"))
			},
		},
		{
			name:           "blocks_unallowed_origin",
			allowedOrigins: []string{"https://allowed.com"},
			requestOrigin:  "https://notallowed.com",
			requestMethod:  http.MethodGet,
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Empty(t, headers.Get("Access-Control-Allow-Origin"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.CORS(tt.allowedOrigins)(okHandler)

			req := httptest.NewRequest(tt.requestMethod, "/test", nil)
			req.Header.Set("Origin", tt.requestOrigin)
			if tt.requestMethod == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkHeaders(t, w.Header())
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	middleware.SecureHeaders(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestMaxBody(t *testing.T) {
	var readErr error
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = new(bytes.Buffer).ReadFrom(r.Body)
	})

	wrapped := middleware.MaxBody(8)(handler)
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 32)))
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	middleware.Chain(okHandler, mark("first"), mark("second")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
}
