package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-be/internal/handlers"
	"github.com/ammerola/inventory-be/test/helpers"
	"github.com/ammerola/inventory-be/test/mocks"
)

type fakeInspector struct {
	queues []string
	err    error
}

func (f fakeInspector) Queues() ([]string, error) { return f.queues, f.err }

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 2, Pending: 2}, nil
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name         string
		pingErr      error
		stopRedis    bool
		inspector    handlers.QueueInspector
		wantStatus   int
		wantHealth   string
		wantServices []string
	}{
		{
			name:         "all_healthy",
			inspector:    fakeInspector{queues: []string{"default"}},
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			wantServices: []string{"database", "redis", "asynq"},
		},
		{
			name:         "without_queue",
			wantStatus:   http.StatusOK,
			wantHealth:   "healthy",
			wantServices: []string{"database", "redis"},
		},
		{
			name:         "database_down",
			pingErr:      errors.New("connection refused"),
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "degraded",
			wantServices: []string{"database", "redis"},
		},
		{
			name:         "redis_down",
			stopRedis:    true,
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "degraded",
			wantServices: []string{"database", "redis"},
		},
		{
			name:         "queue_down",
			inspector:    fakeInspector{err: errors.New("redis: nil")},
			wantStatus:   http.StatusServiceUnavailable,
			wantHealth:   "degraded",
			wantServices: []string{"database", "redis", "asynq"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			database := mocks.NewMockDatabase(ctrl)
			database.EXPECT().Ping(gomock.Any()).Return(tt.pingErr).AnyTimes()
			database.EXPECT().Health(gomock.Any()).Return(map[string]any{"status": "healthy"}).AnyTimes()

			testRedis := helpers.SetupTestRedis(t)
			if tt.stopRedis {
				testRedis.Server.Close()
			}

			h := handlers.NewHealthHandler(database, testRedis.Client, tt.inspector, helpers.LoadTestConfig(), helpers.TestLogger())

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.wantStatus, w.Code)

			var status handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			assert.Equal(t, tt.wantHealth, status.Status)
			assert.Equal(t, "test", status.Environment)
			assert.Len(t, status.Services, len(tt.wantServices))
			for _, name := range tt.wantServices {
				assert.Contains(t, status.Services, name)
			}
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		withRedis  bool
		wantStatus int
		wantReady  bool
	}{
		{name: "ready_with_redis", withRedis: true, wantStatus: http.StatusOK, wantReady: true},
		{name: "ready_without_redis", wantStatus: http.StatusOK, wantReady: true},
		{name: "database_not_ready", pingErr: errors.New("timeout"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			database := mocks.NewMockDatabase(ctrl)
			database.EXPECT().Ping(gomock.Any()).Return(tt.pingErr)

			var client redis.UniversalClient
			if tt.withRedis {
				client = helpers.SetupTestRedis(t).Client
			}

			h := handlers.NewHealthHandler(database, client, nil, helpers.LoadTestConfig(), helpers.TestLogger())

			w := httptest.NewRecorder()
			h.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.wantStatus, w.Code)

			var body struct {
				Ready   bool              `json:"ready"`
				Details map[string]string `json:"details"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantReady, body.Ready)
			_, hasRedis := body.Details["redis"]
			assert.Equal(t, tt.withRedis, hasRedis)
		})
	}
}
