package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/component-registry-server/internal/api"
	"github.com/stacklok/component-registry-server/internal/auth"
	"github.com/stacklok/component-registry-server/internal/head"
	"github.com/stacklok/component-registry-server/internal/service"
	"github.com/stacklok/component-registry-server/internal/service/mocks"
)

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockSvc := mocks.NewMockRegistryService(ctrl)
	// No expectations needed - health check doesn't call service
	server := api.NewServer(mockSvc)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		setupMock      func(*mocks.MockRegistryService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "catalog loads",
			setupMock: func(m *mocks.MockRegistryService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"ready"}`,
		},
		{
			name: "catalog unavailable",
			setupMock: func(m *mocks.MockRegistryService) {
				m.EXPECT().CheckReadiness(gomock.Any()).
					Return(fmt.Errorf("registry data not available: %w", service.ErrRegistryNotFound))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"message":"Registry not ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			t.Cleanup(ctrl.Finish)

			mockSvc := mocks.NewMockRegistryService(ctrl)
			tt.setupMock(mockSvc)

			rr := httptest.NewRecorder()
			api.NewServer(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	rr := httptest.NewRecorder()
	api.NewServer(mocks.NewMockRegistryService(ctrl)).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	for _, key := range []string{"version", "commit", "build_date", "go_version", "platform"} {
		assert.Contains(t, response, key)
	}
}

func TestHeadEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []api.ServerOption
		wantStatus int
	}{
		{
			name:       "configured site",
			opts:       []api.ServerOption{api.WithHeadGenerator(head.NewGenerator(head.Site{Title: "Acme UI"}))},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid site",
			opts:       []api.ServerOption{api.WithHeadGenerator(head.NewGenerator(head.Site{}))},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "no site configured",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			t.Cleanup(ctrl.Finish)

			rr := httptest.NewRecorder()
			api.NewServer(mocks.NewMockRegistryService(ctrl), tt.opts...).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/head", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var h head.Head
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
				assert.Equal(t, "Acme UI", h.Title)
				assert.NotEmpty(t, h.Tags)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# HELP up\n"))
	})
	server := api.NewServer(mocks.NewMockRegistryService(ctrl), api.WithMetricsHandler(metrics))

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "# HELP")
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	rr := httptest.NewRecorder()
	api.NewServer(mocks.NewMockRegistryService(ctrl)).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/registry/public/button/extra", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"path":"/registry/public/button/extra","message":"Invalid URL"}`, rr.Body.String())
}

func TestRegistryRoutesAreMounted(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockSvc := mocks.NewMockRegistryService(ctrl)
	mockSvc.EXPECT().GetItem(gomock.Any(), "button").Return(nil, false, nil).Times(2)

	server := api.NewServer(mockSvc,
		api.WithAuthMiddleware(auth.TokenMiddleware(auth.StaticSecret("s3cret"))),
		api.WithMiddlewares(api.LoggingMiddleware),
	)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{name: "public item", target: "/registry/public/button", wantStatus: http.StatusNotFound},
		{name: "private item with token", target: "/registry/button?token=s3cret", wantStatus: http.StatusNotFound},
		{name: "private item without token", target: "/registry/button", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.target, nil))
		assert.Equal(t, tt.wantStatus, rr.Code, tt.name)
	}
}
