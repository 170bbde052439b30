package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces/mock"
	"edgegateway/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T, cache *mock.CacheMock[domain.Registration]) *echo.Echo {
	t.Helper()
	e := echo.New()
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	validate, err := OpenAPIValidator(doc)
	require.NoError(t, err)
	e.Use(validate)
	e.Validator = NewRequestValidator()
	service.RegisterErrorHandler(e, log.NewNopLogger())
	RegisterHandlers(e, NewHTTPServer(cache, service.NewTimeProvider(helpers.TestNow), log.NewNopLogger()))
	return e
}

type errBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errBody {
	t.Helper()
	var body errBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.NotEmpty(t, body.Error.Message)
	return body
}

func TestNewHTTPServer_Panics(t *testing.T) {
	cache := &mock.CacheMock[domain.Registration]{}
	clock := service.NewTimeProvider(helpers.TestNow)
	assert.PanicsWithValue(t, "handlers.http.go: cache is required", func() {
		NewHTTPServer(nil, clock, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "handlers.http.go: clock is required", func() {
		NewHTTPServer(cache, nil, log.NewNopLogger())
	})
	assert.PanicsWithValue(t, "handlers.http.go: logger is required", func() {
		NewHTTPServer(cache, clock, nil)
	})
}

func TestHTTPServer_RegisterInstance(t *testing.T) {
	validBody := `{"instance_id":"inst-1","service_name":"Order-Svc","host":"127.0.0.1","port":9000,"ttl_ms":300000}`

	tests := []struct {
		name           string
		body           string
		cache          *mock.CacheMock[domain.Registration]
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "ok",
			body: validBody,
			cache: &mock.CacheMock[domain.Registration]{
				WriteValueFunc: func(ctx context.Context, key string, item domain.Registration, ttlMs int) error {
					assert.Equal(t, "order-svc:inst-1", key)
					assert.Equal(t, "inst-1", item.InstanceID)
					assert.Equal(t, "order-svc", item.ServiceName)
					assert.Equal(t, "127.0.0.1", item.Host)
					assert.Equal(t, 9000, item.Port)
					assert.True(t, helpers.TestNow().Equal(item.RegisteredAt))
					assert.Equal(t, 300000, ttlMs)
					return nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "400_invalid_json",
			body:           `{invalid`,
			cache:          &mock.CacheMock[domain.Registration]{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
		},
		{
			name:           "400_missing_instance_id",
			body:           `{"service_name":"order-svc","host":"127.0.0.1","port":9000,"ttl_ms":300000}`,
			cache:          &mock.CacheMock[domain.Registration]{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
		},
		{
			name:           "400_port_out_of_range",
			body:           `{"instance_id":"inst-1","service_name":"order-svc","host":"127.0.0.1","port":70000,"ttl_ms":300000}`,
			cache:          &mock.CacheMock[domain.Registration]{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
		},
		{
			name:           "400_service_name_with_colon",
			body:           `{"instance_id":"inst-1","service_name":"order:svc","host":"127.0.0.1","port":9000,"ttl_ms":300000}`,
			cache:          &mock.CacheMock[domain.Registration]{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
		},
		{
			name:           "400_invalid_host",
			body:           `{"instance_id":"inst-1","service_name":"order-svc","host":"not a host!","port":9000,"ttl_ms":300000}`,
			cache:          &mock.CacheMock[domain.Registration]{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   service.ErrBadParameter,
		},
		{
			name: "500_write_error",
			body: validBody,
			cache: &mock.CacheMock[domain.Registration]{
				WriteValueFunc: func(ctx context.Context, key string, item domain.Registration, ttlMs int) error {
					return service.NewInternalServerError("Redis write key error", assert.AnError)
				},
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   service.ErrInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, tt.cache)
			req := httptest.NewRequest(http.MethodPost, "/v1/register", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode == "" {
				assert.Empty(t, rec.Body.Bytes())
				return
			}
			assert.Equal(t, tt.expectedCode, decodeErr(t, rec).Error.Code)
			if tt.expectedStatus == http.StatusBadRequest {
				assert.Empty(t, tt.cache.WriteValueCalls())
			}
		})
	}
}

func TestHTTPServer_UnregisterInstance(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		cache          *mock.CacheMock[domain.Registration]
		expectedStatus int
	}{
		{
			name: "ok",
			path: "/v1/unregister/Order-Svc/inst-1",
			cache: &mock.CacheMock[domain.Registration]{
				DeleteValueFunc: func(ctx context.Context, key string) error {
					assert.Equal(t, "order-svc:inst-1", key)
					return nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "500_delete_error",
			path: "/v1/unregister/order-svc/inst-err",
			cache: &mock.CacheMock[domain.Registration]{
				DeleteValueFunc: func(ctx context.Context, key string) error {
					return assert.AnError
				},
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "404_missing_instance_segment",
			path:           "/v1/unregister/order-svc",
			cache:          &mock.CacheMock[domain.Registration]{},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, tt.cache)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Empty(t, rec.Body.Bytes())
			}
		})
	}
}

func TestHTTPServer_GetServices(t *testing.T) {
	tests := []struct {
		name           string
		cache          *mock.CacheMock[domain.Registration]
		expectedStatus int
		want           []string
	}{
		{
			name: "ok_deduplicated_sorted",
			cache: &mock.CacheMock[domain.Registration]{
				ListKeysFunc: func(ctx context.Context, keyPrefix string) ([]string, error) {
					assert.Equal(t, "", keyPrefix)
					return []string{"order-svc:b", "billing:x", "order-svc:a"}, nil
				},
			},
			expectedStatus: http.StatusOK,
			want:           []string{"billing", "order-svc"},
		},
		{
			name: "ok_empty",
			cache: &mock.CacheMock[domain.Registration]{
				ListKeysFunc: func(ctx context.Context, keyPrefix string) ([]string, error) {
					return []string{}, nil
				},
			},
			expectedStatus: http.StatusOK,
			want:           []string{},
		},
		{
			name: "500_list_error",
			cache: &mock.CacheMock[domain.Registration]{
				ListKeysFunc: func(ctx context.Context, keyPrefix string) ([]string, error) {
					return nil, assert.AnError
				},
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, tt.cache)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/services", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp ServicesResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.want, resp.Services)
			}
		})
	}
}

func TestHTTPServer_GetServiceInstances(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		cache          *mock.CacheMock[domain.Registration]
		expectedStatus int
		expectedCode   string
		wantIDs        []string
	}{
		{
			name: "ok_sorted",
			path: "/v1/services/Order-Svc/instances",
			cache: &mock.CacheMock[domain.Registration]{
				ListValuesFunc: func(ctx context.Context, keyPrefix string) ([]domain.Registration, error) {
					assert.Equal(t, "order-svc:", keyPrefix)
					return []domain.Registration{
						{InstanceID: "b", ServiceName: "order-svc", Host: "10.0.0.2", Port: 8081, RegisteredAt: helpers.TestNow()},
						{InstanceID: "a", ServiceName: "order-svc", Host: "10.0.0.1", Port: 8080, RegisteredAt: helpers.TestNow()},
					}, nil
				},
			},
			expectedStatus: http.StatusOK,
			wantIDs:        []string{"a", "b"},
		},
		{
			name: "404_no_instances",
			path: "/v1/services/unknown-svc/instances",
			cache: &mock.CacheMock[domain.Registration]{
				ListValuesFunc: func(ctx context.Context, keyPrefix string) ([]domain.Registration, error) {
					return nil, service.NewEntityNotFoundError("Entity not found", nil)
				},
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   service.ErrEntityNotFound,
		},
		{
			name: "500_list_error",
			path: "/v1/services/order-svc/instances",
			cache: &mock.CacheMock[domain.Registration]{
				ListValuesFunc: func(ctx context.Context, keyPrefix string) ([]domain.Registration, error) {
					return nil, service.NewInternalServerError("Redis scan keys error", assert.AnError)
				},
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   service.ErrInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(t, tt.cache)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeErr(t, rec).Error.Code)
				return
			}
			var resp InstancesResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			ids := make([]string, 0, len(resp.Instances))
			for _, i := range resp.Instances {
				ids = append(ids, i.InstanceId)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}
