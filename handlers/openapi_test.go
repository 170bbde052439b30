package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOpenAPI(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Servers)
	for _, p := range []string{"/v1/register", "/v1/unregister/{service_name}/{instance_id}", "/v1/services", "/v1/services/{service_name}/instances"} {
		assert.NotNil(t, doc.Paths.Find(p), p)
	}
}

func TestOpenAPIValidator(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	mw, err := OpenAPIValidator(doc)
	require.NoError(t, err)

	reached := false
	next := func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	}
	run := func(method, target, body string) error {
		reached = false
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		c := echo.New().NewContext(req, httptest.NewRecorder())
		return mw(next)(c)
	}

	t.Run("valid_body_passes", func(t *testing.T) {
		err := run(http.MethodPost, "/v1/register", `{"instance_id":"i","service_name":"s","host":"h","port":1,"ttl_ms":1}`)
		require.NoError(t, err)
		assert.True(t, reached)
	})
	t.Run("schema_violation_is_request_error", func(t *testing.T) {
		err := run(http.MethodPost, "/v1/register", `{"instance_id":"i","service_name":"s","host":"h","port":0,"ttl_ms":1}`)
		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusBadRequest, he.Code)
		var reqErr *openapi3filter.RequestError
		assert.True(t, errors.As(he.Internal, &reqErr))
		assert.False(t, reached)
	})
	t.Run("undocumented_path_passes_through", func(t *testing.T) {
		require.NoError(t, run(http.MethodGet, "/unknown", ""))
		assert.True(t, reached)
	})
}
