package handlers

import (
	"testing"

	"edgegateway/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidator_Validate(t *testing.T) {
	v := NewRequestValidator()
	valid := RegisterRequest{InstanceId: "i1", ServiceName: "order-svc", Host: "orders.internal", Port: 80, TtlMs: 1000}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(&valid))
	})
	t.Run("ip_host", func(t *testing.T) {
		req := valid
		req.Host = "10.0.0.1"
		assert.NoError(t, v.Validate(&req))
	})
	t.Run("json_field_names_in_message", func(t *testing.T) {
		req := valid
		req.InstanceId = ""
		req.TtlMs = 0
		err := v.Validate(&req)
		require.Error(t, err)
		assert.True(t, service.IsBadParameterError(err))
		assert.Contains(t, err.Error(), "instance_id: is required")
		assert.Contains(t, err.Error(), "ttl_ms: is required")
	})
	t.Run("service_name_separator", func(t *testing.T) {
		req := valid
		req.ServiceName = "order/svc"
		err := v.Validate(&req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service_name")
	})
	t.Run("port_range", func(t *testing.T) {
		req := valid
		req.Port = 65536
		err := v.Validate(&req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port: must be at most 65535")
	})
}
