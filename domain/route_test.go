package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRouteConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         RouteConfig
		wantErr     bool
		wantIndex   int
		wantContain string
	}{
		{
			name:    "valid_nil_rules",
			cfg:     RouteConfig{Rules: nil},
			wantErr: false,
		},
		{
			name: "valid_simple_rules",
			cfg: RouteConfig{
				Rules: []RouteRule{
					{PathPrefix: "/orders", TargetService: "order-svc", StripPrefix: true},
					{PathPrefix: "/recipes", TargetService: "recipe-service"},
				},
			},
			wantErr: false,
		},
		{
			name:    "valid_root_prefix",
			cfg:     RouteConfig{Rules: []RouteRule{{PathPrefix: "/", TargetService: "web"}}},
			wantErr: false,
		},
		{
			name:        "empty_prefix",
			cfg:         RouteConfig{Rules: []RouteRule{{PathPrefix: "", TargetService: "a"}}},
			wantErr:     true,
			wantIndex:   0,
			wantContain: "non-empty",
		},
		{
			name:        "prefix_without_slash",
			cfg:         RouteConfig{Rules: []RouteRule{{PathPrefix: "orders", TargetService: "a"}}},
			wantErr:     true,
			wantIndex:   0,
			wantContain: "start with /",
		},
		{
			name: "wildcard_prefix",
			cfg: RouteConfig{Rules: []RouteRule{
				{PathPrefix: "/a", TargetService: "a"},
				{PathPrefix: "/b/**", TargetService: "b"},
			}},
			wantErr:     true,
			wantIndex:   1,
			wantContain: "wildcards",
		},
		{
			name:        "trailing_slash",
			cfg:         RouteConfig{Rules: []RouteRule{{PathPrefix: "/a/", TargetService: "a"}}},
			wantErr:     true,
			wantIndex:   0,
			wantContain: "end with /",
		},
		{
			name:        "empty_service",
			cfg:         RouteConfig{Rules: []RouteRule{{PathPrefix: "/a", TargetService: " "}}},
			wantErr:     true,
			wantIndex:   0,
			wantContain: "service",
		},
		{
			name: "repeated_prefix_allowed",
			cfg: RouteConfig{Rules: []RouteRule{
				{PathPrefix: "/a", TargetService: "a"},
				{PathPrefix: "/a", TargetService: "b"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRouteConfig(tt.cfg)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var rce *RouteConfigError
			require.ErrorAs(t, err, &rce)
			assert.Equal(t, tt.wantIndex, rce.Index)
			assert.Contains(t, rce.Reason, tt.wantContain)
		})
	}
}

func TestRouteConfigError_Error(t *testing.T) {
	err := &RouteConfigError{Index: 2, Reason: "prefix must be non-empty"}
	assert.Equal(t, "route[2]: prefix must be non-empty", err.Error())
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/orders", want: "/orders"},
		{in: " orders ", want: "/orders"},
		{in: "/orders/**", want: "/orders"},
		{in: "/orders/*", want: "/orders"},
		{in: "/orders/", want: "/orders"},
		{in: "/", want: "/"},
		{in: "/**", want: "/"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePrefix(tt.in))
		})
	}
}

func TestNormalizeServiceName(t *testing.T) {
	assert.Equal(t, ServiceName("order-svc"), NormalizeServiceName("  Order-SVC "))
}
