package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// ErrTransportPoolClosed is returned by RoundTripper after Close.
var ErrTransportPoolClosed = errors.New("transport pool is closed")

// TransportConfig tunes the per-instance HTTP transports.
type TransportConfig struct {
	DialTimeout             time.Duration
	KeepAlive               time.Duration
	IdleConnTimeout         time.Duration
	MaxIdleConnsPerInstance int
}

// DefaultTransportConfig returns dial timeout 2s, keep-alive 30s, idle timeout 90s and 32 idle connections per instance.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:             2 * time.Second,
		KeepAlive:               30 * time.Second,
		IdleConnTimeout:         90 * time.Second,
		MaxIdleConnsPerInstance: 32,
	}
}

// transportPool implements interfaces.TransportPool: one *http.Transport per instance address, so the
// connections of an instance can be dropped as soon as it leaves the snapshot without touching the others.
type transportPool struct {
	cfg        TransportConfig
	transports *xsync.Map[string, *http.Transport]
	closed     atomic.Bool
}

// NewTransportPool creates an empty pool; zero fields of cfg take DefaultTransportConfig values.
//
// Called from cmd/gateway; shared by service.forwarder (RoundTripper) and service.Refresher (Evict).
func NewTransportPool(cfg TransportConfig) *transportPool {
	def := DefaultTransportConfig()
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = def.KeepAlive
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}
	if cfg.MaxIdleConnsPerInstance <= 0 {
		cfg.MaxIdleConnsPerInstance = def.MaxIdleConnsPerInstance
	}
	return &transportPool{
		cfg:        cfg,
		transports: xsync.NewMap[string, *http.Transport](),
	}
}

// RoundTripper returns the transport of address, creating it on first use.
func (p *transportPool) RoundTripper(address string) (http.RoundTripper, error) {
	if p.closed.Load() {
		return nil, ErrTransportPoolClosed
	}
	if t, ok := p.transports.Load(address); ok {
		return t, nil
	}
	created := p.newTransport()
	actual, loaded := p.transports.LoadOrStore(address, created)
	if loaded {
		created.CloseIdleConnections()
	}
	return actual, nil
}

// Evict closes idle connections to address and forgets its transport. In-flight requests finish on their own connection.
func (p *transportPool) Evict(address string) {
	if t, ok := p.transports.LoadAndDelete(address); ok {
		t.CloseIdleConnections()
	}
}

// Close evicts every transport. Idempotent: repeated call returns nil with no side effects.
func (p *transportPool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.transports.Range(func(address string, t *http.Transport) bool {
		t.CloseIdleConnections()
		p.transports.Delete(address)
		return true
	})
	return nil
}

// Size returns the number of pooled transports.
func (p *transportPool) Size() int {
	return p.transports.Size()
}

func (p *transportPool) newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   p.cfg.DialTimeout,
		KeepAlive: p.cfg.KeepAlive,
	}
	return &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:          p.cfg.MaxIdleConnsPerInstance,
		MaxIdleConnsPerHost:   p.cfg.MaxIdleConnsPerInstance,
		IdleConnTimeout:       p.cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   p.cfg.DialTimeout,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    true,
		ForceAttemptHTTP2:     false,
	}
}
