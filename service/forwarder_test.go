package service

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"
	"edgegateway/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instanceFor returns an instance of svc pointing at srv.
func instanceFor(t *testing.T, srv *httptest.Server, svc domain.ServiceName, id string) domain.Instance {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return domain.Instance{ServiceName: svc, InstanceID: id, Host: host, Port: port, RegisteredAt: testNow()}
}

func testHeaderChain() helpers.HeaderProcessorChain {
	return helpers.NewHeaderProcessorChain(
		helpers.HopByHopProcessor{},
		helpers.ForwardedProcessor{},
		helpers.RequestIDProcessor{NewID: func() string { return "req-1" }},
	)
}

type forwarderFixture struct {
	pool      *transportPool
	tracker   *healthTracker
	forwarder *forwarder
}

func newForwarderFixture(t *testing.T, timeout time.Duration) *forwarderFixture {
	t.Helper()
	pool := NewTransportPool(TransportConfig{})
	t.Cleanup(func() { _ = pool.Close() })
	tracker := newTrackerForTest(newFakeClock(), time.Second)
	return &forwarderFixture{
		pool:      pool,
		tracker:   tracker,
		forwarder: NewForwarder(pool, tracker, testHeaderChain(), timeout, log.NewNopLogger()),
	}
}

func TestNewForwarder_Panics(t *testing.T) {
	pool := NewTransportPool(TransportConfig{})
	tracker := &mock.HealthTrackerMock{}
	headers := &mock.HeaderProcessorMock{}
	logger := log.NewNopLogger()

	tests := []struct {
		name     string
		pool     interfaces.TransportPool
		tracker  interfaces.HealthTracker
		headers  interfaces.HeaderProcessor
		logger   log.Logger
		panicMsg string
	}{
		{"pool_nil", nil, tracker, headers, logger, "service.forwarder.go: pool is required"},
		{"tracker_nil", pool, nil, headers, logger, "service.forwarder.go: tracker is required"},
		{"headers_nil", pool, tracker, nil, logger, "service.forwarder.go: headers is required"},
		{"logger_nil", pool, tracker, headers, nil, "service.forwarder.go: logger is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PanicsWithValue(t, tt.panicMsg, func() {
				NewForwarder(tt.pool, tt.tracker, tt.headers, time.Second, tt.logger)
			})
		})
	}
}

func TestForwarder_Success(t *testing.T) {
	var got *http.Request
	var gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Connection", "X-Internal")
		w.Header().Set("X-Internal", "secret")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "created")
	}))
	defer backend.Close()

	f := newForwarderFixture(t, time.Second)
	target := instanceFor(t, backend, "order-svc", "a")
	f.tracker.Register(target)

	req := httptest.NewRequest(http.MethodPost, "http://gateway.local/orders/42?expand=items", strings.NewReader(`{"qty":1}`))
	req.Header.Set("Connection", "X-Hop")
	req.Header.Set("X-Hop", "1")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()

	result, err := f.forwarder.Forward(rec, req, target, "/42")
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.True(t, result.Recorded)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(len("created")), result.BytesWritten)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/42", got.URL.Path)
	assert.Equal(t, "expand=items", got.URL.RawQuery)
	assert.Equal(t, target.Address(), got.Host)
	assert.Equal(t, `{"qty":1}`, gotBody)
	assert.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	assert.Empty(t, got.Header.Get("X-Hop"))
	assert.Empty(t, got.Header.Get("Keep-Alive"))
	assert.Equal(t, "192.0.2.1", got.Header.Get(helpers.HeaderForwardedFor))
	assert.Equal(t, "gateway.local", got.Header.Get(helpers.HeaderForwardedHost))
	assert.Equal(t, "req-1", got.Header.Get(helpers.HeaderRequestID))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "created", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get(helpers.HeaderRequestID))
	assert.Empty(t, rec.Header().Get("X-Internal"))

	state, _ := f.tracker.State(target.Key())
	assert.Equal(t, 1, state.ConsecutiveSuccesses)
}

func TestForwarder_ServerErrorIsRelayedAndRecordedAsFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	f := newForwarderFixture(t, time.Second)
	target := instanceFor(t, backend, "order-svc", "a")
	f.tracker.Register(target)

	rec := httptest.NewRecorder()
	result, err := f.forwarder.Forward(rec, httptest.NewRequest(http.MethodGet, "/x", nil), target, "/x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
	assert.Equal(t, domain.OutcomeFailure, result.Outcome)

	state, _ := f.tracker.State(target.Key())
	assert.Equal(t, 1, state.ConsecutiveFailures)
}

func TestForwarder_ClientErrorCountsAsSuccess(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer backend.Close()

	tracker := &mock.HealthTrackerMock{}
	pool := NewTransportPool(TransportConfig{})
	defer pool.Close()
	fwd := NewForwarder(pool, tracker, testHeaderChain(), time.Second, log.NewNopLogger())
	target := instanceFor(t, backend, "order-svc", "a")

	_, err := fwd.Forward(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil), target, "/missing")
	require.NoError(t, err)
	calls := tracker.RecordCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, domain.OutcomeSuccess, calls[0].Outcome)
	assert.Equal(t, target, calls[0].Inst)
}

func TestForwarder_Timeout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer backend.Close()

	f := newForwarderFixture(t, 50*time.Millisecond)
	target := instanceFor(t, backend, "order-svc", "a")
	f.tracker.Register(target)

	rec := httptest.NewRecorder()
	result, err := f.forwarder.Forward(rec, httptest.NewRequest(http.MethodGet, "/slow", nil), target, "/slow")
	require.ErrorIs(t, err, ErrDownstreamTimeout)
	assert.Zero(t, result.StatusCode)
	assert.True(t, result.Recorded)

	state, _ := f.tracker.State(target.Key())
	assert.Equal(t, domain.HealthHealthy, state.Status)
	assert.Equal(t, 1, state.ConsecutiveFailures)
}

func TestForwarder_ConnectionRefused(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := instanceFor(t, backend, "order-svc", "a")
	backend.Close()

	f := newForwarderFixture(t, time.Second)
	f.tracker.Register(target)

	result, err := f.forwarder.Forward(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), target, "/")
	require.ErrorIs(t, err, ErrDownstreamUnavailable)
	assert.Zero(t, result.StatusCode)

	state, _ := f.tracker.State(target.Key())
	assert.Equal(t, 1, state.ConsecutiveFailures)
}

func TestForwarder_ClientCancelRecordsNothing(t *testing.T) {
	started := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer backend.Close()

	tracker := &mock.HealthTrackerMock{}
	pool := NewTransportPool(TransportConfig{})
	defer pool.Close()
	fwd := NewForwarder(pool, tracker, testHeaderChain(), 5*time.Second, log.NewNopLogger())
	target := instanceFor(t, backend, "order-svc", "a")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	result, err := fwd.Forward(httptest.NewRecorder(), req, target, "/")
	require.ErrorIs(t, err, ErrClientCanceled)
	assert.False(t, result.Recorded)
	assert.Empty(t, tracker.RecordCalls())
}

func TestForwarder_Trailers(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Trailer", "X-Checksum")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "chunk")
		w.(http.Flusher).Flush()
		w.Header().Set("X-Checksum", "abc")
	}))
	defer backend.Close()

	f := newForwarderFixture(t, time.Second)
	target := instanceFor(t, backend, "order-svc", "a")

	rec := httptest.NewRecorder()
	_, err := f.forwarder.Forward(rec, httptest.NewRequest(http.MethodGet, "/", nil), target, "/")
	require.NoError(t, err)

	res := rec.Result()
	assert.Equal(t, "chunk", rec.Body.String())
	assert.Equal(t, "abc", res.Trailer.Get("X-Checksum"))
}

func TestForwarder_HeaderProcessorError(t *testing.T) {
	tracker := &mock.HealthTrackerMock{}
	headers := &mock.HeaderProcessorMock{
		ProcessFunc: func(context.Context, http.Header, *http.Request) (http.Header, error) {
			return nil, errors.New("bad header")
		},
	}
	pool := NewTransportPool(TransportConfig{})
	defer pool.Close()
	fwd := NewForwarder(pool, tracker, headers, time.Second, log.NewNopLogger())

	result, err := fwd.Forward(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), testInstance("order-svc", "a", 1), "/")
	require.Error(t, err)
	assert.Equal(t, ErrInternalServerError, ToMyError(err).Code)
	assert.Zero(t, result.StatusCode)
	assert.Empty(t, tracker.RecordCalls())
}

func TestForwarder_KeepsEncodedPathBytes(t *testing.T) {
	var gotURI, gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.RequestURI
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	f := newForwarderFixture(t, time.Second)
	target := instanceFor(t, backend, "recipe-svc", "a")

	req := httptest.NewRequest(http.MethodGet, "/recipes/category/a%2Fb?x=1", nil)
	_, err := f.forwarder.Forward(httptest.NewRecorder(), req, target, "/category/a%2Fb")
	require.NoError(t, err)
	assert.Equal(t, "/category/a%2Fb?x=1", gotURI)
	assert.Equal(t, "/category/a/b", gotPath)
}

func TestForwarder_StreamsBeforeBackendFinishes(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	releaseBackend := func() { once.Do(func() { close(release) }) }

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "first\n")
		w.(http.Flusher).Flush()
		<-release
		_, _ = io.WriteString(w, "second\n")
	}))
	defer backend.Close()

	f := newForwarderFixture(t, 5*time.Second)
	target := instanceFor(t, backend, "events-svc", "a")
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = f.forwarder.Forward(w, r, target, "/stream")
	}))
	defer gateway.Close()
	defer releaseBackend()

	resp, err := http.Get(gateway.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	lines := make(chan string, 1)
	go func() {
		line, _ := reader.ReadString('\n')
		lines <- line
	}()
	select {
	case line := <-lines:
		assert.Equal(t, "first\n", line)
	case <-time.After(3 * time.Second):
		t.Fatal("first chunk did not reach the client while the backend was still writing")
	}

	releaseBackend()
	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(rest))
}
