package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

var (
	// ErrDownstreamTimeout is returned when the instance did not complete the exchange within the forwarding timeout.
	ErrDownstreamTimeout = errors.New("downstream request timed out")
	// ErrDownstreamUnavailable is returned when the instance could not be reached or broke the exchange.
	ErrDownstreamUnavailable = errors.New("downstream instance unavailable")
	// ErrClientCanceled is returned when the client went away before the exchange completed; no outcome is recorded.
	ErrClientCanceled = errors.New("client canceled request")

	errClientWrite = errors.New("write to client failed")
)

const copyBufferSize = 32 * 1024

// forwarder implements interfaces.Forwarder. For every request it:
//  1. derives a context with the forwarding timeout from the inbound request context, so a client disconnect
//     cancels the downstream call as well;
//  2. builds the downstream request (downstream path, original query, method, processed headers, Host
//     rewritten to the instance address, inbound body streamed as is);
//  3. sends it over the pooled transport of the instance;
//  4. streams status, headers, body and trailers back, flushing per write for responses of unknown length;
//  5. reports exactly one outcome to the health tracker: failure on connect error, timeout, broken body or
//     5xx; success on any other status; nothing when the client canceled.
//
// No retry against another instance is attempted.
type forwarder struct {
	pool    interfaces.TransportPool
	tracker interfaces.HealthTracker
	headers interfaces.HeaderProcessor
	timeout time.Duration
	logger  log.Logger

	buffers sync.Pool
}

// NewForwarder creates the forwarding engine. Panics on nil pool, tracker, headers or logger.
//
// Parameters: timeout - bound on the whole exchange including the response body; <= 0 disables it (client context only).
//
// Called from cmd/gateway at startup.
func NewForwarder(
	pool interfaces.TransportPool,
	tracker interfaces.HealthTracker,
	headers interfaces.HeaderProcessor,
	timeout time.Duration,
	logger log.Logger,
) *forwarder {
	return &forwarder{
		pool:    helpers.NilPanic(pool, "service.forwarder.go: pool is required"),
		tracker: helpers.NilPanic(tracker, "service.forwarder.go: tracker is required"),
		headers: helpers.NilPanic(headers, "service.forwarder.go: headers is required"),
		timeout: timeout,
		logger:  log.With(helpers.NilPanic(logger, "service.forwarder.go: logger is required"), "component", "forwarder"),
		buffers: sync.Pool{New: func() any {
			b := make([]byte, copyBufferSize)
			return &b
		}},
	}
}

// Forward sends r to target with downstreamPath and relays the response to w.
//
// Returns: (result, nil) when the exchange completed (any downstream status); (result, error) otherwise, where the
// error wraps ErrDownstreamTimeout, ErrDownstreamUnavailable or ErrClientCanceled. result.StatusCode is zero
// when nothing was written to w.
//
// Called from service.Gateway.ServeHTTP after instance selection.
func (f *forwarder) Forward(w http.ResponseWriter, r *http.Request, target domain.Instance, downstreamPath string) (domain.ForwardResult, error) {
	start := time.Now()
	ctx, cancel := f.exchangeContext(r.Context())
	defer cancel()

	rt, err := f.pool.RoundTripper(target.Address())
	if err != nil {
		return domain.ForwardResult{}, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	headers, err := f.headers.Process(ctx, r.Header, r)
	if err != nil {
		return domain.ForwardResult{}, NewInternalServerError("header processing failed", err)
	}
	out, err := newDownstreamRequest(ctx, r, target, downstreamPath, headers)
	if err != nil {
		return domain.ForwardResult{}, NewInternalServerError("build downstream request failed", err)
	}

	resp, err := rt.RoundTrip(out)
	if err != nil {
		return f.finish(domain.ForwardResult{}, target, start, f.classify(ctx, r, err))
	}
	defer resp.Body.Close()

	helpers.RemoveHopByHopHeaders(resp.Header)
	dst := w.Header()
	copyHeader(dst, resp.Header)
	if id := headers.Get(helpers.HeaderRequestID); id != "" && dst.Get(helpers.HeaderRequestID) == "" {
		dst.Set(helpers.HeaderRequestID, id)
	}
	announced := len(resp.Trailer)
	if announced > 0 {
		keys := make([]string, 0, announced)
		for k := range resp.Trailer {
			keys = append(keys, k)
		}
		dst.Add("Trailer", strings.Join(keys, ", "))
	}
	w.WriteHeader(resp.StatusCode)
	result := domain.ForwardResult{StatusCode: resp.StatusCode}

	n, copyErr := f.copyBody(w, resp.Body, resp.ContentLength == -1)
	result.BytesWritten = n
	if copyErr != nil {
		return f.finish(result, target, start, f.classify(ctx, r, copyErr))
	}

	if len(resp.Trailer) == announced {
		copyHeader(dst, resp.Trailer)
	} else {
		for k, vv := range resp.Trailer {
			for _, v := range vv {
				dst.Add(http.TrailerPrefix+k, v)
			}
		}
	}

	outcome := domain.OutcomeSuccess
	if resp.StatusCode >= http.StatusInternalServerError {
		outcome = domain.OutcomeFailure
	}
	return f.finish(result, target, start, exchangeOutcome{outcome: outcome, record: true})
}

func (f *forwarder) exchangeContext(parent context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, f.timeout)
}

// exchangeOutcome is the classification of a finished or failed exchange.
type exchangeOutcome struct {
	outcome domain.Outcome
	record  bool
	err     error
}

// classify maps a transport or body-copy error to an outcome. The inbound context is checked first: once the
// client is gone the instance is not blamed.
func (f *forwarder) classify(ctx context.Context, inbound *http.Request, err error) exchangeOutcome {
	if inbound.Context().Err() != nil || errors.Is(err, errClientWrite) {
		return exchangeOutcome{err: fmt.Errorf("%w: %v", ErrClientCanceled, err)}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return exchangeOutcome{outcome: domain.OutcomeFailure, record: true, err: fmt.Errorf("%w after %s: %v", ErrDownstreamTimeout, f.timeout, err)}
	}
	return exchangeOutcome{outcome: domain.OutcomeFailure, record: true, err: fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)}
}

// finish reports the outcome to the tracker and metrics and completes result.
func (f *forwarder) finish(result domain.ForwardResult, target domain.Instance, start time.Time, o exchangeOutcome) (domain.ForwardResult, error) {
	result.Duration = time.Since(start)
	result.Outcome = o.outcome
	result.Recorded = o.record
	label := "canceled"
	if o.record {
		label = o.outcome.String()
		f.tracker.Record(target, o.outcome)
	}
	MetricForwardDuration.WithLabelValues(string(target.ServiceName), label).Observe(result.Duration.Seconds())
	if o.err != nil {
		level.Debug(f.logger).Log(
			"msg", "downstream exchange failed",
			"instance", target.Key(),
			"address", target.Address(),
			"outcome", label,
			"err", o.err,
		)
	}
	return result, o.err
}

// copyBody streams src to dst through a pooled buffer, flushing after every write when flush is set.
// Write errors are wrapped with errClientWrite.
func (f *forwarder) copyBody(dst http.ResponseWriter, src io.Reader, flush bool) (int64, error) {
	bufp := f.buffers.Get().(*[]byte)
	defer f.buffers.Put(bufp)
	buf := *bufp

	rc := http.NewResponseController(dst)
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("%w: %v", errClientWrite, werr)
			}
			if flush {
				_ = rc.Flush()
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// newDownstreamRequest builds the request sent to target. path is in escaped form and is sent as is, so "%2F" stays encoded.
func newDownstreamRequest(ctx context.Context, in *http.Request, target domain.Instance, path string, headers http.Header) (*http.Request, error) {
	body := in.Body
	if in.ContentLength == 0 || body == nil {
		body = http.NoBody
	}
	out, err := http.NewRequestWithContext(ctx, in.Method, "http://"+target.Address(), body)
	if err != nil {
		return nil, err
	}
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return nil, err
	}
	out.URL.Path = decoded
	out.URL.RawPath = path
	out.URL.RawQuery = in.URL.RawQuery
	out.Header = headers
	if _, ok := out.Header["User-Agent"]; !ok {
		out.Header.Set("User-Agent", "")
	}
	out.ContentLength = in.ContentLength
	out.Host = target.Address()
	return out, nil
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
