// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"edgegateway/domain"
	"edgegateway/interfaces"
	"net/http"
	"sync"
)

// Ensure, that ForwarderMock does implement interfaces.Forwarder.
// If this is not the case, regenerate this file with moq.
var _ interfaces.Forwarder = &ForwarderMock{}

// ForwarderMock is a mock implementation of interfaces.Forwarder.
//
//	func TestSomethingThatUsesForwarder(t *testing.T) {
//
//		// make and configure a mocked interfaces.Forwarder
//		mockedForwarder := &ForwarderMock{
//			ForwardFunc: func(w http.ResponseWriter, r *http.Request, target domain.Instance, downstreamPath string) (domain.ForwardResult, error) {
//				panic("mock out the Forward method")
//			},
//		}
//
//		// use mockedForwarder in code that requires interfaces.Forwarder
//		// and then make assertions.
//
//	}
type ForwarderMock struct {
	// ForwardFunc mocks the Forward method.
	ForwardFunc func(w http.ResponseWriter, r *http.Request, target domain.Instance, downstreamPath string) (domain.ForwardResult, error)

	// calls tracks calls to the methods.
	calls struct {
		// Forward holds details about calls to the Forward method.
		Forward []struct {
			// W is the w argument value.
			W http.ResponseWriter
			// R is the r argument value.
			R *http.Request
			// Target is the target argument value.
			Target domain.Instance
			// DownstreamPath is the downstreamPath argument value.
			DownstreamPath string
		}
	}
	lockForward sync.RWMutex
}

// Forward calls ForwardFunc.
func (mock *ForwarderMock) Forward(w http.ResponseWriter, r *http.Request, target domain.Instance, downstreamPath string) (domain.ForwardResult, error) {
	callInfo := struct {
		W              http.ResponseWriter
		R              *http.Request
		Target         domain.Instance
		DownstreamPath string
	}{
		W:              w,
		R:              r,
		Target:         target,
		DownstreamPath: downstreamPath,
	}
	mock.lockForward.Lock()
	mock.calls.Forward = append(mock.calls.Forward, callInfo)
	mock.lockForward.Unlock()
	if mock.ForwardFunc == nil {
		var (
			forwardResultOut domain.ForwardResult
			errOut           error
		)
		return forwardResultOut, errOut
	}
	return mock.ForwardFunc(w, r, target, downstreamPath)
}

// ForwardCalls gets all the calls that were made to Forward.
// Check the length with:
//
//	len(mockedForwarder.ForwardCalls())
func (mock *ForwarderMock) ForwardCalls() []struct {
	W              http.ResponseWriter
	R              *http.Request
	Target         domain.Instance
	DownstreamPath string
} {
	var calls []struct {
		W              http.ResponseWriter
		R              *http.Request
		Target         domain.Instance
		DownstreamPath string
	}
	mock.lockForward.RLock()
	calls = mock.calls.Forward
	mock.lockForward.RUnlock()
	return calls
}
