// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"context"
	"edgegateway/interfaces"
	"net/http"
	"sync"
)

// Ensure, that HeaderProcessorMock does implement interfaces.HeaderProcessor.
// If this is not the case, regenerate this file with moq.
var _ interfaces.HeaderProcessor = &HeaderProcessorMock{}

// HeaderProcessorMock is a mock implementation of interfaces.HeaderProcessor.
//
//	func TestSomethingThatUsesHeaderProcessor(t *testing.T) {
//
//		// make and configure a mocked interfaces.HeaderProcessor
//		mockedHeaderProcessor := &HeaderProcessorMock{
//			ProcessFunc: func(ctx context.Context, headers http.Header, inbound *http.Request) (http.Header, error) {
//				panic("mock out the Process method")
//			},
//		}
//
//		// use mockedHeaderProcessor in code that requires interfaces.HeaderProcessor
//		// and then make assertions.
//
//	}
type HeaderProcessorMock struct {
	// ProcessFunc mocks the Process method.
	ProcessFunc func(ctx context.Context, headers http.Header, inbound *http.Request) (http.Header, error)

	// calls tracks calls to the methods.
	calls struct {
		// Process holds details about calls to the Process method.
		Process []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Headers is the headers argument value.
			Headers http.Header
			// Inbound is the inbound argument value.
			Inbound *http.Request
		}
	}
	lockProcess sync.RWMutex
}

// Process calls ProcessFunc.
func (mock *HeaderProcessorMock) Process(ctx context.Context, headers http.Header, inbound *http.Request) (http.Header, error) {
	callInfo := struct {
		Ctx     context.Context
		Headers http.Header
		Inbound *http.Request
	}{
		Ctx:     ctx,
		Headers: headers,
		Inbound: inbound,
	}
	mock.lockProcess.Lock()
	mock.calls.Process = append(mock.calls.Process, callInfo)
	mock.lockProcess.Unlock()
	if mock.ProcessFunc == nil {
		var (
			headerOut http.Header
			errOut    error
		)
		return headerOut, errOut
	}
	return mock.ProcessFunc(ctx, headers, inbound)
}

// ProcessCalls gets all the calls that were made to Process.
// Check the length with:
//
//	len(mockedHeaderProcessor.ProcessCalls())
func (mock *HeaderProcessorMock) ProcessCalls() []struct {
	Ctx     context.Context
	Headers http.Header
	Inbound *http.Request
} {
	var calls []struct {
		Ctx     context.Context
		Headers http.Header
		Inbound *http.Request
	}
	mock.lockProcess.RLock()
	calls = mock.calls.Process
	mock.lockProcess.RUnlock()
	return calls
}
