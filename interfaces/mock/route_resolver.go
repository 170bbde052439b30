// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"edgegateway/domain"
	"edgegateway/interfaces"
	"sync"
)

// Ensure, that RouteResolverMock does implement interfaces.RouteResolver.
// If this is not the case, regenerate this file with moq.
var _ interfaces.RouteResolver = &RouteResolverMock{}

// RouteResolverMock is a mock implementation of interfaces.RouteResolver.
//
//	func TestSomethingThatUsesRouteResolver(t *testing.T) {
//
//		// make and configure a mocked interfaces.RouteResolver
//		mockedRouteResolver := &RouteResolverMock{
//			ResolveFunc: func(path string) (domain.RouteMatch, error) {
//				panic("mock out the Resolve method")
//			},
//		}
//
//		// use mockedRouteResolver in code that requires interfaces.RouteResolver
//		// and then make assertions.
//
//	}
type RouteResolverMock struct {
	// ResolveFunc mocks the Resolve method.
	ResolveFunc func(path string) (domain.RouteMatch, error)

	// calls tracks calls to the methods.
	calls struct {
		// Resolve holds details about calls to the Resolve method.
		Resolve []struct {
			// Path is the path argument value.
			Path string
		}
	}
	lockResolve sync.RWMutex
}

// Resolve calls ResolveFunc.
func (mock *RouteResolverMock) Resolve(path string) (domain.RouteMatch, error) {
	callInfo := struct {
		Path string
	}{
		Path: path,
	}
	mock.lockResolve.Lock()
	mock.calls.Resolve = append(mock.calls.Resolve, callInfo)
	mock.lockResolve.Unlock()
	if mock.ResolveFunc == nil {
		var (
			routeMatchOut domain.RouteMatch
			errOut        error
		)
		return routeMatchOut, errOut
	}
	return mock.ResolveFunc(path)
}

// ResolveCalls gets all the calls that were made to Resolve.
// Check the length with:
//
//	len(mockedRouteResolver.ResolveCalls())
func (mock *RouteResolverMock) ResolveCalls() []struct {
	Path string
} {
	var calls []struct {
		Path string
	}
	mock.lockResolve.RLock()
	calls = mock.calls.Resolve
	mock.lockResolve.RUnlock()
	return calls
}
