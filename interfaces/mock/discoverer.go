// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"context"
	"edgegateway/domain"
	"edgegateway/interfaces"
	"sync"
)

// Ensure, that DiscovererMock does implement interfaces.Discoverer.
// If this is not the case, regenerate this file with moq.
var _ interfaces.Discoverer = &DiscovererMock{}

// DiscovererMock is a mock implementation of interfaces.Discoverer.
//
//	func TestSomethingThatUsesDiscoverer(t *testing.T) {
//
//		// make and configure a mocked interfaces.Discoverer
//		mockedDiscoverer := &DiscovererMock{
//			ListInstancesFunc: func(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error) {
//				panic("mock out the ListInstances method")
//			},
//			ListServicesFunc: func(ctx context.Context) ([]domain.ServiceName, error) {
//				panic("mock out the ListServices method")
//			},
//		}
//
//		// use mockedDiscoverer in code that requires interfaces.Discoverer
//		// and then make assertions.
//
//	}
type DiscovererMock struct {
	// ListInstancesFunc mocks the ListInstances method.
	ListInstancesFunc func(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error)

	// ListServicesFunc mocks the ListServices method.
	ListServicesFunc func(ctx context.Context) ([]domain.ServiceName, error)

	// calls tracks calls to the methods.
	calls struct {
		// ListInstances holds details about calls to the ListInstances method.
		ListInstances []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Name is the name argument value.
			Name domain.ServiceName
		}
		// ListServices holds details about calls to the ListServices method.
		ListServices []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
		}
	}
	lockListInstances sync.RWMutex
	lockListServices  sync.RWMutex
}

// ListInstances calls ListInstancesFunc.
func (mock *DiscovererMock) ListInstances(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error) {
	callInfo := struct {
		Ctx  context.Context
		Name domain.ServiceName
	}{
		Ctx:  ctx,
		Name: name,
	}
	mock.lockListInstances.Lock()
	mock.calls.ListInstances = append(mock.calls.ListInstances, callInfo)
	mock.lockListInstances.Unlock()
	if mock.ListInstancesFunc == nil {
		var (
			instancesOut []domain.Instance
			errOut       error
		)
		return instancesOut, errOut
	}
	return mock.ListInstancesFunc(ctx, name)
}

// ListInstancesCalls gets all the calls that were made to ListInstances.
// Check the length with:
//
//	len(mockedDiscoverer.ListInstancesCalls())
func (mock *DiscovererMock) ListInstancesCalls() []struct {
	Ctx  context.Context
	Name domain.ServiceName
} {
	var calls []struct {
		Ctx  context.Context
		Name domain.ServiceName
	}
	mock.lockListInstances.RLock()
	calls = mock.calls.ListInstances
	mock.lockListInstances.RUnlock()
	return calls
}

// ListServices calls ListServicesFunc.
func (mock *DiscovererMock) ListServices(ctx context.Context) ([]domain.ServiceName, error) {
	callInfo := struct {
		Ctx context.Context
	}{
		Ctx: ctx,
	}
	mock.lockListServices.Lock()
	mock.calls.ListServices = append(mock.calls.ListServices, callInfo)
	mock.lockListServices.Unlock()
	if mock.ListServicesFunc == nil {
		var (
			serviceNamesOut []domain.ServiceName
			errOut          error
		)
		return serviceNamesOut, errOut
	}
	return mock.ListServicesFunc(ctx)
}

// ListServicesCalls gets all the calls that were made to ListServices.
// Check the length with:
//
//	len(mockedDiscoverer.ListServicesCalls())
func (mock *DiscovererMock) ListServicesCalls() []struct {
	Ctx context.Context
} {
	var calls []struct {
		Ctx context.Context
	}
	mock.lockListServices.RLock()
	calls = mock.calls.ListServices
	mock.lockListServices.RUnlock()
	return calls
}
