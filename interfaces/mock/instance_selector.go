// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"edgegateway/domain"
	"edgegateway/interfaces"
	"sync"
)

// Ensure, that InstanceSelectorMock does implement interfaces.InstanceSelector.
// If this is not the case, regenerate this file with moq.
var _ interfaces.InstanceSelector = &InstanceSelectorMock{}

// InstanceSelectorMock is a mock implementation of interfaces.InstanceSelector.
//
//	func TestSomethingThatUsesInstanceSelector(t *testing.T) {
//
//		// make and configure a mocked interfaces.InstanceSelector
//		mockedInstanceSelector := &InstanceSelectorMock{
//			SelectFunc: func(name domain.ServiceName) (domain.Instance, error) {
//				panic("mock out the Select method")
//			},
//		}
//
//		// use mockedInstanceSelector in code that requires interfaces.InstanceSelector
//		// and then make assertions.
//
//	}
type InstanceSelectorMock struct {
	// SelectFunc mocks the Select method.
	SelectFunc func(name domain.ServiceName) (domain.Instance, error)

	// calls tracks calls to the methods.
	calls struct {
		// Select holds details about calls to the Select method.
		Select []struct {
			// Name is the name argument value.
			Name domain.ServiceName
		}
	}
	lockSelect sync.RWMutex
}

// Select calls SelectFunc.
func (mock *InstanceSelectorMock) Select(name domain.ServiceName) (domain.Instance, error) {
	callInfo := struct {
		Name domain.ServiceName
	}{
		Name: name,
	}
	mock.lockSelect.Lock()
	mock.calls.Select = append(mock.calls.Select, callInfo)
	mock.lockSelect.Unlock()
	if mock.SelectFunc == nil {
		var (
			instanceOut domain.Instance
			errOut      error
		)
		return instanceOut, errOut
	}
	return mock.SelectFunc(name)
}

// SelectCalls gets all the calls that were made to Select.
// Check the length with:
//
//	len(mockedInstanceSelector.SelectCalls())
func (mock *InstanceSelectorMock) SelectCalls() []struct {
	Name domain.ServiceName
} {
	var calls []struct {
		Name domain.ServiceName
	}
	mock.lockSelect.RLock()
	calls = mock.calls.Select
	mock.lockSelect.RUnlock()
	return calls
}
