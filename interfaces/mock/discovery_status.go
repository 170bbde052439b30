// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"edgegateway/domain"
	"edgegateway/interfaces"
	"sync"
)

// Ensure, that DiscoveryStatusListenerMock does implement interfaces.DiscoveryStatusListener.
// If this is not the case, regenerate this file with moq.
var _ interfaces.DiscoveryStatusListener = &DiscoveryStatusListenerMock{}

// DiscoveryStatusListenerMock is a mock implementation of interfaces.DiscoveryStatusListener.
//
//	func TestSomethingThatUsesDiscoveryStatusListener(t *testing.T) {
//
//		// make and configure a mocked interfaces.DiscoveryStatusListener
//		mockedDiscoveryStatusListener := &DiscoveryStatusListenerMock{
//			DiscoveryDegradedFunc: func(degraded bool)  {
//				panic("mock out the DiscoveryDegraded method")
//			},
//			SnapshotPublishedFunc: func(snap *domain.Snapshot)  {
//				panic("mock out the SnapshotPublished method")
//			},
//		}
//
//		// use mockedDiscoveryStatusListener in code that requires interfaces.DiscoveryStatusListener
//		// and then make assertions.
//
//	}
type DiscoveryStatusListenerMock struct {
	// DiscoveryDegradedFunc mocks the DiscoveryDegraded method.
	DiscoveryDegradedFunc func(degraded bool)

	// SnapshotPublishedFunc mocks the SnapshotPublished method.
	SnapshotPublishedFunc func(snap *domain.Snapshot)

	// calls tracks calls to the methods.
	calls struct {
		// DiscoveryDegraded holds details about calls to the DiscoveryDegraded method.
		DiscoveryDegraded []struct {
			// Degraded is the degraded argument value.
			Degraded bool
		}
		// SnapshotPublished holds details about calls to the SnapshotPublished method.
		SnapshotPublished []struct {
			// Snap is the snap argument value.
			Snap *domain.Snapshot
		}
	}
	lockDiscoveryDegraded sync.RWMutex
	lockSnapshotPublished sync.RWMutex
}

// DiscoveryDegraded calls DiscoveryDegradedFunc.
func (mock *DiscoveryStatusListenerMock) DiscoveryDegraded(degraded bool) {
	callInfo := struct {
		Degraded bool
	}{
		Degraded: degraded,
	}
	mock.lockDiscoveryDegraded.Lock()
	mock.calls.DiscoveryDegraded = append(mock.calls.DiscoveryDegraded, callInfo)
	mock.lockDiscoveryDegraded.Unlock()
	if mock.DiscoveryDegradedFunc == nil {
		return
	}
	mock.DiscoveryDegradedFunc(degraded)
}

// DiscoveryDegradedCalls gets all the calls that were made to DiscoveryDegraded.
// Check the length with:
//
//	len(mockedDiscoveryStatusListener.DiscoveryDegradedCalls())
func (mock *DiscoveryStatusListenerMock) DiscoveryDegradedCalls() []struct {
	Degraded bool
} {
	var calls []struct {
		Degraded bool
	}
	mock.lockDiscoveryDegraded.RLock()
	calls = mock.calls.DiscoveryDegraded
	mock.lockDiscoveryDegraded.RUnlock()
	return calls
}

// SnapshotPublished calls SnapshotPublishedFunc.
func (mock *DiscoveryStatusListenerMock) SnapshotPublished(snap *domain.Snapshot) {
	callInfo := struct {
		Snap *domain.Snapshot
	}{
		Snap: snap,
	}
	mock.lockSnapshotPublished.Lock()
	mock.calls.SnapshotPublished = append(mock.calls.SnapshotPublished, callInfo)
	mock.lockSnapshotPublished.Unlock()
	if mock.SnapshotPublishedFunc == nil {
		return
	}
	mock.SnapshotPublishedFunc(snap)
}

// SnapshotPublishedCalls gets all the calls that were made to SnapshotPublished.
// Check the length with:
//
//	len(mockedDiscoveryStatusListener.SnapshotPublishedCalls())
func (mock *DiscoveryStatusListenerMock) SnapshotPublishedCalls() []struct {
	Snap *domain.Snapshot
} {
	var calls []struct {
		Snap *domain.Snapshot
	}
	mock.lockSnapshotPublished.RLock()
	calls = mock.calls.SnapshotPublished
	mock.lockSnapshotPublished.RUnlock()
	return calls
}

// Ensure, that DiscoveryStatusProviderMock does implement interfaces.DiscoveryStatusProvider.
// If this is not the case, regenerate this file with moq.
var _ interfaces.DiscoveryStatusProvider = &DiscoveryStatusProviderMock{}

// DiscoveryStatusProviderMock is a mock implementation of interfaces.DiscoveryStatusProvider.
//
//	func TestSomethingThatUsesDiscoveryStatusProvider(t *testing.T) {
//
//		// make and configure a mocked interfaces.DiscoveryStatusProvider
//		mockedDiscoveryStatusProvider := &DiscoveryStatusProviderMock{
//			StatusFunc: func() domain.DiscoveryStatus {
//				panic("mock out the Status method")
//			},
//		}
//
//		// use mockedDiscoveryStatusProvider in code that requires interfaces.DiscoveryStatusProvider
//		// and then make assertions.
//
//	}
type DiscoveryStatusProviderMock struct {
	// StatusFunc mocks the Status method.
	StatusFunc func() domain.DiscoveryStatus

	// calls tracks calls to the methods.
	calls struct {
		// Status holds details about calls to the Status method.
		Status []struct {
		}
	}
	lockStatus sync.RWMutex
}

// Status calls StatusFunc.
func (mock *DiscoveryStatusProviderMock) Status() domain.DiscoveryStatus {
	callInfo := struct {
	}{}
	mock.lockStatus.Lock()
	mock.calls.Status = append(mock.calls.Status, callInfo)
	mock.lockStatus.Unlock()
	if mock.StatusFunc == nil {
		var (
			discoveryStatusOut domain.DiscoveryStatus
		)
		return discoveryStatusOut
	}
	return mock.StatusFunc()
}

// StatusCalls gets all the calls that were made to Status.
// Check the length with:
//
//	len(mockedDiscoveryStatusProvider.StatusCalls())
func (mock *DiscoveryStatusProviderMock) StatusCalls() []struct {
} {
	var calls []struct {
	}
	mock.lockStatus.RLock()
	calls = mock.calls.Status
	mock.lockStatus.RUnlock()
	return calls
}
