// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"edgegateway/domain"
	"edgegateway/interfaces"
	"sync"
)

// Ensure, that HealthTrackerMock does implement interfaces.HealthTracker.
// If this is not the case, regenerate this file with moq.
var _ interfaces.HealthTracker = &HealthTrackerMock{}

// HealthTrackerMock is a mock implementation of interfaces.HealthTracker.
//
//	func TestSomethingThatUsesHealthTracker(t *testing.T) {
//
//		// make and configure a mocked interfaces.HealthTracker
//		mockedHealthTracker := &HealthTrackerMock{
//			RecordFunc: func(inst domain.Instance, outcome domain.Outcome) (domain.HealthState, bool) {
//				panic("mock out the Record method")
//			},
//			RegisterFunc: func(inst domain.Instance)  {
//				panic("mock out the Register method")
//			},
//			RemoveFunc: func(key domain.InstanceKey)  {
//				panic("mock out the Remove method")
//			},
//			StateFunc: func(key domain.InstanceKey) (domain.HealthState, bool) {
//				panic("mock out the State method")
//			},
//			StatesFunc: func() map[domain.InstanceKey]domain.HealthState {
//				panic("mock out the States method")
//			},
//			TryProbeFunc: func(key domain.InstanceKey) bool {
//				panic("mock out the TryProbe method")
//			},
//		}
//
//		// use mockedHealthTracker in code that requires interfaces.HealthTracker
//		// and then make assertions.
//
//	}
type HealthTrackerMock struct {
	// RecordFunc mocks the Record method.
	RecordFunc func(inst domain.Instance, outcome domain.Outcome) (domain.HealthState, bool)

	// RegisterFunc mocks the Register method.
	RegisterFunc func(inst domain.Instance)

	// RemoveFunc mocks the Remove method.
	RemoveFunc func(key domain.InstanceKey)

	// StateFunc mocks the State method.
	StateFunc func(key domain.InstanceKey) (domain.HealthState, bool)

	// StatesFunc mocks the States method.
	StatesFunc func() map[domain.InstanceKey]domain.HealthState

	// TryProbeFunc mocks the TryProbe method.
	TryProbeFunc func(key domain.InstanceKey) bool

	// calls tracks calls to the methods.
	calls struct {
		// Record holds details about calls to the Record method.
		Record []struct {
			// Inst is the inst argument value.
			Inst domain.Instance
			// Outcome is the outcome argument value.
			Outcome domain.Outcome
		}
		// Register holds details about calls to the Register method.
		Register []struct {
			// Inst is the inst argument value.
			Inst domain.Instance
		}
		// Remove holds details about calls to the Remove method.
		Remove []struct {
			// Key is the key argument value.
			Key domain.InstanceKey
		}
		// State holds details about calls to the State method.
		State []struct {
			// Key is the key argument value.
			Key domain.InstanceKey
		}
		// States holds details about calls to the States method.
		States []struct {
		}
		// TryProbe holds details about calls to the TryProbe method.
		TryProbe []struct {
			// Key is the key argument value.
			Key domain.InstanceKey
		}
	}
	lockRecord   sync.RWMutex
	lockRegister sync.RWMutex
	lockRemove   sync.RWMutex
	lockState    sync.RWMutex
	lockStates   sync.RWMutex
	lockTryProbe sync.RWMutex
}

// Record calls RecordFunc.
func (mock *HealthTrackerMock) Record(inst domain.Instance, outcome domain.Outcome) (domain.HealthState, bool) {
	callInfo := struct {
		Inst    domain.Instance
		Outcome domain.Outcome
	}{
		Inst:    inst,
		Outcome: outcome,
	}
	mock.lockRecord.Lock()
	mock.calls.Record = append(mock.calls.Record, callInfo)
	mock.lockRecord.Unlock()
	if mock.RecordFunc == nil {
		var (
			stateOut domain.HealthState
			okOut    bool
		)
		return stateOut, okOut
	}
	return mock.RecordFunc(inst, outcome)
}

// RecordCalls gets all the calls that were made to Record.
// Check the length with:
//
//	len(mockedHealthTracker.RecordCalls())
func (mock *HealthTrackerMock) RecordCalls() []struct {
	Inst    domain.Instance
	Outcome domain.Outcome
} {
	var calls []struct {
		Inst    domain.Instance
		Outcome domain.Outcome
	}
	mock.lockRecord.RLock()
	calls = mock.calls.Record
	mock.lockRecord.RUnlock()
	return calls
}

// Register calls RegisterFunc.
func (mock *HealthTrackerMock) Register(inst domain.Instance) {
	callInfo := struct {
		Inst domain.Instance
	}{
		Inst: inst,
	}
	mock.lockRegister.Lock()
	mock.calls.Register = append(mock.calls.Register, callInfo)
	mock.lockRegister.Unlock()
	if mock.RegisterFunc == nil {
		return
	}
	mock.RegisterFunc(inst)
}

// RegisterCalls gets all the calls that were made to Register.
// Check the length with:
//
//	len(mockedHealthTracker.RegisterCalls())
func (mock *HealthTrackerMock) RegisterCalls() []struct {
	Inst domain.Instance
} {
	var calls []struct {
		Inst domain.Instance
	}
	mock.lockRegister.RLock()
	calls = mock.calls.Register
	mock.lockRegister.RUnlock()
	return calls
}

// Remove calls RemoveFunc.
func (mock *HealthTrackerMock) Remove(key domain.InstanceKey) {
	callInfo := struct {
		Key domain.InstanceKey
	}{
		Key: key,
	}
	mock.lockRemove.Lock()
	mock.calls.Remove = append(mock.calls.Remove, callInfo)
	mock.lockRemove.Unlock()
	if mock.RemoveFunc == nil {
		return
	}
	mock.RemoveFunc(key)
}

// RemoveCalls gets all the calls that were made to Remove.
// Check the length with:
//
//	len(mockedHealthTracker.RemoveCalls())
func (mock *HealthTrackerMock) RemoveCalls() []struct {
	Key domain.InstanceKey
} {
	var calls []struct {
		Key domain.InstanceKey
	}
	mock.lockRemove.RLock()
	calls = mock.calls.Remove
	mock.lockRemove.RUnlock()
	return calls
}

// State calls StateFunc.
func (mock *HealthTrackerMock) State(key domain.InstanceKey) (domain.HealthState, bool) {
	callInfo := struct {
		Key domain.InstanceKey
	}{
		Key: key,
	}
	mock.lockState.Lock()
	mock.calls.State = append(mock.calls.State, callInfo)
	mock.lockState.Unlock()
	if mock.StateFunc == nil {
		var (
			healthStateOut domain.HealthState
			bOut           bool
		)
		return healthStateOut, bOut
	}
	return mock.StateFunc(key)
}

// StateCalls gets all the calls that were made to State.
// Check the length with:
//
//	len(mockedHealthTracker.StateCalls())
func (mock *HealthTrackerMock) StateCalls() []struct {
	Key domain.InstanceKey
} {
	var calls []struct {
		Key domain.InstanceKey
	}
	mock.lockState.RLock()
	calls = mock.calls.State
	mock.lockState.RUnlock()
	return calls
}

// States calls StatesFunc.
func (mock *HealthTrackerMock) States() map[domain.InstanceKey]domain.HealthState {
	callInfo := struct {
	}{}
	mock.lockStates.Lock()
	mock.calls.States = append(mock.calls.States, callInfo)
	mock.lockStates.Unlock()
	if mock.StatesFunc == nil {
		var (
			instanceKeyToHealthStateOut map[domain.InstanceKey]domain.HealthState
		)
		return instanceKeyToHealthStateOut
	}
	return mock.StatesFunc()
}

// StatesCalls gets all the calls that were made to States.
// Check the length with:
//
//	len(mockedHealthTracker.StatesCalls())
func (mock *HealthTrackerMock) StatesCalls() []struct {
} {
	var calls []struct {
	}
	mock.lockStates.RLock()
	calls = mock.calls.States
	mock.lockStates.RUnlock()
	return calls
}

// TryProbe calls TryProbeFunc.
func (mock *HealthTrackerMock) TryProbe(key domain.InstanceKey) bool {
	callInfo := struct {
		Key domain.InstanceKey
	}{
		Key: key,
	}
	mock.lockTryProbe.Lock()
	mock.calls.TryProbe = append(mock.calls.TryProbe, callInfo)
	mock.lockTryProbe.Unlock()
	if mock.TryProbeFunc == nil {
		var (
			bOut bool
		)
		return bOut
	}
	return mock.TryProbeFunc(key)
}

// TryProbeCalls gets all the calls that were made to TryProbe.
// Check the length with:
//
//	len(mockedHealthTracker.TryProbeCalls())
func (mock *HealthTrackerMock) TryProbeCalls() []struct {
	Key domain.InstanceKey
} {
	var calls []struct {
		Key domain.InstanceKey
	}
	mock.lockTryProbe.RLock()
	calls = mock.calls.TryProbe
	mock.lockTryProbe.RUnlock()
	return calls
}
