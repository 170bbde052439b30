// Test double in the github.com/matryer/moq -stub layout, kept in step with the interface by hand.
// `go generate ./interfaces/...` replaces it with moq output.

package mock

import (
	"context"
	"edgegateway/interfaces"
	"sync"
)

// Ensure, that CacheMock does implement interfaces.Cache.
// If this is not the case, regenerate this file with moq.
var _ interfaces.Cache[any] = &CacheMock[any]{}

// CacheMock is a mock implementation of interfaces.Cache.
//
//	func TestSomethingThatUsesCache(t *testing.T) {
//
//		// make and configure a mocked interfaces.Cache
//		mockedCache := &CacheMock{
//			DeleteValueFunc: func(ctx context.Context, key string) error {
//				panic("mock out the DeleteValue method")
//			},
//			ListKeysFunc: func(ctx context.Context, keyPrefix string) ([]string, error) {
//				panic("mock out the ListKeys method")
//			},
//			ListValuesFunc: func(ctx context.Context, keyPrefix string) ([]T, error) {
//				panic("mock out the ListValues method")
//			},
//			WriteValueFunc: func(ctx context.Context, key string, item T, ttlMs int) error {
//				panic("mock out the WriteValue method")
//			},
//		}
//
//		// use mockedCache in code that requires interfaces.Cache
//		// and then make assertions.
//
//	}
type CacheMock[T any] struct {
	// DeleteValueFunc mocks the DeleteValue method.
	DeleteValueFunc func(ctx context.Context, key string) error

	// ListKeysFunc mocks the ListKeys method.
	ListKeysFunc func(ctx context.Context, keyPrefix string) ([]string, error)

	// ListValuesFunc mocks the ListValues method.
	ListValuesFunc func(ctx context.Context, keyPrefix string) ([]T, error)

	// WriteValueFunc mocks the WriteValue method.
	WriteValueFunc func(ctx context.Context, key string, item T, ttlMs int) error

	// calls tracks calls to the methods.
	calls struct {
		// DeleteValue holds details about calls to the DeleteValue method.
		DeleteValue []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Key is the key argument value.
			Key string
		}
		// ListKeys holds details about calls to the ListKeys method.
		ListKeys []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// KeyPrefix is the keyPrefix argument value.
			KeyPrefix string
		}
		// ListValues holds details about calls to the ListValues method.
		ListValues []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// KeyPrefix is the keyPrefix argument value.
			KeyPrefix string
		}
		// WriteValue holds details about calls to the WriteValue method.
		WriteValue []struct {
			// Ctx is the ctx argument value.
			Ctx context.Context
			// Key is the key argument value.
			Key string
			// Item is the item argument value.
			Item T
			// TtlMs is the ttlMs argument value.
			TtlMs int
		}
	}
	lockDeleteValue sync.RWMutex
	lockListKeys    sync.RWMutex
	lockListValues  sync.RWMutex
	lockWriteValue  sync.RWMutex
}

// DeleteValue calls DeleteValueFunc.
func (mock *CacheMock[T]) DeleteValue(ctx context.Context, key string) error {
	callInfo := struct {
		Ctx context.Context
		Key string
	}{
		Ctx: ctx,
		Key: key,
	}
	mock.lockDeleteValue.Lock()
	mock.calls.DeleteValue = append(mock.calls.DeleteValue, callInfo)
	mock.lockDeleteValue.Unlock()
	if mock.DeleteValueFunc == nil {
		var (
			errOut error
		)
		return errOut
	}
	return mock.DeleteValueFunc(ctx, key)
}

// DeleteValueCalls gets all the calls that were made to DeleteValue.
// Check the length with:
//
//	len(mockedCache.DeleteValueCalls())
func (mock *CacheMock[T]) DeleteValueCalls() []struct {
	Ctx context.Context
	Key string
} {
	var calls []struct {
		Ctx context.Context
		Key string
	}
	mock.lockDeleteValue.RLock()
	calls = mock.calls.DeleteValue
	mock.lockDeleteValue.RUnlock()
	return calls
}

// ListKeys calls ListKeysFunc.
func (mock *CacheMock[T]) ListKeys(ctx context.Context, keyPrefix string) ([]string, error) {
	callInfo := struct {
		Ctx       context.Context
		KeyPrefix string
	}{
		Ctx:       ctx,
		KeyPrefix: keyPrefix,
	}
	mock.lockListKeys.Lock()
	mock.calls.ListKeys = append(mock.calls.ListKeys, callInfo)
	mock.lockListKeys.Unlock()
	if mock.ListKeysFunc == nil {
		var (
			stringsOut []string
			errOut     error
		)
		return stringsOut, errOut
	}
	return mock.ListKeysFunc(ctx, keyPrefix)
}

// ListKeysCalls gets all the calls that were made to ListKeys.
// Check the length with:
//
//	len(mockedCache.ListKeysCalls())
func (mock *CacheMock[T]) ListKeysCalls() []struct {
	Ctx       context.Context
	KeyPrefix string
} {
	var calls []struct {
		Ctx       context.Context
		KeyPrefix string
	}
	mock.lockListKeys.RLock()
	calls = mock.calls.ListKeys
	mock.lockListKeys.RUnlock()
	return calls
}

// ListValues calls ListValuesFunc.
func (mock *CacheMock[T]) ListValues(ctx context.Context, keyPrefix string) ([]T, error) {
	callInfo := struct {
		Ctx       context.Context
		KeyPrefix string
	}{
		Ctx:       ctx,
		KeyPrefix: keyPrefix,
	}
	mock.lockListValues.Lock()
	mock.calls.ListValues = append(mock.calls.ListValues, callInfo)
	mock.lockListValues.Unlock()
	if mock.ListValuesFunc == nil {
		var (
			tsOut  []T
			errOut error
		)
		return tsOut, errOut
	}
	return mock.ListValuesFunc(ctx, keyPrefix)
}

// ListValuesCalls gets all the calls that were made to ListValues.
// Check the length with:
//
//	len(mockedCache.ListValuesCalls())
func (mock *CacheMock[T]) ListValuesCalls() []struct {
	Ctx       context.Context
	KeyPrefix string
} {
	var calls []struct {
		Ctx       context.Context
		KeyPrefix string
	}
	mock.lockListValues.RLock()
	calls = mock.calls.ListValues
	mock.lockListValues.RUnlock()
	return calls
}

// WriteValue calls WriteValueFunc.
func (mock *CacheMock[T]) WriteValue(ctx context.Context, key string, item T, ttlMs int) error {
	callInfo := struct {
		Ctx   context.Context
		Key   string
		Item  T
		TtlMs int
	}{
		Ctx:   ctx,
		Key:   key,
		Item:  item,
		TtlMs: ttlMs,
	}
	mock.lockWriteValue.Lock()
	mock.calls.WriteValue = append(mock.calls.WriteValue, callInfo)
	mock.lockWriteValue.Unlock()
	if mock.WriteValueFunc == nil {
		var (
			errOut error
		)
		return errOut
	}
	return mock.WriteValueFunc(ctx, key, item, ttlMs)
}

// WriteValueCalls gets all the calls that were made to WriteValue.
// Check the length with:
//
//	len(mockedCache.WriteValueCalls())
func (mock *CacheMock[T]) WriteValueCalls() []struct {
	Ctx   context.Context
	Key   string
	Item  T
	TtlMs int
} {
	var calls []struct {
		Ctx   context.Context
		Key   string
		Item  T
		TtlMs int
	}
	mock.lockWriteValue.RLock()
	calls = mock.calls.WriteValue
	mock.lockWriteValue.RUnlock()
	return calls
}
