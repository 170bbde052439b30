package helpers

import "reflect"

// StrPanic panics with panicMessage if p is empty (only p == "" is checked, no TrimSpace); otherwise returns p.
// Used for fail-fast validation of required strings in constructors (baseURL, key prefixes, file paths).
func StrPanic(p string, panicMessage string) string {
	if p == "" {
		panic(panicMessage)
	}
	return p
}

// NilPanic panics with panicMessage if v is nil (nil interface, pointer, slice, map, chan or func); otherwise returns v unchanged.
//
// Parameters: v - value to check; panicMessage - panic value, by convention "package.file.go: field is required".
//
// Returns: v unchanged when non-nil, so it can wrap constructor arguments inline.
//
// Called from every service, adapters and handlers constructor when validating required dependencies.
func NilPanic[T any](v T, panicMessage string) T {
	if isNil(v) {
		panic(panicMessage)
	}
	return v
}

// isNil returns true if v is nil or a typed nil pointer/slice/map/chan/func/interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
