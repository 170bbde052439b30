package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler register custom error handler.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps creates an error code to http status mapping.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	var errorCodeToStatusCodeMaps = make(map[string]int)
	errorCodeToStatusCodeMaps[ErrBadParameter] = http.StatusBadRequest
	errorCodeToStatusCodeMaps[ErrEntityNotFound] = http.StatusNotFound
	errorCodeToStatusCodeMaps[ErrInternalServerError] = http.StatusInternalServerError
	errorCodeToStatusCodeMaps[ErrRouteNotFound] = http.StatusNotFound
	errorCodeToStatusCodeMaps[ErrServiceUnavailable] = http.StatusServiceUnavailable
	errorCodeToStatusCodeMaps[ErrGatewayTimeout] = http.StatusGatewayTimeout
	errorCodeToStatusCodeMaps[ErrBadGateway] = http.StatusBadGateway

	return errorCodeToStatusCodeMaps
}

// HTTPErrorHandler is an error handler.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       logger,
	}
}

// StatusCode returns the HTTP status for an error code; unknown codes map to 500.
func (h *HTTPErrorHandler) StatusCode(errorCode string) int {
	status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]
	if ok {
		return status
	}

	return http.StatusInternalServerError
}

// Handler handles error returned by echo Handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	myErr := ToMyError(err)
	if myErr == nil {
		myErr = NewMyError(ErrInternalServerError, "an internal server error has occurred", err)
	}

	var statusCode int
	var he *echo.HTTPError
	if he, _ = err.(*echo.HTTPError); he != nil {
		codeStr := ErrInternalServerError
		if he.Code == http.StatusNotFound {
			codeStr = ErrEntityNotFound
		}
		if he.Internal != nil {
			if herr, ok := he.Internal.(*echo.HTTPError); ok {
				he = herr
			}
			var requestError *openapi3filter.RequestError
			if errors.As(he.Internal, &requestError) {
				codeStr = ErrBadParameter
			}
		}

		m, _ := he.Message.(string)
		myErr = NewMyError(codeStr, m, err)
		statusCode = he.Code
	} else {
		statusCode = h.StatusCode(myErr.Code)
	}

	logger := level.Error(h.logger)
	if IsBadParameterError(myErr) || IsEntityNotFoundError(myErr) {
		logger = level.Info(h.logger)
	}
	logger.Log(
		"msg", "HTTP request error",
		"code", ToMyErrorCode(myErr),
		"status", statusCode,
		"err", err,
	)

	// Send response
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead && he != nil {
			_ = c.NoContent(he.Code)
		} else {
			_ = c.JSON(statusCode, ErrResponse{Error: myErr})
		}
	}
}

// GatewayErrorToMyError maps errors of the forwarding pipeline to coded errors:
// ErrNoRouteMatch → route_not_found, ErrNoHealthyInstance → service_unavailable,
// ErrDownstreamTimeout → gateway_timeout, ErrDownstreamUnavailable → bad_gateway.
// A MyError is returned as is; anything else becomes internal_server_error.
func GatewayErrorToMyError(err error) *MyError {
	switch {
	case errors.Is(err, ErrNoRouteMatch):
		return NewMyError(ErrRouteNotFound, "no route matches request path", err)
	case errors.Is(err, ErrNoHealthyInstance):
		return NewMyError(ErrServiceUnavailable, "no healthy instance available", err)
	case errors.Is(err, ErrDownstreamTimeout):
		return NewMyError(ErrGatewayTimeout, "downstream service timed out", err)
	case errors.Is(err, ErrDownstreamUnavailable):
		return NewMyError(ErrBadGateway, "downstream service unavailable", err)
	}
	return NewInternalServerError("an internal server error has occurred", err)
}

// WriteError writes the ErrResponse body for a forwarding error on a plain http.ResponseWriter and returns the status written.
// Client-side failures (4xx) are logged at info level, internal errors at error, the rest at warn.
func (h *HTTPErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) int {
	myErr := GatewayErrorToMyError(err)
	statusCode := h.StatusCode(myErr.Code)

	logger := level.Warn(h.logger)
	switch {
	case IsInternalServerError(myErr):
		logger = level.Error(h.logger)
	case statusCode < http.StatusInternalServerError:
		logger = level.Info(h.logger)
	}
	logger.Log(
		"msg", "gateway request error",
		"code", myErr.Code,
		"method", r.Method,
		"path", r.URL.Path,
		"status", statusCode,
		"err", err,
	)

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(statusCode)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(ErrResponse{Error: myErr})
	}
	return statusCode
}

// ErrResponse from server.
type ErrResponse struct {
	Error *MyError `json:"error,omitempty"`
}
