package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrorType classifies why a candles fetch failed
type ErrorType string

const (
	// ErrorTypeNetwork means the request never got an HTTP response
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout indicates the request did not finish before its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeCanceled means the caller gave up before the request finished
	ErrorTypeCanceled ErrorType = "canceled"
	// ErrorTypeRateLimit is HTTP 429
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer is HTTP 5xx
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient means any other 4xx, usually a bad token or unknown symbol
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeDecode indicates the response body was not valid JSON for the expected shape
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeValidation indicates the response was decoded but the data was unusable
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUnknown means anything not classified above
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError is the terminal failure of a single symbol's request
type FetchError struct {
	Type       ErrorType
	Symbol     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	prefix := string(e.Type)
	if e.Symbol != "" {
		prefix = e.Symbol + ": " + prefix
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", prefix, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(symbol string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNetwork,
		Symbol:  symbol,
		Message: "network request failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(symbol string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeTimeout,
		Symbol:  symbol,
		Message: "request timed out",
		Cause:   cause,
	}
}

// NewCanceledError creates a cancellation error
func NewCanceledError(symbol string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeCanceled,
		Symbol:  symbol,
		Message: "request canceled",
		Cause:   cause,
	}
}

// NewDecodeError creates a decode error
func NewDecodeError(symbol string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeDecode,
		Symbol:  symbol,
		Message: "response body could not be decoded",
		Cause:   cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(symbol, message string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeValidation,
		Symbol:  symbol,
		Message: message,
		Cause:   cause,
	}
}

// ClassifyHTTPError classifies a non-success HTTP status code into a FetchError
func ClassifyHTTPError(symbol string, statusCode int) *FetchError {
	e := &FetchError{Symbol: symbol, StatusCode: statusCode}
	switch {
	case statusCode == 429:
		e.Type, e.Message = ErrorTypeRateLimit, "rate limit exceeded"
	case statusCode >= 500:
		e.Type, e.Message = ErrorTypeServer, "server returned an error"
	case statusCode >= 400:
		e.Type, e.Message = ErrorTypeClient, fmt.Sprintf("client error: HTTP %d", statusCode)
	default:
		e.Type, e.Message = ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return e
}

// ClassifyTransportError maps an error returned before a usable response
// was received. Deadline expiry becomes a timeout and cancellation stays a
// cancellation. Malformed or truncated JSON is a decode error; anything else
// is a network error.
func ClassifyTransportError(symbol string, err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(symbol, err)
	case errors.Is(err, context.Canceled):
		return NewCanceledError(symbol, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
		return NewDecodeError(symbol, err)
	default:
		return NewNetworkError(symbol, err)
	}
}

// TypeOf returns the FetchError type of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ErrorTypeUnknown
}
