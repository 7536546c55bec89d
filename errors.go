package fetcch

import (
	"errors"
	"fmt"
)

// Standard fetcch error definitions

var (
	// ErrMissingPayerID indicates the buyer did not enter a payer id.
	ErrMissingPayerID = errors.New("fetcch: payer id is required")

	// ErrInvalidPayerID indicates the payer id is not of the form <name>@<domain>.
	ErrInvalidPayerID = errors.New("fetcch: invalid payer id")

	// ErrInvalidAmount indicates a price or amount that cannot be converted to base units.
	ErrInvalidAmount = errors.New("fetcch: invalid amount")

	// ErrServiceUnavailable indicates a transport failure or a non-2xx response
	// from the request API.
	ErrServiceUnavailable = errors.New("fetcch: request service unavailable")

	// ErrProtocol indicates a malformed response body from the request API.
	ErrProtocol = errors.New("fetcch: malformed request service response")

	// ErrSettlementTimedOut indicates polling gave up before the request was executed.
	ErrSettlementTimedOut = errors.New("fetcch: settlement timed out")

	// ErrUnknownChain indicates a chain id that is not in the registry.
	ErrUnknownChain = errors.New("fetcch: unknown chain")

	// ErrInvalidToken indicates a token identifier that does not match the chain type.
	ErrInvalidToken = errors.New("fetcch: invalid token")

	// ErrMissingSecret indicates the request API secret key is not configured.
	ErrMissingSecret = errors.New("fetcch: secret key is not configured")
)

// ErrorCode classifies a RequestError for callers that surface it to users.
type ErrorCode string

const (
	ErrCodeMissingPayerID     ErrorCode = "MISSING_PAYER_ID"
	ErrCodeInvalidPayerID     ErrorCode = "INVALID_PAYER_ID"
	ErrCodeInvalidAmount      ErrorCode = "INVALID_AMOUNT"
	ErrCodeUnavailable        ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeProtocol           ErrorCode = "PROTOCOL_ERROR"
	ErrCodeSettlementTimedOut ErrorCode = "SETTLEMENT_TIMED_OUT"
	ErrCodeUnknownChain       ErrorCode = "UNKNOWN_CHAIN"
)

// RequestError is an error with a code and optional details attached.
type RequestError struct {
	Code    ErrorCode
	Message string
	Err     error
	Details map[string]any
}

// NewRequestError creates a RequestError wrapping err.
func NewRequestError(code ErrorCode, message string, err error) *RequestError {
	return &RequestError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]any),
	}
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair and returns the receiver.
func (e *RequestError) WithDetails(key string, value any) *RequestError {
	e.Details[key] = value
	return e
}

// CodeOf returns the ErrorCode matching err, or an empty code for errors
// outside the fetcch taxonomy.
func CodeOf(err error) ErrorCode {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Code
	}

	switch {
	case errors.Is(err, ErrMissingPayerID):
		return ErrCodeMissingPayerID
	case errors.Is(err, ErrInvalidPayerID):
		return ErrCodeInvalidPayerID
	case errors.Is(err, ErrInvalidAmount):
		return ErrCodeInvalidAmount
	case errors.Is(err, ErrServiceUnavailable):
		return ErrCodeUnavailable
	case errors.Is(err, ErrProtocol):
		return ErrCodeProtocol
	case errors.Is(err, ErrSettlementTimedOut):
		return ErrCodeSettlementTimedOut
	case errors.Is(err, ErrUnknownChain):
		return ErrCodeUnknownChain
	}
	return ""
}
