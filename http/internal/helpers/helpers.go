// Package helpers provides the response helpers shared by the chi and gin
// storefront routers so both surfaces map errors to the same status codes.
package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/checkout"
	"github.com/mark3labs/fetcch-go/parity"
)

// ErrSessionNotFound is returned for an unknown storefront session id.
var ErrSessionNotFound = errors.New("storefront: session not found")

// ErrBadRequest is returned for request bodies that cannot be decoded.
var ErrBadRequest = errors.New("storefront: malformed request body")

// ErrTooManySessions is returned when the open session limit is reached.
var ErrTooManySessions = errors.New("storefront: too many open sessions")

// ErrorResponse is the JSON body of every failed storefront call.
type ErrorResponse struct {
	Error string           `json:"error"`
	Code  fetcch.ErrorCode `json:"code,omitempty"`
}

// StatusFor maps a storefront or lifecycle error to an HTTP status code.
// Buyer input problems are 400, unknown resources 404 and failures of the
// payment request service 502.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, parity.ErrUnknownCountry):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, fetcch.ErrMissingPayerID),
		errors.Is(err, fetcch.ErrInvalidPayerID),
		errors.Is(err, fetcch.ErrInvalidAmount),
		errors.Is(err, fetcch.ErrUnknownChain),
		errors.Is(err, fetcch.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, fetcch.ErrServiceUnavailable),
		errors.Is(err, fetcch.ErrProtocol):
		return http.StatusBadGateway
	case errors.Is(err, ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, checkout.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the error body for err.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error(), Code: fetcch.CodeOf(err)}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure only truncates the body.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err with the status chosen by StatusFor.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), NewErrorResponse(err))
}

// MaxBodyBytes bounds storefront request bodies.
const MaxBodyBytes = 64 << 10

// DecodeJSON decodes the body of r into v. An empty body leaves v unchanged.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
