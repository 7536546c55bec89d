package fetcch

import "context"

// StatusService reports the settlement state of a payment request.
type StatusService interface {
	// GetStatus returns the current status of the request. Calling it
	// repeatedly has no side effects.
	GetStatus(ctx context.Context, id RequestID) (*RequestStatus, error)
}

// RequestService is the contract of the remote payment request API.
// The HTTP client in package http and test doubles both satisfy it.
type RequestService interface {
	StatusService

	// CreateRequest submits a payment request and returns the id assigned
	// by the service. Implementations validate the payer id before making
	// any network call.
	CreateRequest(ctx context.Context, req PaymentRequest) (RequestID, error)
}
