package fetcch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RequestID is the identifier the request API assigns to an accepted payment request.
type RequestID int64

// String returns the decimal form used in query strings.
func (id RequestID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON accepts both a JSON number and a numeric string.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("request id %q: %w", string(data), err)
	}
	*id = RequestID(v)
	return nil
}

// PaymentRequest is the body of a create-request call.
type PaymentRequest struct {
	// Payer is the buyer's Fetcch id (<name>@<domain>).
	Payer string `json:"payer" validate:"required,payerid"`

	// Receiver is the merchant's Fetcch id.
	Receiver string `json:"receiver" validate:"required,payerid"`

	// Amount is the price in token base units, as a base-10 integer string.
	Amount string `json:"amount" validate:"required,number"`

	// Token is the token contract identifier or a native sentinel.
	Token string `json:"token" validate:"required"`

	// Chain is the registry chain id, not the network's chain id.
	Chain int `json:"chain" validate:"required,gt=0"`

	// Message is an optional note from the buyer.
	Message string `json:"message"`

	// Label names the purchased item.
	Label string `json:"label"`
}

// RequestStatus is the settlement state of a payment request.
type RequestStatus struct {
	// ID is the request being reported on.
	ID RequestID `json:"id,omitempty"`

	// Executed is true once the payment has settled on-chain.
	Executed bool `json:"executed"`

	// TransactionHash is the settlement transaction, set once executed.
	TransactionHash string `json:"transactionHash,omitempty"`
}

// CreateRequestResponse is the envelope returned by POST /v1/request/.
type CreateRequestResponse struct {
	Data struct {
		ID *RequestID `json:"id"`
	} `json:"data"`
}

// StatusResponse is the envelope returned by GET /v1/request/?id=.
type StatusResponse struct {
	Data []RequestStatus `json:"data"`
}
