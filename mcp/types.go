package mcp

import (
	"time"

	"github.com/mark3labs/fetcch-go"
)

// Tool names.
const (
	ToolListChains           = "list_chains"
	ToolCreatePaymentRequest = "create_payment_request"
	ToolGetPaymentStatus     = "get_payment_status"
)

// MaxWait bounds how long get_payment_status may block waiting for settlement.
const MaxWait = 5 * time.Minute

// CreateRequestResult is returned by create_payment_request.
type CreateRequestResult struct {
	RequestID fetcch.RequestID `json:"requestId"`
	Payer     string           `json:"payer"`
	Receiver  string           `json:"receiver"`
	Amount    string           `json:"amount"`
	Price     string           `json:"price"`
	Chain     int              `json:"chain"`
	Symbol    string           `json:"tokenName"`
}

// StatusResult is returned by get_payment_status.
type StatusResult struct {
	RequestID       fetcch.RequestID `json:"requestId"`
	Executed        bool             `json:"executed"`
	TransactionHash string           `json:"transactionHash,omitempty"`
}
