package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mark3labs/fetcch-go"
)

// State is the lifecycle position of the most recent payment request.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateSettled
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:    "idle",
	StatePolling: "polling",
	StateSettled: "settled",
	StateFailed:  "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("checkout: unknown state %q", text)
}

// Selection is what the buyer has entered on the page.
type Selection struct {
	Payer   string                 `json:"payer"`
	Message string                 `json:"message"`
	Chain   fetcch.ChainDescriptor `json:"chain"`
	Price   decimal.Decimal        `json:"price"`
}

// Receipt describes a payment request that was accepted by the service.
type Receipt struct {
	RequestID fetcch.RequestID       `json:"requestId"`
	Amount    string                 `json:"amount"`
	Price     decimal.Decimal        `json:"price"`
	Chain     fetcch.ChainDescriptor `json:"chain"`
	Handle    fetcch.Handle          `json:"notification"`
}

// Snapshot is a point-in-time view of a Controller.
type Snapshot struct {
	Selection       Selection        `json:"selection"`
	State           State            `json:"state"`
	RequestID       fetcch.RequestID `json:"requestId,omitempty"`
	Handle          fetcch.Handle    `json:"notification,omitempty"`
	TransactionHash string           `json:"transactionHash,omitempty"`
	TransactionURL  string           `json:"transactionUrl,omitempty"`
	Error           string           `json:"error,omitempty"`
}
