package validation

import (
	"errors"
	"testing"

	"github.com/mark3labs/fetcch-go"
)

func TestValidatePayerID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "valid id", id: "alice@wallet"},
		{name: "valid fetcch id", id: "bob@fetcch"},
		{name: "extra domain segment", id: "bob@fetcch@xyz"},
		{name: "empty", id: "", wantErr: fetcch.ErrMissingPayerID},
		{name: "no domain", id: "bob", wantErr: fetcch.ErrInvalidPayerID},
		{name: "empty domain", id: "bob@", wantErr: fetcch.ErrInvalidPayerID},
		{name: "empty name", id: "@fetcch", wantErr: fetcch.ErrInvalidPayerID},
		{name: "only separator", id: "@", wantErr: fetcch.ErrInvalidPayerID},
		{name: "blank segment", id: "bob@ ", wantErr: fetcch.ErrInvalidPayerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayerID(tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePayerID(%q) unexpected error: %v", tt.id, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePayerID(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "valid positive amount", amount: "10000"},
		{name: "valid 18 decimal amount", amount: "1960000000000"},
		{name: "valid large amount", amount: "999999999999999999999"},
		{name: "zero amount", amount: "0"},
		{name: "empty amount", amount: "", wantErr: true},
		{name: "negative amount", amount: "-100", wantErr: true},
		{name: "invalid format - letters", amount: "abc", wantErr: true},
		{name: "invalid format - decimal", amount: "100.50", wantErr: true},
		{name: "invalid format - exponent", amount: "1.96e-6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAmount(%q) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, fetcch.ErrInvalidAmount) {
				t.Errorf("expected ErrInvalidAmount, got %v", err)
			}
		})
	}
}

func validRequest() fetcch.PaymentRequest {
	return fetcch.PaymentRequest{
		Payer:    "bob@fetcch",
		Receiver: "wag@fetcch",
		Amount:   "1960000000000",
		Token:    fetcch.NativeEVMToken,
		Chain:    1,
		Message:  "hello",
		Label:    "Alpha Black shirt",
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcch.PaymentRequest)
		wantErr error
	}{
		{name: "valid request", mutate: func(*fetcch.PaymentRequest) {}},
		{name: "solana native", mutate: func(r *fetcch.PaymentRequest) {
			r.Chain = fetcch.SolanaMainnet.ID
			r.Token = fetcch.NativeSolanaToken
		}},
		{name: "missing payer", mutate: func(r *fetcch.PaymentRequest) { r.Payer = "" }, wantErr: fetcch.ErrMissingPayerID},
		{name: "payer without domain", mutate: func(r *fetcch.PaymentRequest) { r.Payer = "bob" }, wantErr: fetcch.ErrInvalidPayerID},
		{name: "decimal amount", mutate: func(r *fetcch.PaymentRequest) { r.Amount = "1.5" }, wantErr: fetcch.ErrInvalidAmount},
		{name: "unknown chain", mutate: func(r *fetcch.PaymentRequest) { r.Chain = 42 }, wantErr: fetcch.ErrUnknownChain},
		{name: "zero chain", mutate: func(r *fetcch.PaymentRequest) { r.Chain = 0 }, wantErr: fetcch.ErrUnknownChain},
		{name: "token for wrong chain", mutate: func(r *fetcch.PaymentRequest) {
			r.Chain = fetcch.AptosMainnet.ID
		}, wantErr: fetcch.ErrInvalidToken},
		{name: "missing token", mutate: func(r *fetcch.PaymentRequest) { r.Token = "" }, wantErr: fetcch.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := ValidateRequest(req)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRequest() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequestReceiver(t *testing.T) {
	req := validRequest()
	req.Receiver = "merchant"

	if err := ValidateRequest(req); err == nil {
		t.Error("expected error for receiver without domain")
	}
}
