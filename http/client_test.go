package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/retry"
)

const testSecret = "test-secret"

func newTestClient(t *testing.T, serverURL string) *RequestClient {
	t.Helper()
	client, err := NewRequestClient(serverURL, testSecret, WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewRequestClient: %v", err)
	}
	return client
}

func referenceRequest(payer string) fetcch.PaymentRequest {
	return fetcch.PaymentRequest{
		Payer:    payer,
		Receiver: "wag@fetcch",
		Amount:   "1960000000000",
		Token:    fetcch.NativeEVMToken,
		Chain:    fetcch.EthereumMainnet.ID,
		Message:  "thanks",
		Label:    "Alpha Black shirt",
	}
}

func TestNewRequestClient(t *testing.T) {
	if _, err := NewRequestClient("", ""); !errors.Is(err, fetcch.ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}

	client, err := NewRequestClient("", testSecret)
	if err != nil {
		t.Fatalf("NewRequestClient: %v", err)
	}
	if client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", client.BaseURL, DefaultBaseURL)
	}

	if _, err := NewRequestClient("not a url", testSecret); err == nil {
		t.Error("expected error for invalid base URL")
	}
	if _, err := NewRequestClient("", testSecret, WithTimeout(-time.Second)); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestRequestClient_CreateRequest(t *testing.T) {
	var got fetcch.PaymentRequest
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/request/" {
			t.Errorf("Expected path /v1/request/, got %s", r.URL.Path)
		}
		if r.Header.Get(SecretKeyHeader) != testSecret {
			t.Errorf("Expected secret-key header, got %q", r.Header.Get(SecretKeyHeader))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":42}}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL)

	id, err := client.CreateRequest(context.Background(), referenceRequest("bob@fetcch"))
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if got.Amount != "1960000000000" {
		t.Errorf("amount sent = %q, want 1960000000000", got.Amount)
	}
	if got.Payer != "bob@fetcch" || got.Receiver != "wag@fetcch" || got.Chain != 1 {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestRequestClient_CreateRequestInvalidPayer(t *testing.T) {
	var calls atomic.Int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL)

	for _, payer := range []string{"bob", "bob@", "@fetcch"} {
		_, err := client.CreateRequest(context.Background(), referenceRequest(payer))
		if !errors.Is(err, fetcch.ErrInvalidPayerID) {
			t.Errorf("payer %q: error = %v, want ErrInvalidPayerID", payer, err)
		}
	}

	if _, err := client.CreateRequest(context.Background(), referenceRequest("")); !errors.Is(err, fetcch.ErrMissingPayerID) {
		t.Errorf("empty payer: error = %v, want ErrMissingPayerID", err)
	}

	if n := calls.Load(); n != 0 {
		t.Errorf("expected no HTTP calls, got %d", n)
	}
}

func TestRequestClient_CreateRequestFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, fetcch.ErrServiceUnavailable},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, fetcch.ErrServiceUnavailable},
		{"not json", http.StatusOK, `<html>`, fetcch.ErrProtocol},
		{"missing id", http.StatusOK, `{"data":{}}`, fetcch.ErrProtocol},
		{"bad id", http.StatusOK, `{"data":{"id":"x"}}`, fetcch.ErrProtocol},
		{"zero id", http.StatusOK, `{"data":{"id":0}}`, fetcch.ErrProtocol},
		{"negative id", http.StatusOK, `{"data":{"id":-3}}`, fetcch.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer mockServer.Close()

			client := newTestClient(t, mockServer.URL)
			_, err := client.CreateRequest(context.Background(), referenceRequest("bob@fetcch"))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestClient_TransportFailure(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := mockServer.URL
	mockServer.Close()

	client := newTestClient(t, url)
	_, err := client.GetStatus(context.Background(), 42)
	if !errors.Is(err, fetcch.ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestRequestClient_GetStatus(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/v1/request/" {
			t.Errorf("Expected path /v1/request/, got %s", r.URL.Path)
		}
		if r.Header.Get(SecretKeyHeader) != testSecret {
			t.Errorf("Expected secret-key header, got %q", r.Header.Get(SecretKeyHeader))
		}

		switch r.URL.Query().Get("id") {
		case "42":
			_, _ = w.Write([]byte(`{"data":[{"executed":true,"transactionHash":"0xabc"}]}`))
		case "43":
			_, _ = w.Write([]byte(`{"data":[{"executed":false}]}`))
		case "44":
			_, _ = w.Write([]byte(`{"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer mockServer.Close()

	client := newTestClient(t, mockServer.URL)

	status, err := client.GetStatus(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetStatus(42): %v", err)
	}
	if !status.Executed || status.TransactionHash != "0xabc" || status.ID != 42 {
		t.Errorf("GetStatus(42) = %+v", status)
	}

	status, err = client.GetStatus(context.Background(), 43)
	if err != nil {
		t.Fatalf("GetStatus(43): %v", err)
	}
	if status.Executed {
		t.Error("GetStatus(43) should be pending")
	}

	if _, err := client.GetStatus(context.Background(), 44); !errors.Is(err, fetcch.ErrProtocol) {
		t.Errorf("GetStatus(44) error = %v, want ErrProtocol", err)
	}

	_, err = client.GetStatus(context.Background(), 45)
	if !errors.Is(err, fetcch.ErrServiceUnavailable) {
		t.Errorf("GetStatus(45) error = %v, want ErrServiceUnavailable", err)
	}
	var reqErr *fetcch.RequestError
	if !errors.As(err, &reqErr) || reqErr.Details["status"] != http.StatusNotFound {
		t.Errorf("expected RequestError with status detail, got %#v", err)
	}
}

func TestRequestClient_Timeout(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer mockServer.Close()

	client, err := NewRequestClient(mockServer.URL, testSecret, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewRequestClient: %v", err)
	}

	if _, err := client.GetStatus(context.Background(), 1); !errors.Is(err, fetcch.ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestRequestClient_StatusRetry(t *testing.T) {
	var calls atomic.Int32
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"executed":true,"transactionHash":"0xabc"}]}`))
	}))
	defer mockServer.Close()

	client, err := NewRequestClient(mockServer.URL, testSecret,
		WithStatusRetry(retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}))
	if err != nil {
		t.Fatalf("NewRequestClient: %v", err)
	}

	status, err := client.GetStatus(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.Executed {
		t.Error("expected settled status")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}

	// Creation is never retried.
	calls.Store(0)
	if _, err := client.CreateRequest(context.Background(), referenceRequest("bob@fetcch")); !errors.Is(err, fetcch.ErrServiceUnavailable) {
		t.Errorf("CreateRequest error = %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 create call, got %d", n)
	}
}
