package fetcch

import (
	"encoding/json"
	"testing"
)

func TestPaymentRequestJSON(t *testing.T) {
	req := PaymentRequest{
		Payer:    "bob@fetcch",
		Receiver: "wag@fetcch",
		Amount:   "1960000000000",
		Token:    NativeEVMToken,
		Chain:    1,
		Message:  "gift",
		Label:    "Alpha Black shirt",
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{"payer", "receiver", "amount", "token", "chain", "message", "label"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}
	if fields["amount"] != "1960000000000" {
		t.Errorf("amount must be a string, got %#v", fields["amount"])
	}
	if fields["chain"] != float64(1) {
		t.Errorf("chain must be a number, got %#v", fields["chain"])
	}
}

func TestRequestIDUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    RequestID
		wantErr bool
	}{
		{`42`, 42, false},
		{`"43"`, 43, false},
		{`"abc"`, 0, true},
		{`4.2`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var id RequestID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("Unmarshal(%s) = %d, want %d", tt.input, id, tt.want)
			}
		})
	}
}

func TestStatusResponseDecode(t *testing.T) {
	body := `{"data":[{"executed":true,"transactionHash":"0xfeed"}]}`

	var resp StatusResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || !resp.Data[0].Executed || resp.Data[0].TransactionHash != "0xfeed" {
		t.Errorf("decoded %+v", resp)
	}
}
