package fetcch

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name  string
		price string
		chain ChainDescriptor
		want  string
	}{
		{"reference price on ethereum", "0.00000196", EthereumMainnet, "1960000000000"},
		{"reference price on solana", "0.00000196", SolanaMainnet, "1960"},
		{"reference price on aptos", "0.00000196", AptosMainnet, "196"},
		{"one ether", "1", EthereumMainnet, "1000000000000000000"},
		{"zero", "0", EthereumMainnet, "0"},
		{"sub unit truncated", "0.0000000001", AptosMainnet, "0"},
		{"truncates toward zero", "1.999999999", AptosMainnet, "199999999"},
		{"full precision", "123456789.123456789012345678", EthereumMainnet, "123456789123456789012345678"},
		{"zero decimals", "42.9", ChainDescriptor{Decimals: 0}, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tt.price), tt.chain)
			if err != nil {
				t.Fatalf("ToBaseUnits(%s) unexpected error: %v", tt.price, err)
			}
			if got != tt.want {
				t.Errorf("ToBaseUnits(%s, %d decimals) = %s, want %s", tt.price, tt.chain.Decimals, got, tt.want)
			}
		})
	}
}

func TestToBaseUnitsDeterministic(t *testing.T) {
	price := decimal.RequireFromString("0.00000196")
	for _, chain := range Chains() {
		first, err := ToBaseUnits(price, chain)
		if err != nil {
			t.Fatalf("%s: %v", chain.Name, err)
		}
		for i := 0; i < 5; i++ {
			again, _ := ToBaseUnits(price, chain)
			if again != first {
				t.Fatalf("%s: call %d = %s, first = %s", chain.Name, i, again, first)
			}
		}
	}
}

func TestToBaseUnitsFloat(t *testing.T) {
	got, err := ToBaseUnitsFloat(0.00000196, EthereumMainnet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1960000000000" {
		t.Errorf("ToBaseUnitsFloat(0.00000196) = %s, want 1960000000000", got)
	}
	if strings.ContainsAny(got, ".eE") {
		t.Errorf("amount %s contains non-integer characters", got)
	}

	got, err = ToBaseUnitsFloat(0, SolanaMainnet)
	if err != nil || got != "0" {
		t.Errorf("ToBaseUnitsFloat(0) = %q, %v; want \"0\", nil", got, err)
	}
}

func TestToBaseUnitsInvalid(t *testing.T) {
	if _, err := ToBaseUnits(decimal.RequireFromString("-1"), EthereumMainnet); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative decimal: error = %v, want ErrInvalidAmount", err)
	}

	for _, price := range []float64{-0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := ToBaseUnitsFloat(price, EthereumMainnet); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ToBaseUnitsFloat(%v) error = %v, want ErrInvalidAmount", price, err)
		}
	}
}

func TestParsePrice(t *testing.T) {
	if _, err := ParsePrice("abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParsePrice(abc) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := ParsePrice("-2"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParsePrice(-2) error = %v, want ErrInvalidAmount", err)
	}
	p, err := ParsePrice("0.00000196")
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	if p.String() != "0.00000196" {
		t.Errorf("ParsePrice = %s", p)
	}
}

func TestFromBaseUnits(t *testing.T) {
	got, err := FromBaseUnits("1960000000000", 18)
	if err != nil {
		t.Fatalf("FromBaseUnits: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("0.00000196")) {
		t.Errorf("FromBaseUnits = %s, want 0.00000196", got)
	}

	if _, err := FromBaseUnits("1.5", 6); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("FromBaseUnits(1.5) error = %v, want ErrInvalidAmount", err)
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(decimal.RequireFromString("0.00000196"), PolygonMainnet)
	if got != "0.00000196 MATIC" {
		t.Errorf("FormatAmount = %q", got)
	}
}
