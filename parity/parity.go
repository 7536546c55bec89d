// Package parity looks up purchasing power parity discounts per country and
// derives the localized reference price of the storefront item.
package parity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCountry indicates a country code with no parity entry.
var ErrUnknownCountry = errors.New("parity: unknown country")

// Parity is the discount applied to buyers in one country.
type Parity struct {
	Country  string          `json:"country" yaml:"country"`
	Name     string          `json:"name" yaml:"name"`
	Discount decimal.Decimal `json:"discount" yaml:"discount"`
}

// Apply returns base reduced by the parity discount.
func (p Parity) Apply(base decimal.Decimal) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(1).Sub(p.Discount))
}

// Catalog is a static parity table keyed by ISO 3166-1 alpha-2 code.
type Catalog struct {
	entries map[string]Parity
}

// NewCatalog builds a catalog from entries. Discounts must lie in [0, 1).
func NewCatalog(entries []Parity) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Parity, len(entries))}
	for _, p := range entries {
		code := strings.ToUpper(strings.TrimSpace(p.Country))
		if len(code) != 2 {
			return nil, fmt.Errorf("parity: invalid country code %q", p.Country)
		}
		if p.Discount.IsNegative() || p.Discount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("parity: discount for %s must be in [0, 1), got %s", code, p.Discount)
		}
		if _, dup := c.entries[code]; dup {
			return nil, fmt.Errorf("parity: duplicate country %s", code)
		}
		p.Country = code
		c.entries[code] = p
	}
	return c, nil
}

// List returns the country codes in the catalog, sorted.
func (c *Catalog) List() []string {
	out := make([]string, 0, len(c.entries))
	for code := range c.entries {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Fetch returns the parity entry for country.
func (c *Catalog) Fetch(country string) (Parity, error) {
	p, ok := c.entries[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		return Parity{}, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	return p, nil
}

// Default returns the built-in parity table.
func Default() *Catalog {
	c, err := NewCatalog(defaultEntries)
	if err != nil {
		panic(err)
	}
	return c
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var defaultEntries = []Parity{
	{Country: "US", Name: "United States", Discount: d("0")},
	{Country: "GB", Name: "United Kingdom", Discount: d("0")},
	{Country: "DE", Name: "Germany", Discount: d("0")},
	{Country: "FR", Name: "France", Discount: d("0.1")},
	{Country: "ES", Name: "Spain", Discount: d("0.2")},
	{Country: "PL", Name: "Poland", Discount: d("0.4")},
	{Country: "BR", Name: "Brazil", Discount: d("0.5")},
	{Country: "AR", Name: "Argentina", Discount: d("0.6")},
	{Country: "MX", Name: "Mexico", Discount: d("0.5")},
	{Country: "TR", Name: "Turkey", Discount: d("0.6")},
	{Country: "IN", Name: "India", Discount: d("0.7")},
	{Country: "NG", Name: "Nigeria", Discount: d("0.7")},
	{Country: "ID", Name: "Indonesia", Discount: d("0.6")},
	{Country: "VN", Name: "Vietnam", Discount: d("0.6")},
}
