package server

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/checkout"
	"github.com/mark3labs/fetcch-go/poller"
)

// Config holds configuration for the payment request MCP server.
type Config struct {
	// Receiver is the merchant identifier every request is addressed to
	Receiver string

	// Label names what the payment is for
	Label string

	// Price is the default price when a call does not name one
	Price decimal.Decimal

	// Chains are the chains tools may request payment on
	Chains []fetcch.ChainDescriptor

	// Poll configures get_payment_status when it waits for settlement
	Poll poller.Config

	Logger *slog.Logger
}

// DefaultConfig returns a Config with the storefront defaults.
func DefaultConfig() *Config {
	return &Config{
		Receiver: checkout.DefaultReceiver,
		Label:    checkout.DefaultLabel,
		Price:    checkout.DefaultPrice,
		Chains:   fetcch.Chains(),
		Poll:     poller.DefaultConfig,
		Logger:   slog.Default(),
	}
}
