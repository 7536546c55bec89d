// Package validation checks payment requests before they are sent to the
// request API, so that malformed input never costs a network round-trip.
package validation

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/fetcch-go"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("payerid", func(fl validator.FieldLevel) bool {
		return ValidatePayerID(fl.Field().String()) == nil
	})
}

// ValidatePayerID validates a Fetcch id of the form <name>@<domain>.
// The id must split on '@' into at least two segments, none of them empty.
func ValidatePayerID(id string) error {
	if id == "" {
		return fetcch.ErrMissingPayerID
	}

	segments := strings.Split(id, "@")
	if len(segments) < 2 {
		return fmt.Errorf("%w: %q has no domain", fetcch.ErrInvalidPayerID, id)
	}
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %q has an empty segment", fetcch.ErrInvalidPayerID, id)
		}
	}
	return nil
}

// ValidateAmount validates that an amount string is a non-negative base-10 integer.
// Zero is accepted: a zero reference price converts to "0".
func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("%w: amount cannot be empty", fetcch.ErrInvalidAmount)
	}

	// Parse as big.Int to handle 18-decimal values
	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return fmt.Errorf("%w: invalid amount format: %s", fetcch.ErrInvalidAmount, amount)
	}

	if amt.Sign() < 0 {
		return fmt.Errorf("%w: amount must not be negative, got: %s", fetcch.ErrInvalidAmount, amount)
	}

	return nil
}

// ValidateRequest performs full validation of a payment request: struct
// constraints, payer and receiver ids, amount, and the token against the
// chain it is requested on.
func ValidateRequest(req fetcch.PaymentRequest) error {
	if err := ValidatePayerID(req.Payer); err != nil {
		return err
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("invalid request: %w", err)
	}

	if err := ValidateAmount(req.Amount); err != nil {
		return err
	}

	chain, err := fetcch.ChainByID(req.Chain)
	if err != nil {
		return err
	}
	chain.Token = req.Token
	if err := chain.ValidateToken(); err != nil {
		return err
	}

	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.StructField() {
	case "Payer":
		return fmt.Errorf("%w: payer failed %q", fetcch.ErrInvalidPayerID, fe.Tag())
	case "Receiver":
		return fmt.Errorf("invalid request: receiver %q failed %q", fe.Value(), fe.Tag())
	case "Amount":
		return fmt.Errorf("%w: amount %q failed %q", fetcch.ErrInvalidAmount, fe.Value(), fe.Tag())
	case "Chain":
		return fmt.Errorf("%w: chain %v", fetcch.ErrUnknownChain, fe.Value())
	case "Token":
		return fmt.Errorf("%w: token is required", fetcch.ErrInvalidToken)
	}
	return fmt.Errorf("invalid request: field %s failed %q", fe.Field(), fe.Tag())
}
