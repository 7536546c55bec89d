// Package mcp exposes the payment request lifecycle as MCP (Model Context
// Protocol) tools so that agents can request payments from Fetcch users.
package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArguments indicates that a tool call is missing or has malformed arguments
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// ToolError wraps a lifecycle error with the tool that produced it.
type ToolError struct {
	Err  error
	Tool string
}

func (e *ToolError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("tool error: %v", e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// WrapToolError wraps err as a ToolError for tool.
func WrapToolError(err error, tool string) error {
	if err == nil {
		return nil
	}
	return &ToolError{Err: err, Tool: tool}
}
