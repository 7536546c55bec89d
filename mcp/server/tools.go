package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/mcp"
	"github.com/mark3labs/fetcch-go/validation"
)

func listChainsTool() mcpproto.Tool {
	return mcpproto.NewTool(mcp.ToolListChains,
		mcpproto.WithDescription("List the chains payment requests can be created on, with their registry ids and token symbols"),
	)
}

func createPaymentRequestTool() mcpproto.Tool {
	return mcpproto.NewTool(mcp.ToolCreatePaymentRequest,
		mcpproto.WithDescription("Request a payment from a Fetcch user. The user approves it in their wallet; use get_payment_status to follow it."),
		mcpproto.WithString("payer",
			mcpproto.Required(),
			mcpproto.Description("Fetcch identifier of the payer, e.g. bob@fetcch"),
		),
		mcpproto.WithNumber("chain_id",
			mcpproto.Required(),
			mcpproto.Description("Registry id of the chain from list_chains"),
		),
		mcpproto.WithString("message",
			mcpproto.Description("Free-text message shown to the payer"),
		),
		mcpproto.WithString("price",
			mcpproto.Description("Price in units of the chain's native token, e.g. 0.00000196. Defaults to the store price."),
		),
	)
}

func getPaymentStatusTool() mcpproto.Tool {
	return mcpproto.NewTool(mcp.ToolGetPaymentStatus,
		mcpproto.WithDescription("Get the status of a payment request, optionally waiting for it to settle"),
		mcpproto.WithNumber("request_id",
			mcpproto.Required(),
			mcpproto.Description("Id returned by create_payment_request"),
		),
		mcpproto.WithNumber("wait_seconds",
			mcpproto.Description("Wait up to this many seconds for settlement"),
		),
	)
}

func (s *Server) listChains(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	return jsonResult(s.config.Chains)
}

func (s *Server) createPaymentRequest(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	payer, err := req.RequireString("payer")
	if err != nil {
		return toolError(mcp.ToolCreatePaymentRequest, fmt.Errorf("%w: %v", mcp.ErrInvalidArguments, err)), nil
	}
	chainID, err := req.RequireInt("chain_id")
	if err != nil {
		return toolError(mcp.ToolCreatePaymentRequest, fmt.Errorf("%w: %v", mcp.ErrInvalidArguments, err)), nil
	}

	if err := validation.ValidatePayerID(payer); err != nil {
		return toolError(mcp.ToolCreatePaymentRequest, err), nil
	}

	chain, err := fetcch.FindChain(s.config.Chains, chainID)
	if err != nil {
		return toolError(mcp.ToolCreatePaymentRequest, err), nil
	}

	price := s.config.Price
	if raw := req.GetString("price", ""); raw != "" {
		if price, err = fetcch.ParsePrice(raw); err != nil {
			return toolError(mcp.ToolCreatePaymentRequest, err), nil
		}
	}

	amount, err := fetcch.ToBaseUnits(price, chain)
	if err != nil {
		return toolError(mcp.ToolCreatePaymentRequest, err), nil
	}

	id, err := s.service.CreateRequest(ctx, fetcch.PaymentRequest{
		Payer:    payer,
		Receiver: s.config.Receiver,
		Amount:   amount,
		Token:    chain.Token,
		Chain:    chain.ID,
		Message:  req.GetString("message", ""),
		Label:    s.config.Label,
	})
	if err != nil {
		s.config.Logger.Warn("payment request not created", "tool", mcp.ToolCreatePaymentRequest, "error", err)
		return toolError(mcp.ToolCreatePaymentRequest, err), nil
	}

	s.config.Logger.Info("payment request created", "tool", mcp.ToolCreatePaymentRequest, "request_id", int64(id))
	return jsonResult(mcp.CreateRequestResult{
		RequestID: id,
		Payer:     payer,
		Receiver:  s.config.Receiver,
		Amount:    amount,
		Price:     price.String(),
		Chain:     chain.ID,
		Symbol:    chain.Symbol,
	})
}

func (s *Server) getPaymentStatus(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	raw, err := req.RequireInt("request_id")
	if err != nil || raw <= 0 {
		return toolError(mcp.ToolGetPaymentStatus, fmt.Errorf("%w: request_id must be a positive integer", mcp.ErrInvalidArguments)), nil
	}
	id := fetcch.RequestID(raw)

	wait := time.Duration(req.GetFloat("wait_seconds", 0) * float64(time.Second))
	if wait > mcp.MaxWait {
		wait = mcp.MaxWait
	}

	var status *fetcch.RequestStatus
	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		status, err = s.poller.Watch(waitCtx, id)
		if err != nil && ctx.Err() == nil &&
			(waitCtx.Err() != nil || errors.Is(err, fetcch.ErrSettlementTimedOut)) {
			// Still pending when the wait ran out.
			return jsonResult(mcp.StatusResult{RequestID: id})
		}
	} else {
		status, err = s.service.GetStatus(ctx, id)
	}
	if err != nil {
		return toolError(mcp.ToolGetPaymentStatus, err), nil
	}

	return jsonResult(mcp.StatusResult{
		RequestID:       id,
		Executed:        status.Executed,
		TransactionHash: status.TransactionHash,
	})
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcpproto.NewToolResultText(string(b)), nil
}

func toolError(tool string, err error) *mcpproto.CallToolResult {
	return mcpproto.NewToolResultError(mcp.WrapToolError(err, tool).Error())
}
