// Package server hosts the payment request tools on an MCP server.
package server

import (
	"errors"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/poller"
)

// Server wraps an MCP server exposing the payment request tools.
type Server struct {
	mcpServer *mcpserver.MCPServer
	service   fetcch.RequestService
	poller    *poller.Poller
	config    *Config
}

// NewServer creates an MCP server whose tools create payment requests with
// service and query their status.
func NewServer(name, version string, service fetcch.RequestService, config *Config) (*Server, error) {
	if service == nil {
		return nil, errors.New("mcp: request service is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.Chains) == 0 {
		return nil, errors.New("mcp: at least one chain is required")
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	s := &Server{
		mcpServer: mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(false)),
		service:   service,
		poller:    poller.New(service, poller.WithConfig(config.Poll), poller.WithLogger(config.Logger)),
		config:    config,
	}

	s.mcpServer.AddTool(listChainsTool(), s.listChains)
	s.mcpServer.AddTool(createPaymentRequestTool(), s.createPaymentRequest)
	s.mcpServer.AddTool(getPaymentStatusTool(), s.getPaymentStatus)

	return s, nil
}

// Handler returns a streamable HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}

// ServeStdio serves the MCP server over stdin and stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

// GetMCPServer returns the underlying MCP server (for advanced usage)
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}
