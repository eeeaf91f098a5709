// Package mcpserver exposes the bridge's actions as MCP tools so LLM
// clients can publish, price, permit, compute, and purchase directly.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all bridge tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("ocean-bridge", "0.1.0")
	client := NewBridgeClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolPublishDataset, h.HandlePublishDataset)
	s.AddTool(ToolPublishAlgorithm, h.HandlePublishAlgorithm)
	s.AddTool(ToolPermitAlgorithm, h.HandlePermitAlgorithm)
	s.AddTool(ToolRunCompute, h.HandleRunCompute)
	s.AddTool(ToolCreateDispenser, h.HandleCreateDispenser)
	s.AddTool(ToolCreateExchange, h.HandleCreateExchange)
	s.AddTool(ToolPurchaseAsset, h.HandlePurchaseAsset)
	s.AddTool(ToolGetAccount, h.HandleGetAccount)
	s.AddTool(ToolListReceipts, h.HandleListReceipts)
	s.AddTool(ToolGetReceipt, h.HandleGetReceipt)

	return s
}
