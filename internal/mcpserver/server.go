// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes depo ingestion and retrieval as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcus-grant/depo/internal/ingest"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/selector"
)

// Server wraps the MCP server with depo tools.
type Server struct {
	mcp  *server.MCPServer
	orch *ingest.Orchestrator
	sel  *selector.Selector
}

// New creates an MCP server with all depo tools registered. Tools go
// through the same orchestrator as web uploads, so dedup and rollback
// behave identically.
func New(orch *ingest.Orchestrator, sel *selector.Selector) *Server {
	s := &Server{orch: orch, sel: sel}

	s.mcp = server.NewMCPServer(
		"depo",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("ingest_content",
		mcp.WithDescription("Store content and get back its permanent short code. "+
			"Identical content always yields the same code."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to store: plain text, or base64 when encoding=base64")),
		mcp.WithString("encoding", mcp.Description("Either 'text' (default) or 'base64' for binary payloads")),
		mcp.WithString("filename", mcp.Description("Optional filename hint used for classification")),
		mcp.WithString("format", mcp.Description("Optional explicit format override (txt, md, json, yaml, png, jpg, webp)")),
	), s.ingestContent)

	s.mcp.AddTool(mcp.NewTool("ingest_link",
		mcp.WithDescription("Store a URL as a link item and get back its short code."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Target URL")),
	), s.ingestLink)

	s.mcp.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Fetch item metadata by short code. Sloppy codes (lowercase, O/0, I/L/1 mixups) are accepted."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Short code identifier")),
	), s.getItem)

	s.mcp.AddTool(mcp.NewTool("read_content",
		mcp.WithDescription("Read the payload of a text item by short code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Short code identifier")),
	), s.readContent)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

type ingestToolResult struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Created bool   `json:"created"`
}

func (s *Server) ingestContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data := []byte(content)
	if enc, encErr := req.RequireString("encoding"); encErr == nil && enc == "base64" {
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return mcp.NewToolResultError("invalid base64 content: " + err.Error()), nil
		}
	}

	ingestReq := ingest.Request{PayloadBytes: data}
	if v, fErr := req.RequireString("filename"); fErr == nil {
		ingestReq.Filename = v
	}
	if v, fErr := req.RequireString("format"); fErr == nil {
		f, ok := models.ParseFormat(v)
		if !ok {
			return mcp.NewToolResultError("unknown format: " + v), nil
		}
		ingestReq.RequestedFormat = f
	}

	result, err := s.orch.Ingest(ctx, ingestReq)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResultJSON(ingestToolResult{
		Code:    result.Item.Code,
		Kind:    string(result.Item.Kind),
		Created: result.Created,
	}), nil
}

func (s *Server) ingestLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.orch.Ingest(ctx, ingest.Request{LinkURL: u})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResultJSON(ingestToolResult{
		Code:    result.Item.Code,
		Kind:    string(result.Item.Kind),
		Created: result.Created,
	}), nil
}

func (s *Server) getItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, err := s.sel.GetInfo(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResultJSON(item), nil
}

func (s *Server) readContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rc, item, err := s.sel.GetRaw(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if item.Kind == models.KindLink {
		return mcp.NewToolResultText(item.Link.URL), nil
	}
	defer rc.Close()
	if item.Kind != models.KindText {
		return mcp.NewToolResultError("payload is not text; use get_item for metadata"), nil
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolResultJSON(v any) *mcp.CallToolResult {
	out, _ := json.Marshal(v)
	return mcp.NewToolResultText(string(out))
}
