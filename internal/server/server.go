// Package server exposes the record store as MCP tools over stdio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/jobmail-sync/internal/db"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// Name is the server name announced to MCP clients.
const Name = "jobmail"

// Service is the part of the sync engine the tools call.
type Service interface {
	Sync(ctx context.Context) (types.SyncSummary, error)
	List(ctx context.Context, status types.Status) ([]db.Record, error)
	Resolve(ctx context.Context, ref string) (*db.Record, error)
	SetStatus(ctx context.Context, ref string, status *types.Status) (*db.Record, error)
	StatusCounts(ctx context.Context) (map[types.Status]int, error)
	RefreshDescription(ctx context.Context, ref string) (*db.Record, error)
}

// Server represents the MCP tool server
type Server struct {
	svc   Service
	mcp   *server.MCPServer
	tools []string
}

// New creates a server with every tool registered.
func New(svc Service, version string) *Server {
	s := &Server{
		svc: svc,
		mcp: server.NewMCPServer(Name, version, server.WithToolCapabilities(false), server.WithRecovery()),
	}

	statusNames := make([]string, 0, len(types.StatusOrder))
	for _, st := range types.StatusOrder {
		statusNames = append(statusNames, string(st))
	}
	statusList := strings.Join(statusNames, ", ")

	s.addTool(mcp.NewTool("list_opportunities",
		mcp.WithDescription("List job opportunities with the given status, ordered by company"),
		mcp.WithString("status", mcp.Required(), mcp.Description("One of: "+statusList)),
	), s.handleList)

	s.addTool(mcp.NewTool("show_opportunity",
		mcp.WithDescription("Show one opportunity with its description"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Record id (UUID) or record key")),
	), s.handleShow)

	s.addTool(mcp.NewTool("set_status",
		mcp.WithDescription("Set the manual status of an opportunity; it survives later syncs"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Record id (UUID) or record key")),
		mcp.WithString("status", mcp.Required(), mcp.Description("One of: "+statusList+"; \"none\" clears the manual status")),
	), s.handleSetStatus)

	s.addTool(mcp.NewTool("sync",
		mcp.WithDescription("Re-scan the source folder and update the records"),
	), s.handleSync)

	s.addTool(mcp.NewTool("status_counts",
		mcp.WithDescription("Count opportunities per status"),
	), s.handleStatusCounts)

	s.addTool(mcp.NewTool("refresh_description",
		mcp.WithDescription("Fetch a missing description and translate it"),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Record id (UUID) or record key")),
	), s.handleRefresh)

	return s
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool.Name)
	s.mcp.AddTool(tool, handler)
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// ServeStdio serves MCP requests on stdin/stdout until stdin closes.
func (s *Server) ServeStdio() error {
	log.Printf("[SERVER] serving %d tools on stdio", len(s.tools))
	if err := server.ServeStdio(s.mcp); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

// RecordSummary is the list form of a record.
type RecordSummary struct {
	ID       string       `json:"id"`
	Key      string       `json:"record_key"`
	Company  string       `json:"company"`
	Role     string       `json:"role,omitempty"`
	Location string       `json:"location,omitempty"`
	Status   types.Status `json:"status"`
	Manual   bool         `json:"manual,omitempty"`
	Date     string       `json:"date,omitempty"`
	Link     string       `json:"link,omitempty"`
}

func summarize(r db.Record) RecordSummary {
	out := RecordSummary{
		ID:       r.ID.String(),
		Key:      r.RecordKey,
		Company:  r.Company,
		Role:     r.Role,
		Location: r.Location,
		Status:   r.CurrentStatus,
		Manual:   r.ManualStatus != nil,
		Link:     r.CanonicalLink(),
	}
	if r.EmailDate != nil {
		out.Date = r.EmailDate.Format(time.DateOnly)
	}
	return out
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raw, err := requireString(args, "status")
	if err != nil {
		return toolError("list opportunities", err), nil
	}
	status, err := types.ParseStatus(raw)
	if err == nil && status == "" {
		err = &ErrValidation{Field: "status", Message: "a status is required"}
	}
	if err != nil {
		return toolError("list opportunities", err), nil
	}

	records, err := s.svc.List(ctx, status)
	if err != nil {
		return toolError("list opportunities", err), nil
	}
	out := make([]RecordSummary, 0, len(records))
	for _, r := range records {
		out = append(out, summarize(r))
	}
	return jsonResult(out)
}

func (s *Server) handleShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireString(arguments(request), "ref")
	if err != nil {
		return toolError("show opportunity", err), nil
	}
	rec, err := s.svc.Resolve(ctx, ref)
	if err != nil {
		return toolError("show opportunity", err), nil
	}
	return jsonResult(rec)
}

func (s *Server) handleSetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	ref, err := requireString(args, "ref")
	if err != nil {
		return toolError("set status", err), nil
	}
	raw, err := requireString(args, "status")
	if err != nil {
		return toolError("set status", err), nil
	}
	status, err := types.ParseStatus(raw)
	if err != nil {
		return toolError("set status", err), nil
	}

	rec, err := s.svc.SetStatus(ctx, ref, types.StatusPtr(status))
	if err != nil {
		return toolError("set status", err), nil
	}
	return jsonResult(summarize(*rec))
}

func (s *Server) handleSync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.svc.Sync(ctx)
	if err != nil {
		return toolError("sync", err), nil
	}
	return jsonResult(summary)
}

func (s *Server) handleStatusCounts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.svc.StatusCounts(ctx)
	if err != nil {
		return toolError("count statuses", err), nil
	}
	return jsonResult(counts)
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireString(arguments(request), "ref")
	if err != nil {
		return toolError("refresh description", err), nil
	}
	rec, err := s.svc.RefreshDescription(ctx, ref)
	if err != nil {
		return toolError("refresh description", err), nil
	}
	return jsonResult(rec)
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	return args
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", &ErrValidation{Field: key, Message: "required string argument"}
	}
	return strings.TrimSpace(v), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
