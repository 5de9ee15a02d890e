package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Malta2023/solucao-gestao/internal/importer"
	"github.com/Malta2023/solucao-gestao/internal/records"
	"github.com/Malta2023/solucao-gestao/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store    *storage.Store
	Importer *importer.Importer
}

// NewMCPServer creates an MCP server exposing the quote importer and the
// client/job tables as assistant tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"gestao",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("gestao: client and obra records for a renovation business, with PDF quote import."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("import_quote",
			mcp.WithDescription("Import an orçamento or recibo PDF into the client/obra tables."),
			mcp.WithString("pdf_base64", mcp.Description("The PDF file content, base64 encoded"), mcp.Required()),
			mcp.WithString("filename", mcp.Description("Original filename, for the audit trail")),
		),
		mcpImportQuote(deps),
	)

	s.AddTool(
		mcp.NewTool("list_jobs",
			mcp.WithDescription("List obra records, optionally filtered by client name."),
			mcp.WithString("client", mcp.Description("Client name filter (case-insensitive)")),
		),
		mcpListJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("repair_jobs",
			mcp.WithDescription("Run the id/duplicate repair pass over the obra table and persist the result."),
		),
		mcpRepairJobs(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"gestao://clients",
			"Clients",
			mcp.WithResourceDescription("All client records as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceClients(deps),
	)

	return s
}

func mcpImportQuote(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		encoded, err := req.RequireString("pdf_base64")
		if err != nil {
			return mcpError("pdf_base64 is required"), nil
		}
		filename := req.GetString("filename", "")

		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid base64: %v", err)), nil
		}

		res, err := deps.Importer.ImportPDF(data, filename)
		switch {
		case importer.IsUnreadable(err):
			return mcpError("could not read file"), nil
		case importer.IsNotRecognized(err):
			return mcpError("document not recognized; enter the record manually"), nil
		case err != nil:
			return mcpError(fmt.Sprintf("import failed: %v", err)), nil
		}

		out, err := json.Marshal(map[string]any{
			"import_id":        res.ImportID,
			"client_id":        res.ClientID,
			"job_id":           res.JobID,
			"client_name":      res.Quote.ClientName,
			"total":            res.Quote.Total.StringFixed(2),
			"total_confidence": string(res.Quote.TotalConfidence),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcpText(string(out)), nil
	}
}

func mcpListJobs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client := req.GetString("client", "")

		jobs, err := deps.Store.LoadJobs()
		if err != nil {
			return mcpError(fmt.Sprintf("loading jobs: %v", err)), nil
		}
		jobs = records.Repair(jobs)

		out := make([]jobJSON, 0, len(jobs))
		for _, j := range jobs {
			if client != "" && !records.SameName(j.ClientName, client) {
				continue
			}
			out = append(out, jobToJSON(j))
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("encoding jobs: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRepairJobs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := deps.Importer.RepairAll()
		if err != nil {
			return mcpError(fmt.Sprintf("repair failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("repair complete, %d jobs", n)), nil
	}
}

func mcpResourceClients(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		clients, err := deps.Store.LoadClients()
		if err != nil {
			return nil, fmt.Errorf("loading clients: %w", err)
		}
		out := make([]clientJSON, 0, len(clients))
		for _, c := range clients {
			out = append(out, clientToJSON(c))
		}
		b, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
