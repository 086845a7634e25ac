package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with every index tool registered.
func NewServer(svc *IndexService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tfindex",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_definition",
		Description: "Find the declaration targeted by the Terraform reference at a file position (1-based line and column).",
	}, svc.FindDefinition)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_references",
		Description: "List every site referencing an identifier, e.g. region for var.region or aws_instance.web.",
	}, svc.FindReferences)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "document_symbols",
		Description: "List the variables, providers, resources, data sources, modules and outputs declared in one file.",
	}, svc.DocumentSymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "workspace_symbols",
		Description: "Search declarations across the workspace by name pattern, optionally filtered by kind.",
	}, svc.WorkspaceSymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_symbols",
		Description: "Suggest declarations whose name starts with a prefix, one per name.",
	}, svc.CompleteSymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_sites",
		Description: "Compute text edits renaming every reference to an identifier. The declaration is returned so its label can be renamed too.",
	}, svc.RenameSites)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_diagnostics",
		Description: "Return parse errors and unresolved references for one file or the whole workspace.",
	}, svc.GetDiagnostics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Traverse file dependencies upstream (files whose declarations it references) or downstream (files referencing its declarations).",
	}, svc.GetDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assess_impact",
		Description: "List the configuration files that reference declarations in the given files, directly or through other files, with the affected share of the workspace as risk score.",
	}, svc.AssessImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return groups of files connected by references, with cohesion scores.",
	}, svc.GetClusters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report counts of indexed files, symbols, references, diagnostics and reference graph edges.",
	}, svc.IndexStats)

	return server
}

// RunStdio serves the MCP server on stdio, blocking until stdin is closed or
// the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until the
// context is cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
