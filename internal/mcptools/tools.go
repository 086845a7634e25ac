package mcptools

import (
	"github.com/dusk-indust/tfindex/internal/graph"
	"github.com/dusk-indust/tfindex/internal/index"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// FindDefinitionInput is the input for the find_definition MCP tool.
type FindDefinitionInput struct {
	File   string `json:"file" jsonschema:"workspace relative path of the file containing the reference"`
	Line   int    `json:"line" jsonschema:"1-based line of the cursor"`
	Column int    `json:"column" jsonschema:"1-based column of the cursor"`
}

// FindDefinitionOutput is the result of the find_definition MCP tool.
type FindDefinitionOutput struct {
	Found      bool             `json:"found"`
	Definition *index.FileRange `json:"definition,omitempty"`
}

// FindReferencesInput is the input for the find_references MCP tool.
type FindReferencesInput struct {
	ID string `json:"id" jsonschema:"reference identifier, e.g. region or aws_instance.web"`
}

// FindReferencesOutput is the result of the find_references MCP tool.
type FindReferencesOutput struct {
	References []index.FileRange `json:"references"`
	Total      int               `json:"total"`
}

// DocumentSymbolsInput is the input for the document_symbols MCP tool.
type DocumentSymbolsInput struct {
	File string `json:"file" jsonschema:"workspace relative path of the file"`
}

// DocumentSymbolsOutput is the result of the document_symbols MCP tool.
type DocumentSymbolsOutput struct {
	Symbols []index.Symbol `json:"symbols"`
}

// WorkspaceSymbolsInput is the input for the workspace_symbols MCP tool.
type WorkspaceSymbolsInput struct {
	Pattern string `json:"pattern,omitempty" jsonschema:"regular expression matched against symbol names; plain substring if it does not compile"`
	Kind    string `json:"kind,omitempty" jsonschema:"filter by kind: variable, provider, resource, data, module, output"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 100)"`
}

// WorkspaceSymbolsOutput is the result of the workspace_symbols MCP tool.
type WorkspaceSymbolsOutput struct {
	Symbols []index.Symbol `json:"symbols"`
	Total   int            `json:"total"`
}

// CompleteSymbolsInput is the input for the complete_symbols MCP tool.
type CompleteSymbolsInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"name prefix typed so far"`
	Kind   string `json:"kind,omitempty" jsonschema:"filter by kind: variable, provider, resource, data, module, output"`
}

// CompleteSymbolsOutput is the result of the complete_symbols MCP tool.
type CompleteSymbolsOutput struct {
	Symbols []index.Symbol `json:"symbols"`
}

// RenameSitesInput is the input for the rename_sites MCP tool.
type RenameSitesInput struct {
	ID        string `json:"id" jsonschema:"identifier of the symbol to rename"`
	NewName   string `json:"newName" jsonschema:"replacement name"`
	PrefixLen int    `json:"prefixLen,omitempty" jsonschema:"columns between a reference start and the bare name, used when the parser reported no identifier range (default: 4, the length of var.)"`
}

// TextEdit replaces the text in Range of File with NewText.
type TextEdit struct {
	File    string      `json:"file"`
	Range   index.Range `json:"range"`
	NewText string      `json:"newText"`
}

// RenameSitesOutput is the result of the rename_sites MCP tool.
type RenameSitesOutput struct {
	Found      bool          `json:"found"`
	Definition *index.Symbol `json:"definition,omitempty"`
	Edits      []TextEdit    `json:"edits"`
}

// GetDiagnosticsInput is the input for the get_diagnostics MCP tool.
type GetDiagnosticsInput struct {
	File string `json:"file,omitempty" jsonschema:"workspace relative path; empty returns diagnostics of every file"`
}

// GetDiagnosticsOutput is the result of the get_diagnostics MCP tool.
type GetDiagnosticsOutput struct {
	Diagnostics []index.Diagnostic `json:"diagnostics"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	File      string `json:"file" jsonschema:"workspace relative file path"`
	Direction string `json:"direction,omitempty" jsonschema:"upstream (files it references) or downstream (files referencing it). Default: upstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// AssessImpactInput is the input for the assess_impact MCP tool.
type AssessImpactInput struct {
	ChangedFiles []string `json:"changedFiles" jsonschema:"list of file paths that will be modified"`
}

// AssessImpactOutput is the result of the assess_impact MCP tool.
type AssessImpactOutput struct {
	Impact graph.ImpactResult `json:"impact"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.ClusterNode `json:"clusters"`
}

// IndexStatsInput is the input for the index_stats MCP tool.
type IndexStatsInput struct{}

// IndexStatsOutput is the result of the index_stats MCP tool.
type IndexStatsOutput struct {
	Index index.Stats      `json:"index"`
	Graph graph.GraphStats `json:"graph"`
}
