package mcptools

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/tfindex/internal/graph"
	"github.com/dusk-indust/tfindex/internal/index"
)

const (
	defaultSymbolLimit = 100
	defaultMaxDepth    = 5
	defaultPrefixLen   = len("var.")
)

// Source supplies the current index snapshot. *index.Index satisfies it.
type Source interface {
	Snapshot() *index.Snapshot
}

// IndexService answers MCP tool calls from the live index. Graph tools use a
// reference graph built lazily from the current snapshot and rebuilt only
// when a newer snapshot has been published.
type IndexService struct {
	src Source

	mu        sync.Mutex
	graphSnap *index.Snapshot
	graph     *graph.MemStore
}

// NewIndexService creates an IndexService reading from src.
func NewIndexService(src Source) *IndexService {
	return &IndexService{src: src}
}

// graphStore returns the reference graph of the current snapshot.
func (s *IndexService) graphStore(ctx context.Context) (*graph.MemStore, error) {
	snap := s.src.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil && s.graphSnap == snap {
		return s.graph, nil
	}
	store, err := graph.FromSnapshot(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	s.graph, s.graphSnap = store, snap
	return store, nil
}

// parseKinds maps an optional kind filter onto SymbolKinds.
func parseKinds(kind string) ([]index.SymbolKind, error) {
	if kind == "" {
		return nil, nil
	}
	k := index.ParseSymbolKind(kind)
	if k == index.KindUnknown {
		return nil, fmt.Errorf("unknown symbol kind %q", kind)
	}
	return []index.SymbolKind{k}, nil
}

// ---------- Navigation ----------

// FindDefinition resolves the reference under a cursor position.
func (s *IndexService) FindDefinition(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindDefinitionInput,
) (*mcp.CallToolResult, FindDefinitionOutput, error) {
	if input.File == "" {
		return nil, FindDefinitionOutput{}, fmt.Errorf("file is required")
	}
	if input.Line < 1 || input.Column < 1 {
		return nil, FindDefinitionOutput{}, fmt.Errorf("line and column are 1-based")
	}

	def, ok := s.src.Snapshot().FindDefinition(input.File, index.Pos{Line: input.Line, Column: input.Column})
	if !ok {
		return nil, FindDefinitionOutput{}, nil
	}
	return nil, FindDefinitionOutput{Found: true, Definition: &def}, nil
}

// FindReferences lists every site referencing an identifier.
func (s *IndexService) FindReferences(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindReferencesInput,
) (*mcp.CallToolResult, FindReferencesOutput, error) {
	if input.ID == "" {
		return nil, FindReferencesOutput{}, fmt.Errorf("id is required")
	}
	refs := s.src.Snapshot().FindReferences(input.ID)
	return nil, FindReferencesOutput{References: refs, Total: len(refs)}, nil
}

// ---------- Symbols ----------

// DocumentSymbols lists the declarations of one file.
func (s *IndexService) DocumentSymbols(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DocumentSymbolsInput,
) (*mcp.CallToolResult, DocumentSymbolsOutput, error) {
	if input.File == "" {
		return nil, DocumentSymbolsOutput{}, fmt.Errorf("file is required")
	}
	return nil, DocumentSymbolsOutput{Symbols: s.src.Snapshot().DocumentSymbols(input.File)}, nil
}

// WorkspaceSymbols searches declarations across the workspace.
func (s *IndexService) WorkspaceSymbols(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input WorkspaceSymbolsInput,
) (*mcp.CallToolResult, WorkspaceSymbolsOutput, error) {
	kinds, err := parseKinds(input.Kind)
	if err != nil {
		return nil, WorkspaceSymbolsOutput{}, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSymbolLimit
	}

	symbols := []index.Symbol{}
	for sym := range s.src.Snapshot().Symbols(input.Pattern, kinds...) {
		symbols = append(symbols, sym)
		if len(symbols) == limit {
			break
		}
	}
	return nil, WorkspaceSymbolsOutput{Symbols: symbols, Total: len(symbols)}, nil
}

// CompleteSymbols suggests one declaration per name starting with a prefix.
func (s *IndexService) CompleteSymbols(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CompleteSymbolsInput,
) (*mcp.CallToolResult, CompleteSymbolsOutput, error) {
	kinds, err := parseKinds(input.Kind)
	if err != nil {
		return nil, CompleteSymbolsOutput{}, err
	}
	symbols := s.src.Snapshot().Complete(input.Prefix, kinds...)
	if symbols == nil {
		symbols = []index.Symbol{}
	}
	return nil, CompleteSymbolsOutput{Symbols: symbols}, nil
}

// RenameSites computes the reference edits for renaming an identifier. The
// definition is returned alongside so the caller can rename its label.
func (s *IndexService) RenameSites(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RenameSitesInput,
) (*mcp.CallToolResult, RenameSitesOutput, error) {
	if input.ID == "" || input.NewName == "" {
		return nil, RenameSitesOutput{}, fmt.Errorf("id and newName are required")
	}
	prefixLen := input.PrefixLen
	if prefixLen <= 0 {
		prefixLen = defaultPrefixLen
	}

	plan, ok := s.src.Snapshot().Rename(input.ID, prefixLen)
	if !ok {
		return nil, RenameSitesOutput{Edits: []TextEdit{}}, nil
	}
	edits := make([]TextEdit, 0, len(plan.Sites))
	for _, site := range plan.Sites {
		edits = append(edits, TextEdit{File: site.File, Range: site.Range, NewText: input.NewName})
	}
	return nil, RenameSitesOutput{Found: true, Definition: &plan.Definition, Edits: edits}, nil
}

// ---------- Diagnostics and stats ----------

// GetDiagnostics returns the diagnostics of one file or of every file.
func (s *IndexService) GetDiagnostics(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetDiagnosticsInput,
) (*mcp.CallToolResult, GetDiagnosticsOutput, error) {
	snap := s.src.Snapshot()
	if input.File != "" {
		return nil, GetDiagnosticsOutput{Diagnostics: snap.Diagnostics(input.File)}, nil
	}
	diags := []index.Diagnostic{}
	for _, file := range snap.Files() {
		diags = append(diags, snap.Diagnostics(file)...)
	}
	return nil, GetDiagnosticsOutput{Diagnostics: diags}, nil
}

// IndexStats reports index and reference graph counts.
func (s *IndexService) IndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	store, err := s.graphStore(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, err
	}
	gs, err := store.Stats(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, fmt.Errorf("graph stats: %w", err)
	}
	return nil, IndexStatsOutput{Index: s.src.Snapshot().Stats(), Graph: *gs}, nil
}

// ---------- Reference graph ----------

// GetDependencies traverses file dependencies from a given file.
func (s *IndexService) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	if input.File == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("file is required")
	}
	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	store, err := s.graphStore(ctx)
	if err != nil {
		return nil, GetDependenciesOutput{}, err
	}
	chains, err := store.GetDependencies(ctx, input.File, graph.ParseDirection(input.Direction), maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}
	return nil, GetDependenciesOutput{Chains: chains}, nil
}

// AssessImpact computes the blast radius of modifying a set of files.
func (s *IndexService) AssessImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessImpactInput,
) (*mcp.CallToolResult, AssessImpactOutput, error) {
	if len(input.ChangedFiles) == 0 {
		return nil, AssessImpactOutput{}, fmt.Errorf("changedFiles is required")
	}

	store, err := s.graphStore(ctx)
	if err != nil {
		return nil, AssessImpactOutput{}, err
	}
	impact, err := store.AssessImpact(ctx, input.ChangedFiles)
	if err != nil {
		return nil, AssessImpactOutput{}, fmt.Errorf("assess impact: %w", err)
	}
	return nil, AssessImpactOutput{Impact: *impact}, nil
}

// GetClusters returns groups of files connected by references.
func (s *IndexService) GetClusters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	store, err := s.graphStore(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, err
	}
	clusters, err := store.GetClusters(ctx)
	if err != nil {
		return nil, GetClustersOutput{}, fmt.Errorf("get clusters: %w", err)
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}
