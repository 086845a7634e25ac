package mcptools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/tfindex/internal/index"
	"github.com/dusk-indust/tfindex/internal/parser"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// workspace is indexed with the in-process HCL parser. main.tf references
// var.web, which only exists as a resource, so it carries one diagnostic.
var workspace = map[string]string{
	"vars.tf": `variable "region" {}
variable "unused" {}
`,
	"main.tf": `resource "aws_instance" "web" {
  region = var.region
  ami    = var.web
}
`,
	"outputs.tf": `output "ip" {
  value = aws_instance.web.public_ip
}
`,
}

// newTestIndex indexes files and closes the index when the test finishes.
func newTestIndex(t *testing.T, files map[string]string) *index.Index {
	t.Helper()
	ctx := context.Background()
	idx := index.New(parser.NewHCLParser(), index.Options{})
	t.Cleanup(func() { _ = idx.Close() })
	for name, text := range files {
		require.NoError(t, idx.Update(ctx, name, []byte(text)))
	}
	return idx
}

func newTestService(t *testing.T) (*IndexService, *index.Index) {
	t.Helper()
	idx := newTestIndex(t, workspace)
	return NewIndexService(idx), idx
}

func symbolNames(syms []index.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

func TestFindDefinition(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.FindDefinition(ctx, nil, FindDefinitionInput{File: "main.tf", Line: 2, Column: 14})
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, "vars.tf", out.Definition.File)
	assert.Equal(t, index.Pos{Line: 1, Column: 1}, out.Definition.Range.Start)

	_, out, err = svc.FindDefinition(ctx, nil, FindDefinitionInput{File: "main.tf", Line: 1, Column: 1})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Nil(t, out.Definition)
}

func TestFindDefinition_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input FindDefinitionInput
	}{
		{"missing file", FindDefinitionInput{Line: 1, Column: 1}},
		{"zero line", FindDefinitionInput{File: "main.tf", Column: 1}},
		{"zero column", FindDefinitionInput{File: "main.tf", Line: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.FindDefinition(ctx, nil, tt.input)
			assert.Error(t, err)
		})
	}
}

func TestFindReferences(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.FindReferences(ctx, nil, FindReferencesInput{ID: "region"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "main.tf", out.References[0].File)
	assert.Equal(t, index.Pos{Line: 2, Column: 12}, out.References[0].Range.Start)

	_, out, err = svc.FindReferences(ctx, nil, FindReferencesInput{ID: "aws_instance.web"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "outputs.tf", out.References[0].File)

	_, out, err = svc.FindReferences(ctx, nil, FindReferencesInput{ID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Total)
	assert.NotNil(t, out.References)

	_, _, err = svc.FindReferences(ctx, nil, FindReferencesInput{})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Symbols
// ---------------------------------------------------------------------------

func TestDocumentSymbols(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.DocumentSymbols(ctx, nil, DocumentSymbolsInput{File: "vars.tf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "unused"}, symbolNames(out.Symbols))

	_, out, err = svc.DocumentSymbols(ctx, nil, DocumentSymbolsInput{File: "absent.tf"})
	require.NoError(t, err)
	assert.Empty(t, out.Symbols)
}

func TestWorkspaceSymbols(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input WorkspaceSymbolsInput
		want  []string
	}{
		{"all", WorkspaceSymbolsInput{}, []string{"region", "unused", "web", "ip"}},
		{"pattern", WorkspaceSymbolsInput{Pattern: "^(re|ip)"}, []string{"region", "ip"}},
		{"kind", WorkspaceSymbolsInput{Kind: "Resource"}, []string{"web"}},
		{"invalid regexp is a substring", WorkspaceSymbolsInput{Pattern: "gi("}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := svc.WorkspaceSymbols(ctx, nil, tt.input)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, symbolNames(out.Symbols))
			assert.Equal(t, len(tt.want), out.Total)
		})
	}

	_, out, err := svc.WorkspaceSymbols(ctx, nil, WorkspaceSymbolsInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out.Symbols, 2)

	_, _, err = svc.WorkspaceSymbols(ctx, nil, WorkspaceSymbolsInput{Kind: "function"})
	assert.ErrorContains(t, err, "unknown symbol kind")
}

func TestCompleteSymbols(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.CompleteSymbols(ctx, nil, CompleteSymbolsInput{Prefix: "re"})
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, symbolNames(out.Symbols))

	_, out, err = svc.CompleteSymbols(ctx, nil, CompleteSymbolsInput{Prefix: "zz"})
	require.NoError(t, err)
	assert.NotNil(t, out.Symbols)
	assert.Empty(t, out.Symbols)
}

func TestRenameSites(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.RenameSites(ctx, nil, RenameSitesInput{ID: "region", NewName: "zone"})
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, "region", out.Definition.Name)
	assert.Equal(t, []TextEdit{{
		File: "main.tf",
		Range: index.Range{
			Start: index.Pos{Line: 2, Column: 16},
			End:   index.Pos{Line: 2, Column: 22},
		},
		NewText: "zone",
	}}, out.Edits)

	_, out, err = svc.RenameSites(ctx, nil, RenameSitesInput{ID: "nope", NewName: "x"})
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Empty(t, out.Edits)

	_, _, err = svc.RenameSites(ctx, nil, RenameSitesInput{ID: "region"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Diagnostics and stats
// ---------------------------------------------------------------------------

func TestGetDiagnostics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetDiagnostics(ctx, nil, GetDiagnosticsInput{File: "main.tf"})
	require.NoError(t, err)
	require.Len(t, out.Diagnostics, 1)
	d := out.Diagnostics[0]
	assert.Equal(t, index.SeverityError, d.Severity)
	assert.Equal(t, index.MsgCannotFindReference, d.Message)
	assert.Equal(t, index.Pos{Line: 3, Column: 12}, d.Range.Start)

	_, out, err = svc.GetDiagnostics(ctx, nil, GetDiagnosticsInput{File: "vars.tf"})
	require.NoError(t, err)
	assert.Empty(t, out.Diagnostics)

	_, out, err = svc.GetDiagnostics(ctx, nil, GetDiagnosticsInput{})
	require.NoError(t, err)
	assert.Len(t, out.Diagnostics, 1)
}

func TestIndexStats(t *testing.T) {
	svc, _ := newTestService(t)

	_, out, err := svc.IndexStats(context.Background(), nil, IndexStatsInput{})
	require.NoError(t, err)
	assert.Equal(t, index.Stats{FileCount: 3, SymbolCount: 4, ReferenceCount: 2, DiagnosticCount: 1}, out.Index)
	assert.Equal(t, 3, out.Graph.FileCount)
	assert.Equal(t, 4, out.Graph.SymbolCount)
	assert.Equal(t, 1, out.Graph.ClusterCount)
	// 4 DEFINES + 2 REFERENCES + 2 DEPENDS_ON + 3 BELONGS.
	assert.Equal(t, 11, out.Graph.EdgeCount)
}

// ---------------------------------------------------------------------------
// Reference graph
// ---------------------------------------------------------------------------

func TestGetDependencies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetDependencies(ctx, nil, GetDependenciesInput{File: "outputs.tf"})
	require.NoError(t, err)
	require.Len(t, out.Chains, 2)
	assert.Equal(t, []string{"outputs.tf", "main.tf"}, out.Chains[0].Nodes)
	assert.Equal(t, []string{"outputs.tf", "main.tf", "vars.tf"}, out.Chains[1].Nodes)

	_, out, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{File: "vars.tf", Direction: "downstream", MaxDepth: 1})
	require.NoError(t, err)
	require.Len(t, out.Chains, 1)
	assert.Equal(t, []string{"vars.tf", "main.tf"}, out.Chains[0].Nodes)

	_, out, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{File: "vars.tf"})
	require.NoError(t, err)
	assert.NotNil(t, out.Chains)
	assert.Empty(t, out.Chains)

	_, _, err = svc.GetDependencies(ctx, nil, GetDependenciesInput{})
	assert.Error(t, err)
}

func TestAssessImpact(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.AssessImpact(ctx, nil, AssessImpactInput{ChangedFiles: []string{"vars.tf"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.tf"}, out.Impact.DirectlyAffected)
	assert.Equal(t, []string{"main.tf", "outputs.tf"}, out.Impact.TransitivelyAffected)
	assert.InDelta(t, 2.0/3.0, out.Impact.RiskScore, 1e-9)

	_, _, err = svc.AssessImpact(ctx, nil, AssessImpactInput{})
	assert.Error(t, err)
}

func TestGetClusters(t *testing.T) {
	svc, _ := newTestService(t)

	_, out, err := svc.GetClusters(context.Background(), nil, GetClustersInput{})
	require.NoError(t, err)
	require.Len(t, out.Clusters, 1)
	assert.Equal(t, []string{"main.tf", "outputs.tf", "vars.tf"}, out.Clusters[0].Members)
}

func TestGraphFollowsSnapshots(t *testing.T) {
	svc, idx := newTestService(t)
	ctx := context.Background()

	first, err := svc.graphStore(ctx)
	require.NoError(t, err)
	again, err := svc.graphStore(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again, "unchanged snapshot reuses the graph")

	require.NoError(t, idx.Delete(ctx, "outputs.tf"))

	rebuilt, err := svc.graphStore(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)

	_, out, err := svc.AssessImpact(ctx, nil, AssessImpactInput{ChangedFiles: []string{"vars.tf"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.tf"}, out.Impact.TransitivelyAffected)
}
