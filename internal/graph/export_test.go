package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/tfindex/internal/index"
	"github.com/dusk-indust/tfindex/internal/parser"
)

// sampleWorkspace is indexed with the in-process HCL parser:
//
//	vars.tf              variable region
//	main.tf              resource aws_instance.web, uses var.region
//	outputs.tf           outputs ip and r, use aws_instance.web and var.region
//	modules/net/main.tf  variable cidr, unreferenced
var sampleWorkspace = map[string]string{
	"vars.tf": `variable "region" {}
`,
	"main.tf": `resource "aws_instance" "web" {
  region = var.region
}
`,
	"outputs.tf": `output "ip" {
  value = aws_instance.web.public_ip
}

output "r" {
  value = var.region
}
`,
	"modules/net/main.tf": `variable "cidr" {}
`,
}

func indexSnapshot(t *testing.T, files map[string]string) *index.Snapshot {
	t.Helper()
	ctx := context.Background()
	idx := index.New(parser.NewHCLParser(), index.Options{})
	t.Cleanup(func() { _ = idx.Close() })
	for name, text := range files {
		require.NoError(t, idx.Update(ctx, name, []byte(text)))
	}
	return idx.Snapshot()
}

func exportSample(t *testing.T) *MemStore {
	t.Helper()
	store, err := FromSnapshot(context.Background(), indexSnapshot(t, sampleWorkspace))
	require.NoError(t, err)
	return store
}

func edgesOf(t *testing.T, store Store, kind EdgeKind) []Edge {
	t.Helper()
	all, err := store.GetAllEdges(context.Background())
	require.NoError(t, err)
	var out []Edge
	for _, e := range all {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func TestExport_Nodes(t *testing.T) {
	ctx := context.Background()
	store := exportSample(t)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FileCount)
	assert.Equal(t, 5, stats.SymbolCount)
	assert.Equal(t, 1, stats.ClusterCount)

	f, err := store.GetFile(ctx, "modules/net/main.tf")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, FileNode{Path: "modules/net/main.tf", Module: "modules/net", Symbols: 1}, *f)

	f, err = store.GetFile(ctx, "outputs.tf")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, ".", f.Module)
	assert.Equal(t, 2, f.Symbols)
	assert.Equal(t, 2, f.References)

	web, err := store.GetSymbol(ctx, "main.tf#resource.aws_instance.web")
	require.NoError(t, err)
	require.NotNil(t, web)
	assert.Equal(t, "web", web.Name)
	assert.Equal(t, index.KindResource, web.Kind)
	assert.Equal(t, "aws_instance", web.Type)
	assert.Equal(t, 1, web.Line)
}

func TestExport_Edges(t *testing.T) {
	store := exportSample(t)

	assert.Len(t, edgesOf(t, store, EdgeKindDefines), 5)
	assert.ElementsMatch(t, []Edge{
		{SourceID: "main.tf", TargetID: "vars.tf#variable.region", Kind: EdgeKindReferences},
		{SourceID: "outputs.tf", TargetID: "main.tf#resource.aws_instance.web", Kind: EdgeKindReferences},
		{SourceID: "outputs.tf", TargetID: "vars.tf#variable.region", Kind: EdgeKindReferences},
	}, edgesOf(t, store, EdgeKindReferences))
	assert.ElementsMatch(t, []Edge{
		dependsOn("main.tf", "vars.tf"),
		dependsOn("outputs.tf", "main.tf"),
		dependsOn("outputs.tf", "vars.tf"),
	}, edgesOf(t, store, EdgeKindDependsOn))
	assert.Len(t, edgesOf(t, store, EdgeKindBelongs), 3)
}

func TestExport_Clusters(t *testing.T) {
	clusters, err := exportSample(t).GetClusters(context.Background())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, ".", clusters[0].Name)
	assert.Equal(t, []string{"main.tf", "outputs.tf", "vars.tf"}, clusters[0].Members)
	assert.InDelta(t, 1.0, clusters[0].CohesionScore, 1e-9)
}

func TestExport_EmptySnapshot(t *testing.T) {
	store, err := FromSnapshot(context.Background(), indexSnapshot(t, nil))
	require.NoError(t, err)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{}, stats)
}

func TestExport_CancelledContext(t *testing.T) {
	snap := indexSnapshot(t, sampleWorkspace)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Export(ctx, NewMemStore(), snap), context.Canceled)
}
