package export

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/tfindex/internal/graph"
	"github.com/dusk-indust/tfindex/internal/index"
	"github.com/dusk-indust/tfindex/internal/parser"
)

var workspace = map[string]string{
	"vars.tf": `variable "region" {}
`,
	"main.tf": `resource "aws_instance" "web" {
  region = var.region
}
`,
	"outputs.tf": `output "ip" {
  value = aws_instance.web.public_ip
}
`,
	"modules/net/main.tf": `variable "cidr" {}
`,
}

// indexedGraph indexes the workspace and returns its reference graph and the
// indexed files.
func indexedGraph(t *testing.T) (*graph.MemStore, []string) {
	t.Helper()
	ctx := context.Background()
	idx := index.New(parser.NewHCLParser(), index.Options{})
	t.Cleanup(func() { _ = idx.Close() })
	for name, text := range workspace {
		require.NoError(t, idx.Update(ctx, name, []byte(text)))
	}
	snap := idx.Snapshot()
	store, err := graph.FromSnapshot(ctx, snap)
	require.NoError(t, err)
	return store, snap.Files()
}

func TestGenerateMermaid(t *testing.T) {
	store, _ := indexedGraph(t)

	got, err := GenerateMermaid(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, `graph TD
  subgraph N0["."]
    N1["main.tf"]
    N2["outputs.tf"]
    N3["vars.tf"]
  end
  N1 --> N3
  N2 --> N1
  N2 --> N3
`, got)
}

func TestGenerateMermaid_NestedPaths(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	fs := []graph.FileNode{
		{Path: "envs/prod/network/main.tf"},
		{Path: "envs/prod/network/vars.tf"},
	}
	for _, f := range fs {
		require.NoError(t, store.AddFile(ctx, f))
	}
	require.NoError(t, store.AddEdge(ctx, graph.Edge{
		SourceID: "envs/prod/network/main.tf",
		TargetID: "envs/prod/network/vars.tf",
		Kind:     graph.EdgeKindDependsOn,
	}))
	_, err := graph.ComputeClusters(ctx, store, fs)
	require.NoError(t, err)

	got, err := GenerateMermaid(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, `graph TD
  subgraph N0["envs/prod/network"]
    N1["network/main.tf"]
    N2["network/vars.tf"]
  end
  N1 --> N2
`, got)
}

func TestGenerateMermaid_Empty(t *testing.T) {
	got, err := GenerateMermaid(context.Background(), graph.NewMemStore())
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n", got)
}

func TestExportGraph(t *testing.T) {
	store, files := indexedGraph(t)

	out, err := ExportGraph(context.Background(), store, "/work", append(files, "unknown.tf"))
	require.NoError(t, err)

	assert.Equal(t, "/work", out.Root)
	assert.NotEmpty(t, out.ExportedAt)
	assert.Len(t, out.Files, 4)
	assert.Len(t, out.Symbols, 4)
	assert.Len(t, out.Clusters, 1)
	assert.Equal(t, 4, out.Stats.FileCount)
	assert.Equal(t, out.Stats.EdgeCount, len(out.Edges))

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"main.tf#resource.aws_instance.web"`)
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "main.tf", shortPath("main.tf"))
	assert.Equal(t, "net/main.tf", shortPath("net/main.tf"))
	assert.Equal(t, "net/main.tf", shortPath("modules/net/main.tf"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, `"a#quot;b"`, quote(`a"b`))
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
}
