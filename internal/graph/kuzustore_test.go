//go:build cgo

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/tfindex/internal/index"
)

// newTestStore creates a fresh in-memory KuzuStore with an initialized schema.
// It registers a cleanup function to close the store when the test finishes.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx), "InitSchema should not fail")
	return s
}

// exportedKuzu exports the sample workspace into a fresh KuzuStore.
func exportedKuzu(t *testing.T) *KuzuStore {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, Export(context.Background(), s, indexSnapshot(t, sampleWorkspace)))
	return s
}

// ---------------------------------------------------------------------------
// Schema and round trips
// ---------------------------------------------------------------------------

func TestKuzuStore_InitSchema(t *testing.T) {
	s, err := NewKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))
	// IF NOT EXISTS makes a second call a no-op.
	require.NoError(t, s.InitSchema(ctx))
}

func TestKuzuStore_FileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	file := FileNode{Path: "modules/net/main.tf", Module: "modules/net", Symbols: 3, References: 7}
	require.NoError(t, s.AddFile(ctx, file))

	got, err := s.GetFile(ctx, file.Path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, file, *got)

	got, err = s.GetFile(ctx, "missing.tf")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKuzuStore_SymbolRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sym := NewSymbolNode(index.Symbol{
		File:  "main.tf",
		Name:  "web",
		Kind:  index.KindResource,
		Type:  "aws_instance",
		Range: index.Range{Start: index.Pos{Line: 4, Column: 1}},
	})
	require.NoError(t, s.AddSymbol(ctx, sym))

	got, err := s.GetSymbol(ctx, "main.tf#resource.aws_instance.web")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sym, *got)

	got, err = s.GetSymbol(ctx, "main.tf#variable.web")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKuzuStore_UnsupportedEdgeKind(t *testing.T) {
	s := newTestStore(t)
	err := s.AddEdge(context.Background(), Edge{SourceID: "a", TargetID: "b", Kind: "CALLS"})
	assert.ErrorContains(t, err, "unsupported edge kind")
}

// ---------------------------------------------------------------------------
// Exported workspace
// ---------------------------------------------------------------------------

func TestKuzuStore_MatchesMemStore(t *testing.T) {
	ctx := context.Background()
	kz := exportedKuzu(t)
	mem := exportSample(t)

	kzStats, err := kz.Stats(ctx)
	require.NoError(t, err)
	memStats, err := mem.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, memStats, kzStats)

	kzEdges, err := kz.GetAllEdges(ctx)
	require.NoError(t, err)
	memEdges, err := mem.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, memEdges, kzEdges)

	kzClusters, err := kz.GetClusters(ctx)
	require.NoError(t, err)
	memClusters, err := mem.GetClusters(ctx)
	require.NoError(t, err)
	assert.Equal(t, memClusters, kzClusters)
}

func TestKuzuStore_Traversal(t *testing.T) {
	ctx := context.Background()
	kz := exportedKuzu(t)
	mem := exportSample(t)

	for _, file := range []string{"vars.tf", "main.tf", "outputs.tf"} {
		for _, dir := range []Direction{DirectionUpstream, DirectionDownstream} {
			want, err := mem.GetDependencies(ctx, file, dir, 3)
			require.NoError(t, err)
			got, err := kz.GetDependencies(ctx, file, dir, 3)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s %s", file, dir)
		}

		want, err := mem.AssessImpact(ctx, []string{file})
		require.NoError(t, err)
		got, err := kz.AssessImpact(ctx, []string{file})
		require.NoError(t, err)
		assert.Equal(t, want, got, file)
	}
}

func TestKuzuStore_QuerySymbols(t *testing.T) {
	ctx := context.Background()
	kz := exportedKuzu(t)

	syms, err := kz.QuerySymbols(ctx, "REG", 0)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "vars.tf#variable.region", syms[0].ID)

	syms, err = kz.QuerySymbols(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestKuzuStore_FilePersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "graph", "tfindex.kuzu")

	s, err := NewKuzuFileStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, Export(ctx, s, indexSnapshot(t, sampleWorkspace)))
	require.NoError(t, s.Close())

	reopened, err := NewKuzuFileStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.FileCount)
	assert.Equal(t, 5, stats.SymbolCount)
}
