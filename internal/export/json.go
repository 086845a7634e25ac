package export

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/tfindex/internal/graph"
)

// GraphExport is the top-level JSON export structure.
type GraphExport struct {
	Root       string              `json:"root"`
	ExportedAt string              `json:"exportedAt"`
	Stats      graph.GraphStats    `json:"stats"`
	Files      []graph.FileNode    `json:"files"`
	Symbols    []graph.SymbolNode  `json:"symbols"`
	Edges      []graph.Edge        `json:"edges"`
	Clusters   []graph.ClusterNode `json:"clusters"`
}

// ExportGraph collects the contents of store for the given files into a
// GraphExport. Files unknown to the store are skipped.
func ExportGraph(ctx context.Context, store graph.Store, root string, files []string) (*GraphExport, error) {
	out := &GraphExport{
		Root:       root,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Files:      []graph.FileNode{},
	}

	for _, f := range files {
		node, err := store.GetFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("get file %s: %w", f, err)
		}
		if node != nil {
			out.Files = append(out.Files, *node)
		}
	}

	var err error
	if out.Symbols, err = store.QuerySymbols(ctx, "", 0); err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	if out.Edges, err = store.GetAllEdges(ctx); err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}
	if out.Clusters, err = store.GetClusters(ctx); err != nil {
		return nil, fmt.Errorf("get clusters: %w", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	out.Stats = *stats

	return out, nil
}
