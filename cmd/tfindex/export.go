//go:build cgo

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dusk-indust/tfindex/internal/graph"
)

// runExport writes the reference graph of the workspace to a file-based
// Kuzu database at dir, replacing any previous export.
func (a *app) runExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tfindex export <dir>")
	}
	dir := args[0]

	return a.withWorkspace(func(ctx context.Context, ws *workspace) error {
		// Remove old graph to avoid stale data.
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove previous export: %w", err)
		}
		store, err := graph.NewKuzuFileStore(dir)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := graph.Export(ctx, store, ws.idx.Snapshot()); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		if a.flags.JSON {
			return a.printJSON(stats)
		}
		fmt.Fprintf(a.stdout, "exported %d files, %d symbols, %d edges, %d clusters to %s\n",
			stats.FileCount, stats.SymbolCount, stats.EdgeCount, stats.ClusterCount, dir)
		return nil
	})
}
