package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/tfindex/internal/export"
	"github.com/dusk-indust/tfindex/internal/graph"
)

// runDiagram prints the file dependency graph as a Mermaid flowchart.
func (a *app) runDiagram() error {
	return a.withWorkspace(func(ctx context.Context, ws *workspace) error {
		store, err := graph.FromSnapshot(ctx, ws.idx.Snapshot())
		if err != nil {
			return err
		}
		defer store.Close()

		out, err := export.GenerateMermaid(ctx, store)
		if err != nil {
			return fmt.Errorf("diagram: %w", err)
		}
		_, err = fmt.Fprint(a.stdout, out)
		return err
	})
}

// runGraph prints the reference graph as JSON.
func (a *app) runGraph() error {
	return a.withWorkspace(func(ctx context.Context, ws *workspace) error {
		snap := ws.idx.Snapshot()
		store, err := graph.FromSnapshot(ctx, snap)
		if err != nil {
			return err
		}
		defer store.Close()

		out, err := export.ExportGraph(ctx, store, ws.root, snap.Files())
		if err != nil {
			return err
		}
		return a.printJSON(out)
	})
}
