package graph

import (
	"context"
	"fmt"
	"path"

	"github.com/dusk-indust/tfindex/internal/index"
)

// Export writes the files, declarations and resolved references of snap into
// store, then computes file clusters.
//
// Edges written:
//   - DEFINES from a file to each symbol it declares
//   - REFERENCES from a file to each symbol it references (once per pair)
//   - DEPENDS_ON from a file to each other file declaring a symbol it references
func Export(ctx context.Context, store Store, snap *index.Snapshot) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	files := snap.Files()
	nodes := make([]FileNode, 0, len(files))
	byLocation := make(map[index.FileRange]string)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		symbols := snap.DocumentSymbols(file)
		node := FileNode{
			Path:       file,
			Module:     path.Dir(file),
			Symbols:    len(symbols),
			References: len(snap.ReferencesIn(file)),
		}
		if err := store.AddFile(ctx, node); err != nil {
			return fmt.Errorf("add file %s: %w", file, err)
		}
		nodes = append(nodes, node)

		for _, sym := range symbols {
			sn := NewSymbolNode(sym)
			byLocation[sym.Location()] = sn.ID
			if err := store.AddSymbol(ctx, sn); err != nil {
				return fmt.Errorf("add symbol %s: %w", sn.ID, err)
			}
			if err := store.AddEdge(ctx, Edge{SourceID: file, TargetID: sn.ID, Kind: EdgeKindDefines}); err != nil {
				return fmt.Errorf("add edge: %w", err)
			}
		}
	}

	for _, file := range files {
		seenSymbol := make(map[string]bool)
		seenFile := make(map[string]bool)
		for _, rr := range snap.ReferencesIn(file) {
			id, ok := byLocation[rr.Target]
			if !ok {
				continue
			}
			if !seenSymbol[id] {
				seenSymbol[id] = true
				if err := store.AddEdge(ctx, Edge{SourceID: file, TargetID: id, Kind: EdgeKindReferences}); err != nil {
					return fmt.Errorf("add edge: %w", err)
				}
			}
			target := rr.Target.File
			if target == file || seenFile[target] {
				continue
			}
			seenFile[target] = true
			if err := store.AddEdge(ctx, Edge{SourceID: file, TargetID: target, Kind: EdgeKindDependsOn}); err != nil {
				return fmt.Errorf("add edge: %w", err)
			}
		}
	}

	if _, err := ComputeClusters(ctx, store, nodes); err != nil {
		return fmt.Errorf("compute clusters: %w", err)
	}
	return nil
}

// FromSnapshot builds an in-memory graph of snap.
func FromSnapshot(ctx context.Context, snap *index.Snapshot) (*MemStore, error) {
	store := NewMemStore()
	if err := Export(ctx, store, snap); err != nil {
		return nil, err
	}
	return store, nil
}
