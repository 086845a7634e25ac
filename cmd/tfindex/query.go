package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dusk-indust/tfindex/internal/index"
)

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = a.stdout.Write(append(out, '\n'))
	return err
}

func (a *app) printDiagnostics(diags []index.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(a.stdout, "%s: %s: %s (%s)\n",
			index.FileRange{File: d.File, Range: d.Range}, d.Severity, d.Message, d.Source)
	}
}

func symbolLabel(s index.Symbol) string {
	if s.Kind == index.KindResource || s.Kind == index.KindData {
		return fmt.Sprintf("%s %s.%s", s.Kind, s.Type, s.Name)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Name)
}

func (a *app) runScan() error {
	return a.withWorkspace(func(_ context.Context, ws *workspace) error {
		snap := ws.idx.Snapshot()
		stats := snap.Stats()

		var diags []index.Diagnostic
		for _, f := range snap.Files() {
			diags = append(diags, snap.Diagnostics(f)...)
		}

		if a.flags.JSON {
			return a.printJSON(struct {
				Stats       index.Stats        `json:"stats"`
				Diagnostics []index.Diagnostic `json:"diagnostics"`
			}{stats, diags})
		}
		fmt.Fprintf(a.stdout, "files: %d  symbols: %d  references: %d  diagnostics: %d\n",
			stats.FileCount, stats.SymbolCount, stats.ReferenceCount, stats.DiagnosticCount)
		a.printDiagnostics(diags)
		return nil
	})
}

func (a *app) runSymbols(args []string) error {
	pattern := ""
	if len(args) > 0 {
		pattern = args[0]
	}
	var kinds []index.SymbolKind
	if a.flags.Kind != "" {
		k := index.ParseSymbolKind(a.flags.Kind)
		if k == index.KindUnknown {
			return fmt.Errorf("unknown symbol kind %q", a.flags.Kind)
		}
		kinds = append(kinds, k)
	}

	return a.withWorkspace(func(_ context.Context, ws *workspace) error {
		symbols := []index.Symbol{}
		for s := range ws.idx.Symbols(pattern, kinds...) {
			symbols = append(symbols, s)
		}
		if a.flags.JSON {
			return a.printJSON(symbols)
		}
		for _, s := range symbols {
			fmt.Fprintf(a.stdout, "%-40s %s:%d:%d\n", symbolLabel(s), s.File, s.Range.Start.Line, s.Range.Start.Column)
		}
		return nil
	})
}

func (a *app) runRefs(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tfindex refs <id>")
	}
	return a.withWorkspace(func(_ context.Context, ws *workspace) error {
		refs := ws.idx.FindReferences(args[0])
		if a.flags.JSON {
			return a.printJSON(refs)
		}
		for _, r := range refs {
			fmt.Fprintln(a.stdout, r)
		}
		return nil
	})
}

func (a *app) runDef(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: tfindex def <file> <line> <column>")
	}
	line, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid line %q: %w", args[1], err)
	}
	col, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid column %q: %w", args[2], err)
	}

	return a.withWorkspace(func(_ context.Context, ws *workspace) error {
		def, ok := ws.idx.FindDefinition(args[0], index.Pos{Line: line, Column: col})
		if !ok {
			return fmt.Errorf("no definition at %s:%d:%d", args[0], line, col)
		}
		if a.flags.JSON {
			return a.printJSON(def)
		}
		fmt.Fprintln(a.stdout, def)
		return nil
	})
}

func (a *app) runRename(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: tfindex rename <id> <newName>")
	}
	id, newName := args[0], args[1]

	return a.withWorkspace(func(_ context.Context, ws *workspace) error {
		plan, ok := ws.idx.Rename(id, a.flags.Prefix)
		if !ok {
			return fmt.Errorf("nothing named %q", id)
		}
		if a.flags.JSON {
			return a.printJSON(struct {
				index.RenamePlan
				NewName string `json:"newName"`
			}{plan, newName})
		}
		fmt.Fprintf(a.stdout, "definition %s %s\n", symbolLabel(plan.Definition), plan.Definition.Location())
		for _, site := range plan.Sites {
			fmt.Fprintf(a.stdout, "%s -> %s\n", site, newName)
		}
		return nil
	})
}
