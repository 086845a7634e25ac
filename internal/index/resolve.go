package index

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// referenceGraph is the resolution result of one rebuild pass.
type referenceGraph struct {
	byFile      map[string][]ResolvedReference // referencing file -> resolved sites
	byID        map[string][]FileRange         // target identifier -> referencing sites
	sites       map[string][]ResolvedReference // target identifier -> resolved sites
	targets     map[string]Symbol              // target identifier -> canonical definition
	diagnostics map[string][]Diagnostic
	count       int
}

// resolveReferences resolves every reference group in the store against
// table. Files and target identifiers are visited in sorted order so the
// reverse map is accumulated deterministically.
func resolveReferences(store ResultStore, table *symbolTable) *referenceGraph {
	g := &referenceGraph{
		byFile:      make(map[string][]ResolvedReference),
		byID:        make(map[string][]FileRange),
		sites:       make(map[string][]ResolvedReference),
		targets:     make(map[string]Symbol),
		diagnostics: make(map[string][]Diagnostic),
	}

	for _, file := range store.Files() {
		result, ok := store.Get(file)
		if !ok {
			continue
		}

		diags := make([]Diagnostic, 0, len(result.Errors))
		for _, e := range result.Errors {
			diags = append(diags, Diagnostic{
				File:     file,
				Range:    e.Location.ToRange(),
				Severity: SeverityError,
				Message:  e.Message,
				Source:   SourceParser,
			})
		}

		ids := make([]string, 0, len(result.References))
		for id := range result.References {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			ref := result.References[id]
			name := ref.Name
			if name == "" {
				name = id
			}

			// Unknown names are not errors: the parser also reports
			// identifiers that are never declared in configuration.
			if !table.has(name) {
				continue
			}

			kind := KindVariable
			if ref.Type != "" {
				kind = ParseSymbolKind(ref.Type)
			}

			target, ok := table.lookup(name, kind, declaredType(id, name, kind))
			if !ok {
				for _, loc := range ref.Locations {
					diags = append(diags, Diagnostic{
						File:     file,
						Range:    loc.ToRange(),
						Severity: SeverityError,
						Message:  MsgCannotFindReference,
						Source:   SourceIndex,
					})
				}
				continue
			}

			if _, seen := g.targets[id]; !seen {
				g.targets[id] = target
			}

			nameLen := utf8.RuneCountInString(name)
			for i, loc := range ref.Locations {
				rr := ResolvedReference{
					Source:   loc.In(file),
					TargetID: id,
					Target:   target.Location(),
				}
				if idLoc, ok := ref.identifier(i); ok {
					rr.Identifier = idLoc.ToRangeLen(nameLen)
					rr.HasIdentifier = true
				}
				g.byFile[file] = append(g.byFile[file], rr)
				g.byID[id] = append(g.byID[id], rr.Source)
				g.sites[id] = append(g.sites[id], rr)
				g.count++
			}
		}

		g.diagnostics[file] = diags
	}
	return g
}

// declaredType extracts TYPE from a resource identifier "TYPE.NAME" or a data
// identifier "data.TYPE.NAME". Identifiers of any other shape carry no type.
func declaredType(id, name string, kind SymbolKind) string {
	switch kind {
	case KindResource:
	case KindData:
		var ok bool
		if id, ok = strings.CutPrefix(id, "data."); !ok {
			return ""
		}
	default:
		return ""
	}
	typ, ok := strings.CutSuffix(id, "."+name)
	if !ok || typ == "" || strings.Contains(typ, ".") {
		return ""
	}
	return typ
}
