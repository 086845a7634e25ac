package index

import (
	"iter"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Snapshot is an immutable view of the index after one rebuild. All query
// methods are safe for concurrent use and never block.
type Snapshot struct {
	files   []string
	symbols *symbolTable
	refs    *referenceGraph
}

// buildSnapshot rebuilds the symbol table and then the reference maps from
// the current store contents.
func buildSnapshot(store ResultStore) *Snapshot {
	table := buildSymbols(store)
	return &Snapshot{
		files:   store.Files(),
		symbols: table,
		refs:    resolveReferences(store, table),
	}
}

// ---------- Definitions and references ----------

// FindDefinition returns the definition targeted by the reference covering
// pos in file. When several open-ended sites on one line cover pos, the one
// starting closest before pos wins.
func (s *Snapshot) FindDefinition(file string, pos Pos) (FileRange, bool) {
	var (
		best  ResolvedReference
		found bool
	)
	for _, rr := range s.refs.byFile[file] {
		if !rr.Source.Range.Contains(pos) {
			continue
		}
		if !found || best.Source.Range.Start.Before(rr.Source.Range.Start) {
			best = rr
			found = true
		}
	}
	if !found {
		return FileRange{}, false
	}
	return best.Target, true
}

// FindReferences returns every site referencing targetID. The result is
// never nil.
func (s *Snapshot) FindReferences(targetID string) []FileRange {
	sites := s.refs.byID[targetID]
	if len(sites) == 0 {
		return []FileRange{}
	}
	return slices.Clone(sites)
}

// ReferencesIn returns the resolved references originating in file.
func (s *Snapshot) ReferencesIn(file string) []ResolvedReference {
	return slices.Clone(s.refs.byFile[file])
}

// ---------- Symbols ----------

// DocumentSymbols returns the symbols declared in file, in declaration
// order. The result is empty when file is not indexed.
func (s *Snapshot) DocumentSymbols(file string) []Symbol {
	syms := s.symbols.byFile[file]
	if len(syms) == 0 {
		return []Symbol{}
	}
	return slices.Clone(syms)
}

// Symbols returns a lazy sequence of symbols whose name matches pattern and
// whose kind is one of kinds. The pattern is a regular expression; if it
// does not compile it is used as a plain substring. An empty pattern and an
// empty kinds list match everything.
//
// The sequence reads this snapshot only, so it can be ranged over any number
// of times and stopped early without computing the remaining matches.
func (s *Snapshot) Symbols(pattern string, kinds ...SymbolKind) iter.Seq[Symbol] {
	match := compilePattern(pattern)
	kinds = slices.Clone(kinds)
	return func(yield func(Symbol) bool) {
		for _, name := range s.symbols.names {
			if !match(name) {
				continue
			}
			for _, sym := range s.symbols.byName[name] {
				if !sym.Matches(kinds) {
					continue
				}
				if !yield(sym) {
					return
				}
			}
		}
	}
}

// Complete returns one symbol per distinct name starting with prefix, sorted
// by name.
func (s *Snapshot) Complete(prefix string, kinds ...SymbolKind) []Symbol {
	var out []Symbol
	for _, name := range s.symbols.names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, sym := range s.symbols.byName[name] {
			if sym.Matches(kinds) {
				out = append(out, sym)
				break
			}
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func compilePattern(pattern string) func(string) bool {
	if pattern == "" {
		return func(string) bool { return true }
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(name string) bool { return strings.Contains(name, pattern) }
	}
	return re.MatchString
}

// ---------- Rename ----------

// RenamePlan is everything needed to rename one identifier.
type RenamePlan struct {
	Definition Symbol      `json:"definition"`
	Sites      []FileRange `json:"sites"`
}

// Rename collects the definition and reference sites of targetID.
//
// Sites whose identifier position was reported by the parser use that exact
// span. Otherwise the span starts prefixLen columns after the reference start
// (the length of whatever syntax precedes the bare name, "var." for
// variables) and covers the definition's name.
func (s *Snapshot) Rename(targetID string, prefixLen int) (RenamePlan, bool) {
	def, ok := s.refs.targets[targetID]
	if !ok {
		syms := s.symbols.byName[targetID]
		if len(syms) == 0 {
			return RenamePlan{}, false
		}
		def = syms[0]
	}

	nameLen := utf8.RuneCountInString(def.Name)
	sites := s.refs.sites[targetID]
	plan := RenamePlan{
		Definition: def,
		Sites:      make([]FileRange, 0, len(sites)),
	}
	for _, rr := range sites {
		r := rr.Identifier
		if !rr.HasIdentifier {
			r = rr.Source.Range.Shift(prefixLen, nameLen)
		}
		plan.Sites = append(plan.Sites, FileRange{File: rr.Source.File, Range: r})
	}
	return plan, true
}

// ---------- Files, diagnostics, stats ----------

// Files returns the indexed files in sorted order.
func (s *Snapshot) Files() []string {
	return slices.Clone(s.files)
}

// Has reports whether file is indexed.
func (s *Snapshot) Has(file string) bool {
	_, ok := slices.BinarySearch(s.files, file)
	return ok
}

// Diagnostics returns the diagnostics of file from this rebuild.
func (s *Snapshot) Diagnostics(file string) []Diagnostic {
	d := s.refs.diagnostics[file]
	if len(d) == 0 {
		return []Diagnostic{}
	}
	return slices.Clone(d)
}

// Stats returns counts of files, symbols, resolved references and
// diagnostics.
func (s *Snapshot) Stats() Stats {
	diags := 0
	for _, d := range s.refs.diagnostics {
		diags += len(d)
	}
	return Stats{
		FileCount:       len(s.files),
		SymbolCount:     s.symbols.count,
		ReferenceCount:  s.refs.count,
		DiagnosticCount: diags,
	}
}
