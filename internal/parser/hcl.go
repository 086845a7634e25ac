package parser

import (
	"cmp"
	"context"
	"slices"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/dusk-indust/tfindex/internal/index"
)

// Compile-time assertion: *HCLParser satisfies index.Parser.
var _ index.Parser = (*HCLParser)(nil)

var _ hclsyntax.Walker = (*extraction)(nil)

// scopeRoots are traversal roots that never name a declaration.
var scopeRoots = map[string]bool{
	"local":     true,
	"path":      true,
	"count":     true,
	"each":      true,
	"self":      true,
	"terraform": true,
}

// HCLParser extracts declarations and references from Terraform native
// syntax without any external tool. Results use index.CurrentVersion and
// carry identifier positions for every reference site.
//
// Reference keys follow the Terraform address of the target: bare names for
// variables ("region" for var.region), "module.NAME", "TYPE.NAME" for
// resources, "data.TYPE.NAME" and "provider.NAME[.ALIAS]". The reference Name
// is always the declared name the symbol table is keyed on.
type HCLParser struct{}

// NewHCLParser creates an HCLParser.
func NewHCLParser() *HCLParser {
	return &HCLParser{}
}

// Parse parses text as HCL native syntax. Syntax errors are reported in the
// result, together with whatever could be recovered from the rest of the
// file; Parse itself only fails when ctx is done.
func (p *HCLParser) Parse(ctx context.Context, file string, text []byte) (*index.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &index.FileResult{
		Version:    index.CurrentVersion,
		References: make(map[string]*index.Reference),
	}

	f, diags := hclsyntax.ParseConfig(text, file, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	result.Errors = appendErrors(result.Errors, file, diags)
	if f == nil {
		return result, nil
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return result, nil
	}

	e := &extraction{file: file, result: result, handled: make(map[hclsyntax.Expression]bool)}
	for _, block := range body.Blocks {
		e.declare(block)
	}
	result.Errors = appendErrors(result.Errors, file, hclsyntax.Walk(body, e))
	for _, ref := range result.References {
		sortSites(ref)
	}
	return result, nil
}

// appendErrors converts the error-level entries of diags to parse errors.
func appendErrors(errs []index.ParseError, file string, diags hcl.Diagnostics) []index.ParseError {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		pe := index.ParseError{Message: d.Summary}
		if d.Detail != "" {
			pe.Message += ": " + d.Detail
		}
		if d.Subject != nil {
			pe.Location = location(file, d.Subject.Start)
		}
		errs = append(errs, pe)
	}
	return errs
}

type extraction struct {
	file   string
	result *index.FileResult
	// handled holds expressions already recorded as provider references.
	handled map[hclsyntax.Expression]bool
	// locals are the iterator names in scope at the current walk position.
	locals []localScope
}

// localScope binds iterator names over the part of the source where they
// shadow declarations: the whole of scope except the except range, which
// holds the expression being iterated.
type localScope struct {
	owner  hclsyntax.Node
	names  []string
	scope  hcl.Range
	except hcl.Range
}

// declare records the declaration made by a top-level block and the
// provider references in its meta-arguments.
func (e *extraction) declare(block *hclsyntax.Block) {
	at := location(e.file, block.TypeRange.Start)
	r := e.result

	switch block.Type {
	case "variable":
		if len(block.Labels) == 1 {
			r.Variables = append(r.Variables, index.Section{Name: block.Labels[0], Location: at})
		}
	case "output":
		if len(block.Labels) == 1 {
			r.Outputs = append(r.Outputs, index.Section{Name: block.Labels[0], Location: at})
		}
	case "module":
		if len(block.Labels) == 1 {
			r.Modules = append(r.Modules, index.Section{Name: block.Labels[0], Location: at})
			e.providerMap(block.Body)
		}
	case "provider":
		if len(block.Labels) != 1 {
			return
		}
		name := block.Labels[0]
		if alias, ok := stringAttr(block.Body, "alias"); ok {
			r.Providers = append(r.Providers, index.Section{Name: name + "." + alias, Type: name, Location: at})
		} else {
			r.DefaultProviders = append(r.DefaultProviders, index.Section{Name: name, Type: name, Location: at})
		}
	case "resource", "data":
		if len(block.Labels) != 2 {
			return
		}
		sec := index.Section{Name: block.Labels[1], Type: block.Labels[0], Location: at}
		if block.Type == "resource" {
			r.Resources = append(r.Resources, sec)
		} else {
			r.DataResources = append(r.DataResources, sec)
		}
		if attr, ok := block.Body.Attributes["provider"]; ok {
			e.providerRef(attr.Expr)
		}
	}
}

// providerMap handles the `providers = { aws = aws.west }` argument of a
// module block.
func (e *extraction) providerMap(body *hclsyntax.Body) {
	attr, ok := body.Attributes["providers"]
	if !ok {
		return
	}
	obj, ok := attr.Expr.(*hclsyntax.ObjectConsExpr)
	if !ok {
		return
	}
	for _, item := range obj.Items {
		e.providerRef(item.ValueExpr)
	}
}

func (e *extraction) providerRef(expr hclsyntax.Expression) {
	st, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(st.Traversal) == 0 || len(st.Traversal) > 2 {
		return
	}
	root, ok := st.Traversal[0].(hcl.TraverseRoot)
	if !ok {
		return
	}
	name := root.Name
	if len(st.Traversal) == 2 {
		alias, ok := st.Traversal[1].(hcl.TraverseAttr)
		if !ok {
			return
		}
		name += "." + alias.Name
	}
	e.handled[expr] = true
	start := location(e.file, st.SrcRange.Start)
	e.add("provider."+name, name, index.KindProvider, start, start)
}

// Enter records every scope traversal that names a declaration, and opens
// the iterator scope of for expressions and dynamic blocks.
func (e *extraction) Enter(node hclsyntax.Node) hcl.Diagnostics {
	switch n := node.(type) {
	case *hclsyntax.ForExpr:
		e.locals = append(e.locals, localScope{
			owner:  n,
			names:  []string{n.KeyVar, n.ValVar},
			scope:  n.SrcRange,
			except: n.CollExpr.Range(),
		})
	case *hclsyntax.Block:
		if n.Type != "dynamic" || len(n.Labels) != 1 {
			break
		}
		ls := localScope{owner: n, names: []string{dynamicIterator(n)}, scope: n.Body.SrcRange}
		if attr, ok := n.Body.Attributes["for_each"]; ok {
			ls.except = attr.Expr.Range()
		}
		e.locals = append(e.locals, ls)
	case *hclsyntax.ScopeTraversalExpr:
		e.reference(n)
	}
	return nil
}

// Exit closes the scope opened by node, if any.
func (e *extraction) Exit(node hclsyntax.Node) hcl.Diagnostics {
	if n := len(e.locals); n > 0 && e.locals[n-1].owner == node {
		e.locals = e.locals[:n-1]
	}
	return nil
}

// dynamicIterator returns the name a dynamic block's content uses for the
// current element: the iterator argument when set, the block label otherwise.
func dynamicIterator(block *hclsyntax.Block) string {
	if attr, ok := block.Body.Attributes["iterator"]; ok {
		if t, diags := hcl.AbsTraversalForExpr(attr.Expr); !diags.HasErrors() && len(t) == 1 {
			return t.RootName()
		}
	}
	return block.Labels[0]
}

// local reports whether root names an iterator in scope at offset.
func (e *extraction) local(root string, offset int) bool {
	for _, ls := range e.locals {
		if ls.scope.ContainsOffset(offset) && !ls.except.ContainsOffset(offset) && slices.Contains(ls.names, root) {
			return true
		}
	}
	return false
}

func (e *extraction) reference(st *hclsyntax.ScopeTraversalExpr) {
	if e.handled[st] {
		return
	}
	steps := attrSteps(st.Traversal)
	if len(steps) < 2 {
		return
	}
	root := steps[0].Name
	if scopeRoots[root] || e.local(root, st.SrcRange.Start.Byte) {
		return
	}
	start := location(e.file, st.SrcRange.Start)

	switch root {
	case "var":
		e.add(steps[1].Name, steps[1].Name, index.KindVariable, start, e.identifier(steps[1]))
	case "module":
		e.add("module."+steps[1].Name, steps[1].Name, index.KindModule, start, e.identifier(steps[1]))
	case "data":
		if len(steps) < 3 {
			return
		}
		id := "data." + steps[1].Name + "." + steps[2].Name
		e.add(id, steps[2].Name, index.KindData, start, e.identifier(steps[2]))
	default:
		e.add(root+"."+steps[1].Name, steps[1].Name, index.KindResource, start, e.identifier(steps[1]))
	}
}

func (e *extraction) add(id, name string, kind index.SymbolKind, site, ident index.Location) {
	ref, ok := e.result.References[id]
	if !ok {
		ref = &index.Reference{Name: name, Type: string(kind)}
		e.result.References[id] = ref
	}
	ref.Locations = append(ref.Locations, site)
	ref.Identifiers = append(ref.Identifiers, ident)
}

// identifier returns where the bare name of step starts. The step's range
// includes the leading dot, so the start is measured back from its end.
func (e *extraction) identifier(s step) index.Location {
	end := s.Range.End
	return location(e.file, hcl.Pos{
		Line:   end.Line,
		Column: end.Column - utf8.RuneCountInString(s.Name),
		Byte:   end.Byte - len(s.Name),
	})
}

// sortSites orders the sites of ref by position. Attributes within a block
// are walked in map order, so the raw order is not stable.
func sortSites(ref *index.Reference) {
	type site struct{ at, ident index.Location }
	sites := make([]site, len(ref.Locations))
	for i := range ref.Locations {
		sites[i] = site{ref.Locations[i], ref.Identifiers[i]}
	}
	slices.SortFunc(sites, func(a, b site) int {
		return cmp.Or(cmp.Compare(a.at.Line, b.at.Line), cmp.Compare(a.at.Column, b.at.Column))
	})
	for i, s := range sites {
		ref.Locations[i], ref.Identifiers[i] = s.at, s.ident
	}
}

type step struct {
	Name  string
	Range hcl.Range
}

// attrSteps returns the leading root and attribute steps of t, stopping at
// the first index or splat step.
func attrSteps(t hcl.Traversal) []step {
	var out []step
	for _, tr := range t {
		switch s := tr.(type) {
		case hcl.TraverseRoot:
			out = append(out, step{Name: s.Name, Range: s.SrcRange})
		case hcl.TraverseAttr:
			out = append(out, step{Name: s.Name, Range: s.SrcRange})
		default:
			return out
		}
	}
	return out
}

// stringAttr returns the value of a literal string attribute.
func stringAttr(body *hclsyntax.Body, name string) (string, bool) {
	attr, ok := body.Attributes[name]
	if !ok {
		return "", false
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}

func location(file string, pos hcl.Pos) index.Location {
	return index.Location{
		Filename: file,
		Offset:   pos.Byte,
		Line:     pos.Line,
		Column:   pos.Column,
	}
}
