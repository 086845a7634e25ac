package graph

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
)

// ComputeClusters groups files connected through DEPENDS_ON edges, in either
// direction, and stores each group of two or more files as a cluster with
// BELONGS edges from its members.
//
// Clusters are named after the deepest directory shared by their members;
// a repeated name gets a "#N" suffix. They are returned ordered by their
// first member's path. Cohesion is the share of member pairs that are
// directly linked.
func ComputeClusters(ctx context.Context, store Store, files []FileNode) ([]ClusterNode, error) {
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}

	uf := newUnionFind(files)
	type pair struct{ a, b string }
	links := make(map[pair]struct{})
	for _, e := range edges {
		if e.Kind != EdgeKindDependsOn || e.SourceID == e.TargetID || !uf.has(e.SourceID) || !uf.has(e.TargetID) {
			continue
		}
		uf.union(e.SourceID, e.TargetID)
		a, b := e.SourceID, e.TargetID
		if b < a {
			a, b = b, a
		}
		links[pair{a, b}] = struct{}{}
	}

	groups := make(map[string][]string)
	for _, f := range files {
		root := uf.find(f.Path)
		groups[root] = append(groups[root], f.Path)
	}
	var components [][]string
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		slices.Sort(members)
		components = append(components, slices.Compact(members))
	}
	slices.SortFunc(components, func(x, y []string) int { return strings.Compare(x[0], y[0]) })

	used := make(map[string]int)
	clusters := make([]ClusterNode, 0, len(components))
	for _, members := range components {
		name := commonDir(members)
		if used[name]++; used[name] > 1 {
			name = fmt.Sprintf("%s#%d", name, used[name])
		}

		linked := 0
		for p := range links {
			if uf.find(p.a) == uf.find(members[0]) {
				linked++
			}
		}
		n := len(members)
		c := ClusterNode{
			Name:          name,
			CohesionScore: float64(linked) / float64(n*(n-1)/2),
			Members:       members,
		}

		if err := store.AddCluster(ctx, c); err != nil {
			return nil, err
		}
		for _, m := range members {
			if err := store.AddEdge(ctx, Edge{SourceID: m, TargetID: name, Kind: EdgeKindBelongs}); err != nil {
				return nil, err
			}
		}
		clusters = append(clusters, c)
	}
	return clusters, nil
}

// unionFind is a disjoint set over file paths.
type unionFind struct{ parent map[string]string }

func newUnionFind(files []FileNode) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(files))}
	for _, f := range files {
		uf.parent[f.Path] = f.Path
	}
	return uf
}

func (u *unionFind) has(p string) bool {
	_, ok := u.parent[p]
	return ok
}

func (u *unionFind) find(p string) string {
	for u.parent[p] != p {
		u.parent[p] = u.parent[u.parent[p]]
		p = u.parent[p]
	}
	return p
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Keep the smaller path as root so roots are stable.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}

// commonDir returns the deepest directory containing every path, "." when
// the paths share no directory.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	prefix := path.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := path.Dir(p)
		for prefix != "." && dir != prefix && !strings.HasPrefix(dir, prefix+"/") {
			prefix = path.Dir(prefix)
		}
	}
	return prefix
}
