package graph

import "slices"

// neighborFunc lists the files one DEPENDS_ON hop away from a file, sorted.
type neighborFunc func(file string) ([]string, error)

// walkDependencies walks breadth first from file, at most maxDepth hops, and
// returns the first path found to every reachable file. Both stores use it
// so their answers agree.
func walkDependencies(file string, maxDepth int, next neighborFunc) ([]DependencyChain, error) {
	var chains []DependencyChain
	seen := map[string]bool{file: true}
	level := [][]string{{file}}
	for depth := 1; depth <= maxDepth && len(level) > 0; depth++ {
		var frontier [][]string
		for _, p := range level {
			nbs, err := next(p[len(p)-1])
			if err != nil {
				return nil, err
			}
			for _, nb := range nbs {
				if seen[nb] {
					continue
				}
				seen[nb] = true
				nodes := append(slices.Clip(p), nb)
				chains = append(chains, DependencyChain{Nodes: nodes, Depth: depth})
				frontier = append(frontier, nodes)
			}
		}
		level = frontier
	}
	return chains, nil
}

// assessImpact collects the dependents of changed, directly and through other
// files, given a function listing the direct dependents of a file. Changed
// files are never reported. The risk score is the affected share of
// totalFiles.
func assessImpact(changed []string, totalFiles int, dependents neighborFunc) (*ImpactResult, error) {
	isChanged := make(map[string]bool, len(changed))
	for _, f := range changed {
		isChanged[f] = true
	}

	direct := make(map[string]struct{})
	affected := make(map[string]struct{})
	var queue []string
	visit := func(f string, first bool) error {
		deps, err := dependents(f)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if isChanged[d] {
				continue
			}
			if first {
				direct[d] = struct{}{}
			}
			if _, ok := affected[d]; !ok {
				affected[d] = struct{}{}
				queue = append(queue, d)
			}
		}
		return nil
	}

	for f := range isChanged {
		if err := visit(f, true); err != nil {
			return nil, err
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if err := visit(f, false); err != nil {
			return nil, err
		}
	}

	res := &ImpactResult{
		DirectlyAffected:     sortedSet(direct),
		TransitivelyAffected: sortedSet(affected),
	}
	if totalFiles > 0 {
		res.RiskScore = float64(len(affected)) / float64(totalFiles)
	}
	return res, nil
}

// sortedSet returns the members of s in order, never nil.
func sortedSet(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
