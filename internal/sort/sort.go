// Package sort implements the dependency-ordered topological sort that
// turns the differ's flat, unordered []change.Change into a safe execution
// sequence (spec §4.4). Nothing in the teacher repo builds a real
// dependency graph — ptah applies changes in a fixed method-call order —
// so this package is grounded directly on the algorithm spec §4.4
// describes: Kahn's algorithm over strong producer/consumer/dropper edges,
// with kind/operation/stable_id used only to break ties deterministically,
// never to build the graph itself.
package sort

import (
	gosort "sort"
	"strings"

	"github.com/pgschemadiff/pgschemadiff/internal/catalog"
	"github.com/pgschemadiff/pgschemadiff/internal/change"
	"github.com/pgschemadiff/pgschemadiff/internal/pgerr"
)

// Sort orders changes so that every stable_id a change requires already
// exists by the time it runs, and nothing is dropped while another change
// still requires it. startingCatalog is main's snapshot: a requirement
// already satisfied there needs no producer edge (spec §4.4 rule 1).
func Sort(changes []*change.Change, startingCatalog *catalog.Catalog) ([]*change.Change, error) {
	n := len(changes)
	creators := map[string][]int{}
	droppers := map[string][]int{}
	requirers := map[string][]int{}

	for i, c := range changes {
		for _, id := range c.CreatesIDs {
			creators[id] = append(creators[id], i)
		}
		for _, id := range c.DropsIDs {
			droppers[id] = append(droppers[id], i)
		}
		for _, id := range c.RequiresIDs {
			requirers[id] = append(requirers[id], i)
		}
	}

	adj := make([][]int, n)
	indeg := make([]int, n)
	addEdge := func(from, to int) {
		if from == to {
			return
		}
		adj[from] = append(adj[from], to)
		indeg[to]++
	}

	for id, reqIdx := range requirers {
		if creatorIdx, ok := creators[id]; ok {
			for _, c := range creatorIdx {
				for _, r := range reqIdx {
					addEdge(c, r)
				}
			}
		}
		// If no creator exists in this diff, id was already present before
		// the diff ran (rule 1) or the differ had nothing to create it
		// with; either way there is no producer node to order against, so
		// no edge is added. startingCatalog isn't consulted directly: the
		// absence of a creator is itself sufficient, and a requirement
		// satisfied by neither a creator nor startingCatalog is a
		// DiffInvariantError the differ should have already raised, not
		// something the sort step re-checks.
	}

	// Rule 2 (spec §4.4): "for each change C with d ∈ C.drops, and for
	// each emitted change U with d ∈ U.requires or d ∈ U.drops ... add
	// edge U → C." Both halves of that "or" are real: a plain consumer of
	// d must run before d is dropped, but so must any other change that
	// independently drops the same id (two changes dropping a shared
	// dependency — the "dropping a dependent before its dependency" case).
	for id, dropIdx := range droppers {
		for _, d := range dropIdx {
			for _, u := range requirers[id] {
				addEdge(u, d)
			}
			for _, u := range dropIdx {
				addEdge(u, d)
			}
		}
	}

	rankKey := func(i int) (int, int, string) {
		c := changes[i]
		return catalog.KindRank(c.ObjectType), operationRank(c.Operation), c.StableID
	}
	less := func(a, b int) bool {
		ka, oa, sa := rankKey(a)
		kb, ob, sb := rankKey(b)
		if ka != kb {
			return ka < kb
		}
		if oa != ob {
			return oa < ob
		}
		return sa < sb
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	gosort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })

	order := make([]int, 0, n)
	for len(ready) > 0 {
		idx := ready[0]
		ready = ready[1:]
		order = append(order, idx)

		var newlyReady []int
		for _, to := range adj[idx] {
			indeg[to]--
			if indeg[to] == 0 {
				newlyReady = append(newlyReady, to)
			}
		}
		if len(newlyReady) == 0 {
			continue
		}
		gosort.Slice(newlyReady, func(i, j int) bool { return less(newlyReady[i], newlyReady[j]) })
		ready = mergeSorted(ready, newlyReady, less)
	}

	if len(order) != n {
		return nil, &pgerr.DependencyCycleError{Path: findCycle(changes, adj)}
	}

	out := make([]*change.Change, n)
	for i, idx := range order {
		out[i] = changes[idx]
	}
	return refine(out), nil
}

// refine implements the phase-refinement pass (spec §4.4): a trigger's
// drop+create pair for the same stable_id collapses into one CREATE OR
// REPLACE TRIGGER statement. Views and procedures already decide
// OR-REPLACE eligibility at diff time (a surviving drop+create pair there
// means the differ found the replace structurally ineligible), so only
// triggers -- which this package always diffs as drop+create -- are
// candidates here.
func refine(changes []*change.Change) []*change.Change {
	dropIdx := map[string]int{}
	for i, c := range changes {
		if c.Operation == change.OpDrop && c.Scope == change.ScopeObject && c.ObjectType == catalog.KindTrigger {
			dropIdx[c.StableID] = i
		}
	}

	remove := map[int]bool{}
	for i, c := range changes {
		if c.Operation != change.OpCreate || c.Scope != change.ScopeObject || c.ObjectType != catalog.KindTrigger {
			continue
		}
		di, ok := dropIdx[c.StableID]
		if !ok || remove[di] {
			continue
		}
		sql := strings.Replace(c.SQL, "CREATE TRIGGER", "CREATE OR REPLACE TRIGGER", 1)
		requires := dedupStrings(append(append([]string{}, changes[di].RequiresIDs...), c.RequiresIDs...))
		merged := change.New(change.OpAlter, c.ObjectType, change.ScopeObject, c.StableID).
			WithSQL(sql).WithRequires(requires...)
		merged.ChangedFields = append(merged.ChangedFields, c.ChangedFields...)
		changes[di] = merged
		remove[i] = true
	}

	if len(remove) == 0 {
		return changes
	}
	out := make([]*change.Change, 0, len(changes)-len(remove))
	for i, c := range changes {
		if !remove[i] {
			out = append(out, c)
		}
	}
	return out
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// mergeSorted merges two already-sorted index slices under less, avoiding
// a full re-sort of the ready queue on every pop.
func mergeSorted(a, b []int, less func(i, j int) bool) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if less(a[i], b[j]) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func operationRank(op change.Operation) int {
	switch op {
	case change.OpCreate:
		return 0
	case change.OpAlter:
		return 1
	case change.OpDrop:
		return 2
	default:
		return 3
	}
}

// findCycle runs a coloring DFS over the full graph to report one cycle
// path in stable_id terms once Kahn's algorithm leaves nodes stranded
// (spec §7 DependencyCycleError).
func findCycle(changes []*change.Change, adj [][]int) []string {
	n := len(changes)
	const white, gray, black = 0, 1, 2
	color := make([]int, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}
	cycleStart, cycleEnd := -1, -1

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range adj[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				cycleStart, cycleEnd = v, u
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < n; i++ {
		if color[i] == white {
			if dfs(i) {
				break
			}
		}
	}

	if cycleStart == -1 {
		return nil
	}
	var path []string
	for cur := cycleEnd; cur != cycleStart; cur = parent[cur] {
		path = append([]string{changes[cur].StableID}, path...)
	}
	path = append([]string{changes[cycleStart].StableID}, path...)
	path = append(path, changes[cycleStart].StableID)
	return path
}
