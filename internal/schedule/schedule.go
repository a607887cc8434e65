// Package schedule implements the Phase Scheduler (spec §4.5): for every
// world and phase, it partitions the participating systems into an ordered
// sequence of groups such that within a group concurrent execution is safe,
// and between groups ordering is strict.
package schedule

import (
	"sort"

	"github.com/emergent-company/ecsgen/internal/affinity"
	"github.com/emergent-company/ecsgen/internal/model"
)

// Schedule fills in World.ScheduledSystems for every world/phase pair and
// returns spec for convenience. The spec must already have been through
// affinity.Analyze.
func Schedule(spec *model.Spec) (*model.Spec, error) {
	phasesByID := make(map[uint32]*model.Phase, len(spec.Phases))
	for _, p := range spec.Phases {
		phasesByID[p.ID] = p
	}

	systemsByID := make(map[uint32]*model.System, len(spec.Systems))
	for _, s := range spec.Systems {
		systemsByID[s.ID] = s
	}

	for _, w := range spec.Worlds {
		for _, phase := range spec.Phases {
			groups, err := scheduleOne(w, phase, spec.Systems, systemsByID)
			if err != nil {
				return nil, err
			}
			if groups != nil {
				w.ScheduledSystems[phase.ID] = groups
			}
		}
	}

	return spec, nil
}

// scheduleOne computes the ordered groups for one (world, phase) pair. Σ is
// the set of systems in this phase whose matches(S), restricted to this
// world's archetypes, is non-empty.
func scheduleOne(w *model.World, phase *model.Phase, allSystems []*model.System, systemsByID map[uint32]*model.System) ([][]uint32, error) {
	var sigma []*model.System
	for _, s := range allSystems {
		if s.PhaseID != phase.ID {
			continue
		}
		if matchesWorld(s, w) {
			sigma = append(sigma, s)
		}
	}
	if len(sigma) == 0 {
		return nil, nil
	}

	sort.Slice(sigma, func(i, j int) bool { return sigma[i].ID < sigma[j].ID })

	index := make(map[uint32]int, len(sigma))
	for i, s := range sigma {
		index[s.ID] = i
	}

	g := model.NewGraph(len(sigma))

	// Explicit run_after: if B run_after A, A must precede B -> edge A -> B.
	for i, s := range sigma {
		for _, rid := range s.RunAfterIDs {
			if j, ok := index[rid]; ok {
				g.AddEdge(j, i)
			}
		}
	}

	addConflictEdges(g, sigma, index)

	if cycle := g.Cycle(); cycle != nil {
		path := make([]string, len(cycle))
		for i, idx := range cycle {
			path[i] = sigma[idx].Name.Raw
		}
		return nil, &model.ScheduleCycle{Phase: phase.Name.Raw, Path: path}
	}

	depths := g.LongestPathDepths()
	maxDepth := 0
	for _, d := range depths {
		if d > maxDepth {
			maxDepth = d
		}
	}

	groups := make([][]uint32, maxDepth+1)
	for i, s := range sigma {
		d := depths[i]
		groups[d] = append(groups[d], s.ID)
	}
	for _, grp := range groups {
		sort.Slice(grp, func(i, j int) bool { return grp[i] < grp[j] })
	}

	return groups, nil
}

// matchesWorld reports whether system s participates in world w: its global
// matches(S) set intersects the world's archetype list.
func matchesWorld(s *model.System, w *model.World) bool {
	for _, aid := range s.Matches {
		if affinity.MatchedInWorld(w, aid) {
			return true
		}
	}
	return false
}

// addConflictEdges adds an edge for every individual component/state
// conflict between every pair of systems in sigma, with the writer ordered
// strictly before the reader/other writer. This resolves Open Question (a)
// from spec §9: with no explicit run_after between a conflicting pair, the
// writer goes first, ties broken by ascending system ID.
//
// A pair of systems can conflict in more than one, oppositely-directed way
// at once (A writes C1 and C2, B reads C1 but writes C2: C1 wants A before
// B, C2's write/write tie wants whichever has the lower ID first). Every
// such conflict gets its own edge instead of the first one found winning —
// map iteration order is randomized, so picking only the first conflict
// made the resulting order (and whether a cycle was reported at all)
// nondeterministic across runs. Graph.Cycle() is the single place that
// decides whether the resulting edge set is satisfiable.
func addConflictEdges(g *model.Graph, sigma []*model.System, index map[uint32]int) {
	for i := 0; i < len(sigma); i++ {
		for j := i + 1; j < len(sigma); j++ {
			a, b := sigma[i], sigma[j]
			addComponentConflictEdges(g, a, b, i, j)
			addStateConflictEdges(g, a, b, i, j)
		}
	}
}

// addComponentConflictEdges adds one edge per component that both a and b
// access (with intersecting archetype sets) where at least one of them
// writes it. A lookup component counts as a read of that component and
// orders its writer first regardless of archetype sets, since lookups are
// random-access and do not constrain matches(S).
func addComponentConflictEdges(g *model.Graph, a, b *model.System, i, j int) {
	aWrites := toSet(a.OutputIDs)
	bWrites := toSet(b.OutputIDs)

	for _, cid := range a.LookupIDs {
		if bWrites[cid] {
			g.AddEdge(j, i)
		}
	}
	for _, cid := range b.LookupIDs {
		if aWrites[cid] {
			g.AddEdge(i, j)
		}
	}

	if !archetypeSetsIntersect(a.Matches, b.Matches) {
		return
	}

	aReads := toSet(a.InputIDs)
	bReads := toSet(b.InputIDs)

	for _, cid := range sortedIDs(unionKeys(aWrites, bWrites)) {
		switch {
		case aWrites[cid] && bWrites[cid]:
			addOrderedEdge(g, a, b, i, j)
		case aWrites[cid] && bReads[cid]:
			g.AddEdge(i, j)
		case bWrites[cid] && aReads[cid]:
			g.AddEdge(j, i)
		}
	}
}

// addStateConflictEdges adds one edge per state both a and b use at the
// `system` access point where at least one of them writes it.
func addStateConflictEdges(g *model.Graph, a, b *model.System, i, j int) {
	aUses := indexStateUses(a)
	bUses := indexStateUses(b)

	for _, sid := range sortedIDs(unionModeKeys(aUses, bUses)) {
		aMode, aOK := aUses[sid]
		bMode, bOK := bUses[sid]
		if !aOK || !bOK {
			continue
		}
		if aMode != model.AccessWrite && bMode != model.AccessWrite {
			continue // read/read is not a conflict.
		}
		switch {
		case aMode == model.AccessWrite && bMode == model.AccessWrite:
			addOrderedEdge(g, a, b, i, j)
		case aMode == model.AccessWrite:
			g.AddEdge(i, j)
		default:
			g.AddEdge(j, i)
		}
	}
}

// addOrderedEdge breaks a write/write tie by ascending system ID.
func addOrderedEdge(g *model.Graph, a, b *model.System, i, j int) {
	if a.ID < b.ID {
		g.AddEdge(i, j)
	} else {
		g.AddEdge(j, i)
	}
}

func unionKeys(a, b map[uint32]bool) map[uint32]bool {
	u := make(map[uint32]bool, len(a)+len(b))
	for k := range a {
		u[k] = true
	}
	for k := range b {
		u[k] = true
	}
	return u
}

func unionModeKeys(a, b map[uint32]model.AccessMode) map[uint32]bool {
	u := make(map[uint32]bool, len(a)+len(b))
	for k := range a {
		u[k] = true
	}
	for k := range b {
		u[k] = true
	}
	return u
}

func sortedIDs(set map[uint32]bool) []uint32 {
	ids := make([]uint32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func indexStateUses(s *model.System) map[uint32]model.AccessMode {
	m := make(map[uint32]model.AccessMode, len(s.States))
	for _, u := range s.States {
		m[u.StateID] = u.ModeAt(model.SystemPoint)
	}
	return m
}

func archetypeSetsIntersect(a, b []uint32) bool {
	set := toSet(a)
	for _, id := range b {
		if set[id] {
			return true
		}
	}
	return false
}

func toSet(ids []uint32) map[uint32]bool {
	m := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
