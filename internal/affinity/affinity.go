// Package affinity implements the Affinity Analyzer (spec §4.4): deriving,
// for every system, the archetypes whose component set is a superset of its
// required components, and reciprocally annotating components, archetypes,
// and states with the systems that touch them.
package affinity

import (
	"sort"

	"github.com/emergent-company/ecsgen/internal/model"
)

// Analyze mutates spec in place, filling in every derived back-reference
// field described in spec §4.4, and returns spec for convenience.
func Analyze(spec *model.Spec) *model.Spec {
	archByID := indexArchetypes(spec.Archetypes)
	componentSuperset := make(map[uint32]map[uint32]bool, len(spec.Archetypes))
	for _, a := range spec.Archetypes {
		componentSuperset[a.ID] = toSet(a.ComponentsSorted)
	}

	for _, sys := range spec.Systems {
		required := sys.RequiredComponents()
		sys.Matches = matchingArchetypes(required, spec.Archetypes, componentSuperset)
	}

	annotateComponents(spec)
	annotateArchetypes(spec)
	annotateStates(spec)
	annotateWorlds(spec, archByID)

	return spec
}

func indexArchetypes(archetypes []*model.Archetype) map[uint32]*model.Archetype {
	m := make(map[uint32]*model.Archetype, len(archetypes))
	for _, a := range archetypes {
		m[a.ID] = a
	}
	return m
}

func toSet(ids []uint32) map[uint32]bool {
	m := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// matchingArchetypes returns matches(S) = { A | components(A) ⊇ required },
// ordered by ascending archetype ID.
func matchingArchetypes(required []uint32, archetypes []*model.Archetype, supersets map[uint32]map[uint32]bool) []uint32 {
	var out []uint32
	for _, a := range archetypes {
		set := supersets[a.ID]
		if isSuperset(set, required) {
			out = append(out, a.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func isSuperset(set map[uint32]bool, required []uint32) bool {
	for _, id := range required {
		if !set[id] {
			return false
		}
	}
	return true
}

// annotateComponents fills Component.AffectedArchetypes and AffectedSystems.
func annotateComponents(spec *model.Spec) {
	archByComponent := map[uint32][]uint32{}
	for _, a := range spec.Archetypes {
		for _, cid := range a.ComponentsSorted {
			archByComponent[cid] = append(archByComponent[cid], a.ID)
		}
	}

	sysByComponent := map[uint32][]uint32{}
	for _, s := range spec.Systems {
		for _, cid := range s.RequiredComponents() {
			sysByComponent[cid] = append(sysByComponent[cid], s.ID)
		}
	}

	for _, c := range spec.Components {
		c.AffectedArchetypes = sortedCopy(archByComponent[c.ID])
		c.AffectedSystems = sortedCopy(sysByComponent[c.ID])
	}
}

// annotateArchetypes fills Archetype.AffectedSystems: systems matched to
// this archetype.
func annotateArchetypes(spec *model.Spec) {
	bySystem := map[uint32][]uint32{}
	for _, s := range spec.Systems {
		for _, aid := range s.Matches {
			bySystem[aid] = append(bySystem[aid], s.ID)
		}
	}
	for _, a := range spec.Archetypes {
		a.AffectedSystems = sortedCopy(bySystem[a.ID])
	}
}

// annotateStates fills State.AffectedSystems and AffectedPhases, and
// computes the aggregated max access mode across all six system access
// points plus the two phase access points (write > read > none).
func annotateStates(spec *model.Spec) {
	sysByState := map[uint32][]uint32{}
	for _, s := range spec.Systems {
		for _, use := range s.States {
			sysByState[use.StateID] = append(sysByState[use.StateID], s.ID)
		}
		// lookup components participate in component conflict analysis,
		// not state analysis, so nothing to add here for lookups.
	}

	phaseByState := map[uint32][]uint32{}
	for _, p := range spec.Phases {
		for _, use := range p.StateUses {
			phaseByState[use.StateID] = append(phaseByState[use.StateID], p.ID)
		}
	}

	modeByState := map[uint32]model.AccessMode{}
	for _, s := range spec.Systems {
		for _, use := range s.States {
			m := modeByState[use.StateID]
			for _, p := range []model.AccessPoint{model.Check, model.BeginPhase, model.Preflight, model.SystemPoint, model.Postflight, model.EndPhase} {
				m = model.Max(m, use.ModeAt(p))
			}
			modeByState[use.StateID] = m
		}
	}
	for _, p := range spec.Phases {
		for _, use := range p.StateUses {
			m := modeByState[use.StateID]
			m = model.Max(m, use.BeginPhase)
			m = model.Max(m, use.EndPhase)
			modeByState[use.StateID] = m
		}
	}

	for _, st := range spec.States {
		st.AffectedSystems = sortedCopy(sysByState[st.ID])
		st.AffectedPhases = sortedCopy(phaseByState[st.ID])
		st.AggregatedMode = modeByState[st.ID]
	}
}

// annotateWorlds fills World.SystemIDs: systems whose matched-archetype set
// intersects the world's archetype list. Per spec §4.4, a system not
// matched to any archetype the world contains is excluded from that world's
// view, though its global Matches is unaffected (the same system code may be
// reused across worlds).
func annotateWorlds(spec *model.Spec, archByID map[uint32]*model.Archetype) {
	for _, w := range spec.Worlds {
		worldArchs := toSet(w.ArchetypeIDs)
		var ids []uint32
		for _, s := range spec.Systems {
			if intersects(s.Matches, worldArchs) {
				ids = append(ids, s.ID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		w.SystemIDs = ids
	}
}

func intersects(ids []uint32, set map[uint32]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

func sortedCopy(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := append([]uint32(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return dedupeSorted(out)
}

func dedupeSorted(ids []uint32) []uint32 {
	out := ids[:0]
	var last uint32
	first := true
	for _, id := range ids {
		if first || id != last {
			out = append(out, id)
			last = id
			first = false
		}
	}
	return out
}

// MatchedInWorld reports whether an archetype ID belongs to a world's
// archetype list, used by the scheduler and emission stages to compute a
// per-world view of matches(S).
func MatchedInWorld(w *model.World, archetypeID uint32) bool {
	for _, id := range w.ArchetypeIDs {
		if id == archetypeID {
			return true
		}
	}
	return false
}
