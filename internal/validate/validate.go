// Package validate implements the Validator/Normalizer (spec §4.3): it
// assigns stable IDs, resolves every cross-reference, normalizes state-uses,
// and rejects malformed input per the error kinds in spec §7.
//
// The package is structured as one normalize step per entity kind, run by a
// single entry point (Normalize) in a fixed order: components, states,
// phases, archetypes, systems, worlds, then the run_after cycle check.
package validate

import (
	"fmt"

	"github.com/emergent-company/ecsgen/internal/model"
	"github.com/emergent-company/ecsgen/internal/shape"
	"github.com/emergent-company/ecsgen/internal/specfile"
)

// Kind names, used in DuplicateName/UnknownReference errors.
const (
	KindComponent = "component"
	KindState     = "state"
	KindArchetype = "archetype"
	KindPhase     = "phase"
	KindSystem    = "system"
	KindWorld     = "world"
)

// index resolves a declared name to its assigned ID within one kind, and
// detects duplicates. Modeled on the teacher's internal/emergent.NodeIndex
// dual-ID lookup map (idmap.go), adapted here from "graph node ID or
// canonical ID" to "declared spec name".
type index struct {
	kind  string
	byName map[string]uint32
}

func newIndex(kind string) *index {
	return &index{kind: kind, byName: make(map[string]uint32)}
}

func (x *index) declare(name string, id uint32) error {
	if _, exists := x.byName[name]; exists {
		return &model.DuplicateName{Kind: x.kind, Name: name}
	}
	x.byName[name] = id
	return nil
}

func (x *index) resolve(name string) (uint32, error) {
	id, ok := x.byName[name]
	if !ok {
		return 0, &model.UnknownReference{Kind: x.kind, Name: name}
	}
	return id, nil
}

// Normalize runs the full Validator/Normalizer stage over a raw spec loaded
// by specfile.Load, producing a model.Spec with every ID assigned and every
// reference resolved, or the first error encountered.
func Normalize(raw *specfile.RawSpec) (*model.Spec, error) {
	n := &normalizer{raw: raw}
	return n.run()
}

type normalizer struct {
	raw *specfile.RawSpec

	components *index
	states     *index
	archetypes *index
	phases     *index
	systems    *index
	worlds     *index

	spec *model.Spec
}

func (n *normalizer) run() (*model.Spec, error) {
	n.components = newIndex(KindComponent)
	n.states = newIndex(KindState)
	n.archetypes = newIndex(KindArchetype)
	n.phases = newIndex(KindPhase)
	n.systems = newIndex(KindSystem)
	n.worlds = newIndex(KindWorld)

	n.spec = &model.Spec{AllowUnsafe: n.raw.AllowUnsafe}

	if err := n.normalizeComponents(); err != nil {
		return nil, err
	}
	if err := n.normalizeStates(); err != nil {
		return nil, err
	}
	if err := n.normalizePhases(); err != nil {
		return nil, err
	}
	if err := n.normalizeArchetypes(); err != nil {
		return nil, err
	}
	if err := n.normalizeSystems(); err != nil {
		return nil, err
	}
	if err := n.normalizeWorlds(); err != nil {
		return nil, err
	}
	if err := n.checkRunAfterCycles(); err != nil {
		return nil, err
	}

	return n.spec, nil
}

func (n *normalizer) normalizeComponents() error {
	for i, rc := range n.raw.Components {
		id := uint32(i + 1)
		name, err := shape.Shape(rc.Name)
		if err != nil {
			return err
		}
		if err := n.components.declare(rc.Name, id); err != nil {
			return err
		}
		n.spec.Components = append(n.spec.Components, &model.Component{
			ID:          id,
			Name:        name,
			Description: rc.Description,
			Pos:         rc.Pos,
		})
	}
	return nil
}

func (n *normalizer) normalizeStates() error {
	for i, rs := range n.raw.States {
		id := uint32(i + 1)
		name, err := shape.Shape(rs.Name)
		if err != nil {
			return err
		}
		if err := n.states.declare(rs.Name, id); err != nil {
			return err
		}
		n.spec.States = append(n.spec.States, &model.State{
			ID:          id,
			Name:        name,
			Description: rs.Description,
			Pos:         rs.Pos,
		})
	}
	return nil
}

func (n *normalizer) normalizePhases() error {
	for i, rp := range n.raw.Phases {
		id := uint32(i) // phases are dense, 0-based.
		name, err := shape.Shape(rp.Name)
		if err != nil {
			return err
		}
		if err := n.phases.declare(rp.Name, id); err != nil {
			return err
		}

		var fixed *model.FixedCadence
		if rp.Fixed != "" {
			c, err := specfile.ParseFixedCadence(rp.Fixed)
			if err != nil {
				return err
			}
			fixed = &c
		}

		stateUses, err := n.normalizePhaseStateUses(rp)
		if err != nil {
			return err
		}

		n.spec.Phases = append(n.spec.Phases, &model.Phase{
			ID:          id,
			Name:        name,
			Description: rp.Description,
			Pos:         rp.Pos,
			Fixed:       fixed,
			Manual:      rp.Manual,
			OnRequest:   rp.OnRequest,
			StateUses:   stateUses,
		})
	}
	return nil
}

func (n *normalizer) normalizePhaseStateUses(rp specfile.RawPhase) ([]model.PhaseStateUse, error) {
	var out []model.PhaseStateUse
	for _, ru := range rp.States {
		stateID, err := n.states.resolve(ru.Use)
		if err != nil {
			return nil, err
		}
		begin, err := parseMode(ru.BeginPhase, model.AccessRead)
		if err != nil {
			return nil, err
		}
		end, err := parseMode(ru.EndPhase, model.AccessRead)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PhaseStateUse{
			Use:        ru.Use,
			StateID:    stateID,
			BeginPhase: begin,
			EndPhase:   end,
		})
	}
	return out, nil
}

func (n *normalizer) normalizeArchetypes() error {
	for i, ra := range n.raw.Archetypes {
		id := uint32(i + 1)
		name, err := shape.Shape(ra.Name)
		if err != nil {
			return err
		}
		if err := n.archetypes.declare(ra.Name, id); err != nil {
			return err
		}

		for _, p := range ra.Promotions {
			if p == ra.Name {
				return &model.SelfPromotion{Archetype: ra.Name}
			}
		}

		componentIDs := make([]uint32, 0, len(ra.Components))
		seen := make(map[uint32]bool, len(ra.Components))
		for _, cname := range ra.Components {
			cid, err := n.components.resolve(cname)
			if err != nil {
				return err
			}
			if !seen[cid] {
				seen[cid] = true
				componentIDs = append(componentIDs, cid)
			}
		}
		sorted := append([]uint32(nil), componentIDs...)
		sortUint32(sorted)

		n.spec.Archetypes = append(n.spec.Archetypes, &model.Archetype{
			ID:               id,
			Name:             name,
			Description:      ra.Description,
			Pos:              ra.Pos,
			Components:       componentIDs,
			ComponentsSorted: sorted,
			Promotions:       ra.Promotions,
		})
	}

	// Promotion targets reference archetypes that may be declared later in
	// the file, so resolve them in a second pass.
	for i, ra := range n.raw.Archetypes {
		a := n.spec.Archetypes[i]
		for _, pname := range ra.Promotions {
			pid, err := n.archetypes.resolve(pname)
			if err != nil {
				return err
			}
			a.PromotionIDs = append(a.PromotionIDs, pid)
		}
	}

	n.computePromotionInfos()
	return nil
}

// computePromotionInfos derives, for each archetype's promotion target, the
// component-set difference (ComponentsToAdd) and intersection
// (ComponentsToPass) per spec.md S3.
func (n *normalizer) computePromotionInfos() {
	byID := make(map[uint32]*model.Archetype, len(n.spec.Archetypes))
	for _, a := range n.spec.Archetypes {
		byID[a.ID] = a
	}

	for _, a := range n.spec.Archetypes {
		srcSet := toSet(a.ComponentsSorted)
		for _, pid := range a.PromotionIDs {
			target := byID[pid]
			var toAdd, toPass []uint32
			for _, cid := range target.ComponentsSorted {
				if srcSet[cid] {
					toPass = append(toPass, cid)
				} else {
					toAdd = append(toAdd, cid)
				}
			}
			a.PromotionInfos = append(a.PromotionInfos, model.PromotionInfo{
				TargetID:         pid,
				TargetName:       target.Name.Raw,
				ComponentsToAdd:  toAdd,
				ComponentsToPass: toPass,
			})
		}
	}
}

func (n *normalizer) normalizeSystems() error {
	for i, rsys := range n.raw.Systems {
		id := uint32(i + 1)
		name, err := shape.Shape(rsys.Name)
		if err != nil {
			return err
		}
		if err := n.systems.declare(rsys.Name, id); err != nil {
			return err
		}

		phaseID, err := n.phases.resolve(rsys.Phase)
		if err != nil {
			return &model.UnknownPhase{System: rsys.Name, Phase: rsys.Phase}
		}

		inputIDs, err := n.resolveComponents(rsys.Inputs)
		if err != nil {
			return err
		}
		outputIDs, err := n.resolveComponents(rsys.Outputs)
		if err != nil {
			return err
		}
		if err := checkAliasing(rsys.Name, rsys.Inputs, rsys.Outputs, inputIDs, outputIDs); err != nil {
			return err
		}

		lookupIDs, err := n.resolveComponents(rsys.Lookup)
		if err != nil {
			return err
		}

		states, err := n.normalizeSystemStateUses(rsys)
		if err != nil {
			return err
		}

		sys := &model.System{
			ID:            id,
			Name:          name,
			Description:   rsys.Description,
			Pos:           rsys.Pos,
			PhaseName:     rsys.Phase,
			PhaseID:       phaseID,
			Context:       rsys.Context,
			Manual:        rsys.Manual,
			OnRequest:     rsys.OnRequest,
			Preflight:     rsys.Preflight,
			Postflight:    rsys.Postflight,
			Entities:      rsys.Entities,
			RunAfterNames: rsys.RunAfter,
			LookupNames:   rsys.Lookup,
			LookupIDs:     lookupIDs,
			InputNames:    rsys.Inputs,
			InputIDs:      inputIDs,
			OutputNames:   rsys.Outputs,
			OutputIDs:     outputIDs,
			States:        states,
		}
		sys.NeedsEntities = rsys.Entities
		sys.EmitsCommands = rsys.Entities && len(outputIDs) > 0

		n.spec.Systems = append(n.spec.Systems, sys)
	}

	// run_after references other systems, which may be declared later, so
	// resolve in a second pass.
	for i, rsys := range n.raw.Systems {
		sys := n.spec.Systems[i]
		for _, rname := range rsys.RunAfter {
			rid, err := n.systems.resolve(rname)
			if err != nil {
				return err
			}
			sys.RunAfterIDs = append(sys.RunAfterIDs, rid)
		}
	}

	return nil
}

func (n *normalizer) resolveComponents(names []string) ([]uint32, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ids := make([]uint32, 0, len(names))
	for _, name := range names {
		id, err := n.components.resolve(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func checkAliasing(system string, inputs, outputs []string, inputIDs, outputIDs []uint32) error {
	outSet := make(map[uint32]string, len(outputIDs))
	for i, id := range outputIDs {
		outSet[id] = outputs[i]
	}
	for i, id := range inputIDs {
		if _, ok := outSet[id]; ok {
			return &model.InputOutputAliased{System: system, Component: inputs[i]}
		}
	}
	return nil
}

func (n *normalizer) normalizeSystemStateUses(rsys specfile.RawSystem) ([]model.SystemStateUse, error) {
	var out []model.SystemStateUse
	for _, ru := range rsys.States {
		stateID, err := n.states.resolve(ru.Use)
		if err != nil {
			return nil, err
		}

		def, err := parseMode(ru.Default, model.AccessRead)
		if err != nil {
			return nil, err
		}

		// preflight/postflight only inherit the state-use's `default` when the
		// system actually declares the corresponding flag; otherwise the
		// point is unreachable and must default to none rather than silently
		// inheriting `read` and tripping UnauthorizedAccessPoint on the
		// simplest state-use form (a bare `{use, system}` with no preflight
		// flag).
		resolve := func(point string, authorized bool, pointName string) (model.AccessMode, error) {
			base := def
			if !authorized {
				base = model.AccessNone
			}
			mode, err := parseModeOrDefault(point, base)
			if err != nil {
				return 0, err
			}
			if mode != model.AccessNone && !authorized {
				return 0, &model.UnauthorizedAccessPoint{System: rsys.Name, State: ru.Use, Point: pointName}
			}
			return mode, nil
		}

		check, err := parseModeOrDefault(ru.Check, def)
		if err != nil {
			return nil, err
		}
		begin, err := parseModeOrDefault(ru.BeginPhase, def)
		if err != nil {
			return nil, err
		}
		sysPoint, err := parseModeOrDefault(ru.System, def)
		if err != nil {
			return nil, err
		}
		end, err := parseModeOrDefault(ru.EndPhase, def)
		if err != nil {
			return nil, err
		}
		preflight, err := resolve(ru.Preflight, rsys.Preflight, "preflight")
		if err != nil {
			return nil, err
		}
		postflight, err := resolve(ru.Postflight, rsys.Postflight, "postflight")
		if err != nil {
			return nil, err
		}

		out = append(out, model.SystemStateUse{
			Use:        ru.Use,
			StateID:    stateID,
			Default:    def,
			Check:      check,
			BeginPhase: begin,
			Preflight:  preflight,
			System:     sysPoint,
			Postflight: postflight,
			EndPhase:   end,
		})
	}
	return out, nil
}

func (n *normalizer) normalizeWorlds() error {
	for i, rw := range n.raw.Worlds {
		id := uint32(i + 1)
		name, err := shape.Shape(rw.Name)
		if err != nil {
			return err
		}
		if err := n.worlds.declare(rw.Name, id); err != nil {
			return err
		}

		archIDs := make([]uint32, 0, len(rw.Archetypes))
		for _, aname := range rw.Archetypes {
			aid, err := n.archetypes.resolve(aname)
			if err != nil {
				return err
			}
			archIDs = append(archIDs, aid)
		}

		n.spec.Worlds = append(n.spec.Worlds, &model.World{
			ID:               id,
			Name:             name,
			Pos:              rw.Pos,
			ArchetypeNames:   rw.Archetypes,
			ArchetypeIDs:     archIDs,
			ScheduledSystems: make(map[uint32][][]uint32),
		})
	}
	return nil
}

// checkRunAfterCycles rejects a run_after cycle within any single phase's
// systems (invariant 7), independent of the scheduler's derived-conflict
// cycle check (§4.5), which runs later over the affinity-derived graph.
func (n *normalizer) checkRunAfterCycles() error {
	byPhase := map[uint32][]*model.System{}
	for _, s := range n.spec.Systems {
		byPhase[s.PhaseID] = append(byPhase[s.PhaseID], s)
	}

	for phaseID, systems := range byPhase {
		index := make(map[uint32]int, len(systems))
		for i, s := range systems {
			index[s.ID] = i
		}

		g := model.NewGraph(len(systems))
		for i, s := range systems {
			for _, rid := range s.RunAfterIDs {
				if j, ok := index[rid]; ok {
					// s runs after r, so r -> s.
					g.AddEdge(j, i)
				}
			}
		}

		if cycle := g.Cycle(); cycle != nil {
			phaseName := n.phaseName(phaseID)
			path := make([]string, len(cycle))
			for i, idx := range cycle {
				path[i] = systems[idx].Name.Raw
			}
			return &model.RunAfterCycle{Phase: phaseName, Path: path}
		}
	}
	return nil
}

func (n *normalizer) phaseName(id uint32) string {
	for _, p := range n.spec.Phases {
		if p.ID == id {
			return p.Name.Raw
		}
	}
	return fmt.Sprintf("phase#%d", id)
}

func parseMode(s string, def model.AccessMode) (model.AccessMode, error) {
	switch s {
	case "":
		return def, nil
	case "none":
		return model.AccessNone, nil
	case "read":
		return model.AccessRead, nil
	case "write":
		return model.AccessWrite, nil
	default:
		return 0, fmt.Errorf("invalid access mode %q", s)
	}
}

func parseModeOrDefault(s string, def model.AccessMode) (model.AccessMode, error) {
	if s == "default" || s == "" {
		return def, nil
	}
	return parseMode(s, def)
}

func toSet(ids []uint32) map[uint32]bool {
	m := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func sortUint32(ids []uint32) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
