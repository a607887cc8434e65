// Package emission implements the Emission Model Assembler (spec §4.6): it
// flattens the validated, scheduled model into a single structured value
// ready for template expansion, computing the auxiliary strings templates
// need (iterator zips, tuple destructuring shapes, component-ID arrays).
package emission

import (
	"fmt"

	"github.com/emergent-company/ecsgen/internal/model"
)

// ZipShape is a target-language-neutral description of how a system's
// input/output/entity/state slices are zipped for the generated apply_many
// loop: the arity and the ordered list of names.
type ZipShape struct {
	Names []string
}

// Arity returns len(Names).
func (z ZipShape) Arity() int { return len(z.Names) }

// SystemEmission is the per-system auxiliary data the template set needs
// beyond the raw model.System.
type SystemEmission struct {
	*model.System

	Zip           ZipShape
	Destructure   []string // loop variable names, parallel to Zip.Names.
	EmitsCommands bool
	CommandPort   *CommandPort
}

// CommandPort describes the plumbing call a system makes into the external
// command queue (spec §9): the core only decides whether the call exists,
// not how it is transported.
type CommandPort struct {
	System    string
	Operation string // "spawn" or "spawn_despawn".
}

// ArchetypeEmission carries the sorted component-ID array every archetype
// template needs (invariant 2/property 3).
type ArchetypeEmission struct {
	*model.Archetype

	ComponentIDArray []uint32
}

// WorldEmission carries the scheduled group lists, keyed by phase ID, ready
// for direct iteration by a template (phases are already in ID order in
// Phases below).
//
// Phases are split by dispatch kind (spec §4.2/§5, scenario S4): AutoPhases
// run every frame in ID order; ManualPhases are never invoked by the
// generated driver and surface as a manual-invocation entry point instead;
// OnRequestPhases run at most once per frame, gated by an externally-set
// latch that the invocation clears atomically.
type WorldEmission struct {
	*model.World

	Phases          []PhaseGroups
	AutoPhases      []PhaseGroups
	ManualPhases    []PhaseGroups
	OnRequestPhases []PhaseGroups
}

// PhaseGroups pairs a phase with its ordered list of groups for one world.
type PhaseGroups struct {
	*model.Phase

	Groups [][]uint32
}

// Model is the single structured value the Driver hands to the template
// engine.
type Model struct {
	AllowUnsafe bool

	Components []*model.Component
	States     []*model.State
	Archetypes []*ArchetypeEmission
	Phases     []*model.Phase
	Systems    []*SystemEmission
	Worlds     []*WorldEmission
}

// Assemble builds the emission Model from a validated, scheduled spec.
func Assemble(spec *model.Spec) *Model {
	archetypes := make([]*ArchetypeEmission, len(spec.Archetypes))
	for i, a := range spec.Archetypes {
		archetypes[i] = &ArchetypeEmission{
			Archetype:        a,
			ComponentIDArray: a.ComponentsSorted,
		}
	}

	componentByID := make(map[uint32]*model.Component, len(spec.Components))
	for _, c := range spec.Components {
		componentByID[c.ID] = c
	}

	systems := make([]*SystemEmission, len(spec.Systems))
	for i, s := range spec.Systems {
		systems[i] = assembleSystem(s, componentByID)
	}

	phasesByID := make(map[uint32]*model.Phase, len(spec.Phases))
	for _, p := range spec.Phases {
		phasesByID[p.ID] = p
	}

	worlds := make([]*WorldEmission, len(spec.Worlds))
	for i, w := range spec.Worlds {
		worlds[i] = assembleWorld(w, spec.Phases, phasesByID)
	}

	return &Model{
		AllowUnsafe: spec.AllowUnsafe,
		Components:  spec.Components,
		States:      spec.States,
		Archetypes:  archetypes,
		Phases:      spec.Phases,
		Systems:     systems,
		Worlds:      worlds,
	}
}

// assembleSystem computes the iterator zip and tuple destructuring shapes
// for one system: named slices for entities (if needed), each input, each
// output, and each state reference used at the `system` access point.
func assembleSystem(s *model.System, componentByID map[uint32]*model.Component) *SystemEmission {
	var names, vars []string

	if s.NeedsEntities {
		names = append(names, "entities")
		vars = append(vars, "entity")
	}

	for _, cid := range s.InputIDs {
		c := componentByID[cid]
		names = append(names, c.Name.Fields)
		vars = append(vars, c.Name.Field)
	}
	for _, cid := range s.OutputIDs {
		c := componentByID[cid]
		names = append(names, c.Name.Fields+"_mut")
		vars = append(vars, c.Name.Field)
	}
	for _, use := range s.States {
		if use.ModeAt(model.SystemPoint) == model.AccessNone {
			continue
		}
		names = append(names, "state_"+use.Use)
		vars = append(vars, use.Use)
	}

	se := &SystemEmission{
		System:        s,
		Zip:           ZipShape{Names: names},
		Destructure:   vars,
		EmitsCommands: s.EmitsCommands,
	}

	if s.EmitsCommands {
		se.CommandPort = &CommandPort{
			System:    s.Name.Raw,
			Operation: commandOperation(s),
		}
	}

	return se
}

// commandOperation picks a plumbing-call label for the command queue port.
// The core never implements the queue itself (spec §9); this only decides
// which call shape the template set should emit.
func commandOperation(s *model.System) string {
	if len(s.OutputIDs) > 0 && s.NeedsEntities {
		return "spawn_despawn"
	}
	return "spawn"
}

func assembleWorld(w *model.World, allPhases []*model.Phase, phasesByID map[uint32]*model.Phase) *WorldEmission {
	we := &WorldEmission{World: w}

	for _, p := range allPhases {
		// A phase with no systems matching this world still gets a phase
		// entry (possibly with zero groups): manual/on-request phases in
		// particular may exist purely for their begin_phase/end_phase state
		// brackets, with no system dispatch of their own (S4).
		groups := w.ScheduledSystems[p.ID]
		pg := PhaseGroups{Phase: p, Groups: groups}
		we.Phases = append(we.Phases, pg)

		switch {
		case p.Manual:
			we.ManualPhases = append(we.ManualPhases, pg)
		case p.OnRequest:
			we.OnRequestPhases = append(we.OnRequestPhases, pg)
		default:
			we.AutoPhases = append(we.AutoPhases, pg)
		}
	}

	return we
}

// ComponentIDArrayString renders a component-ID array as a Go-style literal,
// for templates that want a ready-made snippet rather than iterating the
// slice themselves.
func ComponentIDArrayString(ids []uint32) string {
	s := "["
	for i, id := range ids {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", id)
	}
	return s + "]"
}
