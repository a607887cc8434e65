// Package model holds the intermediate representation shared by every stage
// of the ecsgen pipeline: the raw model produced by the Spec Loader, the
// derived fields added by the Validator/Normalizer and Affinity Analyzer, and
// the final scheduled form consumed by the Emission Model Assembler.
//
// Entities are created once by the Validator/Normalizer from the Spec
// Loader's raw model and only ever gain fields afterwards — nothing here is mutated once the Emission Model Assembler has
// run.
package model

// AccessMode is how a system or phase hook touches a state at one access
// point.
type AccessMode int

const (
	AccessNone AccessMode = iota
	AccessRead
	AccessWrite
	// AccessDefault is only used while parsing a state-use; it is always
	// resolved to one of the above before validation completes.
	AccessDefault
)

func (m AccessMode) String() string {
	switch m {
	case AccessNone:
		return "none"
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Max returns the stronger of two access modes, write > read > none. Used to
// aggregate a state's usage across a system's six access points.
func Max(a, b AccessMode) AccessMode {
	rank := func(m AccessMode) int {
		switch m {
		case AccessWrite:
			return 2
		case AccessRead:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// AccessPoint names one of the six (system) or two (phase) points at which
// state access can be declared.
type AccessPoint int

const (
	Check AccessPoint = iota
	BeginPhase
	Preflight
	SystemPoint
	Postflight
	EndPhase
)

// Name is the four canonical spellings produced by the Name Shaper (§4.1).
type Name struct {
	Raw    string // CamelCase, as given.
	Type   string // canonical type token; identical to Raw.
	Field  string // single snake_case spelling.
	Fields string // pluralized snake_case spelling, for SoA slices.
}

// Pos is a source location within the spec file, used to make validation
// errors actionable.
type Pos struct {
	Line   int
	Column int
}

// Component is a named, typed piece of per-entity data.
type Component struct {
	ID          uint32
	Name        Name
	Description string
	Pos         Pos

	// Derived by the Affinity Analyzer, sorted ascending by ID.
	AffectedArchetypes []uint32
	AffectedSystems    []uint32
}

// State is a named piece of world-scoped mutable data.
type State struct {
	ID          uint32
	Name        Name
	Description string
	Pos         Pos

	// Derived by the Affinity Analyzer.
	AffectedSystems []uint32
	AffectedPhases  []uint32
	// AggregatedMode is the strongest access mode this state receives across
	// every system access point and every phase hook that touches it
	// (write > read > none).
	AggregatedMode AccessMode
}

// Archetype is a named composition of components.
type Archetype struct {
	ID          uint32
	Name        Name
	Description string
	Pos         Pos

	// Components holds the component IDs in declaration order as given in
	// the spec; ComponentsSorted is the same set in strictly ascending
	// component-ID order, which is the order emission uses (invariant 2).
	Components       []uint32
	ComponentsSorted []uint32

	// Promotions names other archetypes this one can transition into.
	Promotions []string
	// PromotionIDs resolves Promotions to archetype IDs after validation.
	PromotionIDs []uint32
	// PromotionInfos is derived: one entry per promotion target, carrying
	// the component-set difference and intersection (S3).
	PromotionInfos []PromotionInfo

	// AffectedSystems is derived by the Affinity Analyzer: systems whose
	// matched-archetype set includes this archetype.
	AffectedSystems []uint32
}

// PromotionInfo describes the component delta between an archetype and one
// of its promotion targets.
type PromotionInfo struct {
	TargetID         uint32
	TargetName       string
	ComponentsToAdd  []uint32 // in target but not in source, ascending.
	ComponentsToPass []uint32 // in both, ascending (carried over unchanged).
}

// FixedCadence is a parsed fixed-timestep period, convertible between Hz and
// seconds.
type FixedCadence struct {
	PeriodSeconds float64
}

// Hz returns the cadence expressed in hertz.
func (f FixedCadence) Hz() float64 {
	if f.PeriodSeconds <= 0 {
		return 0
	}
	return 1 / f.PeriodSeconds
}

// PhaseStateUse is a phase-level state access declaration.
type PhaseStateUse struct {
	Use        string
	StateID    uint32
	BeginPhase AccessMode
	EndPhase   AccessMode
}

// Phase is a named execution slot in a frame.
type Phase struct {
	ID          uint32 // dense, 0-based; governs cross-phase ordering.
	Name        Name
	Description string
	Pos         Pos

	Fixed      *FixedCadence
	Manual     bool
	OnRequest  bool
	StateUses  []PhaseStateUse
}

// SystemStateUse is a system-level state access declaration, normalized so
// every access point holds a concrete (non-default) mode.
type SystemStateUse struct {
	Use     string
	StateID uint32
	Default AccessMode

	Check      AccessMode
	BeginPhase AccessMode
	Preflight  AccessMode
	System     AccessMode
	Postflight AccessMode
	EndPhase   AccessMode
}

// ModeAt returns the normalized mode at the given access point.
func (u SystemStateUse) ModeAt(p AccessPoint) AccessMode {
	switch p {
	case Check:
		return u.Check
	case BeginPhase:
		return u.BeginPhase
	case Preflight:
		return u.Preflight
	case SystemPoint:
		return u.System
	case Postflight:
		return u.Postflight
	case EndPhase:
		return u.EndPhase
	default:
		return AccessNone
	}
}

// System is a unit of behavior scheduled within a phase.
type System struct {
	ID          uint32
	Name        Name
	Description string
	Pos         Pos

	PhaseName string
	PhaseID   uint32

	Context    bool
	Manual     bool
	OnRequest  bool
	Preflight  bool
	Postflight bool
	Entities   bool

	RunAfterNames []string
	RunAfterIDs   []uint32

	LookupNames []string
	LookupIDs   []uint32

	InputNames  []string
	InputIDs    []uint32
	OutputNames []string
	OutputIDs   []uint32

	States []SystemStateUse

	// Derived by the Affinity Analyzer: archetypes whose component set is a
	// superset of InputIDs ∪ OutputIDs, ascending by archetype ID.
	Matches []uint32

	// Derived: whether this system requires entity IDs (set from the
	// Entities flag).
	NeedsEntities bool
	// Derived: whether this system emits spawn/despawn commands (§9 command
	// queue plumbing — a pure derived flag, no transport implemented here).
	EmitsCommands bool
}

// RequiredComponents returns InputIDs ∪ OutputIDs, the signature used by the
// Affinity Analyzer (R(S) in spec.md §4.4).
func (s *System) RequiredComponents() []uint32 {
	seen := make(map[uint32]struct{}, len(s.InputIDs)+len(s.OutputIDs))
	out := make([]uint32, 0, len(s.InputIDs)+len(s.OutputIDs))
	for _, ids := range [][]uint32{s.InputIDs, s.OutputIDs} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// World is a universe of archetypes with its own scheduling plan.
type World struct {
	ID          uint32
	Name        Name
	Pos         Pos

	ArchetypeNames []string
	ArchetypeIDs   []uint32

	// Derived: systems whose matched-archetype set intersects this world.
	SystemIDs []uint32

	// Derived by the Phase Scheduler: phase ID -> ordered groups of system
	// IDs for this world.
	ScheduledSystems map[uint32][][]uint32
}

// Spec is the fully validated, scheduled intermediate model: the single
// value the Emission Model Assembler flattens for template expansion.
type Spec struct {
	AllowUnsafe bool

	Components []*Component
	States     []*State
	Archetypes []*Archetype
	Phases     []*Phase
	Systems    []*System
	Worlds     []*World
}
