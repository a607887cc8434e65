package schedule

import (
	"testing"

	"github.com/emergent-company/ecsgen/internal/affinity"
	"github.com/emergent-company/ecsgen/internal/model"
	"github.com/emergent-company/ecsgen/internal/specfile"
	"github.com/emergent-company/ecsgen/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, yamlSpec string) *model.Spec {
	t.Helper()
	raw, err := specfile.Load([]byte(yamlSpec))
	require.NoError(t, err)
	spec, err := validate.Normalize(raw)
	require.NoError(t, err)
	affinity.Analyze(spec)
	return spec
}

func TestScheduleS1SingleGroup(t *testing.T) {
	spec := build(t, `
components:
  - name: Position
  - name: Velocity
archetypes:
  - name: Particle
    components: [Position, Velocity]
phases:
  - name: FixedUpdate
    fixed: "60Hz"
systems:
  - name: Physics
    phase: FixedUpdate
    inputs: [Velocity]
    outputs: [Position]
worlds:
  - name: Main
    archetypes: [Particle]
`)
	spec, err := Schedule(spec)
	require.NoError(t, err)

	world := spec.Worlds[0]
	phase := spec.Phases[0]
	groups := world.ScheduledSystems[phase.ID]
	require.Len(t, groups, 1)
	assert.Equal(t, []uint32{1}, groups[0])
}

func TestScheduleS2WithRunAfter(t *testing.T) {
	spec := build(t, `
components:
  - name: Position
  - name: Velocity
archetypes:
  - name: Particle
    components: [Position, Velocity]
phases:
  - name: FixedUpdate
systems:
  - name: Damping
    phase: FixedUpdate
    outputs: [Velocity]
  - name: Physics
    phase: FixedUpdate
    inputs: [Velocity]
    outputs: [Position]
    run_after: [Damping]
worlds:
  - name: Main
    archetypes: [Particle]
`)
	spec, err := Schedule(spec)
	require.NoError(t, err)

	world := spec.Worlds[0]
	phase := spec.Phases[0]
	groups := world.ScheduledSystems[phase.ID]
	require.Len(t, groups, 2)
	assert.Equal(t, []uint32{1}, groups[0]) // Damping
	assert.Equal(t, []uint32{2}, groups[1]) // Physics
}

func TestScheduleS2WithoutRunAfterWriterFirst(t *testing.T) {
	spec := build(t, `
components:
  - name: Position
  - name: Velocity
archetypes:
  - name: Particle
    components: [Position, Velocity]
phases:
  - name: FixedUpdate
systems:
  - name: Damping
    phase: FixedUpdate
    outputs: [Velocity]
  - name: Physics
    phase: FixedUpdate
    inputs: [Velocity]
    outputs: [Position]
worlds:
  - name: Main
    archetypes: [Particle]
`)
	spec, err := Schedule(spec)
	require.NoError(t, err)

	world := spec.Worlds[0]
	phase := spec.Phases[0]
	groups := world.ScheduledSystems[phase.ID]
	require.Len(t, groups, 2)
	// Damping writes Velocity, Physics reads Velocity: writer precedes reader.
	assert.Equal(t, []uint32{1}, groups[0])
	assert.Equal(t, []uint32{2}, groups[1])
}

func TestScheduleIndependentSystemsShareGroup(t *testing.T) {
	spec := build(t, `
components:
  - name: Position
  - name: Health
archetypes:
  - name: Particle
    components: [Position, Health]
phases:
  - name: FixedUpdate
systems:
  - name: MovePos
    phase: FixedUpdate
    inputs: []
    outputs: [Position]
  - name: Regen
    phase: FixedUpdate
    inputs: []
    outputs: [Health]
worlds:
  - name: Main
    archetypes: [Particle]
`)
	spec, err := Schedule(spec)
	require.NoError(t, err)

	world := spec.Worlds[0]
	phase := spec.Phases[0]
	groups := world.ScheduledSystems[phase.ID]
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []uint32{1, 2}, groups[0])
}

func TestScheduleCycleFromMutualConflict(t *testing.T) {
	raw, err := specfile.Load([]byte(`
components:
  - name: A
  - name: B
archetypes:
  - name: Arch
    components: [A, B]
phases:
  - name: P
systems:
  - name: S1
    phase: P
    inputs: [B]
    outputs: [A]
  - name: S2
    phase: P
    inputs: [A]
    outputs: [B]
worlds:
  - name: W
    archetypes: [Arch]
`))
	require.NoError(t, err)
	spec, err := validate.Normalize(raw)
	require.NoError(t, err)
	affinity.Analyze(spec)

	_, err = Schedule(spec)
	var e *model.ScheduleCycle
	assert.ErrorAs(t, err, &e)
}

// TestScheduleMultiComponentConflictIsDeterministic covers a pair of systems
// that conflict in two oppositely-directed ways at once: Writer writes both
// C1 and C2, Reader reads C1 but also writes C2. The C1 conflict demands
// Writer before Reader (writer precedes reader); the C2 write/write tie
// demands whichever system has the lower ID first, and Reader (declared
// first) gets the lower ID — so the two conflicts disagree and the pair is
// genuinely unorderable. Every individual conflict must contribute its own
// edge so this resolves to a ScheduleCycle on every run, rather than an
// order that depends on which conflict a map iteration happened to see
// first.
func TestScheduleMultiComponentConflictIsDeterministic(t *testing.T) {
	raw, err := specfile.Load([]byte(`
components:
  - name: C1
  - name: C2
archetypes:
  - name: Arch
    components: [C1, C2]
phases:
  - name: P
systems:
  - name: Reader
    phase: P
    inputs: [C1]
    outputs: [C2]
  - name: Writer
    phase: P
    outputs: [C1, C2]
worlds:
  - name: W
    archetypes: [Arch]
`))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		spec, err := validate.Normalize(raw)
		require.NoError(t, err)
		affinity.Analyze(spec)

		_, err = Schedule(spec)
		var e *model.ScheduleCycle
		require.ErrorAs(t, err, &e)
		seen := map[string]bool{}
		for _, name := range e.Path {
			seen[name] = true
		}
		assert.ElementsMatch(t, []string{"Reader", "Writer"}, keys(seen))
	}
}

func keys(m map[string]bool) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
