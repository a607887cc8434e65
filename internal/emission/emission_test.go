package emission

import (
	"testing"

	"github.com/emergent-company/ecsgen/internal/affinity"
	"github.com/emergent-company/ecsgen/internal/model"
	"github.com/emergent-company/ecsgen/internal/schedule"
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
	spec, err = schedule.Schedule(spec)
	require.NoError(t, err)
	return spec
}

func TestAssembleZipShapeS1(t *testing.T) {
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
	m := Assemble(spec)

	require.Len(t, m.Systems, 1)
	physics := m.Systems[0]
	assert.Equal(t, []string{"velocitys", "positions_mut"}, physics.Zip.Names)
	assert.Equal(t, []string{"velocity", "position"}, physics.Destructure)
	assert.Equal(t, 2, physics.Zip.Arity())
	assert.False(t, physics.EmitsCommands)
	assert.Nil(t, physics.CommandPort)
}

func TestAssembleEntitiesPrependedToZip(t *testing.T) {
	spec := build(t, `
components:
  - name: Health
archetypes:
  - name: Creature
    components: [Health]
phases:
  - name: Update
systems:
  - name: Spawner
    phase: Update
    entities: true
    outputs: [Health]
worlds:
  - name: Main
    archetypes: [Creature]
`)
	m := Assemble(spec)
	spawner := m.Systems[0]
	assert.Equal(t, []string{"entities", "healths_mut"}, spawner.Zip.Names)
	assert.Equal(t, []string{"entity", "health"}, spawner.Destructure)
	assert.True(t, spawner.EmitsCommands)
	require.NotNil(t, spawner.CommandPort)
	assert.Equal(t, "spawn_despawn", spawner.CommandPort.Operation)
}

func TestAssembleArchetypeComponentIDArraySorted(t *testing.T) {
	spec := build(t, `
components:
  - name: Zeta
  - name: Alpha
  - name: Mid
archetypes:
  - name: Thing
    components: [Zeta, Alpha, Mid]
phases:
  - name: P
systems: []
worlds:
  - name: W
    archetypes: [Thing]
`)
	m := Assemble(spec)
	require.Len(t, m.Archetypes, 1)
	assert.Equal(t, []uint32{1, 2, 3}, m.Archetypes[0].ComponentIDArray)
	assert.Equal(t, "[1, 2, 3]", ComponentIDArrayString(m.Archetypes[0].ComponentIDArray))
}

func TestAssembleManualPhaseExcludedFromAutoS4(t *testing.T) {
	spec := build(t, `
components:
  - name: WgpuRender
states:
  - name: WgpuRender
archetypes:
  - name: Frame
    components: [WgpuRender]
phases:
  - name: FixedUpdate
  - name: Render
    manual: true
    states:
      - use: WgpuRender
        begin_phase: write
        end_phase: write
systems:
  - name: Tick
    phase: FixedUpdate
    outputs: [WgpuRender]
worlds:
  - name: Main
    archetypes: [Frame]
`)
	m := Assemble(spec)
	require.Len(t, m.Worlds, 1)
	w := m.Worlds[0]

	require.Len(t, w.AutoPhases, 1)
	assert.Equal(t, "FixedUpdate", w.AutoPhases[0].Name.Raw)

	require.Len(t, w.ManualPhases, 1)
	assert.Equal(t, "Render", w.ManualPhases[0].Name.Raw)
	assert.Empty(t, w.OnRequestPhases)
}

func TestAssembleWorldPhaseGroups(t *testing.T) {
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
	m := Assemble(spec)
	require.Len(t, m.Worlds, 1)
	w := m.Worlds[0]
	require.Len(t, w.Phases, 1)
	pg := w.Phases[0]
	require.Len(t, pg.Groups, 2)
	assert.Equal(t, []uint32{1}, pg.Groups[0])
	assert.Equal(t, []uint32{2}, pg.Groups[1])
}
