package affinity

import (
	"testing"

	"github.com/emergent-company/ecsgen/internal/specfile"
	"github.com/emergent-company/ecsgen/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffinitySoundnessS1(t *testing.T) {
	raw, err := specfile.Load([]byte(`
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
`))
	require.NoError(t, err)
	spec, err := validate.Normalize(raw)
	require.NoError(t, err)
	Analyze(spec)

	require.Len(t, spec.Systems, 1)
	physics := spec.Systems[0]
	assert.Equal(t, []uint32{1}, physics.Matches) // Particle is archetype ID 1

	// Soundness: every matched archetype's component set must be a superset
	// of inputs ∪ outputs.
	particle := spec.Archetypes[0]
	required := physics.RequiredComponents()
	set := toSet(particle.ComponentsSorted)
	for _, c := range required {
		assert.True(t, set[c])
	}

	require.Len(t, spec.Worlds, 1)
	assert.Equal(t, []uint32{1}, spec.Worlds[0].SystemIDs)
}

func TestAffinityExcludesArchetypeNotInSystem(t *testing.T) {
	raw, err := specfile.Load([]byte(`
components:
  - name: Position
archetypes:
  - name: A
    components: [Position]
  - name: B
    components: [Position]
phases:
  - name: P
systems:
  - name: S
    phase: P
    inputs: [Position]
worlds:
  - name: W
    archetypes: [A]
`))
	require.NoError(t, err)
	spec, err := validate.Normalize(raw)
	require.NoError(t, err)
	Analyze(spec)

	s := spec.Systems[0]
	// Global matches includes both A and B.
	assert.Equal(t, []uint32{1, 2}, s.Matches)
	// But world W only contains A, so its system view is unaffected since S
	// still matches at least one archetype in the world.
	assert.Equal(t, []uint32{1}, spec.Worlds[0].SystemIDs)
}
