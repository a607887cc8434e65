package specfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const s1Spec = `
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
`

func TestLoadS1(t *testing.T) {
	raw, err := Load([]byte(s1Spec))
	require.NoError(t, err)
	require.Len(t, raw.Components, 2)
	require.Len(t, raw.Archetypes, 1)
	require.Len(t, raw.Phases, 1)
	require.Len(t, raw.Systems, 1)
	require.Len(t, raw.Worlds, 1)

	assert.Equal(t, "Position", raw.Components[0].Name)
	assert.Equal(t, "60Hz", raw.Phases[0].Fixed)
	assert.Equal(t, []string{"Velocity"}, raw.Systems[0].Inputs)
	assert.Equal(t, []string{"Position"}, raw.Systems[0].Outputs)

	// Positions are recovered for diagnostics.
	assert.Greater(t, raw.Components[0].Pos.Line, 0)
}

func TestLoadUnknownTopLevelKey(t *testing.T) {
	_, err := Load([]byte("bogus_key: true\ncomponents: []\narchetypes: []\nphases: []\nsystems: []\nworlds: []\n"))
	assert.Error(t, err)
}

func TestLoadUnknownField(t *testing.T) {
	spec := `
components:
  - name: Position
    bogus_field: true
archetypes: []
phases: []
systems: []
worlds: []
`
	_, err := Load([]byte(spec))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load([]byte("components: [this is not valid: yaml:::"))
	assert.Error(t, err)
}
