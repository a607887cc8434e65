package driver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/emergent-company/ecsgen/internal/model"
	"github.com/emergent-company/ecsgen/internal/template"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

const validSpec = `
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

func TestDriverGenerateProducesFourStreams(t *testing.T) {
	eng, err := template.NewStdEngine()
	require.NoError(t, err)
	d := New(testLogger(), eng)

	streams, err := d.Generate([]byte(validSpec))
	require.NoError(t, err)
	require.Len(t, streams, 4)
}

func TestDriverShortCircuitsOnFirstError(t *testing.T) {
	eng, err := template.NewStdEngine()
	require.NoError(t, err)
	d := New(testLogger(), eng)

	_, err = d.Generate([]byte(`components: [{name: "2Invalid"}]`))
	require.Error(t, err)
	var invalid *model.InvalidIdentifier
	assert.ErrorAs(t, err, &invalid)
}

func TestDriverCompileDoesNotTouchTemplateEngine(t *testing.T) {
	d := New(testLogger(), nil)
	spec, err := d.Compile([]byte(validSpec))
	require.NoError(t, err)
	assert.Len(t, spec.Systems, 1)
}

func TestWriteToDirWritesAllStreams(t *testing.T) {
	dir := t.TempDir()
	streams := []template.Stream{
		{Name: "components", Data: []byte("a")},
		{Name: "archetypes", Data: []byte("b")},
	}
	require.NoError(t, WriteToDir(dir, streams))

	for _, s := range streams {
		data, err := os.ReadFile(filepath.Join(dir, s.Name+".gen"))
		require.NoError(t, err)
		assert.Equal(t, s.Data, data)
	}
}

func TestDriverGenerateDeterministic(t *testing.T) {
	eng, err := template.NewStdEngine()
	require.NoError(t, err)
	d := New(testLogger(), eng)

	first, err := d.Generate([]byte(validSpec))
	require.NoError(t, err)
	second, err := d.Generate([]byte(validSpec))
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Generate output not deterministic (-first +second):\n%s", diff)
	}
}
