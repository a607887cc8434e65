package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `
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

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSpec), 0o644))
	return path
}

func TestValidateCommandReportsCounts(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"validate", specPath})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "ok: 2 component(s)")
}

func TestGenerateCommandWritesFourFiles(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "gen")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"generate", specPath, "--output-dir", outDir})
	require.NoError(t, cmd.Execute())

	for _, name := range []string{"components", "archetypes", "systems", "world"} {
		_, err := os.Stat(filepath.Join(outDir, name+".gen"))
		assert.NoError(t, err)
	}
}

func TestGenerateCommandStdout(t *testing.T) {
	dir := t.TempDir()
	specPath := writeSpec(t, dir)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"generate", specPath, "--stdout"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "--- components ---")
}

func TestInfoCommandPrintsConfig(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"info"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "PIPELINE STAGES")
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "dev")
}
