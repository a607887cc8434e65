// Package driver implements the Driver (spec §4.7): it runs the pipeline
// stages in order, stopping at the first error, and hands the assembled
// model to a template.Engine for expansion.
package driver

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/emergent-company/ecsgen/internal/affinity"
	"github.com/emergent-company/ecsgen/internal/emission"
	"github.com/emergent-company/ecsgen/internal/model"
	"github.com/emergent-company/ecsgen/internal/schedule"
	"github.com/emergent-company/ecsgen/internal/specfile"
	"github.com/emergent-company/ecsgen/internal/template"
	"github.com/emergent-company/ecsgen/internal/validate"
)

// Driver orchestrates the compilation pipeline.
type Driver struct {
	logger *slog.Logger
	engine template.Engine
}

// New creates a Driver that logs to logger and expands templates with
// engine.
func New(logger *slog.Logger, engine template.Engine) *Driver {
	return &Driver{logger: logger, engine: engine}
}

// Compile runs the Spec Loader through the Phase Scheduler over data,
// returning the normalized, scheduled model. It does not touch the template
// engine; use Generate for the full pipeline including emission.
func (d *Driver) Compile(data []byte) (*model.Spec, error) {
	d.logger.Debug("spec loader: start")
	raw, err := specfile.Load(data)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("spec loader: done")

	d.logger.Debug("validator/normalizer: start")
	spec, err := validate.Normalize(raw)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("validator/normalizer: done")

	d.logger.Debug("affinity analyzer: start")
	affinity.Analyze(spec)
	d.logger.Debug("affinity analyzer: done")

	d.logger.Debug("phase scheduler: start")
	spec, err = schedule.Schedule(spec)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("phase scheduler: done")

	return spec, nil
}

// Generate runs the full pipeline over data and expands the four named
// templates, returning the resulting byte streams. Success produces all
// streams; failure produces none (spec §4.7 exit behavior).
func (d *Driver) Generate(data []byte) ([]template.Stream, error) {
	spec, err := d.Compile(data)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("emission model assembler: start")
	m := emission.Assemble(spec)
	d.logger.Debug("emission model assembler: done")

	d.logger.Debug("template engine: start")
	streams, err := d.engine.Expand(m)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("template engine: done")

	d.logger.Info("generate complete",
		"components", len(spec.Components),
		"states", len(spec.States),
		"archetypes", len(spec.Archetypes),
		"phases", len(spec.Phases),
		"systems", len(spec.Systems),
		"worlds", len(spec.Worlds),
	)

	return streams, nil
}

// WriteToDir writes each stream to dir/<name>.gen, creating dir if needed.
func WriteToDir(dir string, streams []template.Stream) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	return template.WriteStreams(streams, func(name string) (io.WriteCloser, error) {
		return os.Create(filepath.Join(dir, name+".gen"))
	})
}
