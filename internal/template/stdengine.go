package template

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/emergent-company/ecsgen/internal/emission"
	"github.com/emergent-company/ecsgen/internal/model"
)

//go:embed templates/*.tmpl
var builtinFS embed.FS

// streamOrder is fixed so Expand's output is deterministic (spec §4.7:
// "a successful run is fully deterministic for a given input").
var streamOrder = []string{"components", "archetypes", "systems", "world"}

// StdEngine is the default Engine, backed by the standard library's
// text/template. It is the built-in template set used when the user does
// not supply an external template directory.
type StdEngine struct {
	tmpl *template.Template
}

// NewStdEngine loads the four built-in named templates.
func NewStdEngine() (*StdEngine, error) {
	tmpl, err := template.ParseFS(builtinFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing built-in templates: %w", err)
	}
	return &StdEngine{tmpl: tmpl}, nil
}

// NewStdEngineFromDir loads the four named templates from an external
// directory (config's templates.dir / ECSGEN_TEMPLATES_DIR), each file named
// "<stream>.tmpl".
func NewStdEngineFromDir(dir string) (*StdEngine, error) {
	tmpl, err := template.ParseGlob(dir + "/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates in %s: %w", dir, err)
	}
	return &StdEngine{tmpl: tmpl}, nil
}

// Expand renders the four named templates against m, in stream order.
func (e *StdEngine) Expand(m *emission.Model) ([]Stream, error) {
	streams := make([]Stream, 0, len(streamOrder))
	for _, name := range streamOrder {
		var buf bytes.Buffer
		if err := e.tmpl.ExecuteTemplate(&buf, name+".tmpl", m); err != nil {
			return nil, &model.EmissionFailed{Template: name, Cause: err}
		}
		streams = append(streams, Stream{Name: name, Data: buf.Bytes()})
	}
	return streams, nil
}
