// Package template defines the out-of-scope template-engine boundary
// (spec.md §1: "the textual template engine... treated as a pure function
// from the model to byte streams") and a default implementation over the
// standard library's text/template.
package template

import (
	"io"

	"github.com/emergent-company/ecsgen/internal/emission"
)

// Stream is one named output produced by expanding a template against the
// emission model.
type Stream struct {
	Name string // one of the four named streams, or an auxiliary name.
	Data []byte
}

// Engine expands a named template set against an assembled emission.Model
// and returns the resulting byte streams. It is a pure function from model
// to bytes: no filesystem or network access, no global state.
type Engine interface {
	// Expand renders every template in the set against m, returning one
	// Stream per template in declaration order.
	Expand(m *emission.Model) ([]Stream, error)
}

// WriteStreams writes each stream to the writer create returns for its name
// (exposed as a parameter so callers can inject *os.Create or an in-memory
// filesystem in tests).
func WriteStreams(streams []Stream, create func(name string) (io.WriteCloser, error)) error {
	for _, s := range streams {
		w, err := create(s.Name)
		if err != nil {
			return err
		}
		_, writeErr := w.Write(s.Data)
		closeErr := w.Close()
		if writeErr != nil {
			return writeErr
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}
