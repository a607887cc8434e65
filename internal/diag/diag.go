// Package diag renders pipeline errors as human-readable diagnostics,
// colorized when stderr is a terminal.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emergent-company/ecsgen/internal/model"
	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stderr) {
		color.NoColor = true
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Render writes a one-paragraph diagnostic for err to w: the error kind, its
// message, and — for the two cycle kinds — the offending path.
func Render(w io.Writer, err error) {
	if err == nil {
		return
	}

	kind, loc := classify(err)
	fmt.Fprintf(w, "%s: %s\n", red(kind), err.Error())
	if loc != "" {
		fmt.Fprintf(w, "  %s %s\n", cyan("-->"), loc)
	}

	var runCycle *model.RunAfterCycle
	var schedCycle *model.ScheduleCycle
	switch {
	case errors.As(err, &runCycle):
		fmt.Fprintf(w, "  %s %s\n", yellow("path:"), strings.Join(runCycle.Path, " -> "))
	case errors.As(err, &schedCycle):
		fmt.Fprintf(w, "  %s %s\n", yellow("path:"), strings.Join(schedCycle.Path, " -> "))
	}
}

// classify returns the error kind's name and a detail string: the location
// of a model.MalformedSpec, or the offending names for the other kinds.
func classify(err error) (kind, loc string) {
	var malformed *model.MalformedSpec
	var invalidIdent *model.InvalidIdentifier
	var dup *model.DuplicateName
	var unknownRef *model.UnknownReference
	var selfPromo *model.SelfPromotion
	var aliased *model.InputOutputAliased
	var unauthorized *model.UnauthorizedAccessPoint
	var unknownPhase *model.UnknownPhase
	var runCycle *model.RunAfterCycle
	var schedCycle *model.ScheduleCycle
	var cadence *model.InvalidFixedCadence
	var emission *model.EmissionFailed

	switch {
	case errors.As(err, &malformed):
		return "malformed-spec", malformed.Location
	case errors.As(err, &invalidIdent):
		return "invalid-identifier", dim(invalidIdent.Name)
	case errors.As(err, &dup):
		return "duplicate-name", dim(dup.Kind + " " + dup.Name)
	case errors.As(err, &unknownRef):
		return "unknown-reference", dim(unknownRef.Kind + " " + unknownRef.Name)
	case errors.As(err, &selfPromo):
		return "self-promotion", dim(selfPromo.Archetype)
	case errors.As(err, &aliased):
		return "input-output-aliased", dim(aliased.System + "." + aliased.Component)
	case errors.As(err, &unauthorized):
		return "unauthorized-access-point", dim(unauthorized.System + "." + unauthorized.State)
	case errors.As(err, &unknownPhase):
		return "unknown-phase", dim(unknownPhase.System + "." + unknownPhase.Phase)
	case errors.As(err, &runCycle):
		return "run-after-cycle", dim(runCycle.Phase)
	case errors.As(err, &schedCycle):
		return "schedule-cycle", dim(schedCycle.Phase)
	case errors.As(err, &cadence):
		return "invalid-fixed-cadence", dim(cadence.Value)
	case errors.As(err, &emission):
		return "emission-failed", dim(emission.Template)
	default:
		return "error", ""
	}
}
