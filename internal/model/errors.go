package model

import "fmt"

// MalformedSpec is returned by the Spec Loader when the input bytes cannot
// be parsed into a raw model.
type MalformedSpec struct {
	Location string
	Cause    error
}

func (e *MalformedSpec) Error() string {
	return fmt.Sprintf("malformed spec at %s: %v", e.Location, e.Cause)
}

func (e *MalformedSpec) Unwrap() error { return e.Cause }

// InvalidIdentifier is returned by the Name Shaper when an identifier's
// first character is not a letter, or a later character is not a letter,
// digit, or underscore.
type InvalidIdentifier struct {
	Name string
}

func (e *InvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid identifier %q", e.Name)
}

// DuplicateName is returned when two entities of the same kind declare the
// same canonical name.
type DuplicateName struct {
	Kind string
	Name string
}

func (e *DuplicateName) Error() string {
	return fmt.Sprintf("duplicate %s name %q", e.Kind, e.Name)
}

// UnknownReference is returned when a cross-reference (archetype→component,
// system→phase/component/state/archetype, world→archetype) does not resolve
// to a declared entity.
type UnknownReference struct {
	Kind string
	Name string
}

func (e *UnknownReference) Error() string {
	return fmt.Sprintf("unknown %s reference %q", e.Kind, e.Name)
}

// SelfPromotion is returned when an archetype lists itself as a promotion
// target.
type SelfPromotion struct {
	Archetype string
}

func (e *SelfPromotion) Error() string {
	return fmt.Sprintf("archetype %q cannot promote to itself", e.Archetype)
}

// InputOutputAliased is returned when a system declares the same component
// in both inputs and outputs.
type InputOutputAliased struct {
	System    string
	Component string
}

func (e *InputOutputAliased) Error() string {
	return fmt.Sprintf("system %q: component %q is in both inputs and outputs", e.System, e.Component)
}

// UnauthorizedAccessPoint is returned when a system's state-use declares
// access at preflight/postflight without the corresponding flag enabled.
type UnauthorizedAccessPoint struct {
	System string
	State  string
	Point  string
}

func (e *UnauthorizedAccessPoint) Error() string {
	return fmt.Sprintf("system %q: state %q access at %s requires the corresponding flag", e.System, e.State, e.Point)
}

// UnknownPhase is returned when a system references a phase that was never
// declared.
type UnknownPhase struct {
	System string
	Phase  string
}

func (e *UnknownPhase) Error() string {
	return fmt.Sprintf("system %q: unknown phase %q", e.System, e.Phase)
}

// RunAfterCycle is returned when the run_after graph of one phase's systems
// contains a cycle.
type RunAfterCycle struct {
	Phase string
	Path  []string
}

func (e *RunAfterCycle) Error() string {
	return fmt.Sprintf("phase %q: run_after cycle: %v", e.Phase, e.Path)
}

// ScheduleCycle is returned when the derived conflict graph (run_after plus
// component/state conflicts) contains a cycle that cannot be resolved into
// an ordered sequence of groups.
type ScheduleCycle struct {
	Phase string
	Path  []string
}

func (e *ScheduleCycle) Error() string {
	return fmt.Sprintf("phase %q: schedule cycle: %v", e.Phase, e.Path)
}

// InvalidFixedCadence is returned when a phase's `fixed` string does not
// match the `"<number>Hz"` / `"<number>s"` grammar, or yields a non-positive
// period.
type InvalidFixedCadence struct {
	Value string
}

func (e *InvalidFixedCadence) Error() string {
	return fmt.Sprintf("invalid fixed cadence %q", e.Value)
}

// EmissionFailed is returned when the external template engine fails to
// expand one of the named templates.
type EmissionFailed struct {
	Template string
	Cause    error
}

func (e *EmissionFailed) Error() string {
	return fmt.Sprintf("emission failed for template %q: %v", e.Template, e.Cause)
}

func (e *EmissionFailed) Unwrap() error { return e.Cause }
