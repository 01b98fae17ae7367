package core

import "errors"

// Sentinel errors the engine distinguishes, per the error-kind table: allocation
// failure is just a bubbled Go error from allocation sites (there is no separate
// sentinel for it — Go doesn't have the out-of-memory failure mode the original
// C engine guards against), the rest get their own sentinel so callers can
// errors.Is against them.
var (
	// ErrPathResolution is returned when a raw target name can't be resolved
	// against its scope's directory.
	ErrPathResolution = errors.New("could not resolve target path")

	// ErrDontKnowHow is returned by MarkForRebuild when a target has neither
	// an explicit recipe nor an inference rule to build it from.
	ErrDontKnowHow = errors.New("don't know how to build target")

	// ErrNoDefaultTarget is returned by DetermineDependencies when the
	// context holds no non-pseudo target to select as the default.
	ErrNoDefaultTarget = errors.New("no target to make")

	// ErrUnknownModifier is returned by the variable expander when a
	// filename-part modifier isn't one of B, D, F, R.
	ErrUnknownModifier = errors.New("unknown automatic variable modifier")

	// ErrNothingToDo is returned by the recipe compiler when a target has no
	// recipe template to compile at all.
	ErrNothingToDo = errors.New("nothing to do for target")

	// ErrDependencyCycle is returned when the scheduler re-enters a target
	// that is still being evaluated. The stricter semantic recommended by
	// spec's open question: the original engine only tracked "evaluated"
	// and would silently short-circuit on a true cycle.
	ErrDependencyCycle = errors.New("dependency cycle detected")
)
