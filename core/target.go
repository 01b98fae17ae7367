// Package core implements the build-graph engine: target interning,
// dependency edges, scoped inference-rule resolution, target-scoped
// variable expansion, recipe compilation, and staleness-driven scheduling.
//
// The engine is single-threaded and synchronous; see Context for the root
// holder that every operation in this package takes or is a method of.
package core

import (
	"time"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("core")

// ExecCmd is one compiled command line from a target's recipe, ready for
// an external runner to execute.
type ExecCmd struct {
	// Cmd is the fully variable-expanded shell command.
	Cmd string
	// DisplayCmd is false when the recipe line was prefixed with '@' and the
	// runner should not echo it before running.
	DisplayCmd bool
	// IgnoreErrors is true when the recipe line was prefixed with '-' and
	// the runner should continue past a non-zero exit from this command.
	IgnoreErrors bool
}

// Target represents a buildable artifact keyed by its canonical path.
type Target struct {
	// Key is the canonical path, and the target's hash/equality key.
	Key string
	// FileExists records whether the filesystem object was present when
	// this target was interned.
	FileExists bool
	// ModifiedTime is the last-write timestamp, valid only if FileExists.
	ModifiedTime time.Time

	// Recipe is the raw recipe template, possibly empty.
	Recipe string
	// ExplicitRecipeFound is true once a rule block was authored for this
	// target, even if its recipe text is empty.
	ExplicitRecipeFound bool
	// InferencePseudo marks a target that exists only as the carrier of an
	// inference rule's recipe (e.g. key ".c.obj"); it must never enter the
	// scheduler queues or be picked as a default target.
	InferencePseudo bool
	// Phony marks a target declared a prerequisite of ".PHONY:"; it always
	// rebuilds regardless of whether a file of that name exists on disk.
	// Supplements spec.md's invariant 4 with the original's "symbolic
	// target" behavior (see SPEC_FULL.md §4).
	Phony bool

	// Scope is the scope in which the recipe, or inference binding, was
	// decided. Needed so variable expansion of makefile variables (handled
	// upstream of this package) uses the right environment.
	Scope *Scope
	// InferenceRule explains how to build this target, if anything does.
	InferenceRule *InferenceRule
	// InferenceParent is the synthetic source-file target implied by
	// InferenceRule, interned the moment the rule was assigned.
	InferenceParent *Target

	// ParentDeps are the edges in which this target is the dependent: each
	// dep.Parent is one of this target's prerequisites. Named "parent" for
	// "prerequisite" per the engine's inherited terminology (see GLOSSARY).
	ParentDeps []*Dependency
	// ChildDeps are the edges in which this target is the prerequisite:
	// each dep.Child depends on this target.
	ChildDeps []*Dependency

	// ExecCmds is the compiled recipe, populated lazily by the recipe
	// compiler the first time this target is marked for rebuild.
	ExecCmds []ExecCmd

	// DependenciesEvaluated is set once DetermineDependenciesForTarget has
	// finished visiting this target; makes re-entry a no-op.
	DependenciesEvaluated bool
	// inProgress is set for the duration of a DetermineDependenciesForTarget
	// call so a re-entrant visit (a true cycle) can be detected instead of
	// silently short-circuited.
	inProgress bool
	// RebuildRequired is set once staleness evaluation decides this target
	// must be rebuilt.
	RebuildRequired bool
	// Executed is set by the runner once this target's recipe has run.
	Executed bool
	// ParentsToBuild counts this target's prerequisites that still need
	// rebuilding; it reaches zero exactly when the target is ready.
	ParentsToBuild int

	// refCount counts InferenceRules and Targets that keep this target
	// alive after deactivation (e.g. as a carrier or inference parent).
	refCount int32
}

// addRef bumps the target's reference count. Used when a Target becomes an
// InferenceRule's carrier or another Target's InferenceParent, since both
// may outlive the target's active registration in the table.
func (t *Target) addRef() {
	t.refCount++
}
