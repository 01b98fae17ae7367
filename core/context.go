package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// FileInfo is the result of a single filesystem probe: existence plus
// last-write time. A failed or denied probe is never an error to the
// caller — it's simply reported as not existing (spec.md §7).
type FileInfo struct {
	Exists  bool
	ModTime time.Time
}

// FileProber resolves a single canonical path to its on-disk state. The
// engine probes each target once, when it is interned (spec.md §4.1); the
// inference resolver also probes candidate source paths. Abstracted behind an interface so tests can substitute a fake
// filesystem instead of touching the real one.
type FileProber interface {
	Probe(path string) FileInfo
}

// osProber is the default FileProber, backed by os.Stat.
type osProber struct{}

func (osProber) Probe(path string) FileInfo {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}
	}
	return FileInfo{Exists: true, ModTime: info.ModTime()}
}

// Context is the root holder for a single build: the target table and
// insertion-ordered list, the scheduler's ready/waiting queues, and the
// error-termination flag. Promoted from what was global state in the
// original engine (spec.md §9 "Global state").
type Context struct {
	// targets maps a case-folded canonical path to its Target. Folded so
	// lookups are case-insensitive on platforms whose filesystem is, while
	// Target.Key keeps the display-friendly original casing.
	targets map[string]*Target
	// TargetList is the insertion-ordered list of every interned target;
	// it determines default-target selection (spec.md §5).
	TargetList []*Target

	// TargetsReady holds targets with RebuildRequired set and zero pending
	// prerequisites.
	TargetsReady []*Target
	// TargetsWaiting holds targets with RebuildRequired set and at least
	// one pending prerequisite.
	TargetsWaiting []*Target

	// ErrorTermination is set once an unrecoverable error (no buildable
	// recipe, no default target) has occurred. The engine stops producing
	// new work but does not tear down in-progress state.
	ErrorTermination bool

	// Prober performs the engine's only two filesystem operations:
	// existence + mtime queries for a single path.
	Prober FileProber
}

// NewContext creates an empty build context using the real filesystem.
func NewContext() *Context {
	return NewContextWithProber(osProber{})
}

// NewContextWithProber creates an empty build context backed by a custom
// FileProber, primarily for tests.
func NewContextWithProber(prober FileProber) *Context {
	return &Context{
		targets: make(map[string]*Target),
		Prober:  prober,
	}
}

// foldKey normalizes a canonical path into the target table's lookup key.
// Case-insensitive only where the platform's own filesystem is.
func foldKey(path string) string {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.ToLower(path)
	}
	return path
}

// canonicalPath resolves raw against dir into an absolute, cleaned path.
func canonicalPath(dir, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty target name", ErrPathResolution)
	}
	path := raw
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathResolution, raw, err)
	}
	return filepath.Clean(abs), nil
}

// LookupOrCreateTarget canonicalizes raw against scope's directory and
// interns it, probing the filesystem exactly once if this is the first
// reference (spec.md §4.1).
func (ctx *Context) LookupOrCreateTarget(scope *Scope, raw string) (*Target, error) {
	canonical, err := canonicalPath(scope.Dir, raw)
	if err != nil {
		return nil, err
	}
	return ctx.internCanonical(canonical, scope), nil
}

// internCanonical interns an already-canonical path, creating it (and
// probing the filesystem once) if it isn't already known.
func (ctx *Context) internCanonical(canonical string, scope *Scope) *Target {
	key := foldKey(canonical)
	if t, ok := ctx.targets[key]; ok {
		return t
	}
	info := ctx.Prober.Probe(canonical)
	t := &Target{
		Key:          canonical,
		FileExists:   info.Exists,
		ModifiedTime: info.ModTime,
		Scope:        scope,
	}
	ctx.targets[key] = t
	ctx.TargetList = append(ctx.TargetList, t)
	return t
}

// Target retrieves an already-interned target by canonical path, or nil.
func (ctx *Context) Target(canonical string) *Target {
	return ctx.targets[foldKey(canonical)]
}

// DeactivateTarget removes target from the table and insertion list without
// freeing it — it may still be referenced by an InferenceRule as a carrier,
// or by another Target as an InferenceParent (spec.md §3 "Lifecycles").
func (ctx *Context) DeactivateTarget(target *Target) {
	delete(ctx.targets, foldKey(target.Key))
	for i, t := range ctx.TargetList {
		if t == target {
			ctx.TargetList = append(ctx.TargetList[:i], ctx.TargetList[i+1:]...)
			break
		}
	}
}

// DeleteAllTargets tears down every interned target and dependency edge.
// Called at teardown; InferenceRules referencing a target as a carrier or
// inference parent keep that Target's memory alive in Go regardless (the
// garbage collector handles what the original's reference counting did
// manually), so this only needs to clear the adjacency lists.
func (ctx *Context) DeleteAllTargets() {
	for _, t := range ctx.TargetList {
		for _, dep := range append([]*Dependency(nil), t.ParentDeps...) {
			removeDependency(dep)
		}
		for _, dep := range append([]*Dependency(nil), t.ChildDeps...) {
			removeDependency(dep)
		}
	}
	ctx.targets = make(map[string]*Target)
	ctx.TargetList = nil
	ctx.TargetsReady = nil
	ctx.TargetsWaiting = nil
}

// DeclareTarget looks up or creates a target in scope and, if it doesn't
// yet have an explicit recipe, links it into the scope's pending-inference
// list. Matches the parser-facing declare_target operation (spec.md §6).
func (ctx *Context) DeclareTarget(scope *Scope, name string) (*Target, error) {
	target, err := ctx.LookupOrCreateTarget(scope, name)
	if err != nil {
		return nil, err
	}
	if target.Scope == nil {
		target.Scope = scope
	}
	if !target.ExplicitRecipeFound && target.InferenceRule == nil {
		scope.addPending(target)
	}
	return target, nil
}

// SetRecipe sets target's recipe text and marks ExplicitRecipeFound,
// regardless of whether text is empty — an authored rule block with no
// commands is still "explicit" (spec.md §6).
func SetRecipe(target *Target, text string) {
	target.Recipe = text
	target.ExplicitRecipeFound = true
}

// AddPrerequisite records that child depends on the target named by
// parentName, resolved in scope. Matches the parser-facing
// add_prerequisite operation (spec.md §6).
func (ctx *Context) AddPrerequisite(scope *Scope, parentName string, child *Target) (*Dependency, error) {
	parent, err := ctx.LookupOrCreateTarget(scope, parentName)
	if err != nil {
		return nil, err
	}
	return CreateDependency(parent, child), nil
}

// DeclareInferenceRule registers a new inference rule in scope and marks
// carrier as its pseudo-target holder. Matches the parser-facing
// declare_inference_rule operation (spec.md §6).
func DeclareInferenceRule(scope *Scope, sourceExt, targetExt string, carrier *Target) *InferenceRule {
	return CreateInferenceRule(scope, sourceExt, targetExt, carrier)
}

// DefaultTarget returns the first interned target that isn't an inference
// pseudo-target, in insertion order. Returns ErrNoDefaultTarget if none
// exists (invariant 7, spec.md §3; quantified property 5, spec.md §8).
func (ctx *Context) DefaultTarget() (*Target, error) {
	for _, t := range ctx.TargetList {
		if !t.InferencePseudo {
			return t, nil
		}
	}
	return nil, ErrNoDefaultTarget
}
