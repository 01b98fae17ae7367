package core

import (
	"fmt"
	"strings"
)

// DetermineDependencies selects the default target (the first non-pseudo
// target in insertion order) and walks its dependency graph, per spec.md
// §4.6. Returns the selected target so the caller can hand it to the
// runner, or ErrNoDefaultTarget if the context has nothing buildable.
func DetermineDependencies(ctx *Context) (*Target, error) {
	target, err := ctx.DefaultTarget()
	if err != nil {
		ctx.ErrorTermination = true
		return nil, err
	}
	if err := DetermineDependenciesForTarget(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// DetermineDependenciesForTarget recursively evaluates staleness for t and
// everything it depends on, placing newly-stale targets on the scheduler
// queues. A no-op if t.DependenciesEvaluated is already set (spec.md §8
// idempotence law).
func DetermineDependenciesForTarget(ctx *Context, t *Target) error {
	// Every prerequisite encountered inside determineDeps's loop gets its
	// inference edge synthesized by its parent's iteration before it is
	// recursed into. t itself is never anyone's loop iteration value, so
	// it needs the same treatment once here at the root.
	synthesizeInferenceEdge(t)
	return determineDeps(ctx, t, nil)
}

// synthesizeInferenceEdge creates the prerequisite -> inference-source edge
// for p if p has no prerequisites of its own yet, no explicit recipe, but
// does have an inference source (spec.md §4.6 "synthesize edge").
func synthesizeInferenceEdge(p *Target) {
	if len(p.ParentDeps) == 0 && !p.ExplicitRecipeFound && p.InferenceParent != nil {
		CreateDependency(p.InferenceParent, p)
	}
}

func determineDeps(ctx *Context, t *Target, chain []string) error {
	if t.DependenciesEvaluated {
		return nil
	}
	if t.inProgress {
		return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(append(append([]string{}, chain...), t.Key), " -> "))
	}
	t.inProgress = true
	chain = append(append([]string{}, chain...), t.Key)

	needsRebuild := false
	for _, dep := range t.ParentDeps {
		p := dep.Parent

		synthesizeInferenceEdge(p)

		if err := determineDeps(ctx, p, chain); err != nil {
			return err
		}

		if p.RebuildRequired {
			t.ParentsToBuild++
			needsRebuild = true
		}
		if p.FileExists && t.FileExists && p.ModifiedTime.After(t.ModifiedTime) {
			needsRebuild = true
		}
	}

	t.DependenciesEvaluated = true
	t.inProgress = false

	if !t.FileExists || t.Phony {
		needsRebuild = true
	}
	if needsRebuild && !t.RebuildRequired {
		if err := MarkForRebuild(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// MarkForRebuild compiles t's recipe and places it on the ready queue (if
// every prerequisite is already satisfied) or the waiting queue otherwise.
// Fails with ErrDontKnowHow if t has neither an explicit recipe nor an
// inference rule (spec.md §4.6).
func MarkForRebuild(ctx *Context, t *Target) error {
	if t.Recipe == "" && t.InferenceRule == nil && !t.ExplicitRecipeFound {
		ctx.ErrorTermination = true
		return fmt.Errorf("%w: %s", ErrDontKnowHow, t.Key)
	}
	if err := GenerateExecScript(t); err != nil {
		ctx.ErrorTermination = true
		return err
	}
	t.RebuildRequired = true
	if t.ParentsToBuild == 0 {
		ctx.TargetsReady = append(ctx.TargetsReady, t)
	} else {
		ctx.TargetsWaiting = append(ctx.TargetsWaiting, t)
	}
	return nil
}

// CompleteTarget is the execution-side contract's completion hook (spec.md
// §4.6, §5, §6): the runner calls this once t's recipe has finished, which
// marks t executed and promotes any dependent whose ParentsToBuild has just
// reached zero from the waiting queue to the ready queue.
func (ctx *Context) CompleteTarget(t *Target) {
	t.Executed = true
	for _, dep := range t.ChildDeps {
		c := dep.Child
		if !c.RebuildRequired || c.Executed {
			continue
		}
		c.ParentsToBuild--
		if c.ParentsToBuild == 0 {
			ctx.moveToReady(c)
		}
	}
}

// moveToReady removes c from the waiting queue and appends it to the ready
// queue. A no-op if c isn't currently waiting (e.g. it was never placed
// there because it had no pending prerequisites to begin with).
func (ctx *Context) moveToReady(c *Target) {
	for i, w := range ctx.TargetsWaiting {
		if w == c {
			ctx.TargetsWaiting[i] = ctx.TargetsWaiting[len(ctx.TargetsWaiting)-1]
			ctx.TargetsWaiting = ctx.TargetsWaiting[:len(ctx.TargetsWaiting)-1]
			ctx.TargetsReady = append(ctx.TargetsReady, c)
			return
		}
	}
}
