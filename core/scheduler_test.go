package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSimpleStaleness is scenario S1.
func TestSimpleStaleness(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{
		"/work/a.obj": {Exists: true, ModTime: mtime(1)},
		"/work/a.c":   {Exists: true, ModTime: mtime(2)},
	})
	scope := OpenScope("/work", nil)
	obj, _ := ctx.DeclareTarget(scope, "a.obj")
	c, _ := ctx.DeclareTarget(scope, "a.c")
	CreateDependency(c, obj)
	SetRecipe(obj, "cc $< -o $@")

	require.NoError(t, DetermineDependenciesForTarget(ctx, obj))

	assert.True(t, obj.RebuildRequired)
	assert.Contains(t, ctx.TargetsReady, obj)
	assert.NotContains(t, ctx.TargetsWaiting, obj)
	require.Len(t, obj.ExecCmds, 1)
	assert.Equal(t, "cc a.c -o a.obj", obj.ExecCmds[0].Cmd)
}

// TestMissingTarget is scenario S2.
func TestMissingTarget(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{
		"/work/a.c": {Exists: true, ModTime: mtime(2)},
	})
	scope := OpenScope("/work", nil)
	obj, _ := ctx.DeclareTarget(scope, "a.obj")
	c, _ := ctx.DeclareTarget(scope, "a.c")
	CreateDependency(c, obj)
	SetRecipe(obj, "cc $< -o $@")

	require.NoError(t, DetermineDependenciesForTarget(ctx, obj))
	assert.True(t, obj.RebuildRequired)
}

// TestInferenceOnlyScheduled is scenario S3's scheduling half (resolution
// itself is covered in inference_test.go).
func TestInferenceOnlyScheduled(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{"/work/a.c": {Exists: true}})
	scope := OpenScope("/work", nil)
	carrier, _ := ctx.DeclareTarget(scope, ".c.obj")
	SetRecipe(carrier, "cc $< -o $@")
	CreateInferenceRule(scope, ".c", ".obj", carrier)

	obj, _ := ctx.DeclareTarget(scope, "a.obj")
	require.NoError(t, FindRulesForScope(ctx, scope))

	require.NoError(t, DetermineDependenciesForTarget(ctx, obj))

	assert.True(t, obj.RebuildRequired)
	assert.Contains(t, ctx.TargetsReady, obj)
	assert.Equal(t, "/work/a.c", obj.InferenceParent.Key)
}

// TestChainedInferenceScheduling is scenario S4's scheduling half: a.c must
// be built (and appear ready) before a.obj does, and completing a.c moves
// a.obj from waiting to ready.
func TestChainedInferenceScheduling(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{"/work/a.y": {Exists: true}})
	scope := OpenScope("/work", nil)

	yToC, _ := ctx.DeclareTarget(scope, ".y.c")
	SetRecipe(yToC, "yacc $< -o $@")
	CreateInferenceRule(scope, ".y", ".c", yToC)

	cToObj, _ := ctx.DeclareTarget(scope, ".c.obj")
	SetRecipe(cToObj, "cc $< -o $@")
	CreateInferenceRule(scope, ".c", ".obj", cToObj)

	obj, _ := ctx.DeclareTarget(scope, "a.obj")
	require.NoError(t, FindRulesForScope(ctx, scope))

	require.NoError(t, DetermineDependenciesForTarget(ctx, obj))

	aC := obj.InferenceParent
	require.NotNil(t, aC)
	assert.True(t, aC.RebuildRequired)
	assert.True(t, obj.RebuildRequired)

	// a.c is ready immediately; a.obj waits on it.
	assert.Contains(t, ctx.TargetsReady, aC)
	assert.Contains(t, ctx.TargetsWaiting, obj)
	assert.Equal(t, 1, obj.ParentsToBuild)

	ctx.CompleteTarget(aC)

	assert.Contains(t, ctx.TargetsReady, obj)
	assert.NotContains(t, ctx.TargetsWaiting, obj)
	assert.Equal(t, 0, obj.ParentsToBuild)
}

func TestDetermineDependenciesIsIdempotent(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{
		"/work/a.obj": {Exists: true, ModTime: mtime(1)},
		"/work/a.c":   {Exists: true, ModTime: mtime(2)},
	})
	scope := OpenScope("/work", nil)
	obj, _ := ctx.DeclareTarget(scope, "a.obj")
	c, _ := ctx.DeclareTarget(scope, "a.c")
	CreateDependency(c, obj)
	SetRecipe(obj, "cc $< -o $@")

	require.NoError(t, DetermineDependenciesForTarget(ctx, obj))
	readyLenAfterFirst := len(ctx.TargetsReady)

	require.NoError(t, DetermineDependenciesForTarget(ctx, obj))
	assert.Len(t, ctx.TargetsReady, readyLenAfterFirst)
}

func TestDependencyCycleIsReported(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	a, _ := ctx.DeclareTarget(scope, "a")
	b, _ := ctx.DeclareTarget(scope, "b")
	CreateDependency(b, a) // a depends on b
	CreateDependency(a, b) // b depends on a: cycle

	err := DetermineDependenciesForTarget(ctx, a)
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestMarkForRebuildFailsWithoutRecipeOrInferenceRule(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	missing, _ := ctx.DeclareTarget(scope, "missing.obj")

	err := DetermineDependenciesForTarget(ctx, missing)
	assert.ErrorIs(t, err, ErrDontKnowHow)
	assert.True(t, ctx.ErrorTermination)
}

func TestSynthesizedInferenceEdgeForMissingPrerequisite(t *testing.T) {
	// A prerequisite that doesn't exist, has no explicit recipe, but has
	// an inference source on disk: the scheduler synthesizes the
	// prerequisite -> inference-source edge and rebuilds it.
	ctx := NewContextWithProber(fakeProber{"/work/b.c": {Exists: true}})
	scope := OpenScope("/work", nil)

	carrier, _ := ctx.DeclareTarget(scope, ".c.obj")
	SetRecipe(carrier, "cc $< -o $@")
	CreateInferenceRule(scope, ".c", ".obj", carrier)

	top, _ := ctx.DeclareTarget(scope, "top")
	SetRecipe(top, "ld -o $@ $**")
	b, _ := ctx.DeclareTarget(scope, "b.obj")
	CreateDependency(b, top)

	require.NoError(t, FindRulesForScope(ctx, scope))
	require.NoError(t, DetermineDependenciesForTarget(ctx, top))

	require.NotNil(t, b.InferenceParent)
	assert.Equal(t, "/work/b.c", b.InferenceParent.Key)
	require.Len(t, b.ParentDeps, 1)
	assert.Same(t, b.InferenceParent, b.ParentDeps[0].Parent)
	assert.True(t, b.RebuildRequired)
	assert.True(t, top.RebuildRequired)
}

func TestPhonyTargetRebuildsEvenWhenFileExists(t *testing.T) {
	// The canonical ".PHONY" scenario: a target named "clean" happens to
	// share its name with an on-disk file, but must still always rebuild.
	ctx := NewContextWithProber(fakeProber{
		"/work/clean": {Exists: true, ModTime: mtime(100)},
	})
	scope := OpenScope("/work", nil)
	clean, _ := ctx.DeclareTarget(scope, "clean")
	SetRecipe(clean, "rm -rf build")
	clean.Phony = true

	require.NoError(t, DetermineDependenciesForTarget(ctx, clean))

	assert.True(t, clean.RebuildRequired)
	assert.Contains(t, ctx.TargetsReady, clean)
}

func TestPhonyFlagSurvivesMarkForRebuildWithDepsAndFile(t *testing.T) {
	// A .PHONY target with prerequisites and an existing file of its own
	// must keep the parser-set Phony flag, not have it recomputed away.
	ctx := NewContextWithProber(fakeProber{
		"/work/all":   {Exists: true, ModTime: mtime(1)},
		"/work/a.obj": {Exists: true, ModTime: mtime(1)},
	})
	scope := OpenScope("/work", nil)
	all, _ := ctx.DeclareTarget(scope, "all")
	SetRecipe(all, "echo done")
	all.Phony = true
	obj, _ := ctx.DeclareTarget(scope, "a.obj")
	CreateDependency(obj, all)

	require.NoError(t, DetermineDependenciesForTarget(ctx, all))

	assert.True(t, all.Phony)
	assert.True(t, all.RebuildRequired)
}

func TestDefaultTargetDeterminesDependencies(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	first, _ := ctx.DeclareTarget(scope, "first")
	SetRecipe(first, "echo hi")

	target, err := DetermineDependencies(ctx)
	require.NoError(t, err)
	assert.Same(t, first, target)
	assert.True(t, target.RebuildRequired)
}
