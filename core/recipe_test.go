package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateExecScriptOwnRecipe(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{"/work/a.c": {Exists: true}})
	scope := OpenScope("/work", nil)
	target, _ := ctx.LookupOrCreateTarget(scope, "a.obj")
	src, _ := ctx.LookupOrCreateTarget(scope, "a.c")
	CreateDependency(src, target)
	SetRecipe(target, "cc $< -o $@")

	require.NoError(t, GenerateExecScript(target))

	require.Len(t, target.ExecCmds, 1)
	assert.Equal(t, "cc a.c -o a.obj", target.ExecCmds[0].Cmd)
	assert.True(t, target.ExecCmds[0].DisplayCmd)
	assert.False(t, target.ExecCmds[0].IgnoreErrors)
}

func TestGenerateExecScriptFromInferenceRuleCarrier(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{"/work/a.c": {Exists: true}})
	scope := OpenScope("/work", nil)
	carrier, _ := ctx.LookupOrCreateTarget(scope, ".c.obj")
	SetRecipe(carrier, "cc $< -o $@")
	rule := CreateInferenceRule(scope, ".c", ".obj", carrier)

	target, _ := ctx.LookupOrCreateTarget(scope, "a.obj")
	assignRule(ctx, scope, target, rule, "/work/a.c")

	require.NoError(t, GenerateExecScript(target))
	require.Len(t, target.ExecCmds, 1)
	assert.Equal(t, "cc a.c -o a.obj", target.ExecCmds[0].Cmd)
}

func TestGenerateExecScriptPrefixes(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	target, _ := ctx.LookupOrCreateTarget(scope, "a.obj")
	SetRecipe(target, "@echo building\n-rm -f old\n@-echo quiet-and-ignored\nplain")

	require.NoError(t, GenerateExecScript(target))
	require.Len(t, target.ExecCmds, 4)

	assert.Equal(t, "echo building", target.ExecCmds[0].Cmd)
	assert.False(t, target.ExecCmds[0].DisplayCmd)
	assert.False(t, target.ExecCmds[0].IgnoreErrors)

	assert.Equal(t, "rm -f old", target.ExecCmds[1].Cmd)
	assert.True(t, target.ExecCmds[1].DisplayCmd)
	assert.True(t, target.ExecCmds[1].IgnoreErrors)

	assert.Equal(t, "echo quiet-and-ignored", target.ExecCmds[2].Cmd)
	assert.False(t, target.ExecCmds[2].DisplayCmd)
	assert.True(t, target.ExecCmds[2].IgnoreErrors)

	assert.Equal(t, "plain", target.ExecCmds[3].Cmd)
}

func TestGenerateExecScriptNormalizesCRLF(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	target, _ := ctx.LookupOrCreateTarget(scope, "a.obj")
	SetRecipe(target, "echo one\r\necho two")

	require.NoError(t, GenerateExecScript(target))
	require.Len(t, target.ExecCmds, 2)
	assert.Equal(t, "echo one", target.ExecCmds[0].Cmd)
	assert.Equal(t, "echo two", target.ExecCmds[1].Cmd)
}

func TestGenerateExecScriptNothingToDo(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	target, _ := ctx.LookupOrCreateTarget(scope, "a.obj")

	err := GenerateExecScript(target)
	assert.ErrorIs(t, err, ErrNothingToDo)
}

func TestGenerateExecScriptExplicitEmptyRecipeIsNotAnError(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	target, _ := ctx.LookupOrCreateTarget(scope, "a.obj")
	SetRecipe(target, "")

	require.NoError(t, GenerateExecScript(target))
	assert.Empty(t, target.ExecCmds)
}
