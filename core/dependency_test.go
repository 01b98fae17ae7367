package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDependencyLinksBothEndpoints(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	parent, err := ctx.LookupOrCreateTarget(scope, "a.c")
	require.NoError(t, err)
	child, err := ctx.LookupOrCreateTarget(scope, "a.obj")
	require.NoError(t, err)

	dep := CreateDependency(parent, child)

	require.Len(t, child.ParentDeps, 1)
	require.Len(t, parent.ChildDeps, 1)
	assert.Same(t, dep, child.ParentDeps[0])
	assert.Same(t, dep, parent.ChildDeps[0])
	assert.True(t, HasPrerequisite(child, parent))
}

func TestCreateDependencyIsIdempotent(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	parent, _ := ctx.LookupOrCreateTarget(scope, "a.c")
	child, _ := ctx.LookupOrCreateTarget(scope, "a.obj")

	dep1 := CreateDependency(parent, child)
	dep2 := CreateDependency(parent, child)

	assert.Same(t, dep1, dep2)
	assert.Len(t, child.ParentDeps, 1)
	assert.Len(t, parent.ChildDeps, 1)
}

func TestRemoveDependencyUnlinksBothEndpoints(t *testing.T) {
	ctx := NewContextWithProber(fakeProber{})
	scope := OpenScope("/work", nil)
	parent, _ := ctx.LookupOrCreateTarget(scope, "a.c")
	child, _ := ctx.LookupOrCreateTarget(scope, "a.obj")
	dep := CreateDependency(parent, child)

	removeDependency(dep)

	assert.Empty(t, child.ParentDeps)
	assert.Empty(t, parent.ChildDeps)
}
