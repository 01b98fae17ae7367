package core

// Dependency is a directed edge from a prerequisite (Parent) to the target
// that depends on it (Child). The naming mirrors the engine's own
// terminology, preserved from the original source: "parent" means
// prerequisite, "child" means dependent (see GLOSSARY).
type Dependency struct {
	Parent *Target
	Child  *Target
}

// CreateDependency links child on parent: parent is added to child's
// prerequisite list, and child is added to parent's dependent list. Invariant
// 2 (spec.md §3) holds by construction: a Dependency is never linked into
// only one of the two lists.
//
// A no-op if the edge already exists, so callers (the parser's
// AddPrerequisite, and the scheduler's synthesized inference edges) don't
// need to pre-check for duplicates.
func CreateDependency(parent, child *Target) *Dependency {
	for _, d := range child.ParentDeps {
		if d.Parent == parent {
			return d
		}
	}
	dep := &Dependency{Parent: parent, Child: child}
	child.ParentDeps = append(child.ParentDeps, dep)
	parent.ChildDeps = append(parent.ChildDeps, dep)
	return dep
}

// removeDependency unlinks dep from both of its endpoints' adjacency lists.
// Used only during target teardown.
func removeDependency(dep *Dependency) {
	dep.Child.ParentDeps = removeDep(dep.Child.ParentDeps, dep)
	dep.Parent.ChildDeps = removeDep(dep.Parent.ChildDeps, dep)
}

func removeDep(deps []*Dependency, dep *Dependency) []*Dependency {
	for i, d := range deps {
		if d == dep {
			deps[i] = deps[len(deps)-1]
			return deps[:len(deps)-1]
		}
	}
	return deps
}

// HasPrerequisite reports whether child already depends on parent.
func HasPrerequisite(child, parent *Target) bool {
	for _, d := range child.ParentDeps {
		if d.Parent == parent {
			return true
		}
	}
	return false
}
