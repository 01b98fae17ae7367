package core

import "strings"

// InferenceRule maps a source extension to a target extension, with the
// recipe living on a carrier pseudo-target. Shared and reference-counted
// because a Target may outlive the scope in which the rule was authored
// (it still needs rule.Carrier.Recipe to compile its own recipe).
type InferenceRule struct {
	SourceExt string
	TargetExt string
	// Carrier is the pseudo-target (InferencePseudo == true) holding the
	// recipe text, e.g. key ".c.obj".
	Carrier *Target
	// Scope is where the rule was declared.
	Scope *Scope

	refCount int32
}

func (r *InferenceRule) addRef() {
	r.refCount++
}

// Scope is a lexical region (typically a directory) of the makefile. Scopes
// nest: a child scope inherits its parent's inference rules but its own
// rules shadow the parent's.
type Scope struct {
	// Dir is the working directory raw target names are resolved against.
	Dir string
	// Parent is the enclosing scope, or nil at the root.
	Parent *Scope

	// rules are local to this scope, most-recently-defined first so newer
	// definitions shadow older ones within the same scope.
	rules []*InferenceRule
	// pending holds targets declared in this scope whose inference rule
	// has not yet been resolved; drained by FindRulesForScope on close.
	pending []*Target
}

// OpenScope creates a new scope nested under parent (nil for the root
// scope), matching the parser-facing open_scope(dir) operation (spec.md §6).
func OpenScope(dir string, parent *Scope) *Scope {
	return &Scope{Dir: dir, Parent: parent}
}

// CloseScope finalizes a scope: any target that still needs a recipe gets
// one last chance at inference-rule resolution. Matches the parser-facing
// close_scope operation (spec.md §6).
func CloseScope(ctx *Context, scope *Scope) error {
	return FindRulesForScope(ctx, scope)
}

// addPending links target into this scope's pending-resolution list,
// called the first time a target is declared without (yet) having an
// explicit recipe.
func (s *Scope) addPending(target *Target) {
	s.pending = append(s.pending, target)
}

// CreateInferenceRule registers a new (sourceExt -> targetExt) rule in
// scope, prepending it so it shadows any earlier rule defined in the same
// scope for the same extensions. carrier is marked InferencePseudo and must
// never be selected as a default target or enter the scheduler queues.
func CreateInferenceRule(scope *Scope, sourceExt, targetExt string, carrier *Target) *InferenceRule {
	rule := &InferenceRule{SourceExt: sourceExt, TargetExt: targetExt, Carrier: carrier, Scope: scope}
	carrier.InferencePseudo = true
	carrier.addRef()
	scope.rules = append([]*InferenceRule{rule}, scope.rules...)
	return rule
}

// Rules returns every inference rule reachable from scope, in search order:
// this scope's rules (newest first), then the parent's, and so on up the
// chain. Child scopes are therefore visited before ancestors, so the first
// match in this order is the one that should win.
func (s *Scope) Rules() []*InferenceRule {
	var out []*InferenceRule
	for sc := s; sc != nil; sc = sc.Parent {
		out = append(out, sc.rules...)
	}
	return out
}

// RulesForTargetExt is Rules filtered to those whose TargetExt matches ext,
// case-insensitively. This is the scoped equivalent of
// next_rule_for_target_ext walking top_scope then each ancestor.
func (s *Scope) RulesForTargetExt(ext string) []*InferenceRule {
	var out []*InferenceRule
	for _, r := range s.Rules() {
		if strings.EqualFold(r.TargetExt, ext) {
			out = append(out, r)
		}
	}
	return out
}
