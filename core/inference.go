package core

import (
	"github.com/hashicorp/go-multierror"
)

// splitExt scans key right-to-left for the first '.' before any path
// separator, mirroring the original's byte-at-a-time scan. Returns the stem
// (key without the extension, dot included) and the extension (dot
// included), or ok == false if key has no extension.
func splitExt(key string) (stem, ext string, ok bool) {
	for i := len(key) - 1; i >= 0; i-- {
		c := key[i]
		if c == '/' || c == '\\' {
			return "", "", false
		}
		if c == '.' {
			return key[:i], key[i:], true
		}
	}
	return "", "", false
}

// FindInferenceRuleForTarget attempts to attach an inference rule to
// target, either directly (one source extension away from an existing
// file) or chained through one intermediate rule (spec.md §4.3).
//
// Preconditions: target.Recipe is empty and target.InferenceRule is unset.
// Returns nil (success, no assignment) if target has no extension, or no
// rule's target extension matches, or no candidate source file exists.
func FindInferenceRuleForTarget(ctx *Context, scope *Scope, target *Target) error {
	stem, targetExt, ok := splitExt(target.Key)
	if !ok {
		return nil
	}

	rules := scope.RulesForTargetExt(targetExt)

	// First pass (depth 1): does a direct source file exist?
	for _, rule := range rules {
		candidate := stem + rule.SourceExt
		if ctx.Prober.Probe(candidate).Exists {
			assignRule(ctx, scope, target, rule, candidate)
			return nil
		}
	}

	// Second pass (depth 2): chain through one intermediate rule.
	for _, outer := range rules {
		innerRules := scope.RulesForTargetExt(outer.SourceExt)
		for _, inner := range innerRules {
			candidate := stem + inner.SourceExt
			if ctx.Prober.Probe(candidate).Exists {
				assignRule(ctx, scope, target, outer, stem+outer.SourceExt)
				assignRule(ctx, scope, target.InferenceParent, inner, candidate)
				return nil
			}
		}
	}

	return nil
}

// assignRule binds rule to target: interns the source path as
// target.InferenceParent, bumps both reference counts, and preserves
// target.Scope if it wasn't already set (spec.md §4.3 "assign_rule").
func assignRule(ctx *Context, scope *Scope, target *Target, rule *InferenceRule, sourcePath string) {
	source := ctx.internCanonical(sourcePath, scope)
	source.addRef()
	rule.addRef()
	target.InferenceRule = rule
	target.InferenceParent = source
	if target.Scope == nil {
		target.Scope = scope
	}
}

// FindRulesForScope drains scope's pending-resolution list: every target
// still without a recipe or inference rule is run through the resolver.
// Idempotent — once drained, scope.pending is empty and a second call does
// nothing (spec.md §8 round-trip law).
func FindRulesForScope(ctx *Context, scope *Scope) error {
	pending := scope.pending
	scope.pending = nil

	var errs *multierror.Error
	for _, target := range pending {
		if target.ExplicitRecipeFound || target.InferenceRule != nil {
			continue // a later rule in this scope supplied an explicit recipe.
		}
		if err := FindInferenceRuleForTarget(ctx, scope, target); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
