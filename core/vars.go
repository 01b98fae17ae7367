package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ExpandVariable computes the value of a target-scoped automatic variable
// (spec.md §4.4). name is one of "@", "*", "<", "?", "**"; mod is the
// filename-part modifier, case-insensitive, or "" for the default (same as
// "F"). The expander never mutates target.
func ExpandVariable(target *Target, name, mod string) (string, error) {
	switch name {
	case "@":
		return applyModifier(mod, target.Key)
	case "*":
		return applyModifier(mod, stemOf(target.Key))
	case "<":
		return applyModifier(mod, inferenceSource(target))
	case "?":
		return applyModifierEach(mod, newerPrerequisites(target))
	case "**":
		return applyModifierEach(mod, allPrerequisites(target))
	default:
		return "", fmt.Errorf("%w: unrecognized automatic variable %q", ErrUnknownModifier, name)
	}
}

// stemOf implements the "*" variable: the path with its final extension
// (and dot) removed. If there's no extension, or no path separator either,
// the whole path is returned unchanged.
func stemOf(key string) string {
	stem, _, ok := splitExt(key)
	if !ok {
		return key
	}
	return stem
}

// inferenceSource implements "<": the inference rule's source path; for a
// target with no inference rule, its first prerequisite; "" if it has
// neither.
func inferenceSource(target *Target) string {
	if target.InferenceRule != nil && target.InferenceParent != nil {
		return target.InferenceParent.Key
	}
	if len(target.ParentDeps) > 0 {
		return target.ParentDeps[0].Parent.Key
	}
	return ""
}

// newerPrerequisites implements "?": prerequisites that are newer than
// target, or for which either side doesn't exist, in attachment order.
func newerPrerequisites(target *Target) []string {
	var out []string
	for _, dep := range target.ParentDeps {
		p := dep.Parent
		if !p.FileExists || !target.FileExists || p.ModifiedTime.After(target.ModifiedTime) {
			out = append(out, p.Key)
		}
	}
	return out
}

// allPrerequisites implements "**": every prerequisite, in the order edges
// were attached (parser order).
func allPrerequisites(target *Target) []string {
	out := make([]string, 0, len(target.ParentDeps))
	for _, dep := range target.ParentDeps {
		out = append(out, dep.Parent.Key)
	}
	return out
}

// applyModifier applies a single filename-part modifier to one path.
func applyModifier(mod, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	switch strings.ToUpper(mod) {
	case "", "F":
		return fileName(value), nil
	case "B":
		return baseName(value), nil
	case "D":
		return dirName(value), nil
	case "R":
		return rootName(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModifier, mod)
	}
}

// applyModifierEach applies a modifier to each of several paths (the "?"
// and "**" variables expand to a space-joined list) and rejoins the
// results with spaces.
func applyModifierEach(mod string, values []string) (string, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		p, err := applyModifier(mod, v)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return strings.Join(parts, " "), nil
}

// fileName strips everything up to and including the last path separator.
func fileName(path string) string {
	return filepath.Base(filepath.ToSlash(path))
}

// baseName strips the directory and the final extension.
func baseName(path string) string {
	base := fileName(path)
	if stem, _, ok := splitExt(base); ok {
		return stem
	}
	return base
}

// dirName strips the final separator and everything after it.
func dirName(path string) string {
	return filepath.Dir(filepath.ToSlash(path))
}

// rootName strips only the final extension, keeping the directory.
func rootName(path string) string {
	return stemOf(path)
}

// scanVar looks for an automatic-variable reference starting at s[i] (which
// must be '$'). Returns the variable name, its modifier, and the index in s
// just past the end of the reference. ok is false if s[i] doesn't start a
// recognized reference, in which case the caller should pass the '$'
// through literally (unrecognized $-sequences, e.g. makefile variables, are
// not this package's concern — see SPEC_FULL.md §3 on the parse package).
func scanVar(s string, i int) (name, mod string, consumed int, ok bool) {
	if i >= len(s) || s[i] != '$' {
		return "", "", 0, false
	}
	rest := s[i+1:]
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", "", 0, false
		}
		content := rest[1:end]
		n, m, innerOK := splitNameAndModifier(content)
		if !innerOK {
			return "", "", 0, false
		}
		return n, m, i + 2 + end, true
	}
	if strings.HasPrefix(rest, "**") {
		return "**", "", i + 3, true
	}
	if len(rest) > 0 && strings.ContainsRune("@*<?", rune(rest[0])) {
		return rest[0:1], "", i + 2, true
	}
	return "", "", 0, false
}

// splitNameAndModifier parses the parenthesized form's content, e.g. "@F",
// "**B", "<", into a variable name and an optional single-letter modifier.
func splitNameAndModifier(content string) (name, mod string, ok bool) {
	if strings.HasPrefix(content, "**") {
		return "**", content[2:], len(content) <= 3
	}
	if len(content) == 0 {
		return "", "", false
	}
	if !strings.ContainsRune("@*<?", rune(content[0])) {
		return "", "", false
	}
	return content[0:1], content[1:], len(content) <= 2
}

// ExpandLine expands every automatic-variable reference in line against
// target. Text that isn't part of a recognized reference is copied through
// unchanged.
func ExpandLine(target *Target, line string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(line); {
		if line[i] == '$' {
			if name, mod, consumed, ok := scanVar(line, i); ok {
				value, err := ExpandVariable(target, name, mod)
				if err != nil {
					return "", err
				}
				out.WriteString(value)
				i = consumed
				continue
			}
		}
		out.WriteByte(line[i])
		i++
	}
	return out.String(), nil
}
