package core

import "strings"

// recipeTemplate selects the raw recipe text to compile for target:
// its own recipe if non-empty, otherwise its inference rule's carrier
// recipe, otherwise its own (possibly empty) explicit recipe. ok is false
// if none of those apply; GenerateExecScript then returns ErrNothingToDo
// (spec.md §4.5).
func recipeTemplate(target *Target) (string, bool) {
	if target.Recipe != "" {
		return target.Recipe, true
	}
	if target.InferenceRule != nil {
		return target.InferenceRule.Carrier.Recipe, true
	}
	if target.ExplicitRecipeFound {
		return target.Recipe, true
	}
	return "", false
}

// GenerateExecScript compiles target's recipe template into target.ExecCmds:
// one ExecCmd per logical line, after stripping leading '@'/'-' modifiers
// and expanding automatic variables. Runs lazily the first time a target is
// marked for rebuild (spec.md §4.5).
func GenerateExecScript(target *Target) error {
	template, ok := recipeTemplate(target)
	if !ok {
		return ErrNothingToDo
	}
	normalized := strings.ReplaceAll(template, "\r\n", "\n")
	if normalized == "" {
		return nil
	}

	var cmds []ExecCmd
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		body, display, ignoreErrors := stripLinePrefixes(line)
		expanded, err := ExpandLine(target, body)
		if err != nil {
			return err
		}
		cmds = append(cmds, ExecCmd{Cmd: expanded, DisplayCmd: display, IgnoreErrors: ignoreErrors})
	}
	target.ExecCmds = cmds
	return nil
}

// stripLinePrefixes consumes leading '@' (suppress echo) and '-' (ignore
// errors) prefixes, in any order and any repetition, and returns the
// remaining command body plus the two flags.
func stripLinePrefixes(line string) (body string, display, ignoreErrors bool) {
	display = true
	body = strings.TrimLeft(line, " \t")
	for len(body) > 0 {
		switch body[0] {
		case '@':
			display = false
			body = body[1:]
		case '-':
			ignoreErrors = true
			body = body[1:]
		default:
			return body, display, ignoreErrors
		}
	}
	return body, display, ignoreErrors
}
