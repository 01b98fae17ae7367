// Package parse reads classic-Make-syntax makefiles into the core engine's
// scope and target graph. It is a thin producer: it calls the operations
// core exposes for this purpose (OpenScope, DeclareTarget, SetRecipe,
// AddPrerequisite, DeclareInferenceRule), plus LookupOrCreateTarget to set
// the exported Phony flag on names listed under ".PHONY". Closing the
// returned scope (CloseScope) is left to the caller.
package parse

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/op/go-logging.v1"

	"github.com/yamake/yamake/core"
)

var log = logging.MustGetLogger("parse")

// Parser holds the state needed across an entire makefile, including any
// files it includes: the variable store and a guard against circular
// includes.
type Parser struct {
	ctx          *core.Context
	vars         *VariableStore
	includeStack map[string]bool
}

// NewParser creates a parser that will intern targets into ctx, seeded with
// the process environment as its lowest-priority variable source.
func NewParser(ctx *core.Context) *Parser {
	return &Parser{
		ctx:          ctx,
		vars:         NewVariableStore(),
		includeStack: make(map[string]bool),
	}
}

// ParseFile reads filename as the root makefile, opening the root scope in
// its directory, and declares every target, prerequisite, recipe, and
// inference rule it finds. Returns the root scope so the caller can close it
// (running any deferred inference resolution) once parsing is done.
func (p *Parser) ParseFile(filename string) (*core.Scope, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolving makefile path %s: %w", filename, err)
	}

	lines, err := p.readFile(absPath)
	if err != nil {
		return nil, err
	}

	scope := core.OpenScope(filepath.Dir(absPath), nil)
	content := joinContinuations(lines)
	if err := p.parseContent(scope, content); err != nil {
		return nil, err
	}
	return scope, nil
}

// readFile strips comments, follows "include" directives inline, and
// returns the resulting line list. Matched against the same escaping rules
// as recipe text: a backslash protects the character that follows it,
// including a '#' that would otherwise start a comment.
func (p *Parser) readFile(absPath string) ([]string, error) {
	if p.includeStack[absPath] {
		return nil, fmt.Errorf("circular include: %s", absPath)
	}
	p.includeStack[absPath] = true
	defer delete(p.includeStack, absPath)

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening makefile %s: %w", absPath, err)
	}
	defer file.Close()

	var out []string
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "include ") {
			includePath := strings.TrimSpace(trimmed[len("include "):])
			includePath = trimQuotes(includePath)
			if includePath == "" {
				return nil, fmt.Errorf("%s:%d: empty include path", absPath, lineNo)
			}
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(filepath.Dir(absPath), includePath)
			}
			included, err := p.readFile(includePath)
			if err != nil {
				return nil, fmt.Errorf("including %s (from %s:%d): %w", includePath, absPath, lineNo, err)
			}
			out = append(out, included...)
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading makefile %s: %w", absPath, err)
	}
	return out, nil
}

// stripComment removes everything from an unescaped '#' to the end of line.
func stripComment(line string) string {
	var b strings.Builder
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			b.WriteByte(c)
			continue
		}
		if c == '#' {
			break
		}
		b.WriteByte(c)
	}
	return b.String()
}

// joinContinuations merges lines ending in an unescaped backslash with the
// line that follows, the same line-continuation rule recipes and rule
// headers share.
func joinContinuations(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasSuffix(trimmed, `\`) && !strings.HasSuffix(trimmed, `\\`) {
			b.WriteString(trimmed[:len(trimmed)-1])
			continue
		}
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// splitOnUnescaped splits s at the first unescaped occurrence of sep.
func splitOnUnescaped(s string, sep byte) (left, right string, ok bool) {
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// parseContent walks the fully-joined buffer line by line, declaring a
// target and its prerequisites for each rule header, attaching the recipe
// lines that follow it, and recognizing the two-extension ".ext1.ext2:"
// spelling as an inference rule rather than an ordinary target.
func (p *Parser) parseContent(scope *core.Scope, content string) error {
	lines := strings.Split(content, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			return fmt.Errorf("line %d: recipe line with no preceding rule: %q", i+1, trimmed)
		}

		if left, right, ok := splitOnUnescaped(trimmed, ':'); ok && !strings.Contains(left, "=") {
			if _, _, again := splitOnUnescaped(right, ':'); again {
				return fmt.Errorf("line %d: rule with more than one ':'", i+1)
			}

			names, err := p.expandFields(left)
			if err != nil {
				return fmt.Errorf("line %d: expanding targets: %w", i+1, err)
			}
			if len(names) == 0 {
				return fmt.Errorf("line %d: rule with no target", i+1)
			}
			prereqs, err := p.expandFields(right)
			if err != nil {
				return fmt.Errorf("line %d: expanding prerequisites: %w", i+1, err)
			}

			recipeEnd := i + 1
			var recipe []string
			for ; recipeEnd < len(lines); recipeEnd++ {
				rl := lines[recipeEnd]
				if strings.TrimSpace(rl) == "" {
					recipe = append(recipe, rl)
					continue
				}
				if rl[0] != ' ' && rl[0] != '\t' {
					break
				}
				recipe = append(recipe, strings.TrimLeft(rl, " \t"))
			}
			i = recipeEnd - 1
			recipeText, err := p.vars.Expand(strings.Join(recipe, "\n"))
			if err != nil {
				return fmt.Errorf("line %d: expanding recipe: %w", i+1, err)
			}

			if err := p.declareRule(scope, names, prereqs, recipeText); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			continue
		}

		if left, right, ok := splitOnUnescaped(trimmed, '='); ok {
			conditional := false
			if strings.HasSuffix(strings.TrimSpace(left), "?") {
				conditional = true
				left = strings.TrimSpace(left)
				left = left[:len(left)-1]
			}
			name := strings.Fields(left)
			if len(name) == 0 {
				return fmt.Errorf("line %d: assignment with no variable name", i+1)
			}
			value, err := p.vars.Expand(strings.TrimSpace(right))
			if err != nil {
				return fmt.Errorf("line %d: expanding value: %w", i+1, err)
			}
			p.vars.Set(name[len(name)-1], value, conditional)
			continue
		}

		return fmt.Errorf("line %d: not a rule or assignment: %q", i+1, trimmed)
	}
	return nil
}

func (p *Parser) expandFields(raw string) ([]string, error) {
	expanded, err := p.vars.Expand(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return strings.Fields(expanded), nil
}

// suffixRuleExts reports whether name is the classic two-extension
// inference-rule spelling, e.g. ".c.o", returning the source and target
// extensions (dots included).
func suffixRuleExts(name string) (sourceExt, targetExt string, ok bool) {
	if len(name) == 0 || name[0] != '.' {
		return "", "", false
	}
	rest := name[1:]
	dot := strings.IndexByte(rest, '.')
	if dot <= 0 || strings.IndexByte(rest[dot+1:], '.') >= 0 {
		return "", "", false
	}
	return "." + rest[:dot], "." + rest[dot+1:], true
}

// declareRule applies one rule header (possibly several target names
// sharing one recipe and prerequisite list) to scope, special-casing
// ".PHONY" and two-extension inference-rule carriers.
func (p *Parser) declareRule(scope *core.Scope, names, prereqs []string, recipe string) error {
	for _, name := range names {
		if name == ".PHONY" {
			for _, prereq := range prereqs {
				t, err := p.ctx.LookupOrCreateTarget(scope, prereq)
				if err != nil {
					return err
				}
				t.Phony = true
			}
			continue
		}

		if sourceExt, targetExt, ok := suffixRuleExts(name); ok && len(prereqs) == 0 {
			carrier, err := p.ctx.DeclareTarget(scope, name)
			if err != nil {
				return err
			}
			core.SetRecipe(carrier, recipe)
			core.DeclareInferenceRule(scope, sourceExt, targetExt, carrier)
			log.Debugf("declared inference rule %s -> %s via %s", sourceExt, targetExt, name)
			continue
		}

		target, err := p.ctx.DeclareTarget(scope, name)
		if err != nil {
			return err
		}
		if recipe != "" {
			core.SetRecipe(target, recipe)
		}
		// A rule header with no recipe lines leaves the target pending:
		// it still gets a chance at inference-rule resolution on scope
		// close, matching classic Make's implicit-rule search.
		for _, prereq := range prereqs {
			if _, err := p.ctx.AddPrerequisite(scope, prereq, target); err != nil {
				return err
			}
		}
	}
	return nil
}
