package resolver

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/magentointel/internal/buffer"
	"github.com/standardbeagle/magentointel/internal/types"
)

var (
	classDeclPattern  = regexp.MustCompile(`(?m)(?:^|[;{}]|<\?php)[ \t]*(?:(?:abstract|final)\s+)*class\s+([A-Za-z_]\w*)`)
	extendsPattern    = regexp.MustCompile(`\bextends\s+(\\?[A-Za-z_][\w\\]*)`)
	returnHintPattern = regexp.MustCompile(`@return\s+([^\s*]+)`)
	varHintPattern    = regexp.MustCompile(`@var\s+([^\s*]+)(?:[ \t]+([^\s*]+))?`)
	typeNamePattern   = regexp.MustCompile(`^[A-Za-z_][\w\\]*$`)
	fluentReturnHints = map[string]bool{"$this": true, "self": true, "static": true}
	nonClassTypeHints = map[string]bool{
		"null": true, "false": true, "true": true, "void": true, "mixed": true,
		"int": true, "integer": true, "float": true, "string": true, "bool": true, "boolean": true,
		"array": true, "object": true, "callable": true, "iterable": true, "resource": true,
	}
)

// FindClassName returns the name of the first class declared in buf
func FindClassName(buf buffer.SourceBuffer) (string, bool) {
	name, _, ok := buffer.Submatch(buf, classDeclPattern, 0, 1)
	return name, ok
}

// FindParentClass returns the class extended by the first class declared
// in buf
func FindParentClass(buf buffer.SourceBuffer) (string, bool) {
	_, classSpan, ok := buffer.Submatch(buf, classDeclPattern, 0, 1)
	if !ok {
		return "", false
	}
	name, _, ok := buffer.Submatch(buf, extendsPattern, classSpan.Start, 1)
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(name, `\`), true
}

// FindVarHint returns the type documented for variable (including its $) by
// the first "@var $variable Type" or "@var Type $variable" in buf
func FindVarHint(buf buffer.SourceBuffer, variable string) (string, bool) {
	if !strings.HasPrefix(variable, "$") || len(variable) < 2 {
		return "", false
	}
	quoted := regexp.QuoteMeta(variable)

	nameFirst := regexp.MustCompile(`@var\s+` + quoted + `\b[ \t]+([^\s*]+)`)
	if hint, _, ok := buffer.Submatch(buf, nameFirst, 0, 1); ok {
		if class, ok := pickClass(hint); ok {
			return class, true
		}
	}

	typeFirst := regexp.MustCompile(`@var\s+([^\s*$]+)[ \t]+` + quoted + `\b`)
	if hint, _, ok := buffer.Submatch(buf, typeFirst, 0, 1); ok {
		return pickClass(hint)
	}
	return "", false
}

// FindReturnHint looks for the declaration of name among the class-level
// tokens (brace depth one), either a method name or a "$name" property, and
// returns the class named by the doc comment in front of it: its @var hint,
// else its @return hint. A closing brace back to
// depth one or a ";" at depth one discards the pending hint. The result is
// absent when name is never declared at depth one or carries no hint.
//
// Hints of $this, self or static name the class declared in buf.
func FindReturnHint(tokens []types.Token, name string, buf buffer.SourceBuffer) (string, bool) {
	hint := ""
	nest := 0
	property := "$" + name
	for _, tk := range tokens {
		if nest == 1 && (tk.Kind == types.KindIdentifier && tk.Text == name ||
			tk.Kind == types.KindVariable && tk.Text == property) {
			return classFromHint(hint, buf)
		}
		switch tk.Kind {
		case types.KindOpenBrace:
			nest++
		case types.KindCloseBrace:
			nest--
			if nest == 1 {
				hint = ""
			}
		case types.KindSemicolon:
			if nest == 1 {
				hint = ""
			}
		case types.KindDocComment:
			if nest == 1 {
				hint = docHint(tk.Text)
			}
		}
	}
	return "", false
}

// docHint extracts the first type word of a doc comment's @var or @return tag
func docHint(doc string) string {
	if m := varHintPattern.FindStringSubmatch(doc); m != nil {
		if strings.HasPrefix(m[1], "$") {
			return m[2]
		}
		return m[1]
	}
	if m := returnHintPattern.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	return ""
}

func classFromHint(hint string, buf buffer.SourceBuffer) (string, bool) {
	if fluentReturnHints[hint] {
		return FindClassName(buf)
	}
	return pickClass(hint)
}

// pickClass returns the first alternative of a "A|B|null" type that names
// a class
func pickClass(hint string) (string, bool) {
	for _, alt := range strings.Split(hint, "|") {
		alt = strings.TrimPrefix(alt, `\`)
		if alt == "" || nonClassTypeHints[strings.ToLower(alt)] {
			continue
		}
		if typeNamePattern.MatchString(alt) {
			return alt, true
		}
	}
	return "", false
}
