// Package members extracts the members a class file offers in a given
// access context.
//
// Extraction is a regular expression heuristic over the raw source, not a
// parse. It sits behind the Extractor interface so a grammar based
// implementation can replace it.
package members

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/types"
)

// Extractor returns the members of the class file at path that are visible
// in access. A missing file yields an empty set and no error.
type Extractor interface {
	ScanMembers(path string, access types.AccessContext) (types.MemberSet, error)
}

// pattern is one extraction rule. Method rules capture the name and the raw
// argument list, which may hold one level of parentheses for defaults such
// as array(); property and constant rules capture only the name.
type pattern struct {
	re   *regexp.Regexp
	kind types.MemberKind
}

var (
	publicPatterns = []pattern{
		{regexp.MustCompile(`public function (\w*?)\(((?:[^()]|\([^()]*\))*)\)`), types.MemberMethod},
		// Two-space indented functions without a modifier are public by convention
		{regexp.MustCompile(`\s\sfunction (\w*?)\(((?:[^()]|\([^()]*\))*)\)`), types.MemberMethod},
		{regexp.MustCompile(`public \$(\w*).*;`), types.MemberProperty},
	}
	privatePatterns = []pattern{
		{regexp.MustCompile(`function (\w*?)\(((?:[^()]|\([^()]*\))*)\)`), types.MemberMethod},
		{regexp.MustCompile(`(?:public|protected|private) \$(\w*).*;`), types.MemberProperty},
	}
	staticPatterns = []pattern{
		{regexp.MustCompile(`public static function (\w*?)\(((?:[^()]|\([^()]*\))*)\)`), types.MemberMethod},
		{regexp.MustCompile(`const\s+(\w+)\s*=.*;`), types.MemberConstant},
		{regexp.MustCompile(`public static \$(\w*).*;`), types.MemberProperty},
	}

	parameterNamePattern = regexp.MustCompile(`^\w+$`)
)

func patternsFor(access types.AccessContext) []pattern {
	switch access {
	case types.AccessPrivate:
		return privatePatterns
	case types.AccessStatic:
		return staticPatterns
	default:
		return publicPatterns
	}
}

// RegexExtractor is the regular expression Extractor
type RegexExtractor struct{}

// ScanMembers implements Extractor
func (RegexExtractor) ScanMembers(path string, access types.AccessContext) (types.MemberSet, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.MemberSet{}, nil
	}
	if err != nil {
		return types.MemberSet{}, fmt.Errorf("failed to read class file: %w", err)
	}

	set := ScanSource(string(content), access)
	debug.Log(debug.ComponentMembers, "%d %s members in %s\n", len(set), access, path)
	return set, nil
}

// ScanSource extracts members from source. Rules run in order and a later
// match replaces an earlier one with the same name.
func ScanSource(source string, access types.AccessContext) types.MemberSet {
	set := types.MemberSet{}
	for _, p := range patternsFor(access) {
		for _, m := range p.re.FindAllStringSubmatch(source, -1) {
			name := m[1]
			if name == "" {
				continue
			}
			info := types.MemberInfo{Name: name, Kind: p.kind}
			if p.kind == types.MemberMethod {
				info.Parameters = ReduceParameters(m[2])
			}
			set[name] = info
		}
	}
	return set
}

// ReduceParameters splits a raw argument list and reduces every argument to
// its bare name, dropping empty and unrecognizable ones
func ReduceParameters(args string) []string {
	params := []string{}
	for _, arg := range strings.Split(args, ",") {
		if name := ReduceParameter(arg); name != "" {
			params = append(params, name)
		}
	}
	return params
}

// ReduceParameter reduces one argument declaration to its bare name:
// "Varien_Object &$object = null" becomes "object". It returns "" when no
// name remains.
func ReduceParameter(arg string) string {
	arg, _, _ = strings.Cut(arg, "=")
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return ""
	}
	name := strings.TrimLeft(fields[len(fields)-1], "&.$")
	if !parameterNamePattern.MatchString(name) {
		return ""
	}
	return name
}
