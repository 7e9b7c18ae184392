// Package completion turns class members into editor completion entries.
package completion

import (
	"sort"
	"strconv"
	"strings"

	"github.com/standardbeagle/magentointel/internal/types"
)

// Assemble builds one entry per member, labeled "{member}\t{class}" and
// sorted by label. An unresolved class or an empty member set yields an
// empty slice.
func Assemble(resolved types.ResolvedClass, members types.MemberSet) []types.CompletionEntry {
	entries := make([]types.CompletionEntry, 0, len(members))
	if resolved.IsZero() {
		return entries
	}
	for name, info := range members {
		entries = append(entries, types.CompletionEntry{
			Label:      name + "\t" + resolved.Name,
			InsertText: Snippet(info, resolved.AccessContext),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// Snippet returns the insert text for a member. Methods get one numbered
// placeholder per parameter, getData($key, $index) becoming
// "getData(${1:\$key}, ${2:\$index})". Properties reached through "::"
// keep their "$".
func Snippet(info types.MemberInfo, access types.AccessContext) string {
	switch info.Kind {
	case types.MemberMethod:
		var b strings.Builder
		b.WriteString(info.Name)
		b.WriteByte('(')
		for i, p := range info.Parameters {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("${")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(`:\$`)
			b.WriteString(p)
			b.WriteByte('}')
		}
		b.WriteByte(')')
		return b.String()
	case types.MemberProperty:
		if access == types.AccessStatic {
			return "$" + info.Name
		}
	}
	return info.Name
}

// MemberName returns the member part of a completion label
func MemberName(label string) string {
	name, _, _ := strings.Cut(label, "\t")
	return name
}

// Limit truncates entries to max; max <= 0 means no limit
func Limit(entries []types.CompletionEntry, max int) []types.CompletionEntry {
	if max > 0 && len(entries) > max {
		return entries[:max]
	}
	return entries
}
