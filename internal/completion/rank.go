package completion

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/magentointel/internal/types"
)

type rankedEntry struct {
	entry  types.CompletionEntry
	prefix bool
	score  float64
}

// RankByPrefix filters and orders entries against a partially typed member
// name. Members starting with prefix (case-insensitive) come first; the
// rest are kept when their Jaro-Winkler similarity to prefix reaches
// threshold, best first. Ties are ordered by label. An empty prefix returns
// entries unchanged.
func RankByPrefix(entries []types.CompletionEntry, prefix string, threshold float64) []types.CompletionEntry {
	if prefix == "" {
		return entries
	}
	lowerPrefix := strings.ToLower(prefix)

	ranked := make([]rankedEntry, 0, len(entries))
	for _, e := range entries {
		name := strings.ToLower(MemberName(e.Label))
		if strings.HasPrefix(name, lowerPrefix) {
			ranked = append(ranked, rankedEntry{entry: e, prefix: true, score: 1})
			continue
		}
		if score := similarity(name, lowerPrefix); score >= threshold {
			ranked = append(ranked, rankedEntry{entry: e, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.prefix != b.prefix {
			return a.prefix
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.entry.Label < b.entry.Label
	})

	out := make([]types.CompletionEntry, len(ranked))
	for i, r := range ranked {
		out[i] = r.entry
	}
	return out
}

func similarity(a, b string) float64 {
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score)
}
