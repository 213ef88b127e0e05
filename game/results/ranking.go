package results

import "sort"

// DefaultRankingSize is the number of entries shown on the clear screen
const DefaultRankingSize = 3

// Entry is a ranked result
type Entry struct {
	Rank int `json:"rank"`
	Result
}

// Rank orders results by time and returns the first limit entries. Equal
// times share the rank of the first entry with that time, so ranks run
// 1,1,3 rather than 1,1,2. A limit <= 0 ranks everything.
func Rank(list []Result, limit int) []Entry {
	sorted := append([]Result(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]Entry, len(sorted))
	for i, r := range sorted {
		rank := i + 1
		if i > 0 && r.Time == sorted[i-1].Time {
			rank = entries[i-1].Rank
		}
		entries[i] = Entry{Rank: rank, Result: r}
	}
	return entries
}
