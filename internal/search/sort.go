package search

import "sort"

// SortResults sorts results by score (descending), then by key (ascending).
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Entry.Key < results[j].Entry.Key
		}
		return results[i].Score > results[j].Score
	})
}
