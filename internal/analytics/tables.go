// Package analytics computes ranked visit and referrer tables over the
// visit store. All functions are pure reads of the posts map they are given;
// callers hand it over via store.View.
package analytics

import (
	"sort"

	"beacon/internal/store"
)

// TotalLabel is the synthetic summary row appended to every table.
const TotalLabel = "Total"

// Row is one line of a visits table.
type Row struct {
	Post   string `json:"post"`
	Visits int    `json:"visits"`
}

// ReferrerRow is one line of a referrers table. The count collapses referrer
// identity: it is the number of referred visits for the post, not a
// per-referrer breakdown.
type ReferrerRow struct {
	Post      string `json:"post"`
	Referrers int    `json:"referrers"`
}

// VisitsTable counts visits per post within the half-open window
// [start, end) in epoch milliseconds. Posts with no visits in the window are
// omitted. Rows are sorted by count descending, then post id, with a Total
// row appended.
func VisitsTable(posts map[string]*store.Post, start, end int64) []Row {
	table := make([]Row, 0, len(posts))
	for id, post := range posts {
		count := 0
		for _, v := range post.Visits {
			if v.Timestamp >= start && v.Timestamp < end {
				count++
			}
		}
		if count > 0 {
			table = append(table, Row{Post: id, Visits: count})
		}
	}

	sortRows(table)

	total := 0
	for _, row := range table {
		total += row.Visits
	}
	return append(table, Row{Post: TotalLabel, Visits: total})
}

// ReferrersTable counts referred visits (non-empty referrer) per post within
// [start, end). Rows are sorted descending with a Total row appended.
func ReferrersTable(posts map[string]*store.Post, start, end int64) []ReferrerRow {
	table := make([]ReferrerRow, 0, len(posts))
	for id, post := range posts {
		count := 0
		for _, v := range post.Visits {
			if v.Timestamp >= start && v.Timestamp < end && v.Referrer != "" {
				count++
			}
		}
		if count > 0 {
			table = append(table, ReferrerRow{Post: id, Referrers: count})
		}
	}

	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Referrers != table[j].Referrers {
			return table[i].Referrers > table[j].Referrers
		}
		return table[i].Post < table[j].Post
	})

	total := 0
	for _, row := range table {
		total += row.Referrers
	}
	return append(table, ReferrerRow{Post: TotalLabel, Referrers: total})
}

// AllTimeVisitsTable ranks every post by its lifetime counter, which the
// retention sweeper never decrements, so counts survive pruning.
func AllTimeVisitsTable(posts map[string]*store.Post) []Row {
	table := make([]Row, 0, len(posts))
	for id, post := range posts {
		table = append(table, Row{Post: id, Visits: post.NumVisits})
	}

	sortRows(table)

	total := 0
	for _, row := range table {
		total += row.Visits
	}
	return append(table, Row{Post: TotalLabel, Visits: total})
}

func sortRows(table []Row) {
	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Visits != table[j].Visits {
			return table[i].Visits > table[j].Visits
		}
		return table[i].Post < table[j].Post
	})
}
