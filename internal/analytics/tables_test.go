package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/store"
)

func visitAt(ts int64, referrer string) store.Visit {
	return store.Visit{Timestamp: ts, Referrer: referrer}
}

func postWith(visits ...store.Visit) *store.Post {
	return &store.Post{NumVisits: len(visits), Visits: visits}
}

func TestVisitsTable(t *testing.T) {
	posts := map[string]*store.Post{
		"2024/01/01/hot":  postWith(visitAt(10, ""), visitAt(20, ""), visitAt(30, "")),
		"2024/01/02/warm": postWith(visitAt(15, ""), visitAt(25, "")),
		"2024/01/03/old":  postWith(visitAt(1, "")),
	}

	table := VisitsTable(posts, 10, 31)

	assert.Equal(t, []Row{
		{Post: "2024/01/01/hot", Visits: 3},
		{Post: "2024/01/02/warm", Visits: 2},
		{Post: TotalLabel, Visits: 5},
	}, table)
}

func TestVisitsTable_WindowIsHalfOpen(t *testing.T) {
	posts := map[string]*store.Post{
		"2024/01/01/p": postWith(visitAt(10, ""), visitAt(20, "")),
	}

	// end is exclusive, start inclusive
	table := VisitsTable(posts, 10, 20)
	assert.Equal(t, []Row{
		{Post: "2024/01/01/p", Visits: 1},
		{Post: TotalLabel, Visits: 1},
	}, table)
}

func TestVisitsTable_Empty(t *testing.T) {
	table := VisitsTable(map[string]*store.Post{}, 0, 100)
	assert.Equal(t, []Row{{Post: TotalLabel, Visits: 0}}, table)
}

func TestVisitsTable_SingleVisitWholeRange(t *testing.T) {
	posts := map[string]*store.Post{
		"2024/01/01/hello": postWith(visitAt(1700000000000, "")),
	}

	table := VisitsTable(posts, 0, 1<<62)
	require.Len(t, table, 2)
	assert.Equal(t, Row{Post: "2024/01/01/hello", Visits: 1}, table[0])
	assert.Equal(t, Row{Post: TotalLabel, Visits: 1}, table[1])
}

func TestReferrersTable(t *testing.T) {
	posts := map[string]*store.Post{
		"2024/01/01/a": postWith(
			visitAt(10, "http://x.com"),
			visitAt(11, "http://y.com"),
			visitAt(12, ""), // direct visits are not counted
		),
		"2024/01/02/b": postWith(visitAt(13, "http://x.com")),
		"2024/01/03/c": postWith(visitAt(14, "")),
	}

	table := ReferrersTable(posts, 0, 100)

	assert.Equal(t, []ReferrerRow{
		{Post: "2024/01/01/a", Referrers: 2},
		{Post: "2024/01/02/b", Referrers: 1},
		{Post: TotalLabel, Referrers: 3},
	}, table)
}

func TestAllTimeVisitsTable_SurvivesPruning(t *testing.T) {
	// counter ahead of the retained window, as after a purge
	posts := map[string]*store.Post{
		"2024/01/01/pruned": {NumVisits: 10, Visits: []store.Visit{visitAt(99, "")}},
		"2024/01/02/fresh":  postWith(visitAt(98, "")),
		"2024/01/03/empty":  {NumVisits: 3, Visits: []store.Visit{}},
	}

	table := AllTimeVisitsTable(posts)

	assert.Equal(t, []Row{
		{Post: "2024/01/01/pruned", Visits: 10},
		{Post: "2024/01/03/empty", Visits: 3},
		{Post: "2024/01/02/fresh", Visits: 1},
		{Post: TotalLabel, Visits: 14},
	}, table)
}

func TestAllTimeVisitsTable_Scenario(t *testing.T) {
	posts := map[string]*store.Post{
		"2024/01/01/hello": postWith(visitAt(1700000000000, "http://x.com")),
	}

	assert.Equal(t, []Row{
		{Post: "2024/01/01/hello", Visits: 1},
		{Post: TotalLabel, Visits: 1},
	}, AllTimeVisitsTable(posts))
}

func TestDailyHistogram(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	posts := map[string]*store.Post{
		"2024/01/01/p": postWith(
			visitAt(now.UnixMilli(), ""),
			visitAt(now.Add(-2*day).UnixMilli(), ""),
			visitAt(now.Add(-2*day).UnixMilli(), ""),
			visitAt(now.Add(-40*day).UnixMilli(), ""), // outside the window
		),
	}

	h := DailyHistogram(posts, now)

	require.Len(t, h.Labels, 31)
	require.Len(t, h.Counts, 31)

	assert.Equal(t, "2/14", h.Labels[0])
	assert.Equal(t, "3/15", h.Labels[30])

	assert.Equal(t, 1, h.Counts[30]) // today
	assert.Equal(t, 2, h.Counts[28]) // two days ago

	total := 0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 3, total)
}

func TestDailyHistogram_DenseZeroBuckets(t *testing.T) {
	h := DailyHistogram(map[string]*store.Post{}, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	require.Len(t, h.Labels, 31)
	for i, c := range h.Counts {
		assert.Zero(t, c, "bucket %s", h.Labels[i])
	}
}

func TestBuildReport_WindowsAreConsistent(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, loc)
	day := 24 * time.Hour

	posts := map[string]*store.Post{
		"2024/01/01/p": postWith(
			visitAt(now.Add(-time.Hour).UnixMilli(), "http://x.com"), // today
			visitAt(now.Add(-20*time.Hour).UnixMilli(), ""),          // yesterday
			visitAt(now.Add(-3*day).UnixMilli(), ""),                 // this week
			visitAt(now.Add(-10*day).UnixMilli(), ""),                // last week
		),
	}

	r := BuildReport(posts, now)

	assert.Equal(t, 1, r.Today.Visits[len(r.Today.Visits)-1].Visits)
	assert.Equal(t, 1, r.Yesterday.Visits[len(r.Yesterday.Visits)-1].Visits)
	// this week is a rolling seven-day span, so it includes today and yesterday
	assert.Equal(t, 3, r.ThisWeek.Visits[len(r.ThisWeek.Visits)-1].Visits)
	assert.Equal(t, 1, r.LastWeek.Visits[len(r.LastWeek.Visits)-1].Visits)
	assert.Equal(t, 4, r.AllTime[len(r.AllTime)-1].Visits)

	// only the referred visit shows up in the referrer tables
	assert.Equal(t, 1, r.Today.Referrers[len(r.Today.Referrers)-1].Referrers)
	assert.Equal(t, 0, r.Yesterday.Referrers[len(r.Yesterday.Referrers)-1].Referrers)

	require.Len(t, r.Chart.Labels, 31)
}
