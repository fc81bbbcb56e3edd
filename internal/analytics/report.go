package analytics

import (
	"time"

	"beacon/internal/store"
)

// Tables pairs the visit and referrer tables for one time window.
type Tables struct {
	Visits    []Row
	Referrers []ReferrerRow
}

// Report holds everything one page render needs: the six fixed windows plus
// the daily chart, all derived from a single captured now so the windows are
// mutually consistent.
type Report struct {
	Today     Tables
	Yesterday Tables
	ThisWeek  Tables
	LastWeek  Tables
	AllTime   []Row
	Chart     Histogram
}

// BuildReport computes the full analytics report at the instant now. Today
// runs from local midnight; the week windows are rolling seven-day spans.
func BuildReport(posts map[string]*store.Post, now time.Time) *Report {
	day := 24 * time.Hour
	week := 7 * day

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	nowMs := now.UnixMilli()
	todayMs := startOfToday.UnixMilli()
	yesterdayMs := startOfToday.Add(-day).UnixMilli()
	weekAgoMs := now.Add(-week).UnixMilli()
	twoWeeksAgoMs := now.Add(-2 * week).UnixMilli()

	window := func(start, end int64) Tables {
		return Tables{
			Visits:    VisitsTable(posts, start, end),
			Referrers: ReferrersTable(posts, start, end),
		}
	}

	return &Report{
		Today:     window(todayMs, nowMs),
		Yesterday: window(yesterdayMs, todayMs),
		ThisWeek:  window(weekAgoMs, nowMs),
		LastWeek:  window(twoWeeksAgoMs, weekAgoMs),
		AllTime:   AllTimeVisitsTable(posts),
		Chart:     DailyHistogram(posts, now),
	}
}
