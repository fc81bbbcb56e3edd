package analytics

import (
	"fmt"
	"time"

	"beacon/internal/constants"
	"beacon/internal/store"
)

// Histogram is the daily visit chart: one bucket per calendar day for the
// trailing chart window plus today, labeled month/day. Buckets with no
// visits stay at zero so the label sequence is dense and contiguous.
type Histogram struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// DailyHistogram buckets visits from the trailing chart window by calendar
// day in now's location. Labels are year-agnostic "M/D" strings, oldest
// first.
func DailyHistogram(posts map[string]*store.Post, now time.Time) Histogram {
	day := 24 * time.Hour
	start := now.Add(-constants.SummaryChartNumDays * day)
	startMs := start.UnixMilli()

	numBuckets := constants.SummaryChartNumDays + 1
	h := Histogram{
		Labels: make([]string, 0, numBuckets),
		Counts: make([]int, numBuckets),
	}
	index := make(map[string]int, numBuckets)
	for i := 0; i < numBuckets; i++ {
		label := dayLabel(start.Add(time.Duration(i) * day))
		index[label] = i
		h.Labels = append(h.Labels, label)
	}

	for _, post := range posts {
		for _, v := range post.Visits {
			if v.Timestamp < startMs {
				continue
			}
			label := dayLabel(time.UnixMilli(v.Timestamp).In(now.Location()))
			if i, ok := index[label]; ok {
				h.Counts[i]++
			}
		}
	}

	return h
}

func dayLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
