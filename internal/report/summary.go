// Package report turns a finished run into the human-readable summary and the
// exported ceremony log.
package report

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
)

// topN is the length of the most-intense and most-relieving lists.
const topN = 5

// CategoryCount is one row of the event distribution.
type CategoryCount struct {
	Key     string
	Name    string
	Count   int
	Percent float64
}

// IntensityStats describes the storm shock intensities of a run.
type IntensityStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	P90    float64
	Max    float64
}

// Summary is the derived view of a run used by the text report.
type Summary struct {
	Result        domain.RunResult
	Distribution  []CategoryCount
	MostIntense   []domain.LoggedEvent // positive storm shocks, strongest first
	MostRelieving []domain.LoggedEvent // negative events, most negative first
	Shocks        IntensityStats
}

// Summarize derives the distribution, top lists, and shock statistics.
func Summarize(res domain.RunResult) Summary {
	return Summary{
		Result:        res,
		Distribution:  distribution(res.Events),
		MostIntense:   mostIntense(res.Events),
		MostRelieving: mostRelieving(res.Events),
		Shocks:        shockStats(res.Events),
	}
}

func distribution(events []domain.LoggedEvent) []CategoryCount {
	index := make(map[string]int)
	var rows []CategoryCount
	for _, ev := range events {
		i, ok := index[ev.CategoryKey]
		if !ok {
			name := ev.DisplayName
			if ev.IsRelief() {
				name = capitalize(domain.KeyRelief)
			}
			i = len(rows)
			index[ev.CategoryKey] = i
			rows = append(rows, CategoryCount{Key: ev.CategoryKey, Name: name})
		}
		rows[i].Count++
	}
	for i := range rows {
		rows[i].Percent = float64(rows[i].Count) / float64(len(events)) * 100
	}
	// Stable keeps first-seen order among equal counts.
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Count > rows[b].Count })
	return rows
}

func mostIntense(events []domain.LoggedEvent) []domain.LoggedEvent {
	var out []domain.LoggedEvent
	for _, ev := range events {
		if ev.Intensity > 0 && !ev.IsMist {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Intensity > out[b].Intensity })
	return truncate(out)
}

func mostRelieving(events []domain.LoggedEvent) []domain.LoggedEvent {
	var out []domain.LoggedEvent
	for _, ev := range events {
		if ev.Intensity < 0 {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Intensity < out[b].Intensity })
	return truncate(out)
}

func shockStats(events []domain.LoggedEvent) IntensityStats {
	var data stats.Float64Data
	for _, ev := range events {
		if !ev.IsMist && !ev.IsRelief() {
			data = append(data, ev.Intensity)
		}
	}
	if len(data) == 0 {
		return IntensityStats{}
	}

	// Errors only signal empty input, which is excluded above.
	mean, _ := data.Mean()
	stddev, _ := data.StandardDeviation()
	median, _ := data.Median()
	p90, _ := data.Percentile(90)
	maxV, _ := data.Max()

	return IntensityStats{
		Count:  len(data),
		Mean:   mean,
		StdDev: stddev,
		Median: median,
		P90:    p90,
		Max:    maxV,
	}
}

func truncate(events []domain.LoggedEvent) []domain.LoggedEvent {
	if len(events) > topN {
		return events[:topN]
	}
	return events
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
