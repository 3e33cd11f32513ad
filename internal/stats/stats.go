package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/suykerbuyk/notemeta/internal/history"
)

// Summary holds aggregated statistics over recorded enrichment runs.
type Summary struct {
	TotalRuns     int
	Documents     int
	Updated       int
	Unchanged     int
	Failed        int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	SuccessRate   float64 // percent of runs that did not fail

	Providers []ProviderStats
	Fields    []FieldStats
	Monthly   []MonthStats
	Busiest   []DocumentStats
}

// ProviderStats aggregates runs by provider and model.
type ProviderStats struct {
	Name     string
	Model    string
	Runs     int
	Failed   int
	Duration time.Duration
}

// FieldStats counts how often a frontmatter key was written.
type FieldStats struct {
	Name    string
	Count   int
	Percent float64 // share of updated runs that wrote the key
}

// MonthStats aggregates runs by calendar month (YYYY-MM).
type MonthStats struct {
	Month   string
	Runs    int
	Updated int
	Failed  int
}

// DocumentStats counts runs against a single document.
type DocumentStats struct {
	Path string
	Runs int
}

// Compute aggregates runs. When path is non-empty only runs for that
// document are counted.
func Compute(runs []history.Run, path string) Summary {
	var s Summary

	providerMap := make(map[string]*ProviderStats)
	fieldMap := make(map[string]int)
	monthMap := make(map[string]*MonthStats)
	docMap := make(map[string]int)

	for _, r := range runs {
		if path != "" && r.Path != path {
			continue
		}

		s.TotalRuns++
		s.TotalDuration += r.Duration
		docMap[r.Path]++

		switch r.Outcome {
		case history.Updated:
			s.Updated++
			for _, f := range r.Applied {
				fieldMap[f]++
			}
		case history.Unchanged:
			s.Unchanged++
		case history.Failed:
			s.Failed++
		}

		// Runs that never reached an endpoint carry no provider.
		name := r.Provider
		if name == "" {
			name = "none"
		}
		key := name + "\x00" + r.Model
		ps, ok := providerMap[key]
		if !ok {
			ps = &ProviderStats{Name: name, Model: r.Model}
			providerMap[key] = ps
		}
		ps.Runs++
		ps.Duration += r.Duration
		if r.Outcome == history.Failed {
			ps.Failed++
		}

		if !r.StartedAt.IsZero() {
			month := r.StartedAt.Local().Format("2006-01")
			mm, ok := monthMap[month]
			if !ok {
				mm = &MonthStats{Month: month}
				monthMap[month] = mm
			}
			mm.Runs++
			switch r.Outcome {
			case history.Updated:
				mm.Updated++
			case history.Failed:
				mm.Failed++
			}
		}
	}

	s.Documents = len(docMap)

	if s.TotalRuns > 0 {
		s.AvgDuration = s.TotalDuration / time.Duration(s.TotalRuns)
		s.SuccessRate = float64(s.TotalRuns-s.Failed) / float64(s.TotalRuns) * 100
	}

	for _, ps := range providerMap {
		s.Providers = append(s.Providers, *ps)
	}
	sort.Slice(s.Providers, func(i, j int) bool {
		if s.Providers[i].Runs != s.Providers[j].Runs {
			return s.Providers[i].Runs > s.Providers[j].Runs
		}
		if s.Providers[i].Name != s.Providers[j].Name {
			return strings.ToLower(s.Providers[i].Name) < strings.ToLower(s.Providers[j].Name)
		}
		return s.Providers[i].Model < s.Providers[j].Model
	})

	for name, count := range fieldMap {
		pct := 0.0
		if s.Updated > 0 {
			pct = float64(count) / float64(s.Updated) * 100
		}
		s.Fields = append(s.Fields, FieldStats{Name: name, Count: count, Percent: pct})
	}
	sort.Slice(s.Fields, func(i, j int) bool {
		if s.Fields[i].Count != s.Fields[j].Count {
			return s.Fields[i].Count > s.Fields[j].Count
		}
		return s.Fields[i].Name < s.Fields[j].Name
	})

	// Documents enriched more than once, most first.
	for p, count := range docMap {
		if count > 1 {
			s.Busiest = append(s.Busiest, DocumentStats{Path: p, Runs: count})
		}
	}
	sort.Slice(s.Busiest, func(i, j int) bool {
		if s.Busiest[i].Runs != s.Busiest[j].Runs {
			return s.Busiest[i].Runs > s.Busiest[j].Runs
		}
		return s.Busiest[i].Path < s.Busiest[j].Path
	})

	// Recent-first, cap at 6
	for _, mm := range monthMap {
		s.Monthly = append(s.Monthly, *mm)
	}
	sort.Slice(s.Monthly, func(i, j int) bool {
		return s.Monthly[i].Month > s.Monthly[j].Month
	})
	if len(s.Monthly) > 6 {
		s.Monthly = s.Monthly[:6]
	}

	return s
}
