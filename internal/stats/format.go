package stats

import (
	"fmt"
	"strings"
	"time"
)

// Format renders a Summary as aligned terminal output. label names the
// document when the summary was filtered to one.
func Format(s Summary, label string) string {
	header := "notemeta stats\n"
	if label != "" {
		header = fmt.Sprintf("notemeta stats %s\n", label)
	}
	if s.TotalRuns == 0 {
		if label != "" {
			return header + fmt.Sprintf("\n  No runs recorded for %s.\n", label)
		}
		return header + "\n  No runs recorded. Run `notemeta enrich FILE` first.\n"
	}

	var b strings.Builder
	b.WriteString(header)

	b.WriteString("\nOverview\n")
	fmt.Fprintf(&b, "  %-20s %d\n", "runs", s.TotalRuns)
	if label == "" {
		fmt.Fprintf(&b, "  %-20s %d\n", "documents", s.Documents)
	}
	fmt.Fprintf(&b, "  %-20s %d updated / %d unchanged / %d failed\n", "outcomes", s.Updated, s.Unchanged, s.Failed)
	fmt.Fprintf(&b, "  %-20s %.0f%%\n", "success rate", s.SuccessRate)
	fmt.Fprintf(&b, "  %-20s %s\n", "total time", formatDuration(s.TotalDuration))
	fmt.Fprintf(&b, "  %-20s %s\n", "avg time", formatDuration(s.AvgDuration))

	if len(s.Providers) > 0 {
		b.WriteString("\nProviders\n")
		for _, p := range s.Providers {
			name := p.Name
			if p.Model != "" {
				name += " (" + p.Model + ")"
			}
			avg := time.Duration(0)
			if p.Runs > 0 {
				avg = p.Duration / time.Duration(p.Runs)
			}
			fmt.Fprintf(&b, "  %-40s %3d runs   %3d failed   avg %s\n", name, p.Runs, p.Failed, formatDuration(avg))
		}
	}

	if len(s.Fields) > 0 {
		b.WriteString("\nFields Written\n")
		for _, f := range s.Fields {
			fmt.Fprintf(&b, "  %-24s %3d (%d%%)\n", f.Name, f.Count, int(f.Percent))
		}
	}

	if len(s.Monthly) > 0 {
		b.WriteString("\nMonthly Trend\n")
		for _, m := range s.Monthly {
			fmt.Fprintf(&b, "  %-12s %3d runs   %3d updated   %3d failed\n", m.Month, m.Runs, m.Updated, m.Failed)
		}
	}

	if label == "" && len(s.Busiest) > 0 {
		b.WriteString("\nMost Enriched\n")
		limit := 10
		if len(s.Busiest) < limit {
			limit = len(s.Busiest)
		}
		for _, d := range s.Busiest[:limit] {
			fmt.Fprintf(&b, "  %-48s %3d runs\n", d.Path, d.Runs)
		}
	}

	return b.String()
}

// formatDuration renders d as "850ms", "4.2s" or "3m 10s".
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d / time.Minute)
	sec := int((d % time.Minute) / time.Second)
	if m >= 60 {
		h := m / 60
		m %= 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if sec == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm %ds", m, sec)
}
