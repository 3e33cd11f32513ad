package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/suykerbuyk/notemeta/internal/history"
)

func makeRun(path, prov, model, month string, outcome history.Outcome, dur time.Duration, applied ...string) history.Run {
	started, _ := time.Parse("2006-01-02 15:04", month+"-15 12:00")
	return history.Run{
		Path:      path,
		Provider:  prov,
		Model:     model,
		StartedAt: started.Local(),
		Duration:  dur,
		Outcome:   outcome,
		Applied:   applied,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, "")
	if s.TotalRuns != 0 {
		t.Errorf("TotalRuns = %d, want 0", s.TotalRuns)
	}
	if s.AvgDuration != 0 || s.SuccessRate != 0 {
		t.Errorf("averages on empty input: %v, %f", s.AvgDuration, s.SuccessRate)
	}
}

func TestCompute_Outcomes(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "openai", "gpt-4o", "2026-03", history.Updated, 2*time.Second, "tags", "description"),
		makeRun("/v/a.md", "openai", "gpt-4o", "2026-03", history.Unchanged, time.Second),
		makeRun("/v/b.md", "openai", "gpt-4o", "2026-04", history.Failed, 3*time.Second),
		makeRun("/v/c.md", "", "", "2026-04", history.Updated, 2*time.Second, "updated"),
	}

	s := Compute(runs, "")

	if s.TotalRuns != 4 {
		t.Errorf("TotalRuns = %d", s.TotalRuns)
	}
	if s.Documents != 3 {
		t.Errorf("Documents = %d", s.Documents)
	}
	if s.Updated != 2 || s.Unchanged != 1 || s.Failed != 1 {
		t.Errorf("outcomes = %d/%d/%d", s.Updated, s.Unchanged, s.Failed)
	}
	if s.TotalDuration != 8*time.Second {
		t.Errorf("TotalDuration = %v", s.TotalDuration)
	}
	if s.AvgDuration != 2*time.Second {
		t.Errorf("AvgDuration = %v", s.AvgDuration)
	}
	if s.SuccessRate != 75 {
		t.Errorf("SuccessRate = %f", s.SuccessRate)
	}
}

func TestCompute_PathFilter(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "openai", "gpt-4o", "2026-03", history.Updated, time.Second, "tags"),
		makeRun("/v/b.md", "openai", "gpt-4o", "2026-03", history.Updated, time.Second, "tags"),
		makeRun("/v/a.md", "openai", "gpt-4o", "2026-03", history.Unchanged, time.Second),
	}

	s := Compute(runs, "/v/a.md")
	if s.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", s.TotalRuns)
	}
	if s.Documents != 1 {
		t.Errorf("Documents = %d, want 1", s.Documents)
	}
}

func TestCompute_ProviderBreakdown(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "deepseek", "deepseek-chat", "2026-03", history.Updated, 2*time.Second),
		makeRun("/v/b.md", "openai", "gpt-4o", "2026-03", history.Failed, 4*time.Second),
		makeRun("/v/c.md", "openai", "gpt-4o", "2026-03", history.Updated, 2*time.Second),
		makeRun("/v/d.md", "", "", "2026-03", history.Unchanged, 0),
	}

	s := Compute(runs, "")
	if len(s.Providers) != 3 {
		t.Fatalf("Providers = %d, want 3", len(s.Providers))
	}
	first := s.Providers[0]
	if first.Name != "openai" || first.Model != "gpt-4o" || first.Runs != 2 || first.Failed != 1 {
		t.Errorf("first provider = %+v", first)
	}
	if first.Duration != 6*time.Second {
		t.Errorf("first provider duration = %v", first.Duration)
	}
	if s.Providers[1].Name != "deepseek" || s.Providers[2].Name != "none" {
		t.Errorf("provider order: %s, %s", s.Providers[1].Name, s.Providers[2].Name)
	}
}

func TestCompute_Fields(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "openai", "m", "2026-03", history.Updated, 0, "tags", "description", "updated"),
		makeRun("/v/b.md", "openai", "m", "2026-03", history.Updated, 0, "tags", "updated"),
		makeRun("/v/c.md", "openai", "m", "2026-03", history.Updated, 0, "updated"),
		makeRun("/v/d.md", "openai", "m", "2026-03", history.Unchanged, 0),
	}

	s := Compute(runs, "")
	want := []struct {
		name  string
		count int
		pct   int
	}{
		{"updated", 3, 100},
		{"tags", 2, 66},
		{"description", 1, 33},
	}
	if len(s.Fields) != len(want) {
		t.Fatalf("Fields = %+v", s.Fields)
	}
	for i, w := range want {
		f := s.Fields[i]
		if f.Name != w.name || f.Count != w.count || int(f.Percent) != w.pct {
			t.Errorf("Fields[%d] = %+v, want %+v", i, f, w)
		}
	}
}

func TestCompute_MonthlyTrend(t *testing.T) {
	var runs []history.Run
	months := []string{"2025-09", "2025-10", "2025-11", "2025-12", "2026-01", "2026-02", "2026-03"}
	for _, m := range months {
		runs = append(runs, makeRun("/v/a.md", "openai", "m", m, history.Updated, 0))
	}
	runs = append(runs, makeRun("/v/b.md", "openai", "m", "2026-03", history.Failed, 0))

	s := Compute(runs, "")
	if len(s.Monthly) != 6 {
		t.Fatalf("Monthly = %d, want 6 (capped)", len(s.Monthly))
	}
	latest := s.Monthly[0]
	if latest.Month != "2026-03" || latest.Runs != 2 || latest.Updated != 1 || latest.Failed != 1 {
		t.Errorf("latest month = %+v", latest)
	}
	if s.Monthly[5].Month != "2025-10" {
		t.Errorf("oldest month = %s, want 2025-10", s.Monthly[5].Month)
	}
}

func TestCompute_Busiest(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "p", "m", "2026-03", history.Updated, 0),
		makeRun("/v/a.md", "p", "m", "2026-03", history.Unchanged, 0),
		makeRun("/v/a.md", "p", "m", "2026-03", history.Unchanged, 0),
		makeRun("/v/b.md", "p", "m", "2026-03", history.Updated, 0),
		makeRun("/v/b.md", "p", "m", "2026-03", history.Updated, 0),
		makeRun("/v/c.md", "p", "m", "2026-03", history.Updated, 0),
	}

	s := Compute(runs, "")
	if len(s.Busiest) != 2 {
		t.Fatalf("Busiest = %+v", s.Busiest)
	}
	if s.Busiest[0].Path != "/v/a.md" || s.Busiest[0].Runs != 3 {
		t.Errorf("Busiest[0] = %+v", s.Busiest[0])
	}
}

func TestFormat_Overview(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "openai", "gpt-4o", "2026-03", history.Updated, 2*time.Second, "tags"),
		makeRun("/v/a.md", "openai", "gpt-4o", "2026-03", history.Failed, 2*time.Second),
	}
	out := Format(Compute(runs, ""), "")

	for _, want := range []string{
		"notemeta stats\n",
		"Overview",
		"1 updated / 0 unchanged / 1 failed",
		"50%",
		"openai (gpt-4o)",
		"Fields Written",
		"tags",
		"Monthly Trend",
		"2026-03",
		"Most Enriched",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormat_Empty(t *testing.T) {
	out := Format(Summary{}, "")
	if !strings.Contains(out, "No runs recorded") {
		t.Errorf("empty output: %q", out)
	}
	out = Format(Summary{}, "a.md")
	if !strings.Contains(out, "No runs recorded for a.md") {
		t.Errorf("empty filtered output: %q", out)
	}
}

func TestFormat_FilteredOmitsDocuments(t *testing.T) {
	runs := []history.Run{
		makeRun("/v/a.md", "p", "m", "2026-03", history.Updated, 0),
		makeRun("/v/a.md", "p", "m", "2026-03", history.Updated, 0),
	}
	out := Format(Compute(runs, "/v/a.md"), "a.md")
	if !strings.HasPrefix(out, "notemeta stats a.md\n") {
		t.Errorf("header: %q", out)
	}
	if strings.Contains(out, "documents") || strings.Contains(out, "Most Enriched") {
		t.Errorf("filtered output lists documents:\n%s", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{850 * time.Millisecond, "850ms"},
		{4200 * time.Millisecond, "4.2s"},
		{3*time.Minute + 10*time.Second, "3m 10s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{time.Hour + 30*time.Minute, "1h 30m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
