package check

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/suykerbuyk/notemeta/internal/config"
	"github.com/suykerbuyk/notemeta/internal/discover"
	"github.com/suykerbuyk/notemeta/internal/history"
	"github.com/suykerbuyk/notemeta/internal/provider"
	"github.com/suykerbuyk/notemeta/internal/secrets"
	"github.com/suykerbuyk/notemeta/internal/settings"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "notemeta check\n\n  no checks ran\n"
	}

	// Find max name length for alignment.
	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("notemeta check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// TokenResolver finds the bearer token for a provider.
type TokenResolver interface {
	Resolve(providerID, configured string) (string, secrets.Source)
}

// CheckConfig reports the resolved config path. Always passes, broken TOML
// is caught when the config is loaded.
func CheckConfig() Result {
	cfgPath := filepath.Join(config.ConfigDir(), "config.toml")
	if _, err := os.Stat(cfgPath); err != nil {
		return Result{Name: "config", Status: Pass, Detail: "defaults (" + config.CompressHome(cfgPath) + " not found)"}
	}
	return Result{
		Name:   "config",
		Status: Pass,
		Detail: config.CompressHome(cfgPath),
	}
}

// CheckVaultPath checks whether the vault directory exists and counts its notes.
func CheckVaultPath(path string) Result {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Result{Name: "vault", Status: Fail, Detail: path + " not found"}
	}
	notes, err := discover.Notes(path)
	if err != nil {
		return Result{Name: "vault", Status: Warn, Detail: fmt.Sprintf("%s (unreadable: %v)", config.CompressHome(path), err)}
	}
	return Result{
		Name:   "vault",
		Status: Pass,
		Detail: fmt.Sprintf("%s (%d notes)", config.CompressHome(path), len(notes)),
	}
}

// CheckStateDir checks whether the .notemeta state directory exists.
func CheckStateDir(stateDir string) Result {
	if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
		return Result{Name: "state", Status: Pass, Detail: config.CompressHome(stateDir)}
	}
	return Result{Name: "state", Status: Warn, Detail: ".notemeta/ not found (created on first run)"}
}

// CheckSettings reads the settings record without writing it back. The
// record is returned so later checks can inspect it.
func CheckSettings(path string) (Result, settings.Settings) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{Name: "settings", Status: Warn, Detail: config.CompressHome(path) + " not found, defaults in use"}, settings.Defaults()
	}
	if err != nil {
		return Result{Name: "settings", Status: Fail, Detail: err.Error()}, settings.Defaults()
	}

	s, migrate, err := settings.Upgrade(raw)
	if err != nil {
		return Result{Name: "settings", Status: Fail, Detail: config.CompressHome(path) + " invalid: " + err.Error()}, settings.Defaults()
	}
	if problems := s.Problems(); len(problems) > 0 {
		return Result{Name: "settings", Status: Warn, Detail: strings.Join(problems, "; ")}, s
	}
	if migrate {
		return Result{Name: "settings", Status: Warn, Detail: "legacy fields present (run notemeta migrate)"}, s
	}
	return Result{Name: "settings", Status: Pass, Detail: config.CompressHome(path)}, s
}

// CheckProvider resolves the current provider and where its token comes from.
func CheckProvider(s settings.Settings, tokens TokenResolver) Result {
	ep, err := provider.Resolve(s.Providers, s.CurrentProvider)
	if err != nil {
		return Result{Name: "provider", Status: Fail, Detail: err.Error()}
	}

	source := secrets.FromSettings
	if tokens != nil {
		_, source = tokens.Resolve(ep.ProviderID, ep.Token)
	}
	detail := fmt.Sprintf("%s %s (%s)", ep.ProviderID, ep.URL, ep.ModelName)
	if source == secrets.None {
		return Result{Name: "provider", Status: Warn, Detail: detail + ", no token (set one with: notemeta token set " + ep.ProviderID + ")"}
	}
	return Result{Name: "provider", Status: Pass, Detail: detail + ", token from " + string(source)}
}

// CheckHistory opens the run history database and reports its size.
func CheckHistory(cfg config.Config) Result {
	if !cfg.History.Enabled {
		return Result{Name: "history", Status: Pass, Detail: "disabled"}
	}
	path := cfg.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "history", Status: Warn, Detail: "history.db not found yet"}
	}

	store, err := history.Open(path)
	if err != nil {
		return Result{Name: "history", Status: Fail, Detail: err.Error()}
	}
	defer store.Close()

	n, err := store.Count(context.Background())
	if err != nil {
		return Result{Name: "history", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "history", Status: Pass, Detail: fmt.Sprintf("history.db (%d runs)", n)}
}

// Run executes all checks against the given config and returns a report.
func Run(cfg config.Config, tokens TokenResolver) Report {
	var results []Result

	results = append(results, CheckConfig())
	results = append(results, CheckVaultPath(cfg.VaultPath))
	results = append(results, CheckStateDir(cfg.StateDir()))

	settingsResult, s := CheckSettings(cfg.SettingsFile())
	results = append(results, settingsResult)
	results = append(results, CheckProvider(s, tokens))
	results = append(results, CheckHistory(cfg))

	return Report{Results: results}
}
