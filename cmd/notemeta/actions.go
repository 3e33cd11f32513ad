package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/suykerbuyk/notemeta/internal/archive"
	"github.com/suykerbuyk/notemeta/internal/check"
	"github.com/suykerbuyk/notemeta/internal/config"
	"github.com/suykerbuyk/notemeta/internal/discover"
	"github.com/suykerbuyk/notemeta/internal/docstore"
	"github.com/suykerbuyk/notemeta/internal/enrichment"
	"github.com/suykerbuyk/notemeta/internal/history"
	"github.com/suykerbuyk/notemeta/internal/meta"
	"github.com/suykerbuyk/notemeta/internal/notice"
	"github.com/suykerbuyk/notemeta/internal/provider"
	"github.com/suykerbuyk/notemeta/internal/scaffold"
	"github.com/suykerbuyk/notemeta/internal/secrets"
	"github.com/suykerbuyk/notemeta/internal/settings"
	"github.com/suykerbuyk/notemeta/internal/stats"
)

func (rt *state) enrichAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: notemeta enrich [--force] FILE")
	}
	path := rt.documentPath(c.Args().First())

	s, err := rt.loadSettings()
	if err != nil {
		return err
	}

	env := meta.Env{
		Store:  docstore.File{},
		Client: enrichment.NewClient(&http.Client{}, rt.log),
		Logger: rt.log,
		Notify: notice.NewConsole(os.Stderr),
		Tokens: rt.tokens(),
	}
	if rt.cfg.Backup.Enabled {
		env.BackupDir = rt.cfg.BackupDir()
	}
	if rt.cfg.History.Enabled {
		store, err := history.Open(rt.cfg.HistoryPath())
		if err != nil {
			rt.log.Warn("history disabled for this run", zap.Error(err))
		} else {
			defer store.Close()
			env.History = store
		}
	}

	ctx := c.Context
	if secs := rt.cfg.LLM.TimeoutSeconds; secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	res, err := meta.Adjust(ctx, env, s, meta.Request{
		Path:      path,
		Selection: c.String("selection"),
		Force:     c.Bool("force"),
		Provider:  c.String("provider"),
	})
	if err != nil {
		return fmt.Errorf("enrich %s: %w", config.CompressHome(path), err)
	}

	if len(res.Applied) == 0 {
		fmt.Printf("unchanged: %s\n", config.CompressHome(path))
		return nil
	}
	fmt.Printf("updated: %s (%s)\n", config.CompressHome(path), strings.Join(res.Applied, ", "))
	return nil
}

// documentPath resolves a relative path against the working directory, then
// against the vault. A bare file name is searched for anywhere in the vault.
func (rt *state) documentPath(arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	if _, err := os.Stat(arg); err == nil {
		if abs, err := filepath.Abs(arg); err == nil {
			return abs
		}
		return arg
	}
	if found, err := discover.Find(rt.cfg.VaultPath, arg); err == nil {
		return found
	}
	return filepath.Join(rt.cfg.VaultPath, arg)
}

// loadSettings loads (and if needed migrates) the settings record.
func (rt *state) loadSettings() (settings.Settings, error) {
	backupDir := ""
	if rt.cfg.Backup.Enabled {
		backupDir = rt.cfg.BackupDir()
	}
	s, res, err := settings.Load(rt.cfg.SettingsFile(), backupDir)
	if err != nil {
		return s, fmt.Errorf("load settings: %w", err)
	}
	if res.Migrated {
		rt.log.Info("settings migrated",
			zap.String("path", rt.cfg.SettingsFile()),
			zap.String("backup", res.Backup),
		)
	}
	for _, p := range s.Problems() {
		rt.log.Warn("settings problem", zap.String("detail", p))
	}
	return s, nil
}

// tokens builds the token chain. Without an OS keyring only settings and
// environment variables are consulted.
func (rt *state) tokens() *secrets.Tokens {
	ring, err := secrets.OpenKeyring()
	if err != nil {
		rt.log.Debug("keyring unavailable", zap.Error(err))
		return secrets.New(nil, os.Getenv)
	}
	return secrets.New(ring, os.Getenv)
}

func (rt *state) scanAction(c *cli.Context) error {
	s, err := rt.loadSettings()
	if err != nil {
		return err
	}
	notes, err := discover.Notes(rt.cfg.VaultPath)
	if err != nil {
		return fmt.Errorf("scan %s: %w", config.CompressHome(rt.cfg.VaultPath), err)
	}

	store := docstore.File{}
	pending := 0
	for _, n := range notes {
		if err := c.Context.Err(); err != nil {
			return err
		}
		fm, err := store.ReadFrontmatter(c.Context, n.Path)
		if err != nil {
			rt.log.Warn("skip unreadable note", zap.String("path", n.Path), zap.Error(err))
			continue
		}
		missing := meta.Missing(s, fm)
		if len(missing) == 0 {
			continue
		}
		pending++
		fmt.Printf("%-48s missing %s\n", n.Rel, strings.Join(missing, ", "))
	}
	fmt.Printf("\n%d of %d notes need metadata\n", pending, len(notes))
	return nil
}

func (rt *state) migrateAction(c *cli.Context) error {
	path := rt.cfg.SettingsFile()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := settings.Save(path, settings.Defaults()); err != nil {
			return err
		}
		fmt.Printf("created: %s\n", config.CompressHome(path))
		return nil
	}

	backupDir := rt.cfg.BackupDir()
	_, res, err := settings.Load(path, backupDir)
	if err != nil {
		return err
	}
	if !res.Migrated {
		fmt.Printf("unchanged: %s\n", config.CompressHome(path))
		return nil
	}
	fmt.Printf("migrated: %s (backup: %s)\n", config.CompressHome(path), config.CompressHome(res.Backup))
	return nil
}

func (rt *state) providersAction(c *cli.Context) error {
	s, err := rt.loadSettings()
	if err != nil {
		return err
	}
	tokens := rt.tokens()

	fmt.Printf("  %-12s %-11s %-28s %-9s %s\n", "ID", "TYPE", "MODEL", "TOKEN", "URL")
	for _, p := range s.Providers {
		mark := " "
		if p.ID == s.CurrentProvider {
			mark = "*"
		}
		_, src := tokens.Resolve(p.ID, p.Token)
		if src == secrets.None {
			src = "missing"
		}
		fmt.Printf("%s %-12s %-11s %-28s %-9s %s\n",
			mark, p.ID, p.Type, p.ModelName, src, provider.NormalizeURL(p.BaseURL, p.Endpoint))
	}
	return nil
}

func (rt *state) tokenSetAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("usage: notemeta token set PROVIDER < token")
	}
	s, err := rt.loadSettings()
	if err != nil {
		return err
	}
	if _, ok := provider.Find(s.Providers, id); !ok {
		fmt.Fprintf(os.Stderr, "warning: provider %q is not configured in settings\n", id)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read token from stdin: %w", err)
	}

	if err := rt.tokens().Set(id, line); err != nil {
		return err
	}
	fmt.Printf("stored token for %s\n", id)
	return nil
}

func (rt *state) tokenDeleteAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("usage: notemeta token delete PROVIDER")
	}
	if err := rt.tokens().Delete(id); err != nil {
		return err
	}
	fmt.Printf("deleted token for %s\n", id)
	return nil
}

func (rt *state) tokenListAction(c *cli.Context) error {
	ids, err := rt.tokens().Stored()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no stored tokens")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func (rt *state) historyAction(c *cli.Context) error {
	path := rt.cfg.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		fmt.Println("no runs recorded")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []history.Run
	if c.NArg() > 0 {
		runs, err = store.ForPath(c.Context, rt.documentPath(c.Args().First()), c.Int("limit"))
	} else {
		runs, err = store.Recent(c.Context, c.Int("limit"))
	}
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-19s %-9s %-7s %-12s %s\n", "STARTED", "OUTCOME", "TIME", "PROVIDER", "PATH")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Printf("%-19s %-9s %-7s %-12s %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Outcome,
			r.Duration.Round(100*time.Millisecond),
			r.Provider,
			config.CompressHome(r.Path),
		)
		switch {
		case r.Error != "":
			fmt.Printf("    error: %s\n", r.Error)
		case len(r.Applied) > 0:
			fmt.Printf("    fields: %s\n", strings.Join(r.Applied, ", "))
		}
	}
	return nil
}

func (rt *state) statsAction(c *cli.Context) error {
	var path, label string
	if c.NArg() > 0 {
		path = rt.documentPath(c.Args().First())
		label = config.CompressHome(path)
	}

	var runs []history.Run
	if _, err := os.Stat(rt.cfg.HistoryPath()); err == nil {
		store, err := history.Open(rt.cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()
		if runs, err = store.Recent(c.Context, 0); err != nil {
			return err
		}
	}

	fmt.Print(stats.Format(stats.Compute(runs, path), label))
	return nil
}

func (rt *state) restoreAction(c *cli.Context) error {
	if c.Bool("list") {
		if c.NArg() != 1 {
			return fmt.Errorf("usage: notemeta restore --list FILE")
		}
		name := filepath.Base(c.Args().First())
		snaps, err := archive.List(name, rt.cfg.BackupDir())
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Printf("no snapshots of %s\n", name)
			return nil
		}
		for _, s := range snaps {
			fmt.Println(config.CompressHome(s))
		}
		return nil
	}

	if c.NArg() != 2 {
		return fmt.Errorf("usage: notemeta restore SNAPSHOT FILE")
	}
	snap := c.Args().Get(0)
	if _, err := os.Stat(snap); err != nil && !strings.ContainsRune(snap, filepath.Separator) {
		snap = filepath.Join(rt.cfg.BackupDir(), snap)
	}
	dest := rt.documentPath(c.Args().Get(1))

	if err := archive.Restore(snap, dest); err != nil {
		return err
	}
	fmt.Printf("restored: %s\n", config.CompressHome(dest))
	return nil
}

func (rt *state) checkAction(c *cli.Context) error {
	report := check.Run(rt.cfg, rt.tokens())
	fmt.Print(report.Format())
	if report.HasFailures() {
		return cli.Exit("", 1)
	}
	return nil
}

func (rt *state) initAction(c *cli.Context) error {
	vault := rt.cfg.VaultPath
	if arg := c.Args().First(); arg != "" {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		vault = abs
	}

	path, action, err := config.WriteDefault(vault)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", action, config.CompressHome(path))

	created, err := scaffold.Init(vault, scaffold.Options{SettingsPath: rt.cfg.SettingsFile()})
	if err != nil {
		return err
	}
	for _, p := range created {
		fmt.Printf("created: %s\n", config.CompressHome(p))
	}
	return nil
}

func manAction(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		dir = "man"
	}
	page, err := c.App.ToMan()
	if err != nil {
		return fmt.Errorf("render man page: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "notemeta.1")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  %s\n", path)
	return nil
}
