package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/suykerbuyk/notemeta/internal/config"
	"github.com/suykerbuyk/notemeta/internal/logging"
)

const version = "0.1.0"

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		stop()
		fatal("%v", err)
	}
}

// state is shared by every command and filled in by setup.
type state struct {
	cfg config.Config
	log *zap.Logger
}

func newApp() *cli.App {
	rt := &state{log: zap.NewNop()}

	return &cli.App{
		Name:    "notemeta",
		Usage:   "fill markdown frontmatter with LLM-generated metadata",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "vault", Usage: "vault directory (overrides vault_path)", EnvVars: []string{"NOTEMETA_VAULT"}},
			&cli.StringFlag{Name: "settings", Usage: "settings JSON file (overrides settings_path)", EnvVars: []string{"NOTEMETA_SETTINGS"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Before: rt.setup,
		After: func(*cli.Context) error {
			_ = rt.log.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "enrich",
				Usage:     "generate metadata for one markdown file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "replace existing description, title and category"},
					&cli.StringFlag{Name: "selection", Aliases: []string{"s"}, Usage: "analyze this text instead of the whole document"},
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "provider id to use instead of the current one"},
				},
				Action: rt.enrichAction,
			},
			{
				Name:   "scan",
				Usage:  "list vault notes with missing metadata",
				Action: rt.scanAction,
			},
			{
				Name:   "migrate",
				Usage:  "upgrade the settings file in place",
				Action: rt.migrateAction,
			},
			{
				Name:   "providers",
				Usage:  "list configured LLM providers",
				Action: rt.providersAction,
			},
			{
				Name:  "token",
				Usage: "manage provider tokens in the OS keyring",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "store a token read from stdin",
						ArgsUsage: "PROVIDER",
						Action:    rt.tokenSetAction,
					},
					{
						Name:      "delete",
						Usage:     "remove a stored token",
						ArgsUsage: "PROVIDER",
						Action:    rt.tokenDeleteAction,
					},
					{
						Name:   "list",
						Usage:  "list providers with a stored token",
						Action: rt.tokenListAction,
					},
				},
			},
			{
				Name:      "history",
				Usage:     "show recent enrichment runs",
				ArgsUsage: "[FILE]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "maximum runs to show (0 for all)"},
				},
				Action: rt.historyAction,
			},
			{
				Name:      "stats",
				Usage:     "summarize recorded enrichment runs",
				ArgsUsage: "[FILE]",
				Action:    rt.statsAction,
			},
			{
				Name:      "restore",
				Usage:     "restore a document from a backup snapshot",
				ArgsUsage: "SNAPSHOT FILE | --list FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "list snapshots of FILE"},
				},
				Action: rt.restoreAction,
			},
			{
				Name:   "check",
				Usage:  "diagnose config, settings, provider and history",
				Action: rt.checkAction,
			},
			{
				Name:      "init",
				Usage:     "write a default config.toml",
				ArgsUsage: "[VAULT]",
				Action:    rt.initAction,
			},
			{
				Name:      "man",
				Usage:     "write the notemeta(1) man page",
				ArgsUsage: "[DIR]",
				Hidden:    true,
				Action:    manAction,
			},
			{
				Name:  "version",
				Usage: "print version",
				Action: func(*cli.Context) error {
					fmt.Printf("notemeta v%s\n", version)
					return nil
				},
			},
		},
	}
}

// setup loads config, applies global flag overrides and opens the logger.
func (rt *state) setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := c.String("vault"); v != "" {
		cfg.VaultPath = v
	}
	if s := c.String("settings"); s != "" {
		cfg.SettingsPath = s
	}
	if l := c.String("log-level"); l != "" {
		cfg.Log.Level = l
	}
	rt.cfg = cfg

	log, err := logging.New(cfg.Log, cfg.LogFile())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	rt.log = log
	return nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "notemeta: "+format+"\n", args...)
	os.Exit(1)
}
