package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sessioncal/internal/calendar"
	"sessioncal/internal/config"
	appLog "sessioncal/internal/log"
	"sessioncal/internal/persist"
)

const version = "0.1.0"

const usage = `Usage: sessioncal [-config path] <command> [options]

Commands:
  serve           run the HTTP API and backup scheduler (default)
  export          write all events as JSON
  import          replace all events from a .json or .ics file or URL
  ics             write all events as iCalendar
  print           render the printable month, week or day view as HTML
  snapshot        capture the print view as PNG via headless Chromium
  backup          write one backup snapshot now
  hash-password   create an Argon2id hash for basic_auth.password_hash
`

func main() {
	fs := flag.NewFlagSet("sessioncal", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "Path to config file")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "\nGlobal options:")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	cmd, args := "serve", fs.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "hash-password":
		err = runHashPassword(args)
	case "serve", "export", "import", "ics", "print", "snapshot", "backup":
		err = withApp(ctx, *configPath, func(a *app) error {
			switch cmd {
			case "serve":
				return runServe(ctx, a, args)
			case "export":
				return runExport(a, args)
			case "import":
				return runImport(ctx, a, args)
			case "ics":
				return runICS(a, args)
			case "print":
				return runPrint(a, args)
			case "snapshot":
				return runSnapshot(ctx, a, args)
			default:
				return runBackup(ctx, a, args)
			}
		})
	case "help", "-h", "--help":
		fs.Usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		appLog.Error("command failed", err, "command", cmd)
		os.Exit(1)
	}
}

// app is the loaded config plus an open engine.
type app struct {
	cfg     *config.Config
	kv      persist.KV
	adapter *persist.Adapter
	engine  *calendar.Engine
}

func withApp(ctx context.Context, configPath string, fn func(*app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	appLog.Info("sessioncal starting", "version", version, "config_path", configPath, "storage", cfg.Storage)

	kv, err := openKV(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			appLog.Error("close storage failed", cerr)
		}
	}()

	adapter := persist.NewAdapter(kv, cfg.Storage)
	engine := calendar.New(ctx, adapter, calendar.Options{DefaultColor: cfg.DefaultColor})
	return fn(&app{cfg: cfg, kv: kv, adapter: adapter, engine: engine})
}

func openKV(cfg *config.Config) (persist.KV, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return persist.OpenSQLite(cfg.SQLitePath)
	default:
		return persist.NewFileKV(cfg.DataDir)
	}
}
