package main

import (
	"context"
	"flag"

	"golang.org/x/sync/errgroup"

	"sessioncal/internal/auth"
	"sessioncal/internal/backup"
	appLog "sessioncal/internal/log"
	"sessioncal/internal/web"
)

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", "", "HTTP listen address (overrides config if set)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *listen != "" {
		a.cfg.Listen = *listen
	}

	appLog.Info("effective config",
		"listen", a.cfg.Listen,
		"storage", a.cfg.Storage,
		"data_dir", a.cfg.DataDir,
		"backup_cron", a.cfg.BackupCron,
		"backup_keep", a.cfg.BackupKeep,
		"basic_auth", a.cfg.AuthEnabled(),
	)

	verifier := auth.NewVerifier(a.cfg.BasicAuth.Username, a.cfg.BasicAuth.PasswordHash)
	server := web.NewServer(a.engine, verifier)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, a.cfg.Listen)
	})

	if a.cfg.BackupCron != "" {
		snap := backup.NewSnapshotter(a.adapter, a.cfg.BackupDir, a.cfg.BackupKeep)
		sched, err := backup.NewScheduler(a.cfg.BackupCron, snap)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sched.Run(gctx)
		})
	} else {
		appLog.Info("backups disabled")
	}

	err := g.Wait()
	appLog.Info("sessioncal exiting")
	return err
}

func runBackup(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	dir := fs.String("dir", "", "Backup directory (overrides config if set)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		*dir = a.cfg.BackupDir
	}

	paths, err := backup.NewSnapshotter(a.adapter, *dir, a.cfg.BackupKeep).Snapshot(ctx)
	for _, p := range paths {
		appLog.Info("backup written", "path", p)
	}
	return err
}
