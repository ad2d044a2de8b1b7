package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aellingwood/fwstamp/internal/stamp"
	"github.com/aellingwood/fwstamp/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-stamp the header whenever the repository changes",
	Long: "Watch performs a stamping pass, then monitors the repository's HEAD,\n" +
		"index, and refs, re-stamping after each commit, checkout, or staging\n" +
		"change until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	addStampFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 0, "settle time before re-stamping (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	overrides := stampOverrides(cmd)
	if debounce, _ := cmd.Flags().GetDuration("debounce"); debounce > 0 {
		overrides["debounce"] = debounce
	}
	cfg.WithOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, _ := cmd.Flags().GetStringArray("values")
	pairs, _ := cmd.Flags().GetStringArray("define")

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	runner := stamp.New(cfg, nil, log)
	pass := func() {
		res, err := runner.Run(cmd.Context(), stamp.Options{Files: files, Pairs: pairs})
		switch {
		case err != nil:
			log.Error("stamping failed", zap.Error(err))
		case res.Skipped:
			log.Warn("version header not found", zap.String("path", res.Path))
		case res.Changed:
			log.Info("stamped",
				zap.String("hash", res.Values.Hash),
				zap.String("branch", res.Values.Branch),
				zap.String("build", res.Values.Build))
		default:
			log.Debug("no change")
		}
	}

	// Initial pass before settling into the event loop.
	pass()

	worktree := cfg.Git.Dir
	if worktree == "" {
		worktree, err = cfg.ResolveRoot()
		if err != nil {
			return err
		}
	}

	w := watch.New(watch.GitPaths(worktree), cfg.Watch.Debounce, pass, log)

	// Handle graceful shutdown.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
		cancel()
	}()

	errc := make(chan error, 1)
	go func() { errc <- w.Start() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for repository changes (Ctrl+C to stop)\n", worktree)

	select {
	case <-ctx.Done():
		w.Stop()
		return <-errc
	case err := <-errc:
		return err
	}
}
