package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/ufi/internal/runner"
	"github.com/standardbeagle/ufi/internal/watch"
)

// watchCommand runs one full pass, then keeps formatting changed files
// until interrupted. Each debounced batch is its own run: the index is
// reloaded, updated and persisted per batch, so an interrupt between
// batches never loses more than the in-flight batch.
func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	sink := newSink(c)
	r := runner.New(cfg, sink)

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := r.Run(ctx, runner.ModeFormat)
	if err != nil {
		return err
	}
	fmt.Printf("%d files scanned, %d up to date, %d formatted; watching %s\n",
		res.Scanned, res.Skipped, res.Formatted, cfg.Project.Root)

	w, err := watch.New(cfg, sink, func(paths []string) {
		res, err := r.RunFiles(context.Background(), runner.ModeFormat, paths)
		if err != nil {
			sink.Warn("incremental run failed", err)
			return
		}
		if res.Formatted > 0 {
			fmt.Printf("%d files formatted\n", res.Formatted)
		}
	})
	if err != nil {
		return err
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "watch stopped")
	return nil
}
