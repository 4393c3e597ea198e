package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/rulesai/pkg/rulesai/config"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
)

var watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run a decision cycle whenever the rules or world file changes",
	Long: `Runs one decision cycle, then watches the rule program and the world
snapshot. Every change reloads both files and runs another cycle. Cycle
numbers continue across reloads. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watch(ctx, cmd.OutOrStdout(), cfg)
}

func watch(ctx context.Context, out io.Writer, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{cfg.Rules, cfg.World} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Watch directories, not files: editors replace files on save.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	trigger := make(chan string, 1)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !relevant(ev, targets) {
					continue
				}
				logger.Debug("file changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
				select {
				case trigger <- ev.Name:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", zap.Error(err))
			}
		}
	})

	g.Go(func() error {
		var shared store.Store
		defer func() {
			if shared != nil {
				shared.Close()
			}
		}()

		decide := func() {
			comp, err := (&config.Loader{Config: cfg, Logger: logger, Store: shared}).Load(ctx)
			if err != nil {
				fmt.Fprintf(out, "reload failed: %v\n", err)
				return
			}
			shared = comp.Store
			if _, err := runCycles(ctx, out, cfg, comp); err != nil && ctx.Err() == nil {
				fmt.Fprintf(out, "decide failed: %v\n", err)
			}
		}

		decide()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-trigger:
			}

			// Let a burst of writes settle before reloading.
			timer := time.NewTimer(watchDebounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			select {
			case <-trigger:
			default:
			}
			decide()
		}
	})

	return g.Wait()
}

func relevant(ev fsnotify.Event, targets map[string]bool) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return targets[abs]
}
