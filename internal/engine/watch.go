package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watch runs the suite once, then re-runs it whenever the given config
// file changes, until the context is cancelled. Runs never overlap: events
// arriving mid-run are debounced into a single follow-up run.
func (e *Engine) Watch(ctx context.Context, configPath string, selected []string) error {
	if configPath == "" {
		return fmt.Errorf("watch mode requires a config file")
	}
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the parent directory: editors commonly replace the file on
	// save, which would orphan a watch on the file itself.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(configPath), err)
	}

	trigger := make(chan struct{}, 1)
	go func() {
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != configPath {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				e.logger.Warn("watch error", "error", err)
			}
		}
	}()

	if _, err := e.Run(ctx, selected); err != nil {
		return err
	}
	e.logger.Info("watching for changes", "config", configPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			e.logger.Info("change detected, re-running suite", "config", filepath.Base(configPath))
			if _, err := e.Run(ctx, selected); err != nil {
				return err
			}
		}
	}
}
