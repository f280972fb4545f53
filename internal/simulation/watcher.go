package simulation

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the simulator's policy when the config file changes on
// disk. Editors rewrite files with several events in quick succession, so
// reloads are debounced.
type Watcher struct {
	path   string
	sim    *Simulator
	logger *slog.Logger
}

func NewWatcher(path string, sim *Simulator, logger *slog.Logger) *Watcher {
	return &Watcher{path: path, sim: sim, logger: logger}
}

// Reload loads the file and applies it to the simulator.
func (w *Watcher) Reload() error {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	w.sim.SetConfig(cfg)
	return nil
}

func (w *Watcher) Run(ctx context.Context) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("simulation config watcher unavailable", "err", err)
		return
	}
	defer fsw.Close()

	// Watch the directory: the file itself may be replaced by rename.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Error("watch simulation config dir", "err", err)
		return
	}

	var debounce *time.Timer
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				if err := w.Reload(); err != nil {
					w.logger.Error("simulation config reload failed", "err", err)
					return
				}
				w.logger.Info("simulation config reloaded", "path", w.path)
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("simulation config watcher error", "err", err)
		}
	}
}
