package relevance

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 400 * time.Millisecond

// Registry holds the active scorers for both content domains and supports
// hot reloading the keyword tables file.
type Registry struct {
	mu     sync.RWMutex
	events *Scorer
	audio  *Scorer
	logger *zap.Logger
}

// NewRegistry creates a registry from the given tables.
// logger may be nil to disable reload logging.
func NewRegistry(tables *Tables, logger *zap.Logger) *Registry {
	return &Registry{
		events: NewScorer(tables.Events),
		audio:  NewScorer(tables.Audio),
		logger: logger,
	}
}

// Events returns the current events scorer.
func (r *Registry) Events() *Scorer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.events
}

// Audio returns the current audio scorer.
func (r *Registry) Audio() *Scorer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.audio
}

// Reload replaces both scorers from the tables file at path.
func (r *Registry) Reload(path string) error {
	tables, err := LoadTables(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.events = NewScorer(tables.Events)
	r.audio = NewScorer(tables.Audio)
	r.mu.Unlock()
	if r.logger != nil {
		r.logger.Info("keyword tables reloaded",
			zap.String("path", path),
			zap.Int("events_threshold", *tables.Events.Threshold),
			zap.Int("audio_threshold", *tables.Audio.Threshold),
		)
	}
	return nil
}

// Watch reloads the registry whenever the tables file at path changes.
// Events are debounced because editors produce several writes per save.
// Runs until ctx is cancelled. A reload failure keeps the previous tables.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors rename/replace the file on save, which
	// removes a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					if err := r.Reload(path); err != nil && r.logger != nil {
						r.logger.Warn("keyword tables reload failed", zap.String("path", path), zap.Error(err))
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if err != nil && r.logger != nil {
					r.logger.Debug("keyword tables watcher error", zap.Error(err))
				}
			}
		}
	}()
	return nil
}
