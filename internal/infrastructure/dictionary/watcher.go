package dictionary

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/macrolens/menulens/internal/domain"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// ApplyFunc installs a freshly loaded dictionary, e.g. Classifier.Update
type ApplyFunc func(spec domain.DictionarySpec) error

// Watcher reloads a dictionary file whenever it is written and hands the
// result to an ApplyFunc. A file that fails to load or apply leaves the
// previous dictionary in place.
type Watcher struct {
	path     string
	base     domain.DictionarySpec
	apply    ApplyFunc
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher for path. Each loaded file is merged over
// base before it is applied.
func NewWatcher(path string, base domain.DictionarySpec, apply ApplyFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		base:     base,
		apply:    apply,
		debounce: defaultDebounce,
		logger:   logger.Named("dictionary"),
	}
}

// Reload loads the file once and applies it
func (w *Watcher) Reload() error {
	spec, err := Load(w.path)
	if err != nil {
		return err
	}
	if err := w.apply(w.base.Merge(spec)); err != nil {
		return fmt.Errorf("apply dictionary: %w", err)
	}
	w.logger.Info("dictionary loaded",
		zap.String("path", w.path),
		zap.Int("allergens", len(spec.Allergens)),
		zap.Int("dietary_tags", len(spec.Dietary)))
	return nil
}

// Start begins watching in the background until ctx is done. The file's
// directory is watched so editors that save by renaming are seen too.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	go w.loop(ctx, fw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer fw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			// coalesce the bursts editors produce
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.Reload(); err != nil {
				w.logger.Warn("dictionary reload failed, keeping previous", zap.String("path", w.path), zap.Error(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}
