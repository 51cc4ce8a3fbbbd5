// Package source provides dispatch sources that do not need a broker.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kilianp07/solischarge/core/model"
	coresource "github.com/kilianp07/solischarge/core/source"
	"github.com/kilianp07/solischarge/infra/logger"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 200 * time.Millisecond

// File reads a dispatch sensor payload from disk and reloads it when the
// file changes. Unchanged content is not re-emitted.
type File struct {
	path     string
	debounce time.Duration
	log      logger.Logger
	now      func() time.Time
	last     []byte
}

var _ coresource.Source = (*File)(nil)

// NewFile returns a source for path.
func NewFile(path string, debounce time.Duration) *File {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &File{path: path, debounce: debounce, log: logger.New("file_source"), now: time.Now}
}

// Load reads the file once.
func (f *File) Load() (model.DispatchState, []byte, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return model.DispatchState{}, nil, err
	}
	st, err := model.DecodeDispatchState(b)
	if err != nil {
		return model.DispatchState{}, b, fmt.Errorf("decode %s: %w", f.path, err)
	}
	st.ReceivedAt = f.now()
	return st, b, nil
}

// Run emits the current content, then every change, until ctx ends. The
// parent directory is watched so editors that replace the file are seen.
func (f *File) Run(ctx context.Context, out chan<- model.DispatchState) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer w.Close()
	dir, name := filepath.Split(filepath.Clean(f.path))
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if !f.reload(ctx, out) {
		return nil
	}

	timer := time.NewTimer(f.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !strings.EqualFold(filepath.Base(ev.Name), name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(f.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			f.log.Warnf("watch error on %s: %v", f.path, err)
		case <-timer.C:
			if !f.reload(ctx, out) {
				return nil
			}
		}
	}
}

// reload reports false only when ctx ended during delivery.
func (f *File) reload(ctx context.Context, out chan<- model.DispatchState) bool {
	st, raw, err := f.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.log.Debugf("dispatch file %s not present yet", f.path)
		} else {
			f.log.Errorf("failed to load dispatches: %v", err)
		}
		return true
	}
	if f.last != nil && bytes.Equal(raw, f.last) {
		f.log.Debugf("dispatch file unchanged")
		return true
	}
	f.last = raw
	f.log.Infof("loaded %d planned dispatches from %s", len(st.PlannedDispatches), f.path)
	return coresource.Deliver(ctx, out, st)
}
