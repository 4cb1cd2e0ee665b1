// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package answer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultReloadDebounce is how long the watcher waits for writes to settle.
const DefaultReloadDebounce = 250 * time.Millisecond

// VocabularyWatcher reloads a vocabulary file into a ColumnNamer when the file
// changes. A file that fails to load leaves the current vocabulary in place.
type VocabularyWatcher struct {
	path     string
	namer    *ColumnNamer
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	// OnReload, when set, is called after every reload attempt
	OnReload func(err error)

	mu    sync.Mutex
	timer *time.Timer

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewVocabularyWatcher creates a watcher for path. A zero debounce uses
// DefaultReloadDebounce.
func NewVocabularyWatcher(path string, namer *ColumnNamer, debounce time.Duration, logger *zap.Logger) (*VocabularyWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("vocabulary watcher requires a file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vocabulary path %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &VocabularyWatcher{
		path:     abs,
		namer:    namer,
		watcher:  watcher,
		logger:   logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the file's directory so editors that replace the file by
// rename are still seen. It returns once the watch is registered.
func (w *VocabularyWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch vocabulary directory: %w", err)
	}
	w.logger.Info("Watching vocabulary file", zap.String("path", w.path))
	w.started.Store(true)
	go w.loop(ctx)
	return nil
}

// Stop ends the watch and waits for the loop to exit. It is safe to call
// more than once, and without Start.
func (w *VocabularyWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started.Load() {
			<-w.doneCh
		}
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *VocabularyWatcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Vocabulary watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *VocabularyWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		// Removed or renamed away: keep serving the last good vocabulary.
		w.logger.Debug("Vocabulary file moved", zap.String("op", event.Op.String()))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *VocabularyWatcher) reload() {
	vocab, err := LoadVocabulary(w.path)
	if err != nil {
		w.logger.Error("Vocabulary reload failed, keeping current vocabulary",
			zap.String("path", w.path), zap.Error(err))
	} else {
		w.namer.SetVocabulary(vocab)
		w.logger.Info("Vocabulary reloaded",
			zap.String("path", w.path),
			zap.Int("display_names", len(vocab.DisplayNames)))
	}
	if w.OnReload != nil {
		w.OnReload(err)
	}
}
