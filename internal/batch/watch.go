// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/clause-risk/internal/extract"
)

// DefaultDebounce is how long Watch waits after the last event.
const DefaultDebounce = 2 * time.Second

// triggers reports whether ev should start a batch run.
func triggers(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, combinedPrefix) {
		return false
	}
	_, ok := extract.KindOf(name)
	return ok
}

// Watch runs a batch over folder now and again whenever new documents
// settle in it, until ctx is done. Events are debounced so a file copied
// in several writes starts one run.
func (r *Runner) Watch(ctx context.Context, folder string, debounce time.Duration, w io.Writer) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(folder); err != nil {
		return fmt.Errorf("watching %s: %w", folder, err)
	}

	runOnce := func() {
		_, err := r.Run(ctx, folder, w)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, ErrFolderLocked):
			log.Warn().Str("folder", folder).Msg("folder locked, waiting for next change")
		default:
			log.Error().Err(err).Str("folder", folder).Msg("batch run failed")
		}
	}

	runOnce()
	fmt.Fprintf(w, "watching %s for new documents\n", folder)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if triggers(ev) {
				log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			runOnce()
		}
	}
}
