package pagesource

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"aags-annotator/internal/components/telemetry"

	"github.com/fsnotify/fsnotify"
)

const report_watch = "watch"

const DefaultDebounce = 300 * time.Millisecond

// Watch calls onChange every time the file at path changes, until ctx is
// done. Bursts of events closer together than debounce (editors often write
// then rename) result in a single call. The directory is watched rather than
// the file so replaced files keep being followed.
func Watch(ctx context.Context, path string, debounce time.Duration, tel telemetry.API, onChange func(ctx context.Context)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	tel = telemetry.NewScopedAPI("pagesource", tel)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	err = watcher.Add(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ticker := time.NewTicker(debounce / 3)
	defer ticker.Stop()

	var pendingSince time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			tel.ReportDebug("file changed", "path", abs, "op", event.Op.String())
			pendingSince = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			tel.ReportWarning(report_watch, abs, err)
		case <-ticker.C:
			if pendingSince.IsZero() || time.Since(pendingSince) < debounce {
				continue
			}
			pendingSince = time.Time{}
			onChange(ctx)
		}
	}
}
