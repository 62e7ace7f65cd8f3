package tree

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// importSettle is how long a dropped file must stay quiet before it is
// picked up, so half-written dumps are not parsed.
const importSettle = 300 * time.Millisecond

// WatchImports watches dropDir for JSON tree dumps and imports each one as
// it appears. A successfully imported file is renamed with an ".imported"
// suffix; a failed one gets ".failed" so it is not retried in a loop. Runs
// until ctx is cancelled.
func WatchImports(ctx context.Context, svc *Service, dropDir string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dropDir); err != nil {
		return err
	}
	logger.Info("import watcher: started", slog.String("dir", dropDir))

	// Pick up anything already sitting in the directory.
	if entries, err := os.ReadDir(dropDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				importDropped(ctx, svc, filepath.Join(dropDir, e.Name()), logger)
			}
		}
	}

	// pending maps a file path to its settle timer deadline.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("import watcher: stopped")
			return nil

		case now := <-ticker.C:
			for path, due := range pending {
				if now.After(due) {
					delete(pending, path)
					importDropped(ctx, svc, path, logger)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[ev.Name] = time.Now().Add(importSettle)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("import watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// importDropped parses and imports a single dropped dump file, then renames
// it out of the way.
func importDropped(ctx context.Context, svc *Service, path string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("import watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	var records []ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("import watcher: bad JSON", slog.String("path", path), slog.String("error", err.Error()))
		_ = os.Rename(path, path+".failed")
		return
	}

	if err := svc.Import(ctx, records); err != nil {
		logger.Warn("import watcher: import failed", slog.String("path", path), slog.String("error", err.Error()))
		_ = os.Rename(path, path+".failed")
		return
	}

	logger.Info("import watcher: imported", slog.String("path", path), slog.Int("records", len(records)))
	_ = os.Rename(path, path+".imported")
}
