package storage

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/repo"
)

// AlertFunc is called when a payload disappears out-of-band while its
// metadata row still exists.
type AlertFunc func(code string, format models.ContentFormat)

// Watch monitors the payload directory until ctx is cancelled. Payload
// files are written only by the orchestrator, so any external removal or
// rename of a file whose code still resolves to metadata leaves an
// unreachable item; that is an inconsistent-state condition and is
// logged at error level in addition to invoking alert (if non-nil).
func Watch(ctx context.Context, r repo.Repository, root string, logger *slog.Logger, alert AlertFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			code, format, ok := parsePayloadName(filepath.Base(ev.Name))
			if !ok {
				continue
			}
			if _, err := r.FindByCode(ctx, code); err != nil {
				if !errors.Is(err, apperr.ErrNotFound) {
					logger.Warn("watcher: lookup failed",
						slog.String("code", code), slog.String("error", err.Error()))
				}
				continue
			}
			logger.Error("watcher: payload removed out-of-band, metadata now orphaned",
				slog.String("code", code),
				slog.String("format", string(format)))
			if alert != nil {
				alert(code, format)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// parsePayloadName splits "{code}.{ext}" and rejects anything that is
// not a payload file (temp files, unknown extensions).
func parsePayloadName(name string) (string, models.ContentFormat, bool) {
	if strings.HasPrefix(name, ".") {
		return "", "", false
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return "", "", false
	}
	format, ok := models.FormatForExtension(name[i+1:])
	if !ok {
		return "", "", false
	}
	return name[:i], format, true
}
