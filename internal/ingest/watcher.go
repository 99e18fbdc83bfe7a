package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	InitialScan bool     // if true, walk roots and emit existing files
	SkipHidden  bool
	Debounce    time.Duration // coalesce rapid write/rename bursts
}

// StartWatcher emits inbox file paths as they appear under the roots. Both
// channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *zap.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher.start.failed", zap.String("reason", "no roots provided"))
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watcher.create.failed", zap.Error(err))
		return nil, nil, err
	}

	wanted := func(path string) bool {
		return AllowedExt(filepath.Ext(path)) && !(cfg.SkipHidden && IsHidden(path))
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if cfg.SkipHidden && path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && wanted(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("watcher.add_root.failed", zap.String("root", r), zap.Error(err))
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("watcher.started", zap.Strings("roots", cfg.Roots), zap.Int("initial", len(initial)))

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher.close.failed", zap.Error(err))
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		var pending []string
		queued := map[string]struct{}{}
		var timer *time.Timer
		var fire <-chan time.Time

		flush := func() bool {
			for _, p := range pending {
				if !emit(p) {
					return false
				}
				delete(queued, p)
			}
			pending = pending[:0]
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// new sub-directories are watched too; Add fails for plain files
					_ = w.Add(e.Name)
				}
				if !wanted(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					continue
				}
				if _, dup := queued[e.Name]; !dup {
					queued[e.Name] = struct{}{}
					pending = append(pending, e.Name)
				}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher.error", zap.Error(err))
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// Watch feeds watcher events into IngestPath sequentially until ctx is done.
// It returns once the underlying watcher has been closed.
func (i *Ingestor) Watch(ctx context.Context, cfg WatchConfig, onFile func(FileResult, error)) error {
	events, errs, err := StartWatcher(ctx, cfg, i.logger)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			for range events {
			}
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			i.logger.Warn("ingest.watch.error", zap.Error(err))
		case path, ok := <-events:
			if !ok {
				return nil
			}
			r, err := i.IngestPath(ctx, path)
			if err != nil {
				i.logger.Warn("ingest.file.failed", zap.String("path", path), zap.Error(err))
			}
			if onFile != nil {
				onFile(r, err)
			}
		}
	}
}
