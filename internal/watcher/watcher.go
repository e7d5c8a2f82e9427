// Package watcher ingests PDFs dropped into a directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"facturaia/internal/config"
	"facturaia/internal/logger"
	"facturaia/internal/service"
)

// processTimeout bounds a single file. It is independent of the Run context
// so files already being ingested finish during shutdown.
const processTimeout = 5 * time.Minute

// Watcher feeds files from a directory into the ingestion pipeline and moves
// each one to processed/ or errors/ afterwards.
type Watcher struct {
	cfg    config.WatchConfig
	ingest service.IngestionService
	log    zerolog.Logger

	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a Watcher. Concurrency below one is treated as one.
func New(cfg config.WatchConfig, ingest service.IngestionService) *Watcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}
	return &Watcher{
		cfg:      cfg,
		ingest:   ingest,
		log:      logger.WithComponent("watcher"),
		sem:      make(chan struct{}, cfg.Concurrency),
		inflight: make(map[string]bool),
	}
}

// Run watches the directory until ctx is canceled. Files already present
// when it starts are processed too. It returns after in-flight files finish.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range []string{w.cfg.Dir, w.cfg.ProcessedDir(), w.cfg.ErrorsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("watcher: creating %s: %w", dir, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watcher: adding %s: %w", w.cfg.Dir, err)
	}
	w.log.Info().Str("dir", w.cfg.Dir).Int("concurrency", cap(w.sem)).Msg("watcher: started")

	existing, err := w.scan()
	if err != nil {
		w.log.Error().Err(err).Msg("watcher: initial scan failed")
	}
	for _, path := range existing {
		w.dispatch(ctx, path)
	}

	pending := map[string]time.Time{}
	ticker := time.NewTicker(w.cfg.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("watcher: shutting down, waiting for in-flight files")
			w.wg.Wait()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				w.wg.Wait()
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isPDF(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) >= w.cfg.Debounce {
					delete(pending, path)
					w.dispatch(ctx, path)
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				w.wg.Wait()
				return nil
			}
			w.log.Error().Err(err).Msg("watcher: fsnotify error")
		}
	}
}

// scan lists PDFs directly inside the watched directory.
func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isPDF(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(w.cfg.Dir, e.Name()))
	}
	return out, nil
}

// dispatch hands path to a worker goroutine without blocking the caller. The
// goroutine waits for a free slot; if ctx ends first the file is left in place
// for the next start. A path already queued or being processed is ignored.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.mu.Lock()
	if w.inflight[path] {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}()

		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.sem }()

		pctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		_ = w.Process(pctx, path)
	}()
}

// Process ingests one file and moves it to processed/ on success, including
// duplicates, or to errors/ on failure. The ingestion error is returned.
func (w *Watcher) Process(ctx context.Context, path string) error {
	name := filepath.Base(path)
	log := w.log.With().Str("file", name).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		log.Error().Err(err).Msg("watcher: reading file failed")
		w.move(path, w.cfg.ErrorsDir())
		return err
	}

	result, err := w.ingest.Ingest(ctx, service.IngestInput{Data: data, Filename: name})
	if err != nil {
		log.Error().Err(err).Msg("watcher: ingestion failed")
		w.move(path, w.cfg.ErrorsDir())
		return err
	}

	log.Info().Str("invoice_id", result.Invoice.ID.String()).Bool("duplicate", result.IsDuplicate).
		Msg("watcher: file processed")
	w.move(path, w.cfg.ProcessedDir())
	return nil
}

// move renames path into dir, suffixing a timestamp when the name is taken.
func (w *Watcher) move(path, dir string) {
	name := filepath.Base(path)
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(name)
		dst = filepath.Join(dir, fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), time.Now().UnixNano(), ext))
	}
	if err := os.Rename(path, dst); err != nil {
		w.log.Error().Err(err).Str("file", name).Str("dest", dir).Msg("watcher: moving file failed")
	}
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
