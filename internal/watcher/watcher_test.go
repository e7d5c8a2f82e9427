package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/service"
	"facturaia/mocks"
)

func testConfig(t *testing.T) config.WatchConfig {
	t.Helper()
	cfg := config.WatchConfig{Dir: t.TempDir(), Concurrency: 2, Debounce: 20 * time.Millisecond}
	require.NoError(t, os.MkdirAll(cfg.ProcessedDir(), 0o755))
	require.NoError(t, os.MkdirAll(cfg.ErrorsDir(), 0o755))
	return cfg
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
	return p
}

func okResult() *service.IngestResult {
	return &service.IngestResult{Invoice: &domain.Invoice{ID: uuid.New()}}
}

func TestProcess_SuccessMovesToProcessed(t *testing.T) {
	cfg := testConfig(t)
	ingest := new(mocks.MockIngestionService)
	ingest.On("Ingest", mock.Anything, mock.MatchedBy(func(in service.IngestInput) bool {
		return in.Filename == "a.pdf" && string(in.Data) == "%PDF-1.4" && in.CompanyID == nil
	})).Return(okResult(), nil)

	path := writeFile(t, cfg.Dir, "a.pdf")
	require.NoError(t, New(cfg, ingest).Process(context.Background(), path))

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(cfg.ProcessedDir(), "a.pdf"))
}

func TestProcess_FailureMovesToErrors(t *testing.T) {
	cfg := testConfig(t)
	ingest := new(mocks.MockIngestionService)
	ingest.On("Ingest", mock.Anything, mock.Anything).Return(nil, domain.ErrMalformedResponse)

	path := writeFile(t, cfg.Dir, "b.pdf")
	err := New(cfg, ingest).Process(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(cfg.ErrorsDir(), "b.pdf"))
}

func TestProcess_NameCollisionKeepsBoth(t *testing.T) {
	cfg := testConfig(t)
	ingest := new(mocks.MockIngestionService)
	ingest.On("Ingest", mock.Anything, mock.Anything).Return(okResult(), nil)
	writeFile(t, cfg.ProcessedDir(), "c.pdf")

	path := writeFile(t, cfg.Dir, "c.pdf")
	require.NoError(t, New(cfg, ingest).Process(context.Background(), path))

	entries, err := os.ReadDir(cfg.ProcessedDir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRun_ProcessesExistingAndNewFiles(t *testing.T) {
	cfg := testConfig(t)
	ingest := new(mocks.MockIngestionService)
	ingest.On("Ingest", mock.Anything, mock.Anything).Return(okResult(), nil)
	writeFile(t, cfg.Dir, "existing.pdf")
	writeFile(t, cfg.Dir, "notes.txt")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, ingest).Run(ctx) }()

	processed := func(name string) func() bool {
		return func() bool {
			_, err := os.Stat(filepath.Join(cfg.ProcessedDir(), name))
			return err == nil
		}
	}
	require.Eventually(t, processed("existing.pdf"), 2*time.Second, 10*time.Millisecond)

	writeFile(t, cfg.Dir, "dropped.PDF")
	require.Eventually(t, processed("dropped.PDF"), 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.FileExists(t, filepath.Join(cfg.Dir, "notes.txt"))
	ingest.AssertNumberOfCalls(t, "Ingest", 2)
}

func TestProcess_MissingFileIsIgnored(t *testing.T) {
	cfg := testConfig(t)
	ingest := new(mocks.MockIngestionService)
	err := New(cfg, ingest).Process(context.Background(), filepath.Join(cfg.Dir, "gone.pdf"))
	assert.NoError(t, err)
	ingest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestDispatch_DoesNotBlockWhenSlotsAreBusy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Concurrency = 1
	started := make(chan struct{})
	release := make(chan struct{})
	ingest := new(mocks.MockIngestionService)
	ingest.On("Ingest", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(okResult(), nil).Once()

	w := New(cfg, ingest)
	ctx, cancel := context.WithCancel(context.Background())
	first := writeFile(t, cfg.Dir, "first.pdf")
	second := writeFile(t, cfg.Dir, "second.pdf")

	w.dispatch(ctx, first)
	<-started

	returned := make(chan struct{})
	go func() {
		w.dispatch(ctx, second)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked while the only slot was busy")
	}

	cancel()
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return !w.inflight[second]
	}, time.Second, 5*time.Millisecond)

	close(release)
	w.wg.Wait()

	ingest.AssertNumberOfCalls(t, "Ingest", 1)
	assert.FileExists(t, filepath.Join(cfg.ProcessedDir(), "first.pdf"))
	assert.FileExists(t, second)
}
