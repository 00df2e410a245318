// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-risk/internal/pipeline"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// fakeAnalyzer answers by file name: names containing "blank" have
// nothing to process, names containing "bad" fail.
type fakeAnalyzer struct {
	mu    sync.Mutex
	seen  []string
	runID map[string]bool
}

func (f *fakeAnalyzer) Run(_ context.Context, runID string, doc types.Document) (*types.DocumentReport, error) {
	f.mu.Lock()
	f.seen = append(f.seen, doc.Name)
	if f.runID == nil {
		f.runID = make(map[string]bool)
	}
	f.runID[runID] = true
	f.mu.Unlock()

	switch {
	case strings.Contains(doc.Name, "blank"):
		return nil, fmt.Errorf("%s: %w", doc.Name, pipeline.ErrNothingToProcess)
	case strings.Contains(doc.Name, "bad"):
		return nil, errors.New("extraction exploded")
	}
	return &types.DocumentReport{
		RunID:    runID,
		Document: doc,
		Summary:  types.DocumentRiskSummary{TotalClauses: 4, RiskyClauses: 1, OverallRating: types.RatingB},
	}, nil
}

func (f *fakeAnalyzer) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("We may share your data."), 0o644))
}

func writePNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.White)
		}
		img.Set(x, x, color.Black)
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestResultCounts(t *testing.T) {
	r := Result{Processed: 3, Skipped: 1, Failed: 2}
	assert.Equal(t, 6, r.Total())
	assert.True(t, r.HasFailures())
	assert.False(t, Result{Processed: 1}.HasFailures())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b-lease.txt")
	touch(t, dir, "a-terms.txt")
	touch(t, dir, "blank.txt")
	touch(t, dir, "bad.txt")
	touch(t, dir, "notes.docx")
	touch(t, dir, ".hidden.txt")

	analyzer := &fakeAnalyzer{}
	var sunk []string
	sink := func(_ context.Context, r *types.DocumentReport) error {
		sunk = append(sunk, r.Document.Name)
		return nil
	}
	runner := New(analyzer, Options{Owner: "tester"}, sink)

	var out bytes.Buffer
	res, err := runner.Run(context.Background(), dir, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, []string{"a-terms.txt", "b-lease.txt", "bad.txt", "blank.txt"}, analyzer.names())
	assert.Len(t, analyzer.runID, 1, "one run ID per batch")
	assert.Equal(t, []string{"a-terms.txt", "b-lease.txt"}, sunk)

	processed := filepath.Join(dir, "processed")
	assert.True(t, exists(filepath.Join(processed, "a-terms.txt")))
	assert.True(t, exists(filepath.Join(processed, "b-lease.txt")))
	assert.True(t, exists(filepath.Join(processed, "blank.txt")), "skipped documents are moved too")
	assert.True(t, exists(filepath.Join(dir, "bad.txt")), "failed documents stay for a retry")
	assert.True(t, exists(filepath.Join(dir, "notes.docx")))
	assert.False(t, exists(filepath.Join(dir, LockFile)), "lock released")

	s := out.String()
	assert.Contains(t, s, "processed: a-terms.txt (4 clauses, 1 risky, rating B)")
	assert.Contains(t, s, "skipped:   blank.txt (nothing to process)")
	assert.Contains(t, s, "failed:    bad.txt (extraction exploded)")
	assert.Contains(t, s, "Batch summary: 2 processed, 1 skipped, 1 failed (total: 4)")
}

func TestRunSecondPassOnlyRetriesLeftovers(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "terms.txt")
	touch(t, dir, "bad.txt")
	runner := New(&fakeAnalyzer{}, Options{})

	_, err := runner.Run(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)

	analyzer := &fakeAnalyzer{}
	runner = New(analyzer, Options{})
	res, err := runner.Run(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.txt"}, analyzer.names())
	assert.Equal(t, 1, res.Failed)
}

func TestRunSkipsAlreadyProcessedNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "done"), 0o755))
	touch(t, filepath.Join(dir, "done"), "terms.txt")
	touch(t, dir, "terms.txt")

	analyzer := &fakeAnalyzer{}
	var out bytes.Buffer
	res, err := New(analyzer, Options{ProcessedDir: "done"}).Run(context.Background(), dir, &out)
	require.NoError(t, err)
	assert.Zero(t, res.Total())
	assert.Empty(t, analyzer.names())
	assert.Contains(t, out.String(), "nothing new to process")
}

func TestRunSinkFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "terms.txt")
	sink := func(context.Context, *types.DocumentReport) error { return errors.New("disk full") }

	var out bytes.Buffer
	res, err := New(&fakeAnalyzer{}, Options{}, sink).Run(context.Background(), dir, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, out.String(), "failed:    terms.txt (disk full)")
	assert.True(t, exists(filepath.Join(dir, "terms.txt")))
}

func TestRunCombinesImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "page2.png")
	writePNG(t, dir, "page1.png")

	analyzer := &fakeAnalyzer{}
	runner := New(analyzer, Options{})
	runner.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	var out bytes.Buffer
	res, err := runner.Run(context.Background(), dir, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, []string{"combined_document_20260304_050607.pdf"}, analyzer.names())
	processed := filepath.Join(dir, "processed")
	for _, name := range []string{"page1.png", "page2.png", "combined_document_20260304_050607.pdf"} {
		assert.True(t, exists(filepath.Join(processed, name)), name)
	}
	assert.Contains(t, out.String(), "combined:  2 images into combined_document_20260304_050607.pdf")
}

func writeGIF(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, gif.Encode(f, img, nil))
	require.NoError(t, f.Close())
}

func TestRunDropsFailedCombinedDocument(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "page1.png")
	writeGIF(t, dir, "page2.gif")

	failing := func(context.Context, *types.DocumentReport) error { return errors.New("disk full") }
	runner := New(&fakeAnalyzer{}, Options{}, failing)
	runner.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	var out bytes.Buffer
	res, err := runner.Run(context.Background(), dir, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, out.String(), "combined:  2 images into")
	assert.False(t, exists(filepath.Join(dir, "combined_document_20260304_050607.pdf")))
	assert.True(t, exists(filepath.Join(dir, "page1.png")))
	assert.True(t, exists(filepath.Join(dir, "page2.gif")))

	// The retry combines the images once more and sees a single document.
	analyzer := &fakeAnalyzer{}
	retry := New(analyzer, Options{})
	retry.now = func() time.Time { return time.Date(2026, 3, 4, 5, 7, 0, 0, time.UTC) }
	res, err = retry.Run(context.Background(), dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, []string{"combined_document_20260304_050700.pdf"}, analyzer.names())
	for _, name := range []string{"page1.png", "page2.gif"} {
		assert.True(t, exists(filepath.Join(dir, "processed", name)), name)
	}
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "terms.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeAnalyzer{}, Options{}).Run(ctx, dir, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, exists(filepath.Join(dir, "terms.txt")))
	assert.False(t, exists(filepath.Join(dir, LockFile)))
}

func TestRunMissingFolder(t *testing.T) {
	_, err := New(&fakeAnalyzer{}, Options{}).Run(context.Background(), filepath.Join(t.TempDir(), "nope"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestLock(t *testing.T) {
	dir := t.TempDir()
	unlock, err := Lock(dir)
	require.NoError(t, err)
	assert.True(t, exists(filepath.Join(dir, LockFile)))
	require.NoError(t, unlock())
	assert.False(t, exists(filepath.Join(dir, LockFile)))
	assert.NoError(t, unlock(), "second unlock is a no-op")

	again, err := Lock(dir)
	require.NoError(t, err)
	require.NoError(t, again())
}

func TestLockHeldByOtherProcess(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, LockFile)

	_, err := Lock(dir)
	assert.ErrorIs(t, err, ErrFolderLocked)

	_, err = New(&fakeAnalyzer{}, Options{}).Run(context.Background(), dir, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrFolderLocked)
}

func TestLockSerializesInProcess(t *testing.T) {
	dir := t.TempDir()
	unlock, err := Lock(dir)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := Lock(dir)
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, unlock())
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestRateLimiter(t *testing.T) {
	assert.Equal(t, float64(5), float64(New(&fakeAnalyzer{}, Options{Rate: 5}).limiter.Limit()))
	assert.True(t, New(&fakeAnalyzer{}, Options{}).limiter.Limit() > 1e300, "no rate means unlimited")
}

func TestTriggers(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"create pdf", fsnotify.Event{Name: "/in/terms.pdf", Op: fsnotify.Create}, true},
		{"write image", fsnotify.Event{Name: "/in/scan.PNG", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/in/terms.pdf", Op: fsnotify.Remove}, false},
		{"rename", fsnotify.Event{Name: "/in/terms.pdf", Op: fsnotify.Rename}, false},
		{"chmod", fsnotify.Event{Name: "/in/terms.pdf", Op: fsnotify.Chmod}, false},
		{"lock file", fsnotify.Event{Name: "/in/" + LockFile, Op: fsnotify.Create}, false},
		{"own combined pdf", fsnotify.Event{Name: "/in/combined_document_1.pdf", Op: fsnotify.Create}, false},
		{"unsupported", fsnotify.Event{Name: "/in/notes.docx", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, triggers(tt.ev))
		})
	}
}

// syncBuffer lets the watcher goroutine and the test share output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "first.txt")

	analyzer := &fakeAnalyzer{}
	runner := New(analyzer, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() { done <- runner.Watch(ctx, dir, 20*time.Millisecond, out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "watching")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"first.txt"}, analyzer.names())

	touch(t, dir, "second.txt")
	require.Eventually(t, func() bool {
		return exists(filepath.Join(dir, "processed", "second.txt"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, []string{"first.txt", "second.txt"}, analyzer.names())
}
