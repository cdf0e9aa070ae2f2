package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cincanproject/cincan-registry/internal/feed"
)

const oneTool = `
tools:
  - name: cincan/pdfid
    location: local
    versions:
      - {version: "0.2.7", type: local, source: local, tags: ["latest"]}
`

const twoTools = oneTool + `
  - name: cincan/binwalk
    location: local
    versions:
      - {version: "2.2.0", type: local, source: local}
`

type reload struct {
	res feed.Result
	err error
}

func writeFeed(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write feed: %v", err)
	}
}

// waitFor drains reloads until one matches or the deadline passes.
func waitFor(t *testing.T, ch <-chan reload, match func(reload) bool) reload {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-ch:
			if match(r) {
				return r
			}
		case <-deadline:
			t.Fatal("timed out waiting for feed reload")
		}
	}
}

func TestNew(t *testing.T) {
	st := setupTestStore(t)

	w, err := New(st, "feed.yaml")
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Path() = %q, want absolute", w.Path())
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

func TestNew_InvalidArgs(t *testing.T) {
	if _, err := New(nil, "feed.yaml"); err == nil {
		t.Error("New(nil, ...) expected error, got nil")
	}
	if _, err := New(setupTestStore(t), ""); err == nil {
		t.Error("New(st, \"\") expected error, got nil")
	}
}

func TestWatcher_ReimportsOnChange(t *testing.T) {
	st := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "feed.yaml")
	writeFeed(t, path, oneTool)

	reloads := make(chan reload, 16)
	w, err := New(st, path,
		WithDebounce(20*time.Millisecond),
		OnReload(func(res feed.Result, err error) { reloads <- reload{res, err} }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	first := waitFor(t, reloads, func(reload) bool { return true })
	if first.err != nil || first.res.Tools != 1 {
		t.Fatalf("initial import = %+v, %v; want 1 tool", first.res, first.err)
	}

	writeFeed(t, path, twoTools)
	waitFor(t, reloads, func(r reload) bool { return r.err == nil && r.res.Tools == 2 })

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	counts, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if counts.Tools != 2 || counts.Versions != 2 {
		t.Errorf("counts = %+v, want 2 tools and 2 versions", counts)
	}
}

func TestWatcher_MissingFeedThenCreated(t *testing.T) {
	st := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "feed.yaml")

	reloads := make(chan reload, 16)
	w, err := New(st, path,
		WithDebounce(20*time.Millisecond),
		OnReload(func(res feed.Result, err error) { reloads <- reload{res, err} }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v, want nil for missing feed", err)
	}
	defer w.Stop()

	first := waitFor(t, reloads, func(reload) bool { return true })
	if first.err == nil {
		t.Fatal("initial import of missing feed succeeded, want error")
	}

	writeFeed(t, path, oneTool)
	waitFor(t, reloads, func(r reload) bool { return r.err == nil })

	n, last, lastErr := w.Stats()
	if n < 2 {
		t.Errorf("reloads = %d, want at least 2", n)
	}
	if lastErr != nil || last.Tools != 1 {
		t.Errorf("last = %+v, %v; want 1 tool", last, lastErr)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	st := setupTestStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.yaml")
	writeFeed(t, path, oneTool)

	w, err := New(st, path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	writeFeed(t, filepath.Join(dir, "other.yaml"), twoTools)
	time.Sleep(100 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if n, _, _ := w.Stats(); n != 1 {
		t.Errorf("reloads = %d, want 1", n)
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	st := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "feed.yaml")
	writeFeed(t, path, oneTool)

	w, err := New(st, path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}
