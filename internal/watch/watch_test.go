package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headerFilter accepts .hpp files outside "skip" directories.
type headerFilter struct{}

func (headerFilter) Relevant(root, path string) bool {
	return strings.HasSuffix(path, ".hpp") && !strings.Contains(path, string(filepath.Separator)+"skip"+string(filepath.Separator))
}

func (headerFilter) Excluded(root, dir string) bool { return filepath.Base(dir) == "skip" }

func start(t *testing.T, roots []string) <-chan []string {
	t.Helper()
	batches := make(chan []string, 16)
	w := New(roots, func(ctx context.Context, changed []string) error {
		batches <- changed
		return nil
	}, WithDebounce(50*time.Millisecond), WithFilter(headerFilter{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not ready")
	}
	return batches
}

func waitBatch(t *testing.T, batches <-chan []string) []string {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}
	return nil
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	batches := start(t, []string{root})

	a := filepath.Join(root, "a.hpp")
	b := filepath.Join(root, "b.hpp")
	require.NoError(t, os.WriteFile(a, []byte("int a();\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("int b();\n"), 0o644))

	got := waitBatch(t, batches)
	assert.Contains(t, got, a)
	assert.Contains(t, got, b)
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "skip"), 0o755))
	batches := start(t, []string{root})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip", "x.hpp"), []byte("x"), 0o644))

	select {
	case b := <-batches:
		t.Fatalf("unexpected batch %v", b)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	batches := start(t, []string{root})

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Contains(t, waitBatch(t, batches), sub)

	// the new directory is watched from now on
	h := filepath.Join(sub, "c.hpp")
	require.NoError(t, os.WriteFile(h, []byte("int c();\n"), 0o644))
	assert.Contains(t, waitBatch(t, batches), h)
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context, []string) error { return nil })
	assert.Error(t, w.Run(context.Background()))
}
