package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	assert.True(t, GoFilter("greet/greet_afmt.go"))
	assert.False(t, GoFilter("greet/README.md"))

	assert.True(t, NoTestFilter("greet/greet.go"))
	assert.False(t, NoTestFilter("greet/greet_test.go"))

	output := NoOutputFilter("afmt_gen.go")
	assert.False(t, output("greet/afmt_gen.go"))
	assert.True(t, output("greet/greet_afmt.go"))

	assert.False(t, NoHiddenFilter("greet/.greet.go.swp"))
	assert.False(t, NoHiddenFilter("greet/greet.go~"))
	assert.True(t, NoHiddenFilter("greet/greet.go"))
}

func TestDirs(t *testing.T) {
	events := []ChangeEvent{
		{Path: filepath.Join("b", "x.go")},
		{Path: filepath.Join("a", "y.go")},
		{Path: filepath.Join("b", "z.go")},
	}
	assert.Equal(t, []string{"a", "b"}, Dirs(events))
	assert.Empty(t, Dirs(nil))
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	d.addEvent(ChangeEvent{Type: EventTypeCreated, Path: "b.go"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "a.go"})
	d.addEvent(ChangeEvent{Type: EventTypeModified, Path: "b.go"})

	select {
	case events := <-d.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.go", events[0].Path)
		assert.Equal(t, "b.go", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type, "the last event per path wins")
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.addEvent(ChangeEvent{Path: "a.go"})
	d.stop()

	d.flush()
	events := <-d.output
	assert.Len(t, events, 1, "an explicit flush still delivers pending events")
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)

	watcher.AddFilter(GoFilter)
	watcher.AddHandler(func(context.Context, []ChangeEvent) error { return nil })
	assert.Len(t, watcher.filters, 1)
	assert.Len(t, watcher.handlers, 1)
}

func TestAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))
	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))

	file := filepath.Join(dir, "greet.go")
	require.NoError(t, os.WriteFile(file, []byte("package greet\n"), 0o644))
	assert.Error(t, watcher.AddPath(file), "only directories are watched")
}

func TestAddRecursiveSkipsToolingDirs(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	watcher.Ignore("generated*")

	root := t.TempDir()
	for _, dir := range []string{"pkg/greet", ".git/objects", "_examples/x", "vendor/y", "testdata/z", "generated_out"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	require.NoError(t, watcher.AddRecursive(root))

	watched := watcher.watcher.WatchList()
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "pkg"),
		filepath.Join(root, "pkg", "greet"),
	}, watched)
}

func TestFileWatcherDeliversChanges(t *testing.T) {
	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	root := t.TempDir()
	watcher.AddFilter(GoFilter)
	watcher.AddFilter(NoOutputFilter("afmt_gen.go"))
	require.NoError(t, watcher.AddRecursive(root))

	var (
		mu   sync.Mutex
		seen []string
	)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			seen = append(seen, filepath.Base(e.Path))
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "afmt_gen.go"), []byte("package greet\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "greet_afmt.go"), []byte("package greet\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "greet_afmt.go")
	assert.NotContains(t, seen, "afmt_gen.go")
	assert.NotContains(t, seen, "notes.txt")
}
