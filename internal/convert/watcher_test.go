package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Debounce(t *testing.T) {
	w, err := NewWatcher(newTestConverter(t, ""), time.Second)
	require.NoError(t, err)
	defer w.Close()

	start := time.Now()
	w.enqueue("a.abc", start)
	w.enqueue("b.abc", start.Add(100*time.Millisecond))
	w.enqueue("a.abc", start.Add(500*time.Millisecond))
	assert.Equal(t, 2, w.Pending())

	_, ok := w.next(start.Add(time.Second))
	assert.False(t, ok, "a was touched again and has not settled")

	path, ok := w.next(start.Add(1500 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "a.abc", path)

	path, ok = w.next(start.Add(1500 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "b.abc", path)

	_, ok = w.next(start.Add(time.Hour))
	assert.False(t, ok)
	assert.Zero(t, w.Pending())
}

func TestWatcher_ConvertsNewScenes(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()

	w, err := NewWatcher(newTestConverter(t, out), 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Add(dir))

	results := make(chan Result, 4)
	w.OnResult = func(res Result, err error) {
		assert.NoError(t, err)
		results <- res
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	data, err := os.ReadFile(triScene)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.abc.yaml"), data, 0o644))

	select {
	case res := <-results:
		assert.Equal(t, filepath.Join(out, "shot.nvc"), res.Output)
		assert.Equal(t, 2, res.Frames)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for conversion")
	}

	cancel()
	require.NoError(t, <-done)
	assert.ErrorIs(t, w.Add(dir), ErrWatcherClosed)
}
