package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"picpath/internal/picpath"
)

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Pictures"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{root}, 50*time.Millisecond, picpath.NewNopLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { changes <- struct{}{} })
	}()

	waitChange := func(t *testing.T) {
		t.Helper()
		select {
		case <-changes:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for change notification")
		}
	}

	// Wait until the initial tree is registered.
	deadline := time.Now().Add(5 * time.Second)
	for w.WatchCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("WatchCount() = %d, want 2", w.WatchCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := w.WatchCount(); got != 2 {
		t.Errorf("WatchCount() = %d, want 2 (hidden directory excluded)", got)
	}

	t.Run("reports a burst of writes once", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			writeFile(t, filepath.Join(root, "Pictures", "shot.png"), i+1)
		}
		waitChange(t)

		select {
		case <-changes:
			t.Error("burst reported more than once")
		case <-time.After(300 * time.Millisecond):
		}
	})

	t.Run("watches new directories", func(t *testing.T) {
		dir := filepath.Join(root, "DCIM")
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		waitChange(t)

		writeFile(t, filepath.Join(dir, "IMG_1.jpg"), 1)
		waitChange(t)
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
