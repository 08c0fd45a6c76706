package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"picpath/internal/config"
	"picpath/internal/picpath"
)

func newTestApp(t *testing.T) (*PicPathApp, string) {
	t.Helper()

	base := t.TempDir()
	volume := filepath.Join(base, "sdcard")
	for _, rel := range []string{
		"Pictures/Screenshots/Screenshot_1.png",
		"DCIM/Camera/IMG_1.jpg",
		"Download/meme.gif",
	} {
		path := filepath.Join(volume, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.NewConfig("test-device", base, []string{volume})
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Browse.Debounce = "10ms"

	a, err := NewPicPathApp(cfg, "test")
	if err != nil {
		t.Fatalf("NewPicPathApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, volume
}

func TestNewPicPathApp_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig("", t.TempDir(), []string{"/sdcard"})
	if _, err := NewPicPathApp(cfg, "test"); err == nil {
		t.Error("NewPicPathApp() expected error for missing device_id, got nil")
	}
}

func TestPicPathApp_RefreshAndQuery(t *testing.T) {
	ctx := context.Background()
	a, volume := newTestApp(t)

	n, err := a.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Refresh() = %d, want 3", n)
	}

	t.Run("list by category", func(t *testing.T) {
		images, err := a.ListImages(ctx, "", picpath.CategoryCamera)
		if err != nil {
			t.Fatalf("ListImages() error = %v", err)
		}
		if len(images) != 1 || images[0].DisplayName != "IMG_1.jpg" {
			t.Errorf("ListImages() = %+v, want IMG_1.jpg", images)
		}
	})

	t.Run("list by name", func(t *testing.T) {
		images, err := a.ListImages(ctx, "screenshot", picpath.CategoryAll)
		if err != nil {
			t.Fatalf("ListImages() error = %v", err)
		}
		if len(images) != 1 || images[0].Category != picpath.CategoryScreenshots {
			t.Errorf("ListImages() = %+v, want one screenshot", images)
		}
	})

	t.Run("find and resolve", func(t *testing.T) {
		images, err := a.ListImages(ctx, "meme", picpath.CategoryAll)
		if err != nil || len(images) != 1 {
			t.Fatalf("ListImages() = %v, %v", images, err)
		}
		meme := images[0]

		found, err := a.FindImage(ctx, meme.ID)
		if err != nil {
			t.Fatalf("FindImage() error = %v", err)
		}
		if found.Path != filepath.Join(volume, "Download", "meme.gif") {
			t.Errorf("FindImage().Path = %q", found.Path)
		}

		path, err := a.ResolvePath(ctx, meme.LocatorURI)
		if err != nil {
			t.Fatalf("ResolvePath() error = %v", err)
		}
		if path != found.Path {
			t.Errorf("ResolvePath() = %q, want %q", path, found.Path)
		}

		if _, err := a.FindImage(ctx, meme.ID+1); !errors.Is(err, picpath.ErrNotFound) {
			t.Errorf("FindImage(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("history records the scan", func(t *testing.T) {
		ops, err := a.GetHistory(ctx, 5)
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(ops) != 1 || ops[0].Status != picpath.ScanStatusSuccess || ops[0].ImageCount != 3 {
			t.Errorf("GetHistory() = %+v", ops)
		}
	})

	t.Run("count", func(t *testing.T) {
		got, err := a.Count(ctx)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if got != 3 {
			t.Errorf("Count() = %d, want 3", got)
		}
	})
}

func TestPicPathApp_Controller(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t)
	if _, err := a.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	c, err := a.NewController()
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	if got := c.SelectedCategory().Get(); got != picpath.CategoryScreenshots {
		t.Errorf("initial category = %q, want Screenshots", got)
	}

	images, unsubscribe := c.Images().Subscribe()
	defer unsubscribe()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-images:
			if len(got) == 1 && got[0].Category == picpath.CategoryScreenshots {
				return
			}
		case <-deadline:
			t.Fatal("controller never published the screenshot")
		}
	}
}
