package picpath_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"picpath/internal/picpath"
)

type observeCall struct {
	query    string
	category picpath.Category
}

// fakeSource answers every query with a single record named after the query
// and category, optionally after a delay.
type fakeSource struct {
	mu         sync.Mutex
	calls      []observeCall
	open       int
	delays     map[string]time.Duration
	errs       map[string]error
	results    map[string][]picpath.ImageRecord
	refreshErr error
	gate       chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		delays:  make(map[string]time.Duration),
		errs:    make(map[string]error),
		results: make(map[string][]picpath.ImageRecord),
	}
}

func (f *fakeSource) ObserveFiltered(ctx context.Context, query string, category picpath.Category) <-chan picpath.QueryResult {
	f.mu.Lock()
	f.calls = append(f.calls, observeCall{query, category})
	f.open++
	delay := f.delays[query]
	err := f.errs[query]
	images, ok := f.results[query]
	if !ok {
		images = []picpath.ImageRecord{{ID: 1, DisplayName: query + "/" + string(category)}}
	}
	f.mu.Unlock()

	ch := make(chan picpath.QueryResult, 1)
	go func() {
		defer func() {
			f.mu.Lock()
			f.open--
			f.mu.Unlock()
			close(ch)
		}()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		res := picpath.QueryResult{Images: images}
		if err != nil {
			res = picpath.QueryResult{Err: err}
		}
		select {
		case ch <- res:
		case <-ctx.Done():
			return
		}
		<-ctx.Done()
	}()
	return ch
}

func (f *fakeSource) Refresh(ctx context.Context) (int, error) {
	f.mu.Lock()
	gate, err := f.gate, f.refreshErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return 0, err
}

func (f *fakeSource) Calls() []observeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeSource) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestController(t *testing.T, src picpath.ImageSource, cfg picpath.ControllerConfig) *picpath.Controller {
	t.Helper()
	if cfg.Debounce == 0 {
		cfg.Debounce = 20 * time.Millisecond
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = 50 * time.Millisecond
	}
	c, err := picpath.NewController(src, picpath.NewNopLogger(), cfg)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func displayName(c *picpath.Controller) string {
	images := c.Images().Get()
	if len(images) == 0 {
		return ""
	}
	return images[0].DisplayName
}

func TestNewController(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := picpath.NewController(newFakeSource(), picpath.NewNopLogger(), picpath.ControllerConfig{})
		if err != nil {
			t.Fatalf("NewController() error = %v", err)
		}
		defer c.Close()

		if got := c.SelectedCategory().Get(); got != picpath.CategoryScreenshots {
			t.Errorf("SelectedCategory = %q, want Screenshots", got)
		}
		if c.SearchQuery().Get() != "" || c.SelectionMode().Get() || c.Loading().Get() {
			t.Error("unexpected non-zero initial state")
		}
		if len(c.Images().Get()) != 0 || len(c.SelectedIDs().Get()) != 0 {
			t.Error("expected empty images and selection")
		}
	})

	t.Run("unknown initial category", func(t *testing.T) {
		_, err := picpath.NewController(newFakeSource(), picpath.NewNopLogger(),
			picpath.ControllerConfig{InitialCategory: "Videos"})
		if !errors.Is(err, picpath.ErrUnknownCategory) {
			t.Errorf("NewController() error = %v, want ErrUnknownCategory", err)
		}
	})
}

func TestController_Debounce(t *testing.T) {
	src := newFakeSource()
	c := newTestController(t, src, picpath.ControllerConfig{Debounce: 100 * time.Millisecond})

	_, unsubscribe := c.SubscribeImages()
	defer unsubscribe()

	waitFor(t, "initial query", func() bool { return len(src.Calls()) == 1 })

	c.SetQuery("a")
	time.Sleep(10 * time.Millisecond)
	c.SetQuery("ab")
	time.Sleep(10 * time.Millisecond)
	c.SetQuery("abc")

	waitFor(t, "committed query", func() bool { return displayName(c) == "abc/Screenshots" })
	time.Sleep(200 * time.Millisecond)

	want := []observeCall{
		{"", picpath.CategoryScreenshots},
		{"abc", picpath.CategoryScreenshots},
	}
	if got := src.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	// Returning to the committed text does not start a new query.
	c.SetQuery("abcd")
	c.SetQuery("abc")
	time.Sleep(250 * time.Millisecond)
	if got := len(src.Calls()); got != 2 {
		t.Errorf("got %d calls after unchanged commit, want 2", got)
	}
}

func TestController_SelectCategory(t *testing.T) {
	src := newFakeSource()
	c := newTestController(t, src, picpath.ControllerConfig{})

	_, unsubscribe := c.SubscribeImages()
	defer unsubscribe()
	waitFor(t, "initial query", func() bool { return displayName(c) == "/Screenshots" })

	c.SetSelectionMode(true)
	c.ToggleSelection(1)

	if err := c.SelectCategory(picpath.CategoryCamera); err != nil {
		t.Fatalf("SelectCategory() error = %v", err)
	}
	if len(c.SelectedIDs().Get()) != 0 || c.SelectionMode().Get() {
		t.Error("selection not cleared on category change")
	}
	waitFor(t, "category query", func() bool { return displayName(c) == "/Camera" })

	// Reselecting the same category keeps the live query.
	before := len(src.Calls())
	if err := c.SelectCategory(picpath.CategoryCamera); err != nil {
		t.Fatalf("SelectCategory() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := len(src.Calls()); got != before {
		t.Errorf("got %d calls, want %d", got, before)
	}

	if err := c.SelectCategory("Videos"); !errors.Is(err, picpath.ErrUnknownCategory) {
		t.Errorf("SelectCategory(Videos) error = %v, want ErrUnknownCategory", err)
	}
	if got := c.SelectedCategory().Get(); got != picpath.CategoryCamera {
		t.Errorf("SelectedCategory = %q after invalid select, want Camera", got)
	}
}

func TestController_LatestWins(t *testing.T) {
	src := newFakeSource()
	src.delays["slow"] = 300 * time.Millisecond
	c := newTestController(t, src, picpath.ControllerConfig{})

	_, unsubscribe := c.SubscribeImages()
	defer unsubscribe()
	waitFor(t, "initial query", func() bool { return len(src.Calls()) == 1 })

	c.SetQuery("slow")
	waitFor(t, "slow query", func() bool { return len(src.Calls()) == 2 })
	c.SetQuery("fast")
	waitFor(t, "fast result", func() bool { return displayName(c) == "fast/Screenshots" })

	time.Sleep(400 * time.Millisecond)
	if got := displayName(c); got != "fast/Screenshots" {
		t.Errorf("images = %q after stale result was due, want fast/Screenshots", got)
	}
	if got := src.Open(); got != 1 {
		t.Errorf("%d live queries open, want 1", got)
	}
}

func TestController_Selection(t *testing.T) {
	c := newTestController(t, newFakeSource(), picpath.ControllerConfig{})

	t.Run("toggle adds and removes in order", func(t *testing.T) {
		c.SetSelectionMode(true)
		c.ToggleSelection(3)
		c.ToggleSelection(1)
		if got := c.SelectedIDs().Get(); !slices.Equal(got, []int64{1, 3}) {
			t.Errorf("SelectedIDs = %v, want [1 3]", got)
		}
		c.ToggleSelection(1)
		if got := c.SelectedIDs().Get(); !slices.Equal(got, []int64{3}) {
			t.Errorf("SelectedIDs = %v, want [3]", got)
		}
		if !c.SelectionMode().Get() {
			t.Error("left selection mode with items still selected")
		}
	})

	t.Run("removing last id leaves selection mode", func(t *testing.T) {
		c.ToggleSelection(3)
		if len(c.SelectedIDs().Get()) != 0 {
			t.Errorf("SelectedIDs = %v, want empty", c.SelectedIDs().Get())
		}
		if c.SelectionMode().Get() {
			t.Error("still in selection mode with empty selection")
		}
	})

	t.Run("toggle does not enter selection mode", func(t *testing.T) {
		c.ToggleSelection(7)
		if c.SelectionMode().Get() {
			t.Error("toggle entered selection mode")
		}
		c.ClearSelection()
	})

	t.Run("leaving selection mode clears selection", func(t *testing.T) {
		c.SetSelectionMode(true)
		c.ToggleSelection(2)
		c.SetSelectionMode(false)
		if len(c.SelectedIDs().Get()) != 0 || c.SelectionMode().Get() {
			t.Error("selection not cleared")
		}
	})
}

func TestController_SelectedPaths(t *testing.T) {
	src := newFakeSource()
	src.results[""] = []picpath.ImageRecord{
		{ID: 30, Path: "/sdcard/c.png"},
		{ID: 20, Path: "/sdcard/b.png"},
		{ID: 10, Path: "/sdcard/a.png"},
	}
	c := newTestController(t, src, picpath.ControllerConfig{})

	_, unsubscribe := c.SubscribeImages()
	defer unsubscribe()
	waitFor(t, "results", func() bool { return len(c.Images().Get()) == 3 })

	c.SetSelectionMode(true)
	c.ToggleSelection(10)
	c.ToggleSelection(30)
	c.ToggleSelection(99)

	want := []string{"/sdcard/c.png", "/sdcard/a.png"}
	if got := c.SelectedPaths(); !slices.Equal(got, want) {
		t.Errorf("SelectedPaths() = %v, want %v", got, want)
	}
}

func TestController_GracePeriod(t *testing.T) {
	src := newFakeSource()
	c := newTestController(t, src, picpath.ControllerConfig{GracePeriod: 150 * time.Millisecond})

	_, unsubscribe := c.SubscribeImages()
	waitFor(t, "initial query", func() bool { return src.Open() == 1 })

	// A consumer coming back inside the window keeps the pipeline.
	unsubscribe()
	time.Sleep(20 * time.Millisecond)
	_, unsubscribe = c.SubscribeImages()
	time.Sleep(250 * time.Millisecond)
	if got := len(src.Calls()); got != 1 {
		t.Errorf("got %d calls after quick resubscribe, want 1", got)
	}
	if got := src.Open(); got != 1 {
		t.Errorf("%d live queries open, want 1", got)
	}

	unsubscribe()
	waitFor(t, "pipeline stop", func() bool { return src.Open() == 0 })

	_, unsubscribe = c.SubscribeImages()
	defer unsubscribe()
	waitFor(t, "pipeline restart", func() bool { return len(src.Calls()) == 2 })
}

func TestController_Refresh(t *testing.T) {
	t.Run("loading while running", func(t *testing.T) {
		src := newFakeSource()
		src.gate = make(chan struct{})
		c := newTestController(t, src, picpath.ControllerConfig{})

		done := make(chan error, 1)
		go func() { done <- c.Refresh(context.Background()) }()

		waitFor(t, "loading", func() bool { return c.Loading().Get() })
		close(src.gate)
		if err := <-done; err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if c.Loading().Get() {
			t.Error("still loading after refresh finished")
		}
	})

	t.Run("failure sets last error", func(t *testing.T) {
		src := newFakeSource()
		src.refreshErr = picpath.ErrScanFailed
		c := newTestController(t, src, picpath.ControllerConfig{})

		if err := c.Refresh(context.Background()); !errors.Is(err, picpath.ErrScanFailed) {
			t.Fatalf("Refresh() error = %v, want ErrScanFailed", err)
		}
		if !errors.Is(c.LastError().Get(), picpath.ErrScanFailed) {
			t.Errorf("LastError = %v, want ErrScanFailed", c.LastError().Get())
		}
		if c.Loading().Get() {
			t.Error("still loading after failed refresh")
		}

		src.mu.Lock()
		src.refreshErr = nil
		src.mu.Unlock()
		if err := c.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
		if c.LastError().Get() != nil {
			t.Errorf("LastError = %v after successful refresh, want nil", c.LastError().Get())
		}
	})

	t.Run("query failure keeps previous images", func(t *testing.T) {
		src := newFakeSource()
		src.errs["broken"] = errors.New("database is locked")
		c := newTestController(t, src, picpath.ControllerConfig{})

		_, unsubscribe := c.SubscribeImages()
		defer unsubscribe()
		waitFor(t, "initial results", func() bool { return displayName(c) == "/Screenshots" })

		c.SetQuery("broken")
		waitFor(t, "query error", func() bool { return c.LastError().Get() != nil })
		if got := displayName(c); got != "/Screenshots" {
			t.Errorf("images = %q, want previous result kept", got)
		}
	})
}
