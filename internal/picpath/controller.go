package picpath

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

const (
	// DefaultDebounce is how long the search text must stay unchanged before
	// it is committed to the result query.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultGracePeriod is how long the result pipeline outlives its last
	// consumer.
	DefaultGracePeriod = 5 * time.Second
)

// ImageSource is what the Controller needs from the repository.
type ImageSource interface {
	ObserveFiltered(ctx context.Context, query string, category Category) <-chan QueryResult
	Refresh(ctx context.Context) (int, error)
}

// ControllerConfig tunes a Controller. Zero values select the defaults.
type ControllerConfig struct {
	Debounce        time.Duration
	GracePeriod     time.Duration
	InitialCategory Category
}

// Controller owns the state a browsing session works with and derives the
// displayed image list from the search text and selected category.
//
// Every committed (query, category) pair replaces the previous live query;
// the previous one is cancelled and its results are never published.
type Controller struct {
	source ImageSource
	logger Logger
	cfg    ControllerConfig

	images           *State[[]ImageRecord]
	loading          *State[bool]
	searchQuery      *State[string]
	selectedCategory *State[Category]
	selectionMode    *State[bool]
	selectedIDs      *State[[]int64]
	lastError        *State[error]

	// selMu serialises read-modify-write sequences spanning the selection
	// states.
	selMu sync.Mutex

	loadMu   sync.Mutex
	inflight int

	mu           sync.Mutex
	consumers    int
	stopPipeline context.CancelFunc
	pipelineDone chan struct{}
	graceTimer   *time.Timer
	graceGen     int
	closed       bool
}

// NewController creates a Controller. The result pipeline starts when the
// first consumer subscribes to Images.
func NewController(source ImageSource, logger Logger, cfg ControllerConfig) (*Controller, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if cfg.InitialCategory == "" {
		cfg.InitialCategory = DefaultCategory
	}
	if _, err := ParseCategory(string(cfg.InitialCategory)); err != nil {
		return nil, fmt.Errorf("initial category: %w", err)
	}

	return &Controller{
		source:           source,
		logger:           logger,
		cfg:              cfg,
		images:           NewState([]ImageRecord{}),
		loading:          NewState(false),
		searchQuery:      NewState(""),
		selectedCategory: NewState(cfg.InitialCategory),
		selectionMode:    NewState(false),
		selectedIDs:      NewState([]int64{}),
		lastError:        NewState[error](nil),
	}, nil
}

// Images is the filtered, newest-first image list.
func (c *Controller) Images() Observable[[]ImageRecord] { return imagesView{c} }

// SubscribeImages is shorthand for Images().Subscribe(). The pipeline runs
// while at least one subscription is open.
func (c *Controller) SubscribeImages() (<-chan []ImageRecord, func()) {
	return c.Images().Subscribe()
}

func (c *Controller) Loading() Observable[bool]              { return c.loading }
func (c *Controller) SearchQuery() Observable[string]        { return c.searchQuery }
func (c *Controller) SelectedCategory() Observable[Category] { return c.selectedCategory }
func (c *Controller) SelectionMode() Observable[bool]        { return c.selectionMode }

// SelectedIDs is the selection, sorted ascending.
func (c *Controller) SelectedIDs() Observable[[]int64] { return c.selectedIDs }

// LastError holds the failure of the most recent refresh or query, or nil.
func (c *Controller) LastError() Observable[error] { return c.lastError }

// SetQuery updates the search text. The result list follows once the text
// has been stable for the debounce delay.
func (c *Controller) SetQuery(text string) {
	c.searchQuery.Set(text)
}

// SelectCategory switches the category filter immediately and drops the
// current selection.
func (c *Controller) SelectCategory(category Category) error {
	if _, err := ParseCategory(string(category)); err != nil {
		return err
	}
	c.selectedCategory.Set(category)
	c.ClearSelection()
	return nil
}

// Refresh rescans the image index. Loading is true for as long as any
// refresh is running.
func (c *Controller) Refresh(ctx context.Context) error {
	c.beginLoading()
	defer c.endLoading()

	n, err := c.source.Refresh(ctx)
	c.lastError.Set(err)
	if err != nil {
		c.logger.Error("refresh failed", "error", err)
		return err
	}
	c.logger.Debug("refresh finished", "images", n)
	return nil
}

func (c *Controller) beginLoading() {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.inflight++
	c.loading.Set(true)
}

func (c *Controller) endLoading() {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		c.loading.Set(false)
	}
}

// ToggleSelection adds id to the selection or removes it. Removing the last
// id leaves selection mode; adding one never enters it.
func (c *Controller) ToggleSelection(id int64) {
	c.selMu.Lock()
	defer c.selMu.Unlock()

	next := c.selectedIDs.Update(func(ids []int64) []int64 {
		i, found := slices.BinarySearch(ids, id)
		if found {
			return slices.Delete(slices.Clone(ids), i, i+1)
		}
		return slices.Insert(slices.Clone(ids), i, id)
	})
	if len(next) == 0 {
		c.selectionMode.Set(false)
	}
}

// SetSelectionMode enters or leaves selection mode. Leaving it clears the
// selection.
func (c *Controller) SetSelectionMode(enabled bool) {
	if !enabled {
		c.ClearSelection()
		return
	}
	c.selMu.Lock()
	defer c.selMu.Unlock()
	c.selectionMode.Set(true)
}

// ClearSelection empties the selection and leaves selection mode.
func (c *Controller) ClearSelection() {
	c.selMu.Lock()
	defer c.selMu.Unlock()
	c.selectedIDs.Set([]int64{})
	c.selectionMode.Set(false)
}

// SelectedPaths returns the paths of the selected images that are in the
// current result list, in list order.
func (c *Controller) SelectedPaths() []string {
	ids := c.selectedIDs.Get()
	var paths []string
	for _, img := range c.images.Get() {
		if _, found := slices.BinarySearch(ids, img.ID); found {
			paths = append(paths, img.Path)
		}
	}
	return paths
}

// Close stops the result pipeline. The controller must not be used
// afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	done := c.pipelineDone
	if c.stopPipeline != nil {
		c.stopPipeline()
		c.stopPipeline = nil
	}
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

type imagesView struct{ c *Controller }

func (v imagesView) Get() []ImageRecord { return v.c.images.Get() }

func (v imagesView) Subscribe() (<-chan []ImageRecord, func()) {
	c := v.c
	c.attach()
	ch, unsubscribe := c.images.Subscribe()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			unsubscribe()
			c.detach()
		})
	}
}

func (c *Controller) attach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consumers++
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
		c.graceGen++
	}
	if c.stopPipeline != nil || c.closed {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.stopPipeline = cancel
	c.pipelineDone = done
	go func() {
		defer close(done)
		c.run(ctx)
	}()
	c.logger.Debug("result pipeline started")
}

func (c *Controller) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consumers--
	if c.consumers > 0 || c.stopPipeline == nil {
		return
	}
	c.graceGen++
	gen := c.graceGen
	c.graceTimer = time.AfterFunc(c.cfg.GracePeriod, func() { c.expire(gen) })
}

// expire tears the pipeline down once the grace window armed as gen has
// passed without a consumer coming back.
func (c *Controller) expire(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.graceGen || c.consumers > 0 || c.stopPipeline == nil {
		return
	}
	c.stopPipeline()
	c.stopPipeline = nil
	c.graceTimer = nil
	c.logger.Debug("result pipeline stopped")
}

// run is the result pipeline. It debounces search text, drops repeated
// commits, and keeps exactly one live query open for the latest
// (query, category) pair. Only this goroutine writes Images.
func (c *Controller) run(ctx context.Context) {
	queries, unsubQueries := c.searchQuery.Subscribe()
	defer unsubQueries()
	categories, unsubCategories := c.selectedCategory.Subscribe()
	defer unsubCategories()

	debounce := time.NewTimer(c.cfg.Debounce)
	debounce.Stop()
	defer debounce.Stop()
	var debounceC <-chan time.Time

	var (
		pending      string
		committed    string
		haveCommit   bool
		category     Category
		haveCategory bool
		results      <-chan QueryResult
		cancelQuery  = context.CancelFunc(func() {})
	)
	defer func() { cancelQuery() }()

	resubscribe := func() {
		cancelQuery()
		queryCtx, cancel := context.WithCancel(ctx)
		cancelQuery = cancel
		results = c.source.ObserveFiltered(queryCtx, committed, category)
		c.logger.Debug("query committed", "query", committed, "category", category)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case q, ok := <-queries:
			if !ok {
				return
			}
			pending = q
			debounce.Reset(c.cfg.Debounce)
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			if haveCommit && pending == committed {
				continue
			}
			committed, haveCommit = pending, true
			if haveCategory {
				resubscribe()
			}

		case cat, ok := <-categories:
			if !ok {
				return
			}
			if haveCategory && cat == category {
				continue
			}
			category, haveCategory = cat, true
			if haveCommit {
				resubscribe()
			}

		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if res.Err != nil {
				c.logger.Error("image query failed", "error", res.Err)
				c.lastError.Set(res.Err)
				continue
			}
			c.images.Set(res.Images)
		}
	}
}
