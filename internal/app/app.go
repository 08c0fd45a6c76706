package app

import (
	"context"
	"fmt"
	"os"

	"picpath/internal/config"
	"picpath/internal/database"
	"picpath/internal/fs"
	"picpath/internal/picpath"
)

// PicPathApp is the application layer between the CLI and the picpath
// package. It constructs all dependencies from config, exposes the
// operations the commands need, and manages the store lifecycle on Close.
type PicPathApp struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	index   *fs.VolumeIndex
	repo    *picpath.Repository
	logger  picpath.Logger
	clock   picpath.Clock
	op      *Operation
	logFile *os.File
}

// NewPicPathApp creates a fully wired PicPathApp from the given config.
// operation identifies the CLI command being run (e.g. "scan", "browse").
// The caller must call Close when done.
func NewPicPathApp(cfg *config.Config, operation string) (*PicPathApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	clock := picpath.RealClock{}
	op := NewOperation(operation, picpath.UUIDGenerator{}, clock)

	slogger, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, op.ID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	index, err := newIndexFromConfig(cfg.Index, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating image index: %w", err)
	}

	store, err := database.NewStoreFromConfig(cfg.Database, cfg.DeviceID, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	if v, err := store.SchemaVersion(); err == nil {
		logger.Debug("database opened", "path", store.Path(), "schema_version", v.Current)
	}

	scanner := picpath.NewScanner(index, logger)
	repo := picpath.NewRepository(store, scanner, store, logger, clock, picpath.UUIDGenerator{})

	logger.Debug("operation started", "operation", operation)

	return &PicPathApp{
		cfg:     cfg,
		store:   store,
		index:   index,
		repo:    repo,
		logger:  logger,
		clock:   clock,
		op:      op,
		logFile: logFile,
	}, nil
}

// newIndexFromConfig creates an ImageIndex implementation based on the index config type.
func newIndexFromConfig(cfg config.IndexConfig, logger picpath.Logger) (*fs.VolumeIndex, error) {
	switch cfg.Type {
	case "filesystem":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		maxSize, err := cfg.MaxFileSizeBytes()
		if err != nil {
			return nil, err
		}
		return fs.NewVolumeIndex(fs.VolumeIndexConfig{
			Volumes:        cfg.ExpandedVolumes(home),
			Extensions:     cfg.ExtensionsOrDefault(),
			Ignore:         cfg.Ignore,
			FollowSymlinks: cfg.FollowSymlinks,
			MaxFileSize:    maxSize,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}

// Logger returns the operation's logger.
func (a *PicPathApp) Logger() picpath.Logger {
	return a.logger
}

// Refresh rescans the volumes and replaces the stored snapshot.
// Returns the number of images stored.
func (a *PicPathApp) Refresh(ctx context.Context) (int, error) {
	n, err := a.repo.Refresh(ctx)
	if err != nil {
		a.op.Fail()
		return 0, err
	}
	return n, nil
}

// ListImages returns the current result of a filtered query.
func (a *PicPathApp) ListImages(ctx context.Context, query string, category picpath.Category) ([]picpath.ImageRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	select {
	case res, ok := <-a.repo.ObserveFiltered(ctx, query, category):
		if !ok {
			return nil, ctx.Err()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Images, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FindImage returns the image with the given ID.
func (a *PicPathApp) FindImage(ctx context.Context, id int64) (*picpath.ImageRecord, error) {
	return a.repo.FindByID(ctx, id)
}

// ResolvePath turns a locator URI, file URI or absolute path into a filesystem path.
func (a *PicPathApp) ResolvePath(ctx context.Context, raw string) (string, error) {
	return a.repo.ResolvePath(ctx, raw)
}

// GetHistory returns the most recent scans, newest first.
func (a *PicPathApp) GetHistory(ctx context.Context, limit int) ([]*picpath.ScanOperation, error) {
	return a.repo.History(ctx, limit)
}

// Count returns the number of stored images.
func (a *PicPathApp) Count(ctx context.Context) (int64, error) {
	return a.repo.Count(ctx)
}

// NewController creates a search/filter controller over the repository,
// configured from the [browse] section.
func (a *PicPathApp) NewController() (*picpath.Controller, error) {
	debounce, err := a.cfg.Browse.DebounceDuration()
	if err != nil {
		return nil, err
	}
	grace, err := a.cfg.Browse.GracePeriodDuration()
	if err != nil {
		return nil, err
	}
	category, err := a.cfg.Browse.InitialCategory()
	if err != nil {
		return nil, err
	}
	return picpath.NewController(a.repo, a.logger, picpath.ControllerConfig{
		Debounce:        debounce,
		GracePeriod:     grace,
		InitialCategory: category,
	})
}

// Watch refreshes once, then again after every burst of changes under the
// volumes, until ctx is done. onRefresh, if not nil, is told the outcome of
// every refresh.
func (a *PicPathApp) Watch(ctx context.Context, onRefresh func(n int, err error)) error {
	debounce, err := a.cfg.Browse.WatchDebounceDuration()
	if err != nil {
		return err
	}

	w, err := fs.NewWatcher(a.index.Volumes(), debounce, a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	refresh := func(ctx context.Context) {
		n, err := a.repo.Refresh(ctx)
		if err != nil {
			a.logger.Error("refresh failed", "error", err)
		}
		if onRefresh != nil {
			onRefresh(n, err)
		}
	}

	refresh(ctx)
	return w.Run(ctx, refresh)
}

// Close closes the store and the log file.
func (a *PicPathApp) Close() error {
	var firstErr error

	a.logger.Debug("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"elapsed", a.op.Elapsed(a.clock).String())

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
