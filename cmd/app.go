package cmd

import (
	"context"
	"fmt"

	"github.com/killallgit/parable-studio/api"
	"github.com/killallgit/parable-studio/api/types"
	"github.com/killallgit/parable-studio/internal/database"
	"github.com/killallgit/parable-studio/internal/services/assets"
	"github.com/killallgit/parable-studio/internal/services/cleanup"
	"github.com/killallgit/parable-studio/internal/services/generation"
	"github.com/killallgit/parable-studio/internal/services/jobs"
	"github.com/killallgit/parable-studio/internal/services/locks"
	"github.com/killallgit/parable-studio/internal/services/music"
	"github.com/killallgit/parable-studio/internal/services/parables"
	"github.com/killallgit/parable-studio/internal/services/pipeline"
	"github.com/killallgit/parable-studio/internal/services/scenes"
	"github.com/killallgit/parable-studio/internal/services/workers"
	"github.com/killallgit/parable-studio/pkg/config"
	"github.com/killallgit/parable-studio/pkg/ffmpeg"
	"github.com/killallgit/parable-studio/pkg/logger"
)

// application is the fully wired process: storage, services, workers and
// the HTTP server. Nothing runs until start.
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	store   assets.Store
	locker  locks.Locker
	jobs    jobs.Service
	ctrl    *pipeline.Controller
	pool    *workers.WorkerPool
	cleaner *cleanup.Service
	server  *api.Server

	closers []func() error
}

func buildApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *application, err error) {
	app := &application{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.db, err = database.Initialize(cfg.Database)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.db.Close)
	if err = app.db.Migrate(); err != nil {
		return nil, err
	}
	log.Info("database ready", "driver", cfg.Database.Driver)

	if err = app.openStore(ctx); err != nil {
		return nil, err
	}
	if err = app.openLocker(); err != nil {
		return nil, err
	}

	ff := ffmpeg.New(cfg.Assembly.FFmpegPath, cfg.Assembly.FFprobePath, cfg.Assembly.MetadataTimeout)
	if verr := ff.ValidateBinaries(); verr != nil {
		// Uploads and final renders fail per request until ffmpeg is installed
		log.Warn("ffmpeg unavailable", "error", verr)
	}
	assembleDefaults := ffmpeg.DefaultAssembleOptions()
	if cfg.Assembly.Width > 0 && cfg.Assembly.Height > 0 {
		assembleDefaults.Width = cfg.Assembly.Width
		assembleDefaults.Height = cfg.Assembly.Height
	}
	if cfg.Assembly.FPS > 0 {
		assembleDefaults.FPS = cfg.Assembly.FPS
	}
	assembleDefaults.MaxDuration = cfg.Assembly.MaxDuration

	provider, err := newProvider(cfg.Generation, log)
	if err != nil {
		return nil, err
	}

	app.jobs = jobs.NewService(jobs.NewRepository(app.db.DB), log)
	sceneService := scenes.NewService(scenes.NewRepository(app.db.DB), app.locker)
	library := music.NewService(app.db.DB, app.store, ff, log)
	parableService := parables.NewService(parables.NewRepository(app.db.DB), app.store, app.jobs, log)

	pcfg := pipeline.DefaultConfig()
	if cfg.Generation.StepTimeout > 0 {
		pcfg.StepTimeout = cfg.Generation.StepTimeout
	}
	if cfg.Generation.ImageTimeout > 0 {
		pcfg.ImageTimeout = cfg.Generation.ImageTimeout
	}
	if cfg.Assembly.Timeout > 0 {
		pcfg.AssemblyTimeout = cfg.Assembly.Timeout
	}
	pcfg.ImageConcurrency = cfg.Generation.ImageConcurrency
	pcfg.MusicEnabled = cfg.Assembly.MusicEnabled
	pcfg.TempDir = cfg.Storage.TempDir

	app.ctrl = pipeline.New(pipeline.Deps{
		DB:        app.db.DB,
		Scenes:    sceneService,
		Jobs:      app.jobs,
		Store:     app.store,
		Provider:  provider,
		Assembler: generation.NewFFmpegAssembler(ff, assembleDefaults),
		Durations: ff,
		Music:     library,
		Locker:    app.locker,
		Log:       log,
	}, pcfg)

	app.pool = workers.NewWorkerPool(app.jobs, cfg.Processing.Workers, cfg.Processing.PollInterval, log)
	app.pool.RegisterProcessor(workers.NewPipelineProcessor(app.jobs, app.ctrl, log))

	app.cleaner = cleanup.NewService(cleanup.Config{
		TempDir:      cfg.Storage.TempDir,
		MaxAge:       cfg.Assembly.Timeout * 2,
		JobRetention: cfg.Processing.JobRetention,
		Interval:     cfg.Processing.CleanupPeriod,
	}, app.jobs, log)

	app.server = api.NewServer(cfg.Server)
	app.server.SetDependencies(&types.Dependencies{
		DB:             app.db,
		Parables:       parableService,
		Scenes:         sceneService,
		Pipeline:       app.ctrl,
		Music:          library,
		JobService:     app.jobs,
		Assets:         app.store,
		WorkerPool:     app.pool,
		Log:            log,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Version:        Version,
	})
	if local, ok := app.store.(*assets.LocalStore); ok {
		app.server.ServeAssets(local.Root())
	}
	if err = app.server.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

func (a *application) openStore(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case "minio":
		store, err := assets.NewMinioStore(a.cfg.Storage.MinIO, a.cfg.Storage.TempDir)
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to prepare bucket %s: %w", a.cfg.Storage.MinIO.Bucket, err)
		}
		a.store = store
	default:
		store, err := assets.NewLocalStore(a.cfg.Storage.Root, a.cfg.Storage.PublicBaseURL)
		if err != nil {
			return err
		}
		a.store = store
	}
	a.log.Info("asset store ready", "backend", a.cfg.Storage.Backend)
	return nil
}

func (a *application) openLocker() error {
	if a.cfg.Locks.Backend != "redis" {
		a.locker = locks.NewMemoryLocker()
		return nil
	}
	locker, err := locks.NewRedisLocker(a.cfg.Locks)
	if err != nil {
		return fmt.Errorf("failed to connect lock backend: %w", err)
	}
	a.locker = locker
	a.closers = append(a.closers, locker.Close)
	return nil
}

func newProvider(cfg config.GenerationConfig, log *logger.Logger) (generation.Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return generation.NewGeminiClient(generation.GeminiConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			TextModel:  cfg.TextModel,
			ImageModel: cfg.ImageModel,
			Timeout:    cfg.HTTPTimeout,
		}, log), nil
	case "stub", "":
		log.Warn("using offline stub generation provider")
		return generation.NewStub(), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %q", cfg.Provider)
	}
}

// start fails jobs and tracks orphaned by a previous process, then starts
// the background workers.
func (a *application) start(ctx context.Context) error {
	recovered, err := a.ctrl.Recover(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover interrupted tracks: %w", err)
	}
	if recovered > 0 {
		a.log.Info("recovered interrupted tracks", "count", recovered)
	}

	if err := a.pool.Start(ctx); err != nil {
		return err
	}
	a.cleaner.Start(ctx)
	return nil
}

func (a *application) stop() {
	if a.cleaner != nil {
		a.cleaner.Stop()
	}
	if a.pool != nil {
		a.pool.Stop()
	}
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
