package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/parable-studio/pkg/logger"
)

// JobPurger deletes finished jobs older than a retention window
type JobPurger interface {
	CleanupOldJobs(ctx context.Context, retention time.Duration) (int64, error)
}

// Config controls what the cleanup service removes and how often
type Config struct {
	// TempDir holds render scratch directories and localized assets
	TempDir      string
	MaxAge       time.Duration
	JobRetention time.Duration
	Interval     time.Duration
}

// Service purges old jobs and leftover scratch files on an interval
type Service struct {
	cfg    Config
	jobs   JobPurger
	log    *logger.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// scratchPrefixes are the names the pipeline and asset store create under TempDir
var scratchPrefixes = []string{"final-", "asset-"}

// NewService creates a new cleanup service
func NewService(cfg Config, jobs JobPurger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Service{
		cfg:  cfg,
		jobs: jobs,
		log:  log.With("service", "cleanup"),
	}
}

// Start runs one pass immediately and then one per interval until Stop
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.RunOnce(ctx)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				s.log.Info("cleanup service stopped")
				return
			}
		}
	}()

	s.log.Info("cleanup service started",
		"interval", s.cfg.Interval.String(), "max_age", s.cfg.MaxAge.String(), "job_retention", s.cfg.JobRetention.String())
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// RunOnce performs a single cleanup pass
func (s *Service) RunOnce(ctx context.Context) {
	if s.jobs != nil && s.cfg.JobRetention > 0 {
		deleted, err := s.jobs.CleanupOldJobs(ctx, s.cfg.JobRetention)
		if err != nil {
			s.log.Warn("job purge failed", "error", err)
		} else if deleted > 0 {
			s.log.Info("purged old jobs", "count", deleted)
		}
	}
	if s.cfg.TempDir != "" && s.cfg.MaxAge > 0 {
		s.removeScratch()
	}
}

// removeScratch deletes top-level scratch entries older than MaxAge. Only
// names the service itself creates are touched.
func (s *Service) removeScratch() {
	entries, err := os.ReadDir(s.cfg.TempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("reading temp dir failed", "dir", s.cfg.TempDir, "error", err)
		}
		return
	}

	for _, entry := range entries {
		if !isScratch(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) <= s.cfg.MaxAge {
			continue
		}
		path := filepath.Join(s.cfg.TempDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn("failed to remove scratch entry", "path", path, "error", err)
			continue
		}
		s.log.Debug("removed scratch entry", "path", path)
	}
}

func isScratch(name string) bool {
	for _, prefix := range scratchPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
