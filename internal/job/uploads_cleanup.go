package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/agrofarm/market/internal/repository"
)

// UploadsCleanupJob deletes image files no catalog entry references
// anymore, once they are older than the retention window. Fresh files
// are kept because an upload may still be mid-attachment.
type UploadsCleanupJob struct {
	Products repository.ProductRepository
	Dir      string
	Retain   time.Duration
	Logger   *slog.Logger
}

// NewUploadsCleanupJob constructs the orphaned upload sweep.
func NewUploadsCleanupJob(products repository.ProductRepository, dir string, retain time.Duration, logger *slog.Logger) *UploadsCleanupJob {
	if retain <= 0 {
		retain = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadsCleanupJob{Products: products, Dir: dir, Retain: retain, Logger: logger}
}

func (j *UploadsCleanupJob) Name() string { return "uploads.cleanup" }

func (j *UploadsCleanupJob) Run(ctx context.Context) error {
	if j.Products == nil || j.Dir == "" {
		return fmt.Errorf("uploads cleanup job dependencies not configured")
	}
	referenced, err := j.Products.ImagePaths(ctx)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(referenced))
	for _, p := range referenced {
		keep[p] = true
	}

	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-j.Retain)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || keep[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.Dir, entry.Name())
		if err := os.Remove(path); err != nil {
			j.Logger.Warn("failed to remove orphaned upload", "file", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.Logger.Info("orphaned uploads removed", "count", removed)
	}
	return nil
}
