package utils

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// StartImageSweeper periodically deletes images queued for removal until ctx is cancelled.
// It is best-effort and logs failures.
func StartImageSweeper(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := SweepImages(ctx, db, time.Now()); err != nil {
					Sugar.Warnf("image sweeper failed: %v", err)
				} else if n > 0 {
					Sugar.Infof("image sweeper removed %d files", n)
				}
			}
		}
	}()
}

// SweepImages removes one batch of expired files and their rows, returning how many rows were cleared.
func SweepImages(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	var items []models.UploadedFile
	if err := db.WithContext(ctx).Where("expire_at <= ?", now).Limit(100).Find(&items).Error; err != nil {
		return 0, err
	}
	removed := 0
	for _, it := range items {
		if it.FilePath != "" {
			if err := os.Remove(it.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				Sugar.Warnf("image sweeper remove %s: %v", it.FilePath, err)
			}
		}
		// Drop the row regardless of the file outcome.
		if err := db.WithContext(ctx).Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
			Sugar.Warnf("image sweeper delete row %d: %v", it.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}
