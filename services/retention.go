package services

import (
	"context"
	"sync/atomic"
	"time"

	"cfss-backend/models"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = 25 * time.Minute

// RetentionObjects lists and removes report objects.
type RetentionObjects interface {
	ListReports(ctx context.Context, cutoff time.Time) ([]storage.ReportObject, error)
	DeleteReport(ctx context.Context, key string) error
}

// RetentionRegistry finds and forgets registered reports.
type RetentionRegistry interface {
	ExpiredReportRecords(ctx context.Context, cutoff time.Time) ([]models.ReportRecordGorm, error)
	DeleteReportRecord(ctx context.Context, key string) error
}

// RetentionSweeper deletes reports older than a fixed number of days. With
// a registry the sweep follows its rows; without one it lists the bucket.
type RetentionSweeper struct {
	objects  RetentionObjects
	registry RetentionRegistry
	days     int
	running  int32
	now      func() time.Time
}

func NewRetentionSweeper(objects RetentionObjects, registry RetentionRegistry, days int) *RetentionSweeper {
	return &RetentionSweeper{objects: objects, registry: registry, days: days, now: time.Now}
}

// Sweep runs one pass and returns the number of reports deleted. Errors on
// single objects are logged and skipped.
func (r *RetentionSweeper) Sweep(ctx context.Context) (int, error) {
	if r.days <= 0 {
		return 0, nil
	}
	cutoff := r.now().AddDate(0, 0, -r.days)

	var keys []string
	if r.registry != nil {
		records, err := r.registry.ExpiredReportRecords(ctx, cutoff)
		if err != nil {
			return 0, err
		}
		for _, rec := range records {
			keys = append(keys, rec.ObjectKey)
		}
	} else {
		objects, err := r.objects.ListReports(ctx, cutoff)
		if err != nil {
			return 0, err
		}
		for _, obj := range objects {
			keys = append(keys, obj.Key)
		}
	}

	deleted := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := r.objects.DeleteReport(ctx, key); err != nil {
			utils.Logger.WithError(err).WithField("key", key).Warn("expired report not deleted")
			continue
		}
		if r.registry != nil {
			if err := r.registry.DeleteReportRecord(ctx, key); err != nil {
				utils.Logger.WithError(err).WithField("key", key).Warn("report record not removed")
			}
		}
		deleted++
	}
	return deleted, nil
}

// Schedule registers the sweep on c. A run that starts while the previous
// one is still going is skipped.
func (r *RetentionSweeper) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		if !atomic.CompareAndSwapInt32(&r.running, 0, 1) {
			utils.Logger.Warn("previous retention sweep still running, skipping")
			return
		}
		defer atomic.StoreInt32(&r.running, 0)

		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		start := time.Now()
		n, err := r.Sweep(ctx)
		entry := utils.Logger.WithFields(logrus.Fields{"deleted": n, "elapsed": time.Since(start).String()})
		if err != nil {
			entry.WithError(err).Error("retention sweep failed")
			return
		}
		entry.Info("retention sweep finished")
	})
}
