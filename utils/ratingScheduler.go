package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StartRatingScheduler runs ReconcileAllRatings on the given cron spec.
// Callers stop the returned scheduler on shutdown.
func StartRatingScheduler(db *gorm.DB, log *logrus.Logger, spec string) (*cron.Cron, error) {
	log.Info("[RATING-SCHEDULER] Initializing rating reconciliation scheduler...")

	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		started := time.Now()
		count, err := ReconcileAllRatings(ctx, db)
		if err != nil {
			log.WithError(err).WithField("processed", count).Error("[RATING-SCHEDULER] Reconciliation failed")
			return
		}
		log.WithFields(logrus.Fields{
			"listings": count,
			"took":     time.Since(started).String(),
		}).Info("[RATING-SCHEDULER] Ratings reconciled")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.WithField("spec", spec).Info("[RATING-SCHEDULER] Rating scheduler started")
	return c, nil
}
