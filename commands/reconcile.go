package commands

import (
	"pgstay/config"
	"pgstay/database"
	"pgstay/utils"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ReconcileCmd recomputes every listing's rating aggregate once, for stale
// values left behind by a failed recompute.
func ReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-ratings",
		Short: "Recompute avgRating and ratingCount for every listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			log := NewLogger(cfg)

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}

			started := time.Now()
			count, err := utils.ReconcileAllRatings(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{
				"listings": count,
				"took":     time.Since(started).String(),
			}).Info("ratings reconciled")
			return nil
		},
	}
}
