package utils

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"pgstay/models"

	"gorm.io/gorm"
)

// RatingSummary is the derived aggregate stored on a listing.
type RatingSummary struct {
	AvgRating   float64 `json:"avgRating"`
	RatingCount int64   `json:"ratingCount"`
}

// RecomputeListingRating sets avg_rating to the mean of all reviews for the
// listing, rounded to one decimal, and rating_count to their number.
func RecomputeListingRating(ctx context.Context, db *gorm.DB, listingID uint) (RatingSummary, error) {
	var agg struct {
		Avg   sql.NullFloat64
		Count int64
	}
	err := db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("listing_id = ?", listingID).
		Scan(&agg).Error
	if err != nil {
		return RatingSummary{}, fmt.Errorf("aggregate reviews for listing %d: %w", listingID, err)
	}

	summary := RatingSummary{RatingCount: agg.Count}
	if agg.Avg.Valid {
		summary.AvgRating = math.Round(agg.Avg.Float64*10) / 10
	}

	err = db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"avg_rating":   summary.AvgRating,
			"rating_count": summary.RatingCount,
		}).Error
	if err != nil {
		return RatingSummary{}, fmt.Errorf("store rating for listing %d: %w", listingID, err)
	}
	return summary, nil
}

// ReconcileAllRatings recomputes every listing's aggregate and returns how many
// listings were processed.
func ReconcileAllRatings(ctx context.Context, db *gorm.DB) (int, error) {
	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Listing{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := RecomputeListingRating(ctx, db, id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}
