package services

import (
	"math"
	"time"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

// Credibility badges, from average rating.
const (
	BadgeExcellent = "excellent"
	BadgeGood      = "good"
	BadgeAverage   = "average"
	BadgePoor      = "poor"
	BadgeNotRated  = "not-rated"
)

// CredibilityConfig holds the weights of the quality/volume blend.
type CredibilityConfig struct {
	QualityWeight float64 // 0.7
	VolumeWeight  float64 // 0.3
	VolumeCap     int     // review count where volume confidence saturates
	RecentWindow  time.Duration
}

var DefaultCredibility = CredibilityConfig{
	QualityWeight: 0.7,
	VolumeWeight:  0.3,
	VolumeCap:     100,
	RecentWindow:  30 * 24 * time.Hour,
}

// ReviewSummary is the derived per-agent aggregate. Never stored.
type ReviewSummary struct {
	AverageRating            float64     `json:"average_rating"`
	TotalReviews             int         `json:"total_reviews"`
	RatingDistribution       map[int]int `json:"rating_distribution"`
	CredibilityScore         float64     `json:"credibility_score"`
	CredibilityBadge         string      `json:"credibility_badge"`
	RecentPositivePercentage int         `json:"recent_positive_percentage"`
}

// Summarize computes the aggregate for one agent's review population.
func Summarize(reviews []models.Review, now time.Time) ReviewSummary {
	return DefaultCredibility.Summarize(reviews, now)
}

func (cfg CredibilityConfig) Summarize(reviews []models.Review, now time.Time) ReviewSummary {
	summary := ReviewSummary{
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		CredibilityBadge:   BadgeNotRated,
	}

	if len(reviews) == 0 {
		return summary
	}

	var ratingSum int
	var recentTotal, recentPositive int
	cutoff := now.Add(-cfg.RecentWindow)

	for _, r := range reviews {
		ratingSum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			summary.RatingDistribution[r.Rating]++
		}
		if r.CreatedAt.After(cutoff) {
			recentTotal++
			if r.Rating >= 4 {
				recentPositive++
			}
		}
	}

	summary.TotalReviews = len(reviews)
	summary.AverageRating = float64(ratingSum) / float64(len(reviews))

	// Weighted blend of quality and volume confidence, back on a 0-5 scale.
	volume := float64(len(reviews))
	if volume > float64(cfg.VolumeCap) {
		volume = float64(cfg.VolumeCap)
	}
	summary.CredibilityScore = summary.AverageRating*cfg.QualityWeight +
		volume/float64(cfg.VolumeCap)*cfg.VolumeWeight*5

	summary.CredibilityBadge = BadgeFor(summary.AverageRating)

	if recentTotal > 0 {
		summary.RecentPositivePercentage = int(math.Round(float64(recentPositive) / float64(recentTotal) * 100))
	}

	return summary
}

// BadgeFor maps an average rating onto the discrete badge.
func BadgeFor(averageRating float64) string {
	switch {
	case averageRating >= 4.5:
		return BadgeExcellent
	case averageRating >= 3.5:
		return BadgeGood
	case averageRating >= 2.5:
		return BadgeAverage
	case averageRating >= 1.5:
		return BadgePoor
	default:
		return BadgeNotRated
	}
}
