package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

func reviewAt(rating int, createdAt time.Time) models.Review {
	return models.Review{Rating: rating, CreatedAt: createdAt}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, time.Now())

	assert.Equal(t, 0, summary.TotalReviews)
	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0.0, summary.CredibilityScore)
	assert.Equal(t, BadgeNotRated, summary.CredibilityBadge)
	assert.Equal(t, 0, summary.RecentPositivePercentage)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, summary.RatingDistribution)
}

func TestSummarizeBlendsQualityAndVolume(t *testing.T) {
	now := time.Now()
	reviews := []models.Review{
		reviewAt(5, now), reviewAt(5, now), reviewAt(5, now), reviewAt(5, now), reviewAt(5, now),
	}

	summary := Summarize(reviews, now)

	assert.Equal(t, 5, summary.TotalReviews)
	assert.Equal(t, 5.0, summary.AverageRating)
	// 5*0.7 + 5/100*0.3*5
	assert.InDelta(t, 3.575, summary.CredibilityScore, 0.0001)
	assert.Equal(t, BadgeExcellent, summary.CredibilityBadge)
	assert.Equal(t, 100, summary.RecentPositivePercentage)
	assert.Equal(t, 5, summary.RatingDistribution[5])
}

func TestSummarizeVolumeSaturates(t *testing.T) {
	now := time.Now()
	reviews := make([]models.Review, 250)
	for i := range reviews {
		reviews[i] = reviewAt(4, now)
	}

	summary := Summarize(reviews, now)

	// Volume confidence caps at 100 reviews: 4*0.7 + 1*0.3*5.
	assert.InDelta(t, 4.3, summary.CredibilityScore, 0.0001)
	assert.Equal(t, BadgeGood, summary.CredibilityBadge)
}

func TestSummarizeRecentWindow(t *testing.T) {
	now := time.Now()
	old := now.Add(-40 * 24 * time.Hour)
	reviews := []models.Review{
		reviewAt(5, now),                    // recent, positive
		reviewAt(2, now.Add(-24*time.Hour)), // recent, negative
		reviewAt(1, old), reviewAt(1, old),  // outside the window
	}

	summary := Summarize(reviews, now)

	assert.Equal(t, 4, summary.TotalReviews)
	assert.InDelta(t, 2.25, summary.AverageRating, 0.0001)
	// Only the two recent reviews count, one of them positive.
	assert.Equal(t, 50, summary.RecentPositivePercentage)
	assert.Equal(t, map[int]int{1: 2, 2: 1, 3: 0, 4: 0, 5: 1}, summary.RatingDistribution)
}

func TestBadgeFor(t *testing.T) {
	assert.Equal(t, BadgeExcellent, BadgeFor(4.5))
	assert.Equal(t, BadgeGood, BadgeFor(4.49))
	assert.Equal(t, BadgeGood, BadgeFor(3.5))
	assert.Equal(t, BadgeAverage, BadgeFor(3.49))
	assert.Equal(t, BadgeAverage, BadgeFor(2.5))
	assert.Equal(t, BadgePoor, BadgeFor(2.49))
	assert.Equal(t, BadgePoor, BadgeFor(1.5))
	assert.Equal(t, BadgeNotRated, BadgeFor(1.49))
	assert.Equal(t, BadgeNotRated, BadgeFor(0))
}
