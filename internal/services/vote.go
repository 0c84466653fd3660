package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

// VoteService is the vote ledger: one row per (user, target), toggled through
// the cast/change/retract state machine. Every mutation recomputes the
// target's aggregate from the ledger inside the same transaction, then the
// scoring worker reconciles once more in the background.
type VoteService struct {
	db     *gorm.DB
	scorer *ScoringService
}

func NewVoteService(conn *gorm.DB, scorer *ScoringService) *VoteService {
	return &VoteService{db: conn, scorer: scorer}
}

// VoteResult reports the state after a cast: the target's score as persisted
// by this transaction and the caller's resulting vote (0 when retracted).
type VoteResult struct {
	TargetID uint `json:"target_id"`
	Score    int  `json:"score"`
	UserVote int  `json:"user_vote"`
}

// ReviewVoteResult is the review-side counterpart; reviews track separate
// up/down counters instead of a net score.
type ReviewVoteResult struct {
	ReviewID  uint `json:"review_id"`
	Upvotes   int  `json:"upvotes"`
	Downvotes int  `json:"downvotes"`
	UserVote  int  `json:"user_vote"`
}

func validVoteValue(value int) bool {
	return value == -1 || value == 0 || value == 1
}

// CastVote applies one vote by userID on a discussion or comment.
//
// State machine: no prior vote and value 0 is a no-op; no prior vote and a
// signed value inserts; value 0 retracts; re-submitting the identical value
// is a no-op; a different signed value updates in place.
func (s *VoteService) CastVote(userID uint, kind models.VoteTarget, targetID uint, value int) (*VoteResult, error) {
	if !validVoteValue(value) {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid vote value %d, must be -1, 0 or 1", value)
	}
	if kind != models.VoteTargetDiscussion && kind != models.VoteTargetComment {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid vote target type %q", kind)
	}

	result := &VoteResult{TargetID: targetID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkTarget(tx, kind, targetID); err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, kind).
			First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Internal(err)
		}

		switch {
		case !found && value == 0:
			// Retracting a vote that never existed: nothing to do.
		case !found:
			vote := models.Vote{UserID: userID, TargetID: targetID, TargetType: kind, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return apperrors.Internal(err)
			}
		case value == 0:
			if err := tx.Delete(&existing).Error; err != nil {
				return apperrors.Internal(err)
			}
		case value == existing.Value:
			// Idempotent re-vote: keep the row as is.
		default:
			if err := tx.Model(&existing).UpdateColumn("value", value).Error; err != nil {
				return apperrors.Internal(err)
			}
		}

		score, err := s.ledgerSum(tx, kind, targetID)
		if err != nil {
			return apperrors.Internal(err)
		}

		if err := s.persistScore(tx, kind, targetID, score); err != nil {
			return apperrors.Internal(err)
		}

		result.Score = score
		result.UserVote = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reconcile once more outside the transaction in case a concurrent cast
	// raced this one.
	s.scorer.ScheduleUpdate(Target{Kind: TargetKind(kind), ID: targetID})

	return result, nil
}

// CastReviewVote applies one vote on a review, same state machine, separate
// ledger and counters.
func (s *VoteService) CastReviewVote(userID, reviewID uint, value int) (*ReviewVoteResult, error) {
	if !validVoteValue(value) {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid vote value %d, must be -1, 0 or 1", value)
	}

	result := &ReviewVoteResult{ReviewID: reviewID}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("review not found")
			}
			return apperrors.Internal(err)
		}

		var existing models.ReviewVote
		err := tx.Where("user_id = ? AND review_id = ?", userID, reviewID).First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Internal(err)
		}

		switch {
		case !found && value == 0:
		case !found:
			vote := models.ReviewVote{UserID: userID, ReviewID: reviewID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return apperrors.Internal(err)
			}
		case value == 0:
			if err := tx.Delete(&existing).Error; err != nil {
				return apperrors.Internal(err)
			}
		case value == existing.Value:
		default:
			if err := tx.Model(&existing).UpdateColumn("value", value).Error; err != nil {
				return apperrors.Internal(err)
			}
		}

		var upvotes, downvotes int64
		if err := tx.Model(&models.ReviewVote{}).Where("review_id = ? AND value = 1", reviewID).Count(&upvotes).Error; err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Model(&models.ReviewVote{}).Where("review_id = ? AND value = -1", reviewID).Count(&downvotes).Error; err != nil {
			return apperrors.Internal(err)
		}

		err = tx.Model(&models.Review{}).Where("id = ?", reviewID).UpdateColumns(map[string]interface{}{
			"upvotes":   upvotes,
			"downvotes": downvotes,
		}).Error
		if err != nil {
			return apperrors.Internal(err)
		}

		result.Upvotes = int(upvotes)
		result.Downvotes = int(downvotes)
		result.UserVote = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.scorer.ScheduleUpdate(Target{Kind: TargetReview, ID: reviewID})

	return result, nil
}

// UserVotes returns the viewer's prior votes for a set of targets, keyed by
// target id. An empty viewer id yields an empty map.
func (s *VoteService) UserVotes(userID uint, kind models.VoteTarget, targetIDs []uint) (map[uint]int, error) {
	votes := make(map[uint]int, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return votes, nil
	}

	var rows []models.Vote
	err := s.db.Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, kind, targetIDs).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for _, v := range rows {
		votes[v.TargetID] = v.Value
	}
	return votes, nil
}

func (s *VoteService) checkTarget(tx *gorm.DB, kind models.VoteTarget, targetID uint) error {
	var err error
	switch kind {
	case models.VoteTargetDiscussion:
		err = tx.First(&models.Discussion{}, targetID).Error
	case models.VoteTargetComment:
		var comment models.Comment
		err = tx.First(&comment, targetID).Error
		if err == nil && comment.Deleted {
			return apperrors.NotFound("comment not found")
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Newf(apperrors.KindNotFound, "%s not found", kind)
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *VoteService) ledgerSum(tx *gorm.DB, kind models.VoteTarget, targetID uint) (int, error) {
	var score int
	err := tx.Model(&models.Vote{}).
		Where("target_id = ? AND target_type = ?", targetID, kind).
		Select("COALESCE(SUM(value), 0)").
		Scan(&score).Error
	return score, err
}

func (s *VoteService) persistScore(tx *gorm.DB, kind models.VoteTarget, targetID uint, score int) error {
	switch kind {
	case models.VoteTargetDiscussion:
		return tx.Model(&models.Discussion{}).Where("id = ?", targetID).UpdateColumn("score", score).Error
	case models.VoteTargetComment:
		return tx.Model(&models.Comment{}).Where("id = ?", targetID).UpdateColumn("score", score).Error
	}
	return nil
}
