package services

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

// TargetKind names the entities whose cached vote aggregates the scoring
// worker maintains.
type TargetKind string

const (
	TargetDiscussion TargetKind = TargetKind(models.VoteTargetDiscussion)
	TargetComment    TargetKind = TargetKind(models.VoteTargetComment)
	TargetReview     TargetKind = "review"
)

// Target identifies one entity to recompute.
type Target struct {
	Kind TargetKind
	ID   uint
}

// ScoringService reconciles cached scores with the vote ledger. Vote
// transactions bump the cached column directly for an immediate approximate
// value; this worker recomputes the authoritative aggregate from the ledger
// shortly after, so racing writers converge on the true sum.
type ScoringService struct {
	db  *gorm.DB
	log zerolog.Logger

	queue   chan Target
	pending map[Target]bool
	mu      sync.Mutex
}

func NewScoringService(conn *gorm.DB, log zerolog.Logger) *ScoringService {
	s := &ScoringService{
		db:      conn,
		log:     log.With().Str("component", "scoring").Logger(),
		queue:   make(chan Target, 1000),
		pending: make(map[Target]bool),
	}
	go s.worker()
	return s
}

// ScheduleUpdate enqueues a target for recomputation. Duplicate requests for
// a target already queued are dropped.
func (s *ScoringService) ScheduleUpdate(t Target) {
	s.mu.Lock()
	if s.pending[t] {
		s.mu.Unlock()
		return
	}
	s.pending[t] = true
	s.mu.Unlock()

	select {
	case s.queue <- t:
	default:
		// Queue full: forget the pending mark so a later vote can retry.
		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()
		s.log.Warn().Str("kind", string(t.Kind)).Uint("id", t.ID).Msg("scoring queue full, skipping")
	}
}

func (s *ScoringService) worker() {
	batch := make([]Target, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case t := <-s.queue:
			batch = append(batch, t)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *ScoringService) processBatch(targets []Target) {
	for _, t := range targets {
		// The mark must be gone before the recompute reads the ledger: a vote
		// committing mid-recompute then re-enqueues the target and the
		// follow-up pass reads the newer sum. Clearing after would swallow
		// that schedule and leave the older sum persisted.
		s.mu.Lock()
		delete(s.pending, t)
		s.mu.Unlock()

		if err := s.RecomputeSync(t); err != nil {
			s.log.Error().Err(err).Str("kind", string(t.Kind)).Uint("id", t.ID).Msg("recompute failed")
		}
	}
}

// RecomputeSync recomputes one target's aggregate from the full vote
// population and persists it. A target that no longer exists (cascade delete
// raced the queue) is silently skipped.
func (s *ScoringService) RecomputeSync(t Target) error {
	switch t.Kind {
	case TargetDiscussion:
		return s.recomputeScore(&models.Discussion{}, models.VoteTargetDiscussion, t.ID)
	case TargetComment:
		return s.recomputeScore(&models.Comment{}, models.VoteTargetComment, t.ID)
	case TargetReview:
		return s.recomputeReviewCounts(t.ID)
	default:
		return nil
	}
}

func (s *ScoringService) recomputeScore(model interface{}, kind models.VoteTarget, id uint) error {
	if err := s.db.First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var score int
	err := s.db.Model(&models.Vote{}).
		Where("target_id = ? AND target_type = ?", id, kind).
		Select("COALESCE(SUM(value), 0)").
		Scan(&score).Error
	if err != nil {
		return err
	}

	return s.db.Model(model).Where("id = ?", id).UpdateColumn("score", score).Error
}

func (s *ScoringService) recomputeReviewCounts(id uint) error {
	var review models.Review
	if err := s.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var upvotes, downvotes int64
	if err := s.db.Model(&models.ReviewVote{}).Where("review_id = ? AND value = 1", id).Count(&upvotes).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.ReviewVote{}).Where("review_id = ? AND value = -1", id).Count(&downvotes).Error; err != nil {
		return err
	}

	return s.db.Model(&models.Review{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"upvotes":   upvotes,
		"downvotes": downvotes,
	}).Error
}
