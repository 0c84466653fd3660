package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

// SortOrder is the comment listing order requested by the client.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTop    SortOrder = "top"
)

// ParseSort maps a query parameter onto a sort order, defaulting to newest.
func ParseSort(s string) SortOrder {
	switch SortOrder(s) {
	case SortOldest:
		return SortOldest
	case SortTop:
		return SortTop
	default:
		return SortNewest
	}
}

func (o SortOrder) orderClause() string {
	switch o {
	case SortOldest:
		return "created_at ASC"
	case SortTop:
		return "score DESC, created_at ASC"
	default:
		return "created_at DESC"
	}
}

// maxTreeDepth caps the level-batched tree walk. Trees deeper than this are
// truncated rather than looping forever on corrupt parent links.
const maxTreeDepth = 64

// CommentView is the response shape for one comment. Replies is empty in
// flat-layer mode and populated recursively in tree mode.
type CommentView struct {
	ID          uint              `json:"id"`
	Cid         string            `json:"cid"`
	Content     string            `json:"content"`
	ContentHTML string            `json:"content_html"`
	Author      models.AuthorInfo `json:"author"`
	IsOP        bool              `json:"is_op"`
	UserVote    int               `json:"user_vote"`
	Score       int               `json:"score"`
	ReplyCount  int               `json:"reply_count"`
	CreatedAt   time.Time         `json:"created_at"`
	CreatedAgo  string            `json:"created_ago"`
	Replies     []*CommentView    `json:"replies"`
}

// CommentService owns comment creation, mutation and the two read modes over
// the comment tree.
type CommentService struct {
	db    *gorm.DB
	votes *VoteService
}

func NewCommentService(conn *gorm.DB, votes *VoteService) *CommentService {
	return &CommentService{db: conn, votes: votes}
}

// Create inserts a comment and maintains the cached counters: the
// discussion's comment count and last activity, and the parent's reply count.
// A parent, when given, must belong to the same discussion.
func (s *CommentService) Create(discussion *models.Discussion, userID uint, content string, parentCid string) (*models.Comment, error) {
	comment := models.Comment{
		Cid:          utils.RandStringBytesMaskImpr(8),
		DiscussionID: discussion.ID,
		UserID:       userID,
		Content:      content,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if parentCid != "" {
			var parent models.Comment
			if err := tx.Where("cid = ?", parentCid).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("parent comment not found")
				}
				return apperrors.Internal(err)
			}
			if parent.DiscussionID != discussion.ID {
				return apperrors.Validation("parent comment belongs to a different discussion")
			}
			if parent.Deleted {
				return apperrors.NotFound("parent comment not found")
			}
			comment.ParentID = &parent.ID
		}

		if err := tx.Create(&comment).Error; err != nil {
			return apperrors.Internal(err)
		}

		err := tx.Model(&models.Discussion{}).Where("id = ?", discussion.ID).
			UpdateColumns(map[string]interface{}{
				"comment_count":    gorm.Expr("comment_count + 1"),
				"last_activity_at": time.Now(),
			}).Error
		if err != nil {
			return apperrors.Internal(err)
		}

		if comment.ParentID != nil {
			err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error
			if err != nil {
				return apperrors.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &comment, nil
}

// Update edits a comment's content, gated on ownership and the edit window.
func (s *CommentService) Update(cid string, userID uint, content string, now time.Time) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.Where("cid = ? AND deleted = ?", cid, false).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("comment not found")
		}
		return nil, apperrors.Internal(err)
	}

	if err := EnsureOwner(comment.UserID, userID, "comment"); err != nil {
		return nil, err
	}
	if err := EnsureEditable(comment.CreatedAt, CommentEditWindow, now, "comment"); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.db.Model(&comment).Update("content", content).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &comment, nil
}

// SoftDelete marks the comment deleted and decrements the cached counters.
// The subtree stays in the table but disappears from every read mode.
func (s *CommentService) SoftDelete(cid string, userID uint) error {
	var comment models.Comment
	if err := s.db.Where("cid = ? AND deleted = ?", cid, false).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("comment not found")
		}
		return apperrors.Internal(err)
	}

	if err := EnsureOwner(comment.UserID, userID, "comment"); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&comment).UpdateColumns(map[string]interface{}{
			"deleted": true,
			"content": "",
		}).Error
		if err != nil {
			return apperrors.Internal(err)
		}

		err = tx.Model(&models.Discussion{}).Where("id = ? AND comment_count > 0", comment.DiscussionID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
		if err != nil {
			return apperrors.Internal(err)
		}

		if comment.ParentID != nil {
			err = tx.Model(&models.Comment{}).Where("id = ? AND reply_count > 0", *comment.ParentID).
				UpdateColumn("reply_count", gorm.Expr("reply_count - 1")).Error
			if err != nil {
				return apperrors.Internal(err)
			}
		}
		return nil
	})
}

// ListLayer returns one page of a single parent's children (nil parent =
// top-level). Replies are left empty; callers descend by re-invoking with a
// child as the parent.
func (s *CommentService) ListLayer(discussion *models.Discussion, parentID *uint, sort SortOrder, offset, limit int, viewerID uint) ([]*CommentView, int64, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("discussion_id = ? AND deleted = ?", discussion.ID, false)
		if parentID == nil {
			return tx.Where("parent_id IS NULL")
		}
		return tx.Where("parent_id = ?", *parentID)
	}

	var total int64
	if err := filter(s.db.Model(&models.Comment{})).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	var comments []models.Comment
	err := filter(s.db.Preload("User")).
		Order(sort.orderClause()).
		Offset(offset).Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}

	views, err := s.buildViews(comments, discussion.UserID, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// BuildTree materializes the full comment tree for a discussion. Each level
// is fetched in one batched query over the previous level's ids (no
// per-node recursion), sorted by score descending, soft-deleted comments
// excluded at every level.
func (s *CommentService) BuildTree(discussion *models.Discussion, viewerID uint) ([]*CommentView, error) {
	var roots []models.Comment
	err := s.db.Preload("User").
		Where("discussion_id = ? AND deleted = ? AND parent_id IS NULL", discussion.ID, false).
		Order("score DESC, created_at ASC").
		Find(&roots).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	rootViews, err := s.buildViews(roots, discussion.UserID, viewerID)
	if err != nil {
		return nil, err
	}

	frontier := make(map[uint]*CommentView, len(rootViews))
	for i, c := range roots {
		frontier[c.ID] = rootViews[i]
	}

	for depth := 1; depth < maxTreeDepth && len(frontier) > 0; depth++ {
		parentIDs := make([]uint, 0, len(frontier))
		for id := range frontier {
			parentIDs = append(parentIDs, id)
		}

		var children []models.Comment
		err := s.db.Preload("User").
			Where("discussion_id = ? AND deleted = ? AND parent_id IN ?", discussion.ID, false, parentIDs).
			Order("score DESC, created_at ASC").
			Find(&children).Error
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if len(children) == 0 {
			break
		}

		childViews, err := s.buildViews(children, discussion.UserID, viewerID)
		if err != nil {
			return nil, err
		}

		next := make(map[uint]*CommentView, len(children))
		for i, c := range children {
			parent := frontier[*c.ParentID]
			parent.Replies = append(parent.Replies, childViews[i])
			next[c.ID] = childViews[i]
		}
		frontier = next
	}

	return rootViews, nil
}

func (s *CommentService) buildViews(comments []models.Comment, opID, viewerID uint) ([]*CommentView, error) {
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	votes, err := s.votes.UserVotes(viewerID, models.VoteTargetComment, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]*CommentView, len(comments))
	for i, c := range comments {
		views[i] = &CommentView{
			ID:          c.ID,
			Cid:         c.Cid,
			Content:     c.Content,
			ContentHTML: utils.RenderMarkdown(c.Content),
			Author:      c.User.Author(),
			IsOP:        c.UserID == opID,
			UserVote:    votes[c.ID],
			Score:       c.Score,
			ReplyCount:  c.ReplyCount,
			CreatedAt:   c.CreatedAt,
			CreatedAgo:  utils.TimeAgo(c.CreatedAt, now),
			Replies:     []*CommentView{},
		}
	}
	return views, nil
}
