package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/services"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

type DiscussionHandler struct {
	db    *gorm.DB
	votes *services.VoteService
	cache *utils.Cache
	log   zerolog.Logger
}

func NewDiscussionHandler(conn *gorm.DB, votes *services.VoteService, cache *utils.Cache, log zerolog.Logger) *DiscussionHandler {
	return &DiscussionHandler{db: conn, votes: votes, cache: cache, log: log}
}

// DiscussionView is the response shape for one discussion.
type DiscussionView struct {
	ID             uint              `json:"id"`
	Did            string            `json:"did"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	ContentHTML    string            `json:"content_html"`
	Author         models.AuthorInfo `json:"author"`
	Score          int               `json:"score"`
	Pinned         bool              `json:"pinned"`
	CommentCount   int               `json:"comment_count"`
	Views          int               `json:"views"`
	UserVote       int               `json:"user_vote"`
	CreatedAt      time.Time         `json:"created_at"`
	CreatedAgo     string            `json:"created_ago"`
	UpdatedAt      time.Time         `json:"updated_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

func discussionView(d *models.Discussion, userVote int, now time.Time) DiscussionView {
	return DiscussionView{
		ID:             d.ID,
		Did:            d.Did,
		Title:          d.Title,
		Content:        d.Content,
		ContentHTML:    utils.RenderMarkdown(d.Content),
		Author:         d.User.Author(),
		Score:          d.Score,
		Pinned:         d.Pinned,
		CommentCount:   d.CommentCount,
		Views:          d.Views,
		UserVote:       userVote,
		CreatedAt:      d.CreatedAt,
		CreatedAgo:     utils.TimeAgo(d.CreatedAt, now),
		UpdatedAt:      d.UpdatedAt,
		LastActivityAt: d.LastActivityAt,
	}
}

type discussionCreateRequest struct {
	Title   string `json:"title" binding:"required,min=5,max=100"`
	Content string `json:"content" binding:"required,min=10,max=5000"`
}

type discussionUpdateRequest struct {
	Title   string `json:"title" binding:"required,min=5,max=100"`
	Content string `json:"content" binding:"required,min=10,max=5000"`
}

func (h *DiscussionHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var agent models.Agent
	if err := h.db.Where("aid = ?", c.Param("aid")).First(&agent).Error; err != nil {
		JSONError(c, h.log, apperrors.NotFound("agent not found"))
		return
	}

	var req discussionCreateRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	discussion := models.Discussion{
		Did:            utils.RandStringBytesMaskImpr(8),
		AgentID:        agent.ID,
		UserID:         user.ID,
		Title:          req.Title,
		Content:        req.Content,
		LastActivityAt: time.Now(),
	}
	if err := h.db.Create(&discussion).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}
	discussion.User = *user

	h.invalidateLists(agent.ID)

	c.JSON(http.StatusCreated, gin.H{"discussion": discussionView(&discussion, 0, time.Now())})
}

func (h *DiscussionHandler) ListByAgent(c *gin.Context) {
	var agent models.Agent
	if err := h.db.Where("aid = ?", c.Param("aid")).First(&agent).Error; err != nil {
		JSONError(c, h.log, apperrors.NotFound("agent not found"))
		return
	}

	page := parsePage(c)
	sort := services.ParseSort(c.Query("sort"))
	viewerID := middleware.ViewerID(c)

	// Only the anonymous first page is cached; signed-in viewers carry
	// per-user vote state.
	cacheKey := fmt.Sprintf("discussions:%d:%s:p1", agent.ID, sort)
	if viewerID == 0 && page.Page == 1 {
		if cached := h.cache.Get(cacheKey); cached != nil {
			if payload, ok := cached.(gin.H); ok {
				c.JSON(http.StatusOK, payload)
				return
			}
		}
	}

	var total int64
	if err := h.db.Model(&models.Discussion{}).Where("agent_id = ?", agent.ID).Count(&total).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	var discussions []models.Discussion
	err := h.db.Preload("User").
		Where("agent_id = ?", agent.ID).
		Order("pinned DESC").Order(orderClause(sort)).
		Offset(page.Offset).Limit(page.PerPage).
		Find(&discussions).Error
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	ids := make([]uint, len(discussions))
	for i, d := range discussions {
		ids[i] = d.ID
	}
	votes, err := h.votes.UserVotes(viewerID, models.VoteTargetDiscussion, ids)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	now := time.Now()
	views := make([]DiscussionView, len(discussions))
	for i := range discussions {
		views[i] = discussionView(&discussions[i], votes[discussions[i].ID], now)
	}

	payload := gin.H{
		"discussions": views,
		"total":       total,
		"page":        page.Page,
		"per_page":    page.PerPage,
	}

	if viewerID == 0 && page.Page == 1 {
		h.cache.Set(cacheKey, payload, time.Minute)
	}

	c.JSON(http.StatusOK, payload)
}

func orderClause(sort services.SortOrder) string {
	switch sort {
	case services.SortOldest:
		return "created_at ASC"
	case services.SortTop:
		return "score DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

func (h *DiscussionHandler) Get(c *gin.Context) {
	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	// Best-effort view bump; never fails the read.
	if err := h.db.Model(discussion).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		h.log.Warn().Err(err).Str("did", discussion.Did).Msg("view increment failed")
	}
	discussion.Views++

	viewerID := middleware.ViewerID(c)
	votes, err := h.votes.UserVotes(viewerID, models.VoteTargetDiscussion, []uint{discussion.ID})
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"discussion": discussionView(discussion, votes[discussion.ID], time.Now())})
}

func (h *DiscussionHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := services.EnsureOwner(discussion.UserID, user.ID, "discussion"); err != nil {
		JSONError(c, h.log, err)
		return
	}
	if err := services.EnsureEditable(discussion.CreatedAt, services.DiscussionEditWindow, time.Now(), "discussion"); err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req discussionUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	discussion.Title = req.Title
	discussion.Content = req.Content
	if err := h.db.Save(discussion).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	h.invalidateLists(discussion.AgentID)

	votes, err := h.votes.UserVotes(user.ID, models.VoteTargetDiscussion, []uint{discussion.ID})
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"discussion": discussionView(discussion, votes[discussion.ID], time.Now())})
}

// Delete removes the discussion with its comments and both targets' votes.
// Comments go through the FK cascade; votes are polymorphic (no FK), so the
// ledger rows are swept in the same transaction.
func (h *DiscussionHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := services.EnsureOwner(discussion.UserID, user.ID, "discussion"); err != nil {
		JSONError(c, h.log, err)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("discussion_id = ?", discussion.ID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		if len(commentIDs) > 0 {
			err := tx.Where("target_type = ? AND target_id IN ?", models.VoteTargetComment, commentIDs).
				Delete(&models.Vote{}).Error
			if err != nil {
				return err
			}
		}
		err := tx.Where("target_type = ? AND target_id = ?", models.VoteTargetDiscussion, discussion.ID).
			Delete(&models.Vote{}).Error
		if err != nil {
			return err
		}

		if err := tx.Where("discussion_id = ?", discussion.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(discussion).Error
	})
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	h.invalidateLists(discussion.AgentID)

	c.Status(http.StatusNoContent)
}

func (h *DiscussionHandler) invalidateLists(agentID uint) {
	for _, sort := range []services.SortOrder{services.SortNewest, services.SortOldest, services.SortTop} {
		h.cache.Delete(fmt.Sprintf("discussions:%d:%s:p1", agentID, sort))
	}
}

func findDiscussion(conn *gorm.DB, did string) (*models.Discussion, error) {
	var discussion models.Discussion
	if err := conn.Preload("User").Where("did = ?", did).First(&discussion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("discussion not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &discussion, nil
}
