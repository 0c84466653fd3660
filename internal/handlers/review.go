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

type ReviewHandler struct {
	db     *gorm.DB
	notify *services.NotificationService
	cache  *utils.Cache
	log    zerolog.Logger
}

func NewReviewHandler(conn *gorm.DB, notify *services.NotificationService, cache *utils.Cache, log zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{db: conn, notify: notify, cache: cache, log: log}
}

type reviewRequest struct {
	Rating  int      `json:"rating" binding:"required,min=1,max=5"`
	Content string   `json:"content" binding:"required,min=10,max=2000"`
	Images  []string `json:"images" binding:"omitempty,max=5,dive,max=500"`
}

type replyRequest struct {
	Content string `json:"content" binding:"required,min=10,max=1000"`
}

// ReviewView is the response shape for one review.
type ReviewView struct {
	ID          uint                 `json:"id"`
	Rating      int                  `json:"rating"`
	Content     string               `json:"content"`
	ContentHTML string               `json:"content_html"`
	Author      models.AuthorInfo    `json:"author"`
	Upvotes     int                  `json:"upvotes"`
	Downvotes   int                  `json:"downvotes"`
	UserVote    int                  `json:"user_vote"`
	Images      []models.ReviewImage `json:"images"`
	Replies     []ReplyView          `json:"replies"`
	CreatedAt   time.Time            `json:"created_at"`
	CreatedAgo  string               `json:"created_ago"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type ReplyView struct {
	ID         uint              `json:"id"`
	Content    string            `json:"content"`
	Author     models.AuthorInfo `json:"author"`
	CreatedAt  time.Time         `json:"created_at"`
	CreatedAgo string            `json:"created_ago"`
}

func reviewView(r *models.Review, userVote int, now time.Time) ReviewView {
	replies := make([]ReplyView, len(r.Replies))
	for i, reply := range r.Replies {
		replies[i] = ReplyView{
			ID:         reply.ID,
			Content:    reply.Content,
			Author:     reply.User.Author(),
			CreatedAt:  reply.CreatedAt,
			CreatedAgo: utils.TimeAgo(reply.CreatedAt, now),
		}
	}
	images := r.Images
	if images == nil {
		images = []models.ReviewImage{}
	}
	return ReviewView{
		ID:          r.ID,
		Rating:      r.Rating,
		Content:     r.Content,
		ContentHTML: utils.RenderMarkdown(r.Content),
		Author:      r.User.Author(),
		Upvotes:     r.Upvotes,
		Downvotes:   r.Downvotes,
		UserVote:    userVote,
		Images:      images,
		Replies:     replies,
		CreatedAt:   r.CreatedAt,
		CreatedAgo:  utils.TimeAgo(r.CreatedAt, now),
		UpdatedAt:   r.UpdatedAt,
	}
}

// Submit creates the caller's review of an agent. One review per user per
// agent; a second submission is Conflict regardless of content.
func (h *ReviewHandler) Submit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	agent, err := h.findAgent(c.Param("aid"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	var count int64
	if err := h.db.Model(&models.Review{}).Where("agent_id = ? AND user_id = ?", agent.ID, user.ID).Count(&count).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}
	if count > 0 {
		JSONError(c, h.log, apperrors.Conflict("you have already reviewed this agent"))
		return
	}

	review := models.Review{
		AgentID: agent.ID,
		UserID:  user.ID,
		Rating:  req.Rating,
		Content: req.Content,
	}
	for i, url := range req.Images {
		review.Images = append(review.Images, models.ReviewImage{URL: url, Position: i})
	}

	if err := h.db.Create(&review).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}
	review.User = *user

	h.cache.Delete(summaryCacheKey(agent.ID))

	c.JSON(http.StatusCreated, gin.H{"review": reviewView(&review, 0, time.Now())})
}

func (h *ReviewHandler) ListByAgent(c *gin.Context) {
	agent, err := h.findAgent(c.Param("aid"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	page := parsePage(c)

	var total int64
	if err := h.db.Model(&models.Review{}).Where("agent_id = ?", agent.ID).Count(&total).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	var reviews []models.Review
	err = h.db.Preload("User").Preload("Images").Preload("Replies.User").
		Where("agent_id = ?", agent.ID).
		Order("created_at DESC").
		Offset(page.Offset).Limit(page.PerPage).
		Find(&reviews).Error
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	votes, err := h.viewerVotes(middleware.ViewerID(c), reviews)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	now := time.Now()
	views := make([]ReviewView, len(reviews))
	for i := range reviews {
		views[i] = reviewView(&reviews[i], votes[reviews[i].ID], now)
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":  views,
		"total":    total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

// Summary returns the derived per-agent aggregate, cached for a minute.
func (h *ReviewHandler) Summary(c *gin.Context) {
	agent, err := h.findAgent(c.Param("aid"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	key := summaryCacheKey(agent.ID)
	if cached := h.cache.Get(key); cached != nil {
		if summary, ok := cached.(services.ReviewSummary); ok {
			c.JSON(http.StatusOK, gin.H{"summary": summary})
			return
		}
	}

	var reviews []models.Review
	if err := h.db.Select("rating", "created_at").Where("agent_id = ?", agent.ID).Find(&reviews).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	summary := services.Summarize(reviews, time.Now())
	h.cache.Set(key, summary, time.Minute)

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *ReviewHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	review, err := h.findReview(c.Param("id"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := services.EnsureOwner(review.UserID, user.ID, "review"); err != nil {
		JSONError(c, h.log, err)
		return
	}
	if err := services.EnsureEditable(review.CreatedAt, services.ReviewEditWindow, time.Now(), "review"); err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(review).Updates(map[string]interface{}{
			"rating":  req.Rating,
			"content": req.Content,
		}).Error
		if err != nil {
			return err
		}

		// Images are replaced wholesale on edit.
		if err := tx.Where("review_id = ?", review.ID).Delete(&models.ReviewImage{}).Error; err != nil {
			return err
		}
		for i, url := range req.Images {
			image := models.ReviewImage{ReviewID: review.ID, URL: url, Position: i}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	h.cache.Delete(summaryCacheKey(review.AgentID))

	refreshed, err := h.findReview(c.Param("id"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	votes, err := h.viewerVotes(user.ID, []models.Review{*refreshed})
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": reviewView(refreshed, votes[refreshed.ID], time.Now())})
}

// Delete removes the review at any time (no edit window on deletion);
// replies, images and review votes go with it through the FK cascade.
func (h *ReviewHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	review, err := h.findReview(c.Param("id"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := services.EnsureOwner(review.UserID, user.ID, "review"); err != nil {
		JSONError(c, h.log, err)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", review.ID).Delete(&models.ReviewVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", review.ID).Delete(&models.ReviewImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", review.ID).Delete(&models.ReviewReply{}).Error; err != nil {
			return err
		}
		return tx.Delete(review).Error
	})
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	h.cache.Delete(summaryCacheKey(review.AgentID))

	c.Status(http.StatusNoContent)
}

func (h *ReviewHandler) CreateReply(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	review, err := h.findReview(c.Param("id"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req replyRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	reply := models.ReviewReply{
		ReviewID: review.ID,
		UserID:   user.ID,
		Content:  req.Content,
	}
	if err := h.db.Create(&reply).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}
	reply.User = *user

	h.notify.Notify(review.UserID, user.ID, models.NotificationTypeReviewReply,
		fmt.Sprintf("review/%d", review.ID),
		fmt.Sprintf("%s replied to your review", user.Username))

	c.JSON(http.StatusCreated, gin.H{"reply": ReplyView{
		ID:         reply.ID,
		Content:    reply.Content,
		Author:     user.Author(),
		CreatedAt:  reply.CreatedAt,
		CreatedAgo: utils.TimeAgo(reply.CreatedAt, time.Now()),
	}})
}

func (h *ReviewHandler) UpdateReply(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	reply, err := h.findReply(c.Param("id"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := services.EnsureOwner(reply.UserID, user.ID, "reply"); err != nil {
		JSONError(c, h.log, err)
		return
	}
	if err := services.EnsureEditable(reply.CreatedAt, services.ReplyEditWindow, time.Now(), "reply"); err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req replyRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := h.db.Model(reply).Update("content", req.Content).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": ReplyView{
		ID:         reply.ID,
		Content:    req.Content,
		Author:     user.Author(),
		CreatedAt:  reply.CreatedAt,
		CreatedAgo: utils.TimeAgo(reply.CreatedAt, time.Now()),
	}})
}

func (h *ReviewHandler) DeleteReply(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	reply, err := h.findReply(c.Param("id"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := services.EnsureOwner(reply.UserID, user.ID, "reply"); err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := h.db.Delete(reply).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReviewHandler) viewerVotes(viewerID uint, reviews []models.Review) (map[uint]int, error) {
	votes := make(map[uint]int, len(reviews))
	if viewerID == 0 || len(reviews) == 0 {
		return votes, nil
	}

	ids := make([]uint, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
	}

	var rows []models.ReviewVote
	if err := h.db.Where("user_id = ? AND review_id IN ?", viewerID, ids).Find(&rows).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	for _, v := range rows {
		votes[v.ReviewID] = v.Value
	}
	return votes, nil
}

func summaryCacheKey(agentID uint) string {
	return fmt.Sprintf("reviews:summary:%d", agentID)
}

func (h *ReviewHandler) findAgent(aid string) (*models.Agent, error) {
	var agent models.Agent
	if err := h.db.Where("aid = ?", aid).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("agent not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &agent, nil
}

func (h *ReviewHandler) findReview(id string) (*models.Review, error) {
	reviewID := utils.ParseID(id)
	if reviewID == 0 {
		return nil, apperrors.Validation("invalid review id")
	}

	var review models.Review
	err := h.db.Preload("User").Preload("Images").Preload("Replies.User").First(&review, reviewID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("review not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &review, nil
}

func (h *ReviewHandler) findReply(id string) (*models.ReviewReply, error) {
	replyID := utils.ParseID(id)
	if replyID == 0 {
		return nil, apperrors.Validation("invalid reply id")
	}

	var reply models.ReviewReply
	if err := h.db.First(&reply, replyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("reply not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &reply, nil
}
