package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/services"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

type VoteHandler struct {
	db    *gorm.DB
	votes *services.VoteService
	log   zerolog.Logger
}

func NewVoteHandler(conn *gorm.DB, votes *services.VoteService, log zerolog.Logger) *VoteHandler {
	return &VoteHandler{db: conn, votes: votes, log: log}
}

// voteRequest uses a pointer so an absent value is distinguishable from an
// explicit 0 (retract).
type voteRequest struct {
	Value *int `json:"value" binding:"required"`
}

func (h *VoteHandler) VoteDiscussion(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req voteRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	result, err := h.votes.CastVote(user.ID, models.VoteTargetDiscussion, discussion.ID, *req.Value)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *VoteHandler) VoteComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var comment models.Comment
	if err := h.db.Where("cid = ?", c.Param("cid")).First(&comment).Error; err != nil {
		JSONError(c, h.log, apperrors.NotFound("comment not found"))
		return
	}

	var req voteRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	result, err := h.votes.CastVote(user.ID, models.VoteTargetComment, comment.ID, *req.Value)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *VoteHandler) VoteReview(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	reviewID := utils.ParseID(c.Param("id"))
	if reviewID == 0 {
		JSONError(c, h.log, apperrors.Validation("invalid review id"))
		return
	}

	var req voteRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	result, err := h.votes.CastReviewVote(user.ID, reviewID, *req.Value)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
