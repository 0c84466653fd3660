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
)

type CommentHandler struct {
	db       *gorm.DB
	comments *services.CommentService
	notify   *services.NotificationService
	log      zerolog.Logger
}

func NewCommentHandler(conn *gorm.DB, comments *services.CommentService, notify *services.NotificationService, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{db: conn, comments: comments, notify: notify, log: log}
}

type commentCreateRequest struct {
	Content   string `json:"content" binding:"required,min=1,max=2000"`
	ParentCid string `json:"parent_cid" binding:"omitempty,len=8"`
}

type commentUpdateRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	var req commentCreateRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	comment, err := h.comments.Create(discussion, user.ID, req.Content, req.ParentCid)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}
	comment.User = *user

	h.notifyAbout(comment, discussion, user)

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *CommentHandler) notifyAbout(comment *models.Comment, discussion *models.Discussion, actor *models.User) {
	reference := fmt.Sprintf("%s#%s", discussion.Did, comment.Cid)
	if comment.ParentID != nil {
		var parent models.Comment
		if err := h.db.First(&parent, *comment.ParentID).Error; err == nil {
			h.notify.Notify(parent.UserID, actor.ID, models.NotificationTypeCommentReply,
				reference, fmt.Sprintf("%s replied to your comment on %q", actor.Username, discussion.Title))
		}
		return
	}
	h.notify.Notify(discussion.UserID, actor.ID, models.NotificationTypeDiscussionComment,
		reference, fmt.Sprintf("%s commented on your discussion %q", actor.Username, discussion.Title))
}

func (h *CommentHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req commentUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	comment, err := h.comments.Update(c.Param("cid"), user.ID, req.Content, time.Now())
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	if err := h.comments.SoftDelete(c.Param("cid"), user.ID); err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListLayer returns one page of a single parent's children; parent_cid absent
// means top-level comments.
func (h *CommentHandler) ListLayer(c *gin.Context) {
	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	var parentID *uint
	if parentCid := c.Query("parent_cid"); parentCid != "" {
		var parent models.Comment
		err := h.db.Where("cid = ? AND discussion_id = ?", parentCid, discussion.ID).First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				JSONError(c, h.log, apperrors.NotFound("parent comment not found"))
				return
			}
			JSONError(c, h.log, apperrors.Internal(err))
			return
		}
		parentID = &parent.ID
	}

	page := parsePage(c)
	sort := services.ParseSort(c.Query("sort"))

	views, total, err := h.comments.ListLayer(discussion, parentID, sort, page.Offset, page.PerPage, middleware.ViewerID(c))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": views,
		"total":    total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

// Tree returns the full nested comment tree for a discussion.
func (h *CommentHandler) Tree(c *gin.Context) {
	discussion, err := findDiscussion(h.db, c.Param("did"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	tree, err := h.comments.BuildTree(discussion, middleware.ViewerID(c))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": tree})
}
