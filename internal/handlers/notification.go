package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

type NotificationHandler struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewNotificationHandler(conn *gorm.DB, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{db: conn, log: log}
}

type NotificationView struct {
	ID         uint                    `json:"id"`
	Type       models.NotificationType `json:"type"`
	Actor      models.AuthorInfo       `json:"actor"`
	Reference  string                  `json:"reference"`
	Message    string                  `json:"message"`
	IsRead     bool                    `json:"is_read"`
	CreatedAt  time.Time               `json:"created_at"`
	CreatedAgo string                  `json:"created_ago"`
}

// List returns the caller's 50 newest notifications plus an unread count.
func (h *NotificationHandler) List(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var notifications []models.Notification
	err := h.db.Preload("Actor").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	var unread int64
	err = h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread).Error
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	now := time.Now()
	views := make([]NotificationView, len(notifications))
	for i, n := range notifications {
		views[i] = NotificationView{
			ID:         n.ID,
			Type:       n.Type,
			Actor:      n.Actor.Author(),
			Reference:  n.Reference,
			Message:    n.Message,
			IsRead:     n.IsRead,
			CreatedAt:  n.CreatedAt,
			CreatedAgo: utils.TimeAgo(n.CreatedAt, now),
		}
	}

	c.JSON(http.StatusOK, gin.H{"notifications": views, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	notification, err := h.findOwned(c.Param("id"), user.ID)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := h.db.Model(notification).Update("is_read", true).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true).Error
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	notification, err := h.findOwned(c.Param("id"), user.ID)
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	if err := h.db.Delete(notification).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) findOwned(id string, userID uint) (*models.Notification, error) {
	notificationID := utils.ParseID(id)
	if notificationID == 0 {
		return nil, apperrors.Validation("invalid notification id")
	}

	var notification models.Notification
	err := h.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("notification not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &notification, nil
}
