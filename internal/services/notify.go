package services

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

// NotificationService records activity notifications. Delivery is strictly
// best-effort: a failed insert is logged and never fails the triggering
// write.
type NotificationService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewNotificationService(conn *gorm.DB, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		db:  conn,
		log: log.With().Str("component", "notifications").Logger(),
	}
}

// Notify creates one notification asynchronously. Self-notifications are
// dropped.
func (s *NotificationService) Notify(userID, actorID uint, typ models.NotificationType, reference, message string) {
	if userID == 0 || userID == actorID {
		return
	}

	go func() {
		notification := models.Notification{
			UserID:    userID,
			ActorID:   &actorID,
			Type:      typ,
			Reference: reference,
			Message:   message,
		}
		if err := s.db.Create(&notification).Error; err != nil {
			s.log.Warn().Err(err).Uint("user_id", userID).Str("type", string(typ)).Msg("notification insert failed")
		}
	}()
}
