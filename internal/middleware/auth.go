package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/services"
)

const CheckUserKey = "user"

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": "unauthenticated", "message": message},
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth verifies the bearer credential, loads the user and sets it on
// the context. Requests without a valid credential are rejected.
func RequireAuth(tokens *services.TokenService, conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := bearerToken(c)
		if credential == "" {
			abortUnauthenticated(c, "missing bearer token")
			return
		}

		userID, err := tokens.Verify(credential)
		if err != nil {
			abortUnauthenticated(c, "invalid or expired token")
			return
		}

		var user models.User
		if err := conn.First(&user, userID).Error; err != nil {
			abortUnauthenticated(c, "unknown user")
			return
		}

		c.Set(CheckUserKey, &user)
		c.Next()
	}
}

// LoadUser is the optional variant: it resolves the user when a valid
// credential is present and stays silent otherwise, so read endpoints can
// personalize vote state for signed-in viewers.
func LoadUser(tokens *services.TokenService, conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if credential := bearerToken(c); credential != "" {
			if userID, err := tokens.Verify(credential); err == nil {
				var user models.User
				if err := conn.First(&user, userID).Error; err == nil {
					c.Set(CheckUserKey, &user)
				}
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth or LoadUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// ViewerID returns the authenticated user's id, or 0 for anonymous viewers.
func ViewerID(c *gin.Context) uint {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return 0
}
