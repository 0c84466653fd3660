package handlers

import (
	"errors"
	"net/http"
	"strings"
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

type AuthHandler struct {
	db     *gorm.DB
	tokens *services.TokenService
	log    zerolog.Logger
}

func NewAuthHandler(conn *gorm.DB, tokens *services.TokenService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{db: conn, tokens: tokens, log: log}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Avatar   string `json:"avatar" binding:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: hash,
		Avatar:   req.Avatar,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "UNIQUE") {
			JSONError(c, h.log, apperrors.Conflict("email already registered"))
			return
		}
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	h.respondWithToken(c, &user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		JSONError(c, h.log, apperrors.Unauthenticated("invalid email or password"))
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		JSONError(c, h.log, apperrors.Unauthenticated("invalid email or password"))
		return
	}

	h.respondWithToken(c, &user)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) respondWithToken(c *gin.Context, user *models.User) {
	token, expiresAt, err := h.tokens.Mint(user, time.Now())
	if err != nil {
		JSONError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, ExpiresAt: expiresAt, User: user})
}
