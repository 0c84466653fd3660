package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/apperrors"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

type AgentHandler struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewAgentHandler(conn *gorm.DB, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{db: conn, log: log}
}

type agentRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"required,min=10,max=5000"`
	Website     string `json:"website" binding:"omitempty,max=255"`
}

func (h *AgentHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req agentRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	agent := models.Agent{
		Aid:         utils.RandStringBytesMaskImpr(8),
		CreatorID:   user.ID,
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
	}
	if err := h.db.Create(&agent).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}
	agent.Creator = *user

	c.JSON(http.StatusCreated, gin.H{"agent": agent})
}

func (h *AgentHandler) List(c *gin.Context) {
	page := parsePage(c)

	filter := func(tx *gorm.DB) *gorm.DB {
		if q := c.Query("q"); q != "" {
			pattern := "%" + q + "%"
			return tx.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
		}
		return tx
	}

	var total int64
	if err := filter(h.db.Model(&models.Agent{})).Count(&total).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	var agents []models.Agent
	err := filter(h.db.Preload("Creator")).
		Order("created_at DESC").
		Offset(page.Offset).Limit(page.PerPage).
		Find(&agents).Error
	if err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agents":   agents,
		"total":    total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

func (h *AgentHandler) Get(c *gin.Context) {
	agent, err := h.findAgent(c.Param("aid"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}

	// View counting is best-effort: a failed bump must not fail the read.
	if err := h.db.Model(agent).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		h.log.Warn().Err(err).Str("aid", agent.Aid).Msg("view increment failed")
	}
	agent.Views++

	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (h *AgentHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	agent, err := h.findAgent(c.Param("aid"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}
	if agent.CreatorID != user.ID {
		JSONError(c, h.log, apperrors.Forbidden("only the creator can modify this agent"))
		return
	}

	var req agentRequest
	if err := bindJSON(c, &req); err != nil {
		JSONError(c, h.log, err)
		return
	}

	agent.Name = req.Name
	agent.Description = req.Description
	agent.Website = req.Website
	if err := h.db.Save(agent).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (h *AgentHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	agent, err := h.findAgent(c.Param("aid"))
	if err != nil {
		JSONError(c, h.log, err)
		return
	}
	if agent.CreatorID != user.ID {
		JSONError(c, h.log, apperrors.Forbidden("only the creator can delete this agent"))
		return
	}

	if err := h.db.Delete(agent).Error; err != nil {
		JSONError(c, h.log, apperrors.Internal(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AgentHandler) findAgent(aid string) (*models.Agent, error) {
	var agent models.Agent
	if err := h.db.Preload("Creator").Where("aid = ?", aid).First(&agent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("agent not found")
		}
		return nil, apperrors.Internal(err)
	}
	return &agent, nil
}
