package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/service"
)

// AdminHandler serves scrim lifecycle, priority administration and profile
// refresh.
type AdminHandler struct {
	scrimService    service.ScrimService
	priorityService service.PriorityService
	playerService   service.PlayerService
	logger          *logger.Logger
}

func NewAdminHandler(
	scrimService service.ScrimService,
	priorityService service.PriorityService,
	playerService service.PlayerService,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		scrimService:    scrimService,
		priorityService: priorityService,
		playerService:   playerService,
		logger:          log.With("component", "admin-handler"),
	}
}

type createScrimReq struct {
	ChannelId     string    `json:"channelId" binding:"required"`
	ScheduledTime time.Time `json:"scheduledTime" binding:"required"`
}

func (h *AdminHandler) CreateScrim(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	var req createScrimReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	scrim, err := h.scrimService.CreateScrim(c.Request.Context(), who.Id, req.ChannelId, req.ScheduledTime)
	if err != nil {
		if warning, isWarning := announcementWarning(err); isWarning && scrim != nil {
			c.JSON(http.StatusCreated, gin.H{"scrim": scrim, "warning": warning})
			return
		}
		writeMappedError(c, h.logger, "CreateScrim", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scrim": scrim})
}

func (h *AdminHandler) CloseScrim(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	if err := h.scrimService.CloseScrim(c.Request.Context(), who.Id, c.Param("channel")); err != nil {
		if warning, isWarning := announcementWarning(err); isWarning {
			c.JSON(http.StatusOK, gin.H{"closed": true, "warning": warning})
			return
		}
		writeMappedError(c, h.logger, "CloseScrim", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"closed": true})
}

type addPriorityReq struct {
	ExternalId  string    `json:"externalId" binding:"required"`
	DisplayName string    `json:"displayName"`
	StartDate   time.Time `json:"startDate" binding:"required"`
	EndDate     time.Time `json:"endDate" binding:"required"`
	Amount      int       `json:"amount" binding:"required"`
	Reason      string    `json:"reason" binding:"required"`
}

func (h *AdminHandler) AddPriority(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	var req addPriorityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	entry, err := h.priorityService.AddPriority(c.Request.Context(), who.Id, models.PriorityEntry{
		ExternalId:  req.ExternalId,
		DisplayName: req.DisplayName,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Amount:      req.Amount,
		Reason:      req.Reason,
	})
	if err != nil {
		writeMappedError(c, h.logger, "AddPriority", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

type expungePriorityReq struct {
	PriorityIds []string `json:"priorityIds" binding:"required,min=1"`
}

func (h *AdminHandler) ExpungePriority(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	var req expungePriorityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	removed, err := h.priorityService.ExpungePriority(c.Request.Context(), who.Id, req.PriorityIds)
	if err != nil {
		writeMappedError(c, h.logger, "ExpungePriority", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ListPriority takes an optional RFC3339 "at" query parameter, defaulting to now.
func (h *AdminHandler) ListPriority(c *gin.Context) {
	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteAPIErrJSON(c, http.StatusBadRequest, APIError{
				Code:    BadRequest.Code,
				Message: "at must be an RFC3339 timestamp",
			})
			return
		}
		at = parsed
	}

	entries, err := h.priorityService.ListPriority(c.Request.Context(), at)
	if err != nil {
		writeMappedError(c, h.logger, "ListPriority", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type updateProfilesReq struct {
	Players []playerReq `json:"players" binding:"required,min=1,dive"`
}

func (h *AdminHandler) UpdateProfiles(c *gin.Context) {
	var req updateProfilesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	players, err := h.playerService.UpdateProfiles(c.Request.Context(), toPlayers(req.Players))
	if err != nil {
		writeMappedError(c, h.logger, "UpdateProfiles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": players})
}
