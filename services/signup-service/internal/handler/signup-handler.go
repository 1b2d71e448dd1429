package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/service"
)

type SignupHandler struct {
	signupService service.SignupService
	logger        *logger.Logger
}

func NewSignupHandler(signupService service.SignupService, log *logger.Logger) *SignupHandler {
	return &SignupHandler{
		signupService: signupService,
		logger:        log.With("component", "signup-handler"),
	}
}

type playerReq struct {
	ExternalId  string `json:"externalId" binding:"required"`
	DisplayName string `json:"displayName"`
	StatsLinkId string `json:"statsLinkId"`
	Elo         *int   `json:"elo"`
}

func (p playerReq) toModel() models.Player {
	return models.Player{
		ExternalId:  p.ExternalId,
		DisplayName: p.DisplayName,
		StatsLinkId: p.StatsLinkId,
		Elo:         p.Elo,
	}
}

func toPlayers(reqs []playerReq) []models.Player {
	players := make([]models.Player, 0, len(reqs))
	for _, p := range reqs {
		players = append(players, p.toModel())
	}
	return players
}

type addTeamReq struct {
	TeamName string      `json:"teamName" binding:"required"`
	Players  []playerReq `json:"players" binding:"required,dive"`
}

type teamResp struct {
	Team    *models.Team `json:"team"`
	Warning *APIError    `json:"warning,omitempty"`
}

func (h *SignupHandler) AddTeam(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	var req addTeamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	captain := models.Player{ExternalId: who.Id, DisplayName: who.Name}
	team, err := h.signupService.AddTeam(c.Request.Context(), c.Param("channel"), req.TeamName, captain, toPlayers(req.Players))
	h.respondTeam(c, http.StatusCreated, team, err)
}

func (h *SignupHandler) RemoveTeam(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	err := h.signupService.RemoveTeam(c.Request.Context(), c.Param("channel"), c.Param("team"), who.Id)
	if err != nil {
		if warning, isWarning := announcementWarning(err); isWarning {
			c.JSON(http.StatusOK, gin.H{"removed": true, "warning": warning})
			return
		}
		h.writeError(c, "RemoveTeam", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": true})
}

type renameTeamReq struct {
	NewName string `json:"newName" binding:"required"`
}

func (h *SignupHandler) ChangeTeamName(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	var req renameTeamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	team, err := h.signupService.ChangeTeamName(c.Request.Context(), c.Param("channel"), c.Param("team"), req.NewName, who.Id)
	h.respondTeam(c, http.StatusOK, team, err)
}

type replaceTeammateReq struct {
	Outgoing playerReq `json:"outgoing" binding:"required"`
	Incoming playerReq `json:"incoming" binding:"required"`
}

func (h *SignupHandler) ReplaceTeammate(c *gin.Context) {
	who, ok := actorFrom(c)
	if !ok {
		return
	}

	var req replaceTeammateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing request", "error", err)
		WriteAPIErrJSON(c, http.StatusBadRequest, BadRequest)
		return
	}

	team, err := h.signupService.ReplaceTeammate(c.Request.Context(), c.Param("channel"), c.Param("team"), who.Id,
		req.Outgoing.toModel(), req.Incoming.toModel())
	h.respondTeam(c, http.StatusOK, team, err)
}

func (h *SignupHandler) GetOrderedSignups(c *gin.Context) {
	signups, err := h.signupService.GetOrderedSignups(c.Request.Context(), c.Param("channel"))
	if err != nil {
		h.writeError(c, "GetOrderedSignups", err)
		return
	}

	c.JSON(http.StatusOK, signups)
}

// respondTeam answers a team mutation. A failed announcement still returns
// the saved team, with the failure attached as a warning.
func (h *SignupHandler) respondTeam(c *gin.Context, status int, team *models.Team, err error) {
	if err != nil {
		warning, isWarning := announcementWarning(err)
		if !isWarning || team == nil {
			h.writeError(c, c.HandlerName(), err)
			return
		}
		h.logger.Warn("Change saved without announcement", "team_id", team.TeamId, "error", err)
		c.JSON(status, teamResp{Team: team, Warning: warning})
		return
	}

	c.JSON(status, teamResp{Team: team})
}

func (h *SignupHandler) writeError(c *gin.Context, op string, err error) {
	writeMappedError(c, h.logger, op, err)
}

func writeMappedError(c *gin.Context, log *logger.Logger, op string, err error) {
	status, apiErr, ok := Map(err)
	if !ok {
		log.Error("Unmapped error", "op", op, "error", err)
		WriteAPIErrJSON(c, http.StatusInternalServerError, InternalServerError)
		return
	}

	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "op", op, "code", apiErr.Code, "error", err)
	} else {
		log.Warn("Request rejected", "op", op, "code", apiErr.Code)
	}
	WriteAPIErrJSON(c, status, apiErr)
}
