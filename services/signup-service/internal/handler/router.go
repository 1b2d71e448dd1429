package handler

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/services/signup-service/internal/metrics"
)

type RouterConfig struct {
	Signups     *SignupHandler
	Admin       *AdminHandler
	Logger      *logger.Logger
	TokenSecret string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(metrics.GinMiddleware)

	router.Use(ginzap.GinzapWithConfig(cfg.Logger.Zap(), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Skipper: func(c *gin.Context) bool {
			return c.Request.URL.Path == "/metrics" && c.Request.Method == http.MethodGet
		},
	}))
	router.Use(ginzap.RecoveryWithZap(cfg.Logger.Zap(), true))

	router.GET("/metrics", metrics.Handler())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1", ServiceTokenAuth(cfg.TokenSecret))
	initScrimRoutes(api, cfg.Signups, cfg.Admin)
	initAdminRoutes(api, cfg.Admin)

	return router
}

func initScrimRoutes(api *gin.RouterGroup, signups *SignupHandler, admin *AdminHandler) {
	scrims := api.Group("/scrims")
	scrims.POST("", admin.CreateScrim)
	scrims.DELETE("/:channel", admin.CloseScrim)
	scrims.GET("/:channel/signups", signups.GetOrderedSignups)

	teams := scrims.Group("/:channel/teams")
	teams.POST("", signups.AddTeam)
	teams.DELETE("/:team", signups.RemoveTeam)
	teams.PATCH("/:team", signups.ChangeTeamName)
	teams.POST("/:team/subs", signups.ReplaceTeammate)
}

func initAdminRoutes(api *gin.RouterGroup, admin *AdminHandler) {
	priority := api.Group("/priority")
	priority.POST("", admin.AddPriority)
	priority.DELETE("", admin.ExpungePriority)
	priority.GET("", admin.ListPriority)

	api.PATCH("/players", admin.UpdateProfiles)
}
