package controllers

import (
	"github.com/LodestoneMC-org/backend/internal/config"
	"github.com/LodestoneMC-org/backend/services"

	"github.com/gin-gonic/gin"
)

type APIController struct {
	server *services.Server
}

/**
 * Create new API controller instance
 * @param {*services.Server} server - Server holding the instance manager
 * @returns {*APIController} New API controller instance
 * @description
 * - Initializes controller with the daemon server
 * - Used for the reload and health probe endpoints
 * @example
 * server := services.NewServer(&config.Config)
 * controller := controllers.NewAPIController(server)
 */
func NewAPIController(server *services.Server) *APIController {
	return &APIController{
		server: server,
	}
}

/**
 * Register all API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for:
 *   - Configuration reload
 *   - Readiness probe
 * @example
 * router := gin.Default()
 * controller := NewAPIController(server)
 * controller.RegisterRoutes(router)
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.POST("/lodestone/api/v1/reload", a.ReloadConfig)
	r.GET("/healthz", a.Healthz)
}

// @Summary 重新加载配置
// @Description 重新加载应用配置文件
// @Tags Config
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /lodestone/api/v1/reload [post]
func (a *APIController) ReloadConfig(c *gin.Context) {
	// 调用配置重新加载方法
	if err := config.ReloadConfig(); err != nil {
		c.JSON(500, gin.H{
			"code":    "config.reload_failed",
			"message": "Failed to reload configuration: " + err.Error(),
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "success",
		"message": "Configuration reloaded successfully",
	})
}

// @Summary 业务就绪探针
// @Description 检查服务是否已经做好准备，返回服务版本、启动时间、健康状态和关键指标统计结果
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	// 调用server的GetHealthz方法获取健康检查响应
	response := a.server.GetHealthz()
	c.JSON(200, response)
}
