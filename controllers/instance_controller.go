package controllers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LodestoneMC-org/backend/internal/lserr"
	"github.com/LodestoneMC-org/backend/internal/models"
	"github.com/LodestoneMC-org/backend/services"
)

type InstanceController struct {
	manager *services.InstanceManager
}

/**
 * Create new instance controller
 * @param {*services.InstanceManager} manager - Instance manager holding all supervisors
 * @returns {*InstanceController} New instance controller
 * @example
 * manager := services.GetInstanceManager()
 * controller := controllers.NewInstanceController(manager)
 */
func NewInstanceController(manager *services.InstanceManager) *InstanceController {
	return &InstanceController{
		manager: manager,
	}
}

/**
 * Register all instance API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for:
 *   - Instance lifecycle (list/create/get/delete/start/stop/kill/restart)
 *   - Console commands and macros
 *   - Backup control (now/period/pause/resume)
 *   - Typed configuration fields
 */
func (ic *InstanceController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/lodestone/api/v1")
	// 实例生命周期
	api.GET("/instances", ic.ListInstances)
	api.POST("/instances", ic.CreateInstance)
	api.GET("/instances/:uuid", ic.GetInstance)
	api.DELETE("/instances/:uuid", ic.DeleteInstance)
	api.POST("/instances/:uuid/start", ic.StartInstance)
	api.POST("/instances/:uuid/stop", ic.StopInstance)
	api.POST("/instances/:uuid/kill", ic.KillInstance)
	api.POST("/instances/:uuid/restart", ic.RestartInstance)
	// 控制台与宏
	api.POST("/instances/:uuid/command", ic.SendCommand)
	api.GET("/instances/:uuid/console", ic.GetConsole)
	api.POST("/instances/:uuid/macros/:name", ic.RunMacro)
	api.GET("/macros/tasks", ic.ListMacroTasks)
	// 备份控制
	api.POST("/instances/:uuid/backup", ic.BackupNow)
	api.PUT("/instances/:uuid/backup/period", ic.SetBackupPeriod)
	api.POST("/instances/:uuid/backup/pause", ic.PauseBackups)
	api.POST("/instances/:uuid/backup/resume", ic.ResumeBackups)
	// 类型化配置字段
	api.PUT("/instances/:uuid/config", ic.UpdateConfig)
}

func respondError(c *gin.Context, code string, err error) {
	c.JSON(lserr.HTTPStatus(err), &models.ErrorResponse{
		Code:  code,
		Error: err.Error(),
	})
}

func (ic *InstanceController) lookup(c *gin.Context) *services.InstanceSupervisor {
	instanceUUID := c.Param("uuid")
	sup, err := ic.manager.GetInstance(instanceUUID)
	if err != nil {
		c.JSON(404, &models.ErrorResponse{
			Code:  "instance.notexist",
			Error: fmt.Sprintf("instance [%s] isn't exist", instanceUUID),
		})
		return nil
	}
	return sup
}

// ListInstances lists all managed instances
//
//	@Summary		List all instances
//	@Description	Get list of all managed game server instances with their current state
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Success		200	{array}		models.InstanceDetail	"List of instances"
//	@Failure		500	{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/lodestone/api/v1/instances [get]
func (ic *InstanceController) ListInstances(c *gin.Context) {
	details := ic.manager.ListInstances()
	services.RefreshInstanceMetrics(details)
	c.JSON(200, details)
}

// CreateInstance creates a brand new instance
//
//	@Summary		Create instance
//	@Description	Download, unpack and configure a new game server instance
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			setup	body		models.SetupConfig		true	"Setup parameters"
//	@Success		200		{object}	models.InstanceDetail	"Created instance"
//	@Failure		400		{object}	models.ErrorResponse	"Malformed setup parameters"
//	@Failure		409		{object}	models.ErrorResponse	"Instance name collision"
//	@Failure		500		{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/lodestone/api/v1/instances [post]
func (ic *InstanceController) CreateInstance(c *gin.Context) {
	var setup models.SetupConfig
	if err := c.ShouldBindJSON(&setup); err != nil {
		c.JSON(400, &models.ErrorResponse{
			Code:  "instance.bad_setup",
			Error: err.Error(),
		})
		return
	}
	sup, err := ic.manager.CreateInstance(setup)
	if err != nil {
		respondError(c, "instance.create_failed", err)
		return
	}
	c.JSON(200, sup.Detail())
}

// GetInstance gets detailed information of one instance
//
//	@Summary		Get instance information
//	@Description	Get detailed information of a specific instance by its uuid
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	models.InstanceDetail	"Instance detail information"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid} [get]
func (ic *InstanceController) GetInstance(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	c.JSON(200, sup.Detail())
}

// DeleteInstance deletes an instance and its on-disk directory
//
//	@Summary		Delete instance
//	@Description	Kill the instance if running and remove its directory
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	map[string]interface{}	"Delete success response"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Failure		500		{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/lodestone/api/v1/instances/{uuid} [delete]
func (ic *InstanceController) DeleteInstance(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	if err := ic.manager.DeleteInstance(sup.UUID()); err != nil {
		respondError(c, "instance.delete_failed", err)
		return
	}
	c.JSON(200, gin.H{"status": "success"})
}

// StartInstance starts an instance
//
//	@Summary		Start instance
//	@Description	Start a stopped instance
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	models.InstanceDetail	"Instance detail after start"
//	@Failure		400		{object}	models.ErrorResponse	"Instance is not stopped"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/start [post]
func (ic *InstanceController) StartInstance(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	if err := sup.Start(); err != nil {
		respondError(c, "instance.start_failed", err)
		return
	}
	c.JSON(200, sup.Detail())
}

// StopInstance gracefully stops an instance
//
//	@Summary		Stop instance
//	@Description	Send a stop command to the instance console and wait for exit
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	models.InstanceDetail	"Instance detail after stop request"
//	@Failure		400		{object}	models.ErrorResponse	"Instance is not running"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/stop [post]
func (ic *InstanceController) StopInstance(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	if err := sup.Stop(); err != nil {
		respondError(c, "instance.stop_failed", err)
		return
	}
	c.JSON(200, sup.Detail())
}

// KillInstance force kills an instance process
//
//	@Summary		Kill instance
//	@Description	Force kill the instance process without a graceful shutdown
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	map[string]interface{}	"Kill success response"
//	@Failure		400		{object}	models.ErrorResponse	"Instance has no running process"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/kill [post]
func (ic *InstanceController) KillInstance(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	if err := sup.Kill(); err != nil {
		respondError(c, "instance.kill_failed", err)
		return
	}
	c.JSON(200, gin.H{"status": "success"})
}

// RestartInstance restarts an instance
//
//	@Summary		Restart instance
//	@Description	Stop the instance, wait until it reaches Stopped, then start it again
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	models.InstanceDetail	"Instance detail after restart"
//	@Failure		400		{object}	models.ErrorResponse	"Instance is not running"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/restart [post]
func (ic *InstanceController) RestartInstance(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	if err := sup.Restart(); err != nil {
		respondError(c, "instance.restart_failed", err)
		return
	}
	c.JSON(200, sup.Detail())
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// SendCommand writes one console command to a running instance
//
//	@Summary		Send console command
//	@Description	Write one line to the stdin of the running instance
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			request	body		commandRequest			true	"Console command"
//	@Success		200		{object}	map[string]interface{}	"Command accepted"
//	@Failure		400		{object}	models.ErrorResponse	"Instance is not running"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/command [post]
func (ic *InstanceController) SendCommand(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, &models.ErrorResponse{
			Code:  "instance.bad_command",
			Error: err.Error(),
		})
		return
	}
	if err := sup.SendCommand(req.Command); err != nil {
		respondError(c, "instance.command_failed", err)
		return
	}
	c.JSON(200, gin.H{"status": "success"})
}

// GetConsole returns the tail of the instance console log
//
//	@Summary		Get console history
//	@Description	Get the last lines of the persisted console log, newest last
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			lines	query		int						false	"Maximum number of lines"	default(100)
//	@Success		200		{object}	map[string]interface{}	"Console lines"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/console [get]
func (ic *InstanceController) GetConsole(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	count := 100
	if raw := c.Query("lines"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			count = parsed
		}
	}
	lines, err := sup.ConsoleTail(count)
	if err != nil {
		respondError(c, "instance.console_failed", err)
		return
	}
	c.JSON(200, gin.H{"lines": lines})
}

// RunMacro submits a macro of the instance to the macro executor
//
//	@Summary		Run macro
//	@Description	Submit a script from the instance macros directory for execution
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			name	path		string					true	"Macro name"
//	@Success		200		{object}	map[string]interface{}	"Assigned macro pid"
//	@Failure		404		{object}	models.ErrorResponse	"Instance or macro not found"
//	@Router			/lodestone/api/v1/instances/{uuid}/macros/{name} [post]
func (ic *InstanceController) RunMacro(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	pid, err := sup.RunMacro(c.Param("name"))
	if err != nil {
		respondError(c, "instance.macro_failed", err)
		return
	}
	c.JSON(200, gin.H{"pid": pid})
}

// ListMacroTasks lists all tracked macro executions
//
//	@Summary		List macro tasks
//	@Description	Get all macro task entries in submission order
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Success		200	{array}	models.TaskEntry	"Macro task entries"
//	@Router			/lodestone/api/v1/macros/tasks [get]
func (ic *InstanceController) ListMacroTasks(c *gin.Context) {
	c.JSON(200, ic.manager.Macros().GetTasks())
}

// BackupNow triggers an immediate backup
//
//	@Summary		Backup now
//	@Description	Perform a backup immediately, out of band from the periodic cadence
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	map[string]interface{}	"Backup scheduled response"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/backup [post]
func (ic *InstanceController) BackupNow(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	sup.BackupNow()
	c.JSON(200, gin.H{"status": "success"})
}

type backupPeriodRequest struct {
	Period *uint32 `json:"period"`
}

// SetBackupPeriod changes the automatic backup period
//
//	@Summary		Set backup period
//	@Description	Change the automatic backup period in seconds, null disables periodic backups
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			request	body		backupPeriodRequest		true	"New period"
//	@Success		200		{object}	map[string]interface{}	"Period updated response"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/backup/period [put]
func (ic *InstanceController) SetBackupPeriod(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	var req backupPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, &models.ErrorResponse{
			Code:  "instance.bad_period",
			Error: err.Error(),
		})
		return
	}
	sup.SetBackupPeriod(req.Period)
	c.JSON(200, gin.H{"status": "success"})
}

// PauseBackups pauses automatic backups
//
//	@Summary		Pause backups
//	@Description	Pause the automatic backup scheduler of the instance
//	@Tags			Instances
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	map[string]interface{}	"Pause response"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/backup/pause [post]
func (ic *InstanceController) PauseBackups(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	sup.PauseBackups()
	c.JSON(200, gin.H{"status": "success"})
}

// ResumeBackups resumes automatic backups
//
//	@Summary		Resume backups
//	@Description	Resume the automatic backup scheduler of the instance
//	@Tags			Instances
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	map[string]interface{}	"Resume response"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/backup/resume [post]
func (ic *InstanceController) ResumeBackups(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	sup.ResumeBackups()
	c.JSON(200, gin.H{"status": "success"})
}

type configUpdateRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Port           *uint32 `json:"port"`
	MinRAM         *uint32 `json:"min_ram"`
	MaxRAM         *uint32 `json:"max_ram"`
	StartCommand   *string `json:"cmd_args"`
	AutoStart      *bool   `json:"auto_start"`
	RestartOnCrash *bool   `json:"restart_on_crash"`
}

// UpdateConfig updates well-known typed configuration fields
//
//	@Summary		Update instance configuration
//	@Description	Update typed fields (name, description, port, ram bounds, cmd_args, auto_start, restart_on_crash); absent fields stay unchanged
//	@Tags			Instances
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			request	body		configUpdateRequest		true	"Fields to update"
//	@Success		200		{object}	models.InstanceDetail	"Instance detail after update"
//	@Failure		400		{object}	models.ErrorResponse	"Validation failure"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/config [put]
func (ic *InstanceController) UpdateConfig(c *gin.Context) {
	sup := ic.lookup(c)
	if sup == nil {
		return
	}
	var req configUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, &models.ErrorResponse{
			Code:  "instance.bad_config",
			Error: err.Error(),
		})
		return
	}
	if req.Name != nil {
		if err := sup.SetName(*req.Name); err != nil {
			respondError(c, "instance.bad_name", err)
			return
		}
	}
	if req.Description != nil {
		sup.SetDescription(*req.Description)
	}
	if req.Port != nil {
		if err := sup.SetPort(*req.Port); err != nil {
			respondError(c, "instance.bad_port", err)
			return
		}
	}
	if req.MinRAM != nil || req.MaxRAM != nil {
		min, max := sup.MinRAM(), sup.MaxRAM()
		if req.MinRAM != nil {
			min = *req.MinRAM
		}
		if req.MaxRAM != nil {
			max = *req.MaxRAM
		}
		if err := sup.SetRAMBounds(min, max); err != nil {
			respondError(c, "instance.bad_ram", err)
			return
		}
	}
	if req.StartCommand != nil {
		sup.SetStartCommand(*req.StartCommand)
	}
	if req.AutoStart != nil {
		sup.SetAutoStart(*req.AutoStart)
	}
	if req.RestartOnCrash != nil {
		sup.SetRestartOnCrash(*req.RestartOnCrash)
	}
	c.JSON(200, sup.Detail())
}
