package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/LodestoneMC-org/backend/internal/manifest"
	"github.com/LodestoneMC-org/backend/internal/models"
	"github.com/LodestoneMC-org/backend/services"
)

type SettingsController struct {
	manager *services.InstanceManager
}

/**
 * Create new settings controller
 * @param {*services.InstanceManager} manager - Instance manager holding all supervisors
 * @returns {*SettingsController} New settings controller
 */
func NewSettingsController(manager *services.InstanceManager) *SettingsController {
	return &SettingsController{
		manager: manager,
	}
}

/**
 * Register settings API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for:
 *   - Whole manifest retrieval
 *   - Section retrieval by id
 *   - Single setting get/update
 *   - Atomic bulk apply
 */
func (sc *SettingsController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/lodestone/api/v1")
	api.GET("/instances/:uuid/settings", sc.GetManifest)
	api.GET("/instances/:uuid/settings/:section", sc.GetSection)
	api.GET("/instances/:uuid/settings/:section/:key", sc.GetSetting)
	api.PUT("/instances/:uuid/settings/:section/:key", sc.UpdateSetting)
	api.PUT("/instances/:uuid/settings", sc.ApplySettings)
}

func (sc *SettingsController) lookup(c *gin.Context) *services.InstanceSupervisor {
	instanceUUID := c.Param("uuid")
	sup, err := sc.manager.GetInstance(instanceUUID)
	if err != nil {
		c.JSON(404, &models.ErrorResponse{
			Code:  "instance.notexist",
			Error: err.Error(),
		})
		return nil
	}
	return sup
}

// GetManifest returns the full settings manifest of an instance
//
//	@Summary		Get settings manifest
//	@Description	Get the full configurable manifest including capability flags and all sections
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Success		200		{object}	map[string]interface{}	"Configurable manifest"
//	@Failure		404		{object}	models.ErrorResponse	"Instance not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/settings [get]
func (sc *SettingsController) GetManifest(c *gin.Context) {
	sup := sc.lookup(c)
	if sup == nil {
		return
	}
	data, err := sup.ManifestJSON()
	if err != nil {
		respondError(c, "setting.manifest_failed", err)
		return
	}
	c.Data(200, "application/json; charset=utf-8", data)
}

// GetSection returns one manifest section
//
//	@Summary		Get settings section
//	@Description	Get one manifest section with its settings in storage order
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			section	path		string					true	"Section id"
//	@Success		200		{object}	map[string]interface{}	"Section manifest"
//	@Failure		404		{object}	models.ErrorResponse	"Section not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/settings/{section} [get]
func (sc *SettingsController) GetSection(c *gin.Context) {
	sup := sc.lookup(c)
	if sup == nil {
		return
	}
	data, err := sup.SectionSettingsJSON(c.Param("section"))
	if err != nil {
		respondError(c, "setting.section_notexist", err)
		return
	}
	c.Data(200, "application/json; charset=utf-8", data)
}

// GetSetting returns one setting
//
//	@Summary		Get single setting
//	@Description	Get one setting by section id and setting key
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			section	path		string					true	"Section id"
//	@Param			key		path		string					true	"Setting key"
//	@Success		200		{object}	map[string]interface{}	"Setting manifest"
//	@Failure		404		{object}	models.ErrorResponse	"Setting not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/settings/{section}/{key} [get]
func (sc *SettingsController) GetSetting(c *gin.Context) {
	sup := sc.lookup(c)
	if sup == nil {
		return
	}
	setting, err := sup.GetSetting(c.Param("section"), c.Param("key"))
	if err != nil {
		respondError(c, "setting.notexist", err)
		return
	}
	c.JSON(200, setting)
}

type settingUpdateRequest struct {
	Value manifest.ConfigurableValue `json:"value" binding:"required"`
}

// UpdateSetting validates and stores one setting value
//
//	@Summary		Update single setting
//	@Description	Type-check the candidate value against the setting constraints and persist it
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			section	path		string					true	"Section id"
//	@Param			key		path		string					true	"Setting key"
//	@Param			request	body		settingUpdateRequest	true	"Candidate value"
//	@Success		200		{object}	map[string]interface{}	"Update success response"
//	@Failure		400		{object}	models.ErrorResponse	"Type or constraint violation"
//	@Failure		404		{object}	models.ErrorResponse	"Setting not found error response"
//	@Router			/lodestone/api/v1/instances/{uuid}/settings/{section}/{key} [put]
func (sc *SettingsController) UpdateSetting(c *gin.Context) {
	sup := sc.lookup(c)
	if sup == nil {
		return
	}
	var req settingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, &models.ErrorResponse{
			Code:  "setting.bad_value",
			Error: err.Error(),
		})
		return
	}
	if err := sup.UpdateSetting(c.Param("section"), c.Param("key"), req.Value); err != nil {
		respondError(c, "setting.update_failed", err)
		return
	}
	c.JSON(200, gin.H{"status": "success"})
}

// ApplySettings applies a batch of setting values atomically
//
//	@Summary		Apply settings batch
//	@Description	Validate every candidate value first, then commit all of them; one failure rejects the whole batch
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			uuid	path		string					true	"Instance uuid"
//	@Param			request	body		manifest.ManifestValue	true	"Candidate manifest values"
//	@Success		200		{object}	map[string]interface{}	"Apply success response"
//	@Failure		400		{object}	models.ErrorResponse	"Validation failure, nothing was applied"
//	@Failure		404		{object}	models.ErrorResponse	"Unknown section or setting in batch"
//	@Router			/lodestone/api/v1/instances/{uuid}/settings [put]
func (sc *SettingsController) ApplySettings(c *gin.Context) {
	sup := sc.lookup(c)
	if sup == nil {
		return
	}
	var candidate manifest.ManifestValue
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(400, &models.ErrorResponse{
			Code:  "setting.bad_batch",
			Error: err.Error(),
		})
		return
	}
	if err := sup.ApplySettings(candidate); err != nil {
		respondError(c, "setting.apply_failed", err)
		return
	}
	c.JSON(200, gin.H{"status": "success"})
}
