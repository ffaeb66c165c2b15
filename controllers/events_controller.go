package controllers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/LodestoneMC-org/backend/services"
)

type EventsController struct {
	events *services.EventService
}

/**
 * Create new events controller
 * @param {*services.EventService} events - Shared event fan-out service
 * @returns {*EventsController} New events controller
 */
func NewEventsController(events *services.EventService) *EventsController {
	return &EventsController{
		events: events,
	}
}

/**
 * Register event API routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 */
func (ec *EventsController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/lodestone/api/v1")
	api.GET("/events", ec.StreamEvents)
}

// StreamEvents streams instance events over SSE
//
//	@Summary		Stream events
//	@Description	Subscribe to state transitions, console output, progression and backup events as server-sent events. Optional instance_uuid query filters to one instance.
//	@Tags			Events
//	@Produce		text/event-stream
//	@Param			instance_uuid	query		string					false	"Only deliver events of this instance"
//	@Success		200				{object}	models.Event			"Event stream"
//	@Failure		500				{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/lodestone/api/v1/events [get]
func (ec *EventsController) StreamEvents(c *gin.Context) {
	instanceUUID := c.Query("instance_uuid")

	subscriberID, ch := ec.events.Subscribe()
	defer ec.events.Unsubscribe(subscriberID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// 客户端断开时Stream返回false，之后defer里退订
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			if instanceUUID != "" && event.InstanceUUID != instanceUUID {
				return true
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
