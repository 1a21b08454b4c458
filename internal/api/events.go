package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fouta-app/functions/internal/models"
)

// chatUpdate carries both sides of a chat document change
type chatUpdate struct {
	Before models.Chat `json:"before"`
	After  models.Chat `json:"after"`
}

func (r *Router) interactionCreated(c *gin.Context) {
	var in models.Interaction
	if err := c.ShouldBindJSON(&in); err != nil {
		r.sendError(c, NewError(http.StatusBadRequest, err.Error()))
		return
	}

	path, err := r.notifier.Queue(c.Request.Context(), in, r.now())
	if err != nil {
		r.sendError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": path != "", "path": path})
}

func (r *Router) messageCreated(c *gin.Context) {
	var msg models.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		r.sendError(c, NewError(http.StatusBadRequest, err.Error()))
		return
	}

	recipient, err := r.counters.OnMessageCreated(c.Request.Context(), c.Param("chatId"), msg)
	if err != nil {
		r.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipient": recipient})
}

func (r *Router) chatUpdated(c *gin.Context) {
	var update chatUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		r.sendError(c, NewError(http.StatusBadRequest, err.Error()))
		return
	}

	adjusted, err := r.counters.OnChatUpdated(c.Request.Context(), update.Before, update.After)
	if err != nil {
		r.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjusted": adjusted})
}
