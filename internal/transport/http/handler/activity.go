package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-diet/internal/app"
	"daily-diet/internal/transport/http/middleware"
	"daily-diet/internal/transport/http/response"
)

type ActivityHandler struct {
	activityService *app.ActivityService
}

func NewActivityHandler(activityService *app.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) Register(group *gin.RouterGroup) {
	group.GET("/activity", middleware.RequireSession(), h.List)
}

func (h *ActivityHandler) List(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	events, err := h.activityService.List(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingCredential):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list activity failed")
		}
		return
	}

	response.OK(c, events)
}
