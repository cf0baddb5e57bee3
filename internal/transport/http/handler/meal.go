package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"daily-diet/internal/app"
	"daily-diet/internal/config"
	"daily-diet/internal/model"
	"daily-diet/internal/platform/logging"
	"daily-diet/internal/platform/metrics"
	"daily-diet/internal/transport/http/middleware"
	"daily-diet/internal/transport/http/response"
)

type MealHandler struct {
	mealService *app.MealService
	resolver    *app.SessionResolver
	cookie      config.SessionConfig
	logger      zerolog.Logger
}

type CreateMealRequest struct {
	Title       string  `json:"title" binding:"required,max=30"`
	Description *string `json:"description"`
	InDiet      *bool   `json:"in_diet" binding:"required"`
	CreatedAt   string  `json:"created_at"`
}

type EditMealRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	InDiet      *bool   `json:"in_diet"`
}

func NewMealHandler(
	mealService *app.MealService,
	resolver *app.SessionResolver,
	cookie config.SessionConfig,
	logger zerolog.Logger,
) *MealHandler {
	return &MealHandler{
		mealService: mealService,
		resolver:    resolver,
		cookie:      cookie,
		logger:      logging.For(logger, "meal_handler"),
	}
}

// Register mounts the meal routes. Only creation may run without a session cookie.
func (h *MealHandler) Register(group *gin.RouterGroup) {
	group.POST("/new", h.Create)

	owned := group.Group("", middleware.RequireSession())
	owned.GET("/list", h.List)
	owned.GET("/metrics", h.Metrics)
	owned.GET("/:id", h.Get)
	owned.DELETE("/delete/:id", h.Delete)
	owned.PATCH("/edit/:id", h.Edit)
}

func (h *MealHandler) Create(c *gin.Context) {
	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	current, _ := middleware.SessionID(c)
	sessionID, isNew := h.resolver.Resolve(current)

	_, err := h.mealService.Create(c.Request.Context(), app.CreateMealInput{
		SessionID:   sessionID,
		Title:       req.Title,
		Description: req.Description,
		InDiet:      *req.InDiet,
		CreatedAt:   req.CreatedAt,
	})
	metrics.ObserveMealOperation("create", err)
	if err != nil {
		h.writeError(c, err, "create meal failed")
		return
	}

	if isNew {
		h.setSessionCookie(c, sessionID)
	}
	response.NoContent(c)
}

func (h *MealHandler) List(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	meals, err := h.mealService.List(c.Request.Context(), sessionID)
	metrics.ObserveMealOperation("list", err)
	if err != nil {
		h.writeError(c, err, "list meals failed")
		return
	}
	if meals == nil {
		meals = []model.Meal{}
	}

	response.OK(c, meals)
}

func (h *MealHandler) Get(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	meal, err := h.mealService.Get(c.Request.Context(), sessionID, c.Param("id"))
	metrics.ObserveMealOperation("get", err)
	if err != nil {
		h.writeError(c, err, "get meal failed")
		return
	}
	if meal == nil {
		response.Empty(c, app.ErrMealNotFound.Error())
		return
	}

	response.OK(c, meal)
}

func (h *MealHandler) Edit(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	var req EditMealRequest
	// an empty body is an edit with no fields
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	err := h.mealService.Update(c.Request.Context(), sessionID, c.Param("id"), model.MealChanges{
		Title:       req.Title,
		Description: req.Description,
		InDiet:      req.InDiet,
	})
	metrics.ObserveMealOperation("edit", err)
	if err != nil {
		h.writeError(c, err, "edit meal failed")
		return
	}

	response.NoContent(c)
}

func (h *MealHandler) Delete(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	err := h.mealService.Delete(c.Request.Context(), sessionID, c.Param("id"))
	metrics.ObserveMealOperation("delete", err)
	if err != nil {
		h.writeError(c, err, "delete meal failed")
		return
	}

	response.NoContent(c)
}

func (h *MealHandler) Metrics(c *gin.Context) {
	sessionID, _ := middleware.SessionID(c)

	summary, err := h.mealService.Metrics(c.Request.Context(), sessionID)
	metrics.ObserveMealOperation("metrics", err)
	if err != nil {
		h.writeError(c, err, "compute metrics failed")
		return
	}

	response.OK(c, summary)
}

func (h *MealHandler) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cookie.CookieName,
		sessionID,
		h.cookie.MaxAgeSeconds(),
		h.cookie.Path,
		"",
		h.cookie.Secure,
		h.cookie.HTTPOnly,
	)
}

func (h *MealHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrMissingCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
	case errors.Is(err, app.ErrNotOwner), errors.Is(err, app.ErrMealNotFound):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "meal not found or owned by another session")
	default:
		h.logger.Error().Err(err).Str(logging.MealID, c.Param("id")).Msg(fallback)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
