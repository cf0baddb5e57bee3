package http

import (
	"github.com/gin-gonic/gin"

	"daily-diet/internal/bootstrap"
	"daily-diet/internal/transport/http/handler"
	"daily-diet/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.Metrics(),
		middleware.SessionCookie(app.Resolver, app.Config.Session.CookieName),
		middleware.AccessLog(app.Logger),
	)

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(app.MetricsHandler))

	mealHandler := handler.NewMealHandler(app.MealService, app.Resolver, app.Config.Session, app.Logger)
	activityHandler := handler.NewActivityHandler(app.Activity)
	meals := router.Group("/meals")
	mealHandler.Register(meals)
	activityHandler.Register(meals)

	return router
}
