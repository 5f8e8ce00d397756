package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/domain/events"
	"github.com/ashleyhua/get-litty/internal/app/domain/schedule"
	"github.com/ashleyhua/get-litty/internal/pkg/config"
)

type AppHandlers struct {
	Events   *events.Handlers
	Schedule *schedule.Handlers
}

func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) {
	handlers := setupDependencies(dbPool, cfg, log)
	setupRouter(r, handlers)
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	eventsRepo := events.NewRepository(dbPool, log)
	eventsService := events.NewService(eventsRepo, cfg.SummaryCacheTTL, log)

	scheduleRepo := schedule.NewRepository(dbPool, log)
	scheduleService := schedule.NewService(scheduleRepo, log)

	return &AppHandlers{
		Events:   events.NewHandlers(eventsService, cfg.ResultLimit, log),
		Schedule: schedule.NewHandlers(scheduleService, log),
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers) {
	ev := r.Group("/events")
	{
		ev.GET("/random", h.Events.RandomEvent)
		ev.GET("/cheapest", h.Events.CheapestLodging)
		ev.GET("/illinois-cheapest", h.Events.IllinoisCheapest)
		ev.GET("/most-availability", h.Events.MostAvailability)
		ev.GET("/chicago-below-avg", h.Events.ChicagoBelowAverage)
		ev.GET("/recommendations", h.Events.Recommendations)
		ev.GET("/search", h.Events.SearchEvents)
		ev.GET("/:eventId/top-listings", h.Events.TopListings)
	}

	user := r.Group("/user")
	{
		user.POST("/events", h.Schedule.AddEvent)
		user.GET("/:userId/events", h.Schedule.ListEvents)
		user.DELETE("/events", h.Schedule.RemoveEvent)
		user.PUT("/events/housing", h.Schedule.SetHousing)
		user.POST("/events/bulk-add-city", h.Schedule.BulkAddCity)
	}
}
