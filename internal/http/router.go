// README: HTTP router registration.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ridecore/internal/http/handlers"
	"ridecore/internal/http/middleware"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDeps struct {
	Vehicles  handlers.VehicleService
	Fleet     handlers.FleetReloader
	Booking   handlers.BookingService
	Offers    handlers.OfferService
	Reviews   handlers.ReviewService
	Location  handlers.LocationService
	Distancer handlers.Distancer

	DefaultCount int
	MaxCount     int
	NearbyKm     float64
	AdminToken   string

	Health map[string]HealthCheck
	Log    *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log), middleware.Metrics())

	api := r.Group("/api")

	vehicleHandler := handlers.NewVehicleHandler(deps.Vehicles, deps.Booking, deps.Distancer)
	locationHandler := handlers.NewLocationHandler(deps.Location, deps.NearbyKm)
	reviewHandler := handlers.NewReviewHandler(deps.Reviews)

	api.GET("/vehicles", vehicleHandler.List)
	api.GET("/vehicles/nearby", locationHandler.Nearby)
	api.GET("/vehicles/:id", vehicleHandler.Get)
	api.POST("/vehicles/:id/book", vehicleHandler.Book)
	api.POST("/vehicles/:id/finish", vehicleHandler.Finish)
	api.GET("/vehicles/:id/positions", locationHandler.History)
	api.GET("/vehicles/:id/reviews", reviewHandler.ListForVehicle)

	offerHandler := handlers.NewOfferHandler(deps.Offers, deps.Distancer, deps.DefaultCount, deps.MaxCount)
	api.POST("/offers", offerHandler.Create)

	api.GET("/users/:email/reviews", reviewHandler.ListForUser)
	api.GET("/reviews/:id", reviewHandler.Get)
	api.POST("/reviews/:id", reviewHandler.Submit)

	adminHandler := handlers.NewAdminHandler(deps.Fleet)
	admin := api.Group("/admin", middleware.AdminToken(deps.AdminToken))
	admin.POST("/fleet/reload", adminHandler.ReloadFleet)

	r.GET("/health", health(deps.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
	}
}
