// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ridematch/internal/http/handlers"
	"ridematch/internal/http/middleware"
	"ridematch/internal/logger"
)

type RouterDeps struct {
	Trips    handlers.TripQuoter
	Rides    handlers.RideService
	Nearby   handlers.NearbyFinder
	Finder   handlers.RideRecommender
	Profiles handlers.ProfileService
	Feedback handlers.FeedbackQueue // optional
	Geocoder handlers.Geocoder      // optional
	Log      *zap.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	log := logger.OrNop(d.Log)

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")

	routeHandler := handlers.NewRouteHandler(d.Trips)
	api.POST("/routes/estimate", routeHandler.Estimate)

	rideHandler := handlers.NewRideHandler(d.Rides, d.Nearby)
	api.POST("/rides", rideHandler.Create)
	api.GET("/rides/nearby", rideHandler.Nearby)
	api.GET("/rides/:id", rideHandler.Get)
	api.PATCH("/rides/:id/status", rideHandler.UpdateStatus)

	riderHandler := handlers.NewRiderHandler(d.Finder, d.Profiles, d.Feedback)
	api.GET("/riders/:id/profile", riderHandler.GetProfile)
	api.PUT("/riders/:id/preferences", riderHandler.UpdatePreferences)
	api.POST("/riders/:id/recommendations", riderHandler.Recommend)
	api.POST("/riders/:id/feedback", riderHandler.Feedback)

	if d.Geocoder != nil {
		geocodeHandler := handlers.NewGeocodeHandler(d.Geocoder)
		api.GET("/geocode", geocodeHandler.Lookup)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}
