package routes

import (
	"net/http"
	"time"

	"slotchain/handlers"
	"slotchain/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterAvailabilityRoutes registers schedule and booking endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/availability")
	{
		api.POST("/book", hb.BookSlotHandler)
		api.POST("/:walletAddress", hb.SaveAvailabilityHandler)
		api.GET("/getAvailability/:walletAddress", hb.GetAvailabilityHandler)
		api.GET("/:walletAddress/slots", hb.GetAvailableSlotsHandler)
	}
}

// RegisterMeetingRoutes registers the nonce-gated meeting access endpoints.
func RegisterMeetingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/meetings")
	{
		api.POST("/nonce", hb.RequestNonceHandler)
		api.POST("/access", hb.AccessMeetingHandler)
	}
}

func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.LivenessHandler)
	r.GET("/health/ready", hb.ReadinessHandler)
}

// RegisterMetricsRoute exposes gatherer in the Prometheus text format.
func RegisterMetricsRoute(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RegisterRoutes centralizes registration of all endpoints.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, gatherer prometheus.Gatherer) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:   []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	RegisterHealthRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterMeetingRoutes(r, hb)
	if gatherer != nil {
		RegisterMetricsRoute(r, gatherer)
	}
}
