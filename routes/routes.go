package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	controllers "github.com/phillip/travel-planner-go/controllers"
	middleware "github.com/phillip/travel-planner-go/middleware"
	models "github.com/phillip/travel-planner-go/models"
	utils "github.com/phillip/travel-planner-go/utils"
)

func init() {
	// Binding errors report json field names, like entity validation does.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(models.JSONTagName)
	}
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "ETag", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

// SetupRoutes builds the engine with every route of the API.
func SetupRoutes(env *controllers.Env) *gin.Engine {
	cfg := env.Config

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.RequestLogger(env.Logger),
		middleware.ErrorDetail(cfg.IsDevelopment()),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			utils.Logger(c).Error("panic recovered", "panic", recovered)
			utils.JSONError(c, http.StatusInternalServerError, "Server error")
		}),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	r.NoRoute(func(c *gin.Context) {
		utils.JSONError(c, http.StatusNotFound, "Route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		utils.JSONError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		code, status, dbStatus := http.StatusOK, "ok", "disconnected"
		if cfg.MongoClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.MongoClient.Ping(ctx, nil); err == nil {
				dbStatus = "connected"
			} else {
				code, status = http.StatusServiceUnavailable, "unavailable"
			}
		}
		c.JSON(code, gin.H{
			"success":     code == http.StatusOK,
			"status":      status,
			"environment": cfg.AppEnv,
			"database":    dbStatus,
			"time":        time.Now().UTC(),
		})
	})

	auth := middleware.AuthMiddleware(cfg.JWTSecret, env.Users, env.Now)
	optional := middleware.OptionalAuth(cfg.JWTSecret, env.Users, env.Now)
	admin := middleware.AdminOnly()

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", controllers.Register(env))
		authRoutes.POST("/login", controllers.Login(env))
		authRoutes.GET("/me", auth, controllers.Me(env))
		authRoutes.PUT("/password", auth, controllers.ChangePassword(env))
	}

	users := api.Group("/users")
	users.Use(auth)
	{
		users.GET("", admin, controllers.ListUsers(env))
		users.GET("/profile", controllers.Me(env))
		users.PUT("/profile", controllers.UpdateProfile(env))
		users.PUT("/preferences", controllers.UpdatePreferences(env))
		users.POST("/avatar", controllers.UploadAvatar(env))
		users.GET("/stats", controllers.UserStats(env))
		users.DELETE("/account", controllers.DeleteAccount(env))
	}

	itineraries := api.Group("/itineraries")
	{
		itineraries.GET("", optional, controllers.ListItineraries(env))
		itineraries.GET("/mine", auth, controllers.MyItineraries(env))
		itineraries.GET("/:id", optional, controllers.GetItinerary(env))
		itineraries.POST("", auth, controllers.CreateItinerary(env))
		itineraries.PUT("/:id", auth, controllers.UpdateItinerary(env))
		itineraries.DELETE("/:id", auth, controllers.DeleteItinerary(env))
		itineraries.POST("/:id/like", auth, controllers.LikeItinerary(env))
		itineraries.POST("/:id/images", auth, controllers.UploadItineraryImages(env))
		itineraries.POST("/:id/duplicate", auth, controllers.DuplicateItinerary(env))
	}

	bookings := api.Group("/bookings")
	bookings.Use(auth)
	{
		bookings.GET("", controllers.ListBookings(env))
		bookings.GET("/stats", controllers.BookingStats(env))
		bookings.GET("/reference/:ref", controllers.GetBookingByReference(env))
		bookings.GET("/:id", controllers.GetBooking(env))
		bookings.POST("", controllers.CreateBooking(env))
		bookings.PUT("/:id", controllers.UpdateBooking(env))
		bookings.PUT("/:id/cancel", controllers.CancelBooking(env))
		bookings.PUT("/:id/status", admin, controllers.UpdateBookingStatus(env))
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", optional, controllers.ListReviews(env))
		reviews.GET("/:id", optional, controllers.GetReview(env))
		reviews.POST("", auth, controllers.CreateReview(env))
		reviews.PUT("/:id", auth, controllers.UpdateReview(env))
		reviews.DELETE("/:id", auth, controllers.DeleteReview(env))
		reviews.POST("/:id/like", auth, controllers.LikeReview(env))
		reviews.POST("/:id/helpful", auth, controllers.MarkReviewHelpful(env))
		reviews.POST("/:id/comments", auth, controllers.AddReviewComment(env))
		reviews.POST("/:id/images", auth, controllers.UploadReviewImages(env))
		reviews.PUT("/:id/moderate", auth, admin, controllers.ModerateReview(env))
	}

	aiRoutes := api.Group("/ai")
	aiRoutes.Use(auth)
	{
		aiRoutes.POST("/generate-itinerary", controllers.GenerateItinerary(env))
		aiRoutes.POST("/suggestions", controllers.Suggestions(env))
	}

	hotels := api.Group("/hotels")
	{
		hotels.GET("/destinations", controllers.SearchDestinations(env))
		hotels.GET("/search", controllers.SearchHotels(env))
		hotels.GET("/:hotelId", controllers.GetHotel(env))
	}

	return r
}
