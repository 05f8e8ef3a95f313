package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/florentincondu/proiect-web-sub000/internal/api/handlers"
	"github.com/florentincondu/proiect-web-sub000/internal/api/middleware"
	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/email"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, svc *services.Registry, effects handlers.SideEffects, s3Storage storage.IS3Storage, taskClient handlers.IAsynqClient) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg, svc.Settings)

	// ErrorHandler goes first so it sees the errors of everything after it.
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigins))
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(cfg, svc.Users, svc.Approvals, effects)
	userHandler := handlers.NewUserHandler(cfg, svc.Users)
	hotelHandler := handlers.NewHotelHandler(svc.Hotels, s3Storage, taskClient)
	bookingHandler := handlers.NewBookingHandler(svc.Bookings, svc.Payments, effects)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments, effects)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	supportHandler := handlers.NewSupportHandler(svc.Tickets, effects)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings)
	adminHandler := handlers.NewAdminHandler(svc.Dashboard, svc.Logs, svc.Approvals, effects)

	requireAuth := middleware.AuthMiddleware(cfg.JwtSecret)
	hostOrAdmin := middleware.RequireRoles(models.RoleAdmin, models.RoleHost)
	adminOnly := []gin.HandlerFunc{middleware.AdminMiddleware(), middleware.AdminAudit(svc.Logs)}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", healthCheck(db))
		apiGroup.GET("/settings/public", settingsHandler.Public)

		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/admin-verification/:token", authHandler.AdminVerification)
		authGroup.GET("/me", requireAuth, authHandler.Me)
		authGroup.POST("/request-admin", requireAuth, authHandler.RequestAdmin)

		usersGroup := apiGroup.Group("/users", requireAuth)
		usersGroup.PUT("/me", userHandler.UpdateMe)
		usersGroup.PUT("/me/password", userHandler.ChangePassword)

		hotelsGroup := apiGroup.Group("/hotels")
		hotelsGroup.GET("", hotelHandler.Search)
		hotelsGroup.GET("/:id", hotelHandler.Get)
		hotelsGroup.GET("/:id/availability", hotelHandler.Availability)
		hotelsGroup.GET("/:id/reviews", reviewHandler.ListForHotel)
		hotelsGroup.POST("", requireAuth, hostOrAdmin, hotelHandler.Create)
		hotelsGroup.PUT("/:id", requireAuth, hostOrAdmin, hotelHandler.Update)
		hotelsGroup.DELETE("/:id", requireAuth, hostOrAdmin, hotelHandler.Delete)
		hotelsGroup.POST("/:id/images", requireAuth, hostOrAdmin, hotelHandler.ConfirmImage)
		apiGroup.POST("/uploads/hotel-image", requireAuth, hostOrAdmin, hotelHandler.UploadURL)

		bookingsGroup := apiGroup.Group("/bookings", requireAuth)
		bookingsGroup.POST("/hotel", bookingHandler.CreateHotelBooking)
		bookingsGroup.GET("", bookingHandler.List)
		bookingsGroup.GET("/:id", bookingHandler.Get)
		bookingsGroup.PUT("/confirm/:id", bookingHandler.Confirm)
		bookingsGroup.PUT("/cancel/:id", bookingHandler.Cancel)
		bookingsAdmin := bookingsGroup.Group("", adminOnly...)
		bookingsAdmin.PUT("/:id/payment-status", bookingHandler.UpdatePaymentStatus)
		bookingsAdmin.PUT("/:id/complete", bookingHandler.Complete)

		paymentsGroup := apiGroup.Group("/payments", requireAuth)
		paymentsGroup.POST("/process", paymentHandler.Process)
		paymentsAdmin := paymentsGroup.Group("", adminOnly...)
		paymentsAdmin.POST("/refund", paymentHandler.Refund)
		paymentsAdmin.POST("/invoice", paymentHandler.CreateInvoice)
		paymentsAdmin.PUT("/:id/status", paymentHandler.UpdateStatus)
		paymentsGroup.GET("", paymentHandler.List)
		paymentsGroup.GET("/:id", paymentHandler.Get)
		paymentsGroup.GET("/:id/invoice", paymentHandler.Invoice)
		paymentsGroup.GET("/:id/invoice-pdf", paymentHandler.InvoicePDF)

		reviewsGroup := apiGroup.Group("/reviews", requireAuth)
		reviewsGroup.POST("", reviewHandler.Create)
		reviewsGroup.DELETE("/:id", reviewHandler.Delete)
		reviewsGroup.Group("", adminOnly...).POST("/:id/response", reviewHandler.Respond)

		notificationsGroup := apiGroup.Group("/notifications", requireAuth)
		notificationsGroup.GET("", notificationHandler.List)
		notificationsGroup.GET("/unread-count", notificationHandler.UnreadCount)
		notificationsGroup.PUT("/read-all", notificationHandler.MarkAllRead)
		notificationsGroup.PUT("/:id/read", notificationHandler.MarkRead)
		notificationsGroup.DELETE("/:id", notificationHandler.Delete)

		supportGroup := apiGroup.Group("/support", requireAuth)
		supportGroup.POST("", supportHandler.Create)
		supportGroup.GET("", supportHandler.ListMine)
		supportGroup.GET("/:id", supportHandler.Get)
		supportGroup.POST("/:id/messages", supportHandler.AddMessage)
		supportGroup.PUT("/:id/close", supportHandler.Close)

		adminGroup := apiGroup.Group("/admin", requireAuth)
		adminGroup.Use(adminOnly...)
		{
			adminGroup.GET("/dashboard", adminHandler.Dashboard)
			adminGroup.GET("/logs", adminHandler.Logs)

			adminGroup.GET("/users", userHandler.List)
			adminGroup.PUT("/users/:id/role", userHandler.SetRole)
			adminGroup.PUT("/users/:id/suspend", userHandler.Suspend)
			adminGroup.PUT("/users/:id/unsuspend", userHandler.Unsuspend)

			adminGroup.GET("/bookings", bookingHandler.List)
			adminGroup.GET("/payments", paymentHandler.List)

			adminGroup.GET("/settings", settingsHandler.List)
			adminGroup.PUT("/settings/:key", settingsHandler.Set)

			adminGroup.GET("/support", supportHandler.List)
			adminGroup.PUT("/support/:id/status", supportHandler.UpdateStatus)

			adminGroup.GET("/admin-requests", adminHandler.AdminRequests)
			adminGroup.POST("/admin-requests/:id/approve", adminHandler.ApproveRequest)
			adminGroup.POST("/admin-requests/:id/reject", adminHandler.RejectRequest)
		}
	}

	return r
}

func healthCheck(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Client().Ping(ctx, nil); err != nil {
			log.Printf("Health check: MongoDB ping failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up", "time": time.Now().UTC()})
	}
}

// SetupServiceRouter configures the internal service API used by operators and the integration tests.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // ["template_id", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [templateID, email]"})
				return
			}
			redisKey := email.MockEmailKey(args[1], args[0])

			var stored string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			// The e-mail is delivered by a worker, so give it a moment to land.
			for i := 0; i < 10; i++ {
				stored, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(stored), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		case "runMode":
			c.JSON(http.StatusOK, gin.H{"success": true, "result": cfg.RunMode})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
