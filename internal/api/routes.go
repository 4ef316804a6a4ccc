package api

import (
	"net/http"

	"fieldops/sales-crm/internal/domain"
	"fieldops/sales-crm/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	feedbackService service.FeedbackService,
	directoryService service.DirectoryService,
) {
	authHandler := NewAuthHandler(authService)
	feedbackHandler := NewFeedbackHandler(feedbackService)
	directoryHandler := NewDirectoryHandler(directoryService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/otp/request", authHandler.RequestOTP)
			authGroup.POST("/otp/verify", authHandler.VerifyOTP)
			// Account creation is an admin operation.
			authGroup.POST("/register", authMiddleware, RoleMiddleware(domain.RoleAdmin), authHandler.Register)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Feedback Routes ---
		feedbackGroup := protected.Group("/feedback")
		{
			feedbackGroup.POST("/upload-url", feedbackHandler.RequestUploadURL)
			feedbackGroup.POST("", feedbackHandler.CreateFeedback)
			feedbackGroup.GET("", feedbackHandler.ListFeedback)
			feedbackGroup.GET("/:id", feedbackHandler.GetFeedback)
			feedbackGroup.GET("/:id/audio-url", feedbackHandler.GetPlaybackURL)
			feedbackGroup.PUT("/:id", feedbackHandler.UpdateFeedback)
			feedbackGroup.DELETE("/:id", feedbackHandler.DeleteFeedback)
		}

		// --- Directory Routes ---
		clientGroup := protected.Group("/clients")
		{
			clientGroup.GET("", directoryHandler.ListClients)
			clientGroup.POST("", directoryHandler.CreateClient)
			clientGroup.PUT("/:id", directoryHandler.UpdateClient)
			clientGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), directoryHandler.DeleteClient)
		}

		productGroup := protected.Group("/products")
		{
			productGroup.GET("", directoryHandler.ListProducts)
			productGroup.POST("", RoleMiddleware(domain.RoleAdmin), directoryHandler.CreateProduct)
			productGroup.PUT("/:id", RoleMiddleware(domain.RoleAdmin), directoryHandler.UpdateProduct)
			productGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), directoryHandler.DeleteProduct)
		}

		areaGroup := protected.Group("/areas")
		{
			areaGroup.GET("", directoryHandler.ListAreas)
			areaGroup.POST("", RoleMiddleware(domain.RoleAdmin), directoryHandler.CreateArea)
			areaGroup.DELETE("/:id", RoleMiddleware(domain.RoleAdmin), directoryHandler.DeleteArea)
		}

		// --- Salesman Roster (admin only) ---
		protected.GET("/salesmen", RoleMiddleware(domain.RoleAdmin), directoryHandler.ListSalesmen)
	}
}
