// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/auth"
	"StudentShift-backend/internal/controller/application"
	"StudentShift-backend/internal/controller/listing"
	"StudentShift-backend/internal/controller/message"
	"StudentShift-backend/internal/controller/profile"
	"StudentShift-backend/internal/middleware"
	"StudentShift-backend/internal/model"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Config.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.SafeHeader(), middleware.SizeLimit(s.Config.MaxBodyBytes))

	lAuth := auth.NewLocalAuthHandler(s.DB, s.Tokens, s.AuthLog)
	logout := auth.NewLogoutController(s.Blacklist)
	applications := application.NewApplicationController(s.Ledger)
	listings := listing.NewListingController(s.DB, s.Ledger)
	messages := message.NewMessageController(s.Threads)
	profiles := profile.NewProfileController(s.DB)

	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("register", middleware.RateLimiterMiddleware(s.Config.RateLimitPerSecond), lAuth.LocalRegisterHandler)
			authRoute.POST("login", middleware.RateLimiterMiddleware(s.Config.RateLimitPerSecond), lAuth.LocalLoginHandler)
		}

		needAuth := v1.Group("")
		{
			needAuth.Use(
				middleware.RequireAuth(s.DB, s.Tokens),
				middleware.JwtBlacklistCheck(s.Blacklist),
				middleware.RateLimiterMiddleware(s.Config.RateLimitPerSecond),
			)

			needAuth.GET("auth/me", lAuth.MeHandler)
			needAuth.POST("auth/logout", logout.LogoutHandler)

			listingRoute := needAuth.Group("/listings")
			{
				listingRoute.GET("", listings.GetListings)
				listingRoute.GET("/mine", middleware.CheckRole(model.RoleEmployer), listings.GetMyListings)
				listingRoute.GET("/:id", listings.GetListingByID)
				listingRoute.Use(middleware.CheckRole(model.RoleEmployer))
				listingRoute.POST("", listings.CreateListingHandler)
				listingRoute.PUT("/:id", listings.EditListing)
				listingRoute.PATCH("/:id/status", listings.UpdateListingStatus)
				listingRoute.DELETE("/:id", listings.DeleteListing)
			}

			applicationRoute := needAuth.Group("/applications")
			{
				applicationRoute.POST("", middleware.CheckRole(model.RoleStudent), applications.ApplicationHandler)
				applicationRoute.GET("/me", middleware.CheckRole(model.RoleStudent), applications.MyApplicationsHandler)
				applicationRoute.GET("/listing/:id", middleware.CheckRole(model.RoleEmployer), applications.ListApplicantsHandler)
				applicationRoute.PATCH("/:id/status", middleware.CheckRole(model.RoleEmployer), applications.UpdateStatusHandler)
			}

			messageRoute := needAuth.Group("/messages")
			{
				messageRoute.POST("", messages.PostMessageHandler)
				messageRoute.GET("", messages.GetMessagesHandler)
				messageRoute.GET("/threads", messages.GetThreadsHandler)
				messageRoute.PATCH("/read", messages.MarkReadHandler)
			}

			profileRoute := needAuth.Group("/profiles")
			{
				profileRoute.GET("/me", middleware.CheckRole(model.RoleStudent), profiles.GetMyProfile)
				profileRoute.GET("/:user_id", profiles.GetProfile)
				profileRoute.PUT("/:user_id", middleware.CheckRole(model.RoleStudent), profiles.EditProfile)
			}
		}
	}

	return r
}

func (s *MyServer) healthHandler(c *gin.Context) {
	stats := s.DB.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
