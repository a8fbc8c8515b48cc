package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/handler"
	"github.com/gtrack/backend/internal/middleware"
	"github.com/gtrack/backend/internal/model"
	"gorm.io/gorm"
)

type Deps struct {
	DB                  *gorm.DB
	JWTSecret           string
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	ProjectHandler      *handler.ProjectHandler
	IssueHandler        *handler.IssueHandler
	NotificationHandler *handler.NotificationHandler
	DashboardHandler    *handler.DashboardHandler
}

func Setup(r *gin.Engine, deps Deps) {
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api/v1")

	// Public routes (no auth)
	auth := api.Group("/auth")
	{
		auth.POST("/otp/request", deps.AuthHandler.RequestOTP)
		auth.POST("/otp/verify", deps.AuthHandler.VerifyOTP)
	}

	// Authenticated routes
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.DB))
	{
		authed.GET("/auth/me", deps.AuthHandler.GetMe)

		// Dashboards
		authed.GET("/dashboard", deps.DashboardHandler.Overview)
		authed.GET("/dashboard/activity", deps.DashboardHandler.Activity)

		// Team directory + invites
		authed.GET("/team", deps.UserHandler.TeamList)
		authed.POST("/invites",
			middleware.RequireRole(model.RoleBoss, model.RoleLead),
			deps.UserHandler.Invite)

		// Departments
		authed.GET("/departments/:code", deps.ProjectHandler.DepartmentOverview)

		// Projects
		projects := authed.Group("/projects")
		{
			projects.POST("", deps.ProjectHandler.Create)
			projects.GET("", deps.ProjectHandler.List)
			projects.GET("/:id", deps.ProjectHandler.GetDetail)
			projects.PUT("/:id", deps.ProjectHandler.Update)
			projects.DELETE("/:id",
				middleware.RequireRole(model.RoleBoss, model.RoleLead),
				deps.ProjectHandler.Delete)
			projects.PUT("/:id/members",
				middleware.RequireRole(model.RoleBoss, model.RoleLead),
				deps.ProjectHandler.UpdateMembers)

			projects.GET("/:id/board", deps.ProjectHandler.Board)
			projects.POST("/:id/board", deps.ProjectHandler.BoardAction)

			projects.POST("/:id/issues", deps.IssueHandler.Create)
			projects.POST("/:id/attachments", deps.ProjectHandler.AddAttachment)
		}
		authed.DELETE("/project-attachments/:id", deps.ProjectHandler.DeleteAttachment)

		// Issues
		issues := authed.Group("/issues")
		{
			issues.GET("/:id", deps.IssueHandler.GetDetail)
			issues.PUT("/:id", deps.IssueHandler.Update)
			issues.POST("/:id/status", deps.IssueHandler.UpdateStatus)
			issues.POST("/:id/comments", deps.IssueHandler.AddComment)
			issues.POST("/:id/attachments", deps.IssueHandler.AddAttachment)
		}
		authed.DELETE("/comments/:id", deps.IssueHandler.DeleteComment)
		authed.DELETE("/attachments/:id", deps.IssueHandler.DeleteAttachment)

		// Personal task list
		authed.GET("/my-tasks", deps.IssueHandler.MyTasks)

		// Notifications
		notifications := authed.Group("/notifications")
		{
			notifications.GET("", deps.NotificationHandler.List)
			notifications.GET("/unread-count", deps.NotificationHandler.UnreadCount)
			notifications.POST("/mark-read", deps.NotificationHandler.MarkAllRead)
		}
	}
}
