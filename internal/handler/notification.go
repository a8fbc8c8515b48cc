package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/middleware"
	"github.com/gtrack/backend/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	notifications, err := h.notificationService.List(userID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"list": notifications, "total": len(notifications)})
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"unread": count})
}

// POST /notifications/mark-read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	if err := h.notificationService.MarkAllRead(userID); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"message": "all notifications marked as read"})
}
