package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/middleware"
	"github.com/gtrack/backend/internal/service"
)

type DashboardHandler struct {
	projectService      *service.ProjectService
	issueService        *service.IssueService
	notificationService *service.NotificationService
}

func NewDashboardHandler(projectService *service.ProjectService, issueService *service.IssueService, notificationService *service.NotificationService) *DashboardHandler {
	return &DashboardHandler{
		projectService:      projectService,
		issueService:        issueService,
		notificationService: notificationService,
	}
}

// GET /dashboard
//
// Role-scoped overview: visible projects, issue counts by status and
// priority, five most recently updated issues, and the nav badge numbers.
func (h *DashboardHandler) Overview(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	projects, err := h.projectService.VisibleProjects(user)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	projectIDs := make([]uint, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
	}

	statusCounts, err := h.issueService.CountsByStatus(projectIDs)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	priorityCounts, err := h.issueService.CountsByPriority(projectIDs)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	recent, err := h.issueService.RecentIssues(projectIDs, 5)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	navCounts, err := h.issueService.NavCounts(user.ID, time.Now())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	unread, err := h.notificationService.UnreadCount(user.ID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{
		"projects":             projects,
		"issue_counts":         statusCounts,
		"priority_counts":      priorityCounts,
		"recent_issues":        recent,
		"nav_counts":           navCounts,
		"unread_notifications": unread,
	})
}

// GET /dashboard/activity
//
// The Team Lead / Director feed: board-visible issues created in the last
// 60 days across the caller's visible projects, newest first.
func (h *DashboardHandler) Activity(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	projectIDs, err := h.projectService.VisibleProjectIDs(user)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	cutoff := time.Now().AddDate(0, 0, -60)
	updates, err := h.issueService.RecentActivity(projectIDs, cutoff)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"status_updates": updates})
}
