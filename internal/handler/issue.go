package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/middleware"
	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/service"
	"github.com/gtrack/backend/internal/storage"
)

type IssueHandler struct {
	issueService   *service.IssueService
	projectService *service.ProjectService
	store          *storage.LocalStore
}

func NewIssueHandler(issueService *service.IssueService, projectService *service.ProjectService, store *storage.LocalStore) *IssueHandler {
	return &IssueHandler{
		issueService:   issueService,
		projectService: projectService,
		store:          store,
	}
}

// POST /projects/:id/issues
//
// Explicit issue creation is open to the project's owner and members, not
// to Directors browsing a project they don't belong to.
func (h *IssueHandler) Create(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	projectID := parseID(c.Param("id"))

	project, err := h.projectService.GetByID(projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if project.OwnerID != user.ID && !h.projectService.IsMember(projectID, user.ID) {
		NotFound(c, 40402, "project not found")
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		BadRequest(c, 40001, err.Error())
		return
	}

	issue, err := h.issueService.Create(projectID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, issue)
}

// GET /issues/:id
func (h *IssueHandler) GetDetail(c *gin.Context) {
	issue, err := h.issueService.GetByID(parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	comments, err := h.issueService.Comments(issue.ID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	attachments, err := h.issueService.Attachments(issue.ID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{
		"issue":       issue,
		"comments":    comments,
		"attachments": attachments,
	})
}

// PUT /issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Status != "" {
		if !model.ValidStatus(req.Status) {
			BadRequest(c, 40001, "invalid status")
			return
		}
		updates["status"] = req.Status
	}
	if req.Priority != "" {
		if !model.ValidPriority(req.Priority) {
			BadRequest(c, 40001, "invalid priority")
			return
		}
		updates["priority"] = req.Priority
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = *req.AssigneeID
	}
	if req.DueDate != "" {
		d, err := parseDate(req.DueDate)
		if err != nil {
			BadRequest(c, 40001, "invalid due_date")
			return
		}
		updates["due_date"] = d
	}
	if req.ShowOnBoard != nil {
		updates["show_on_board"] = *req.ShowOnBoard
	}

	issue, err := h.issueService.Update(parseID(c.Param("id")), updates, req.MemberIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, issue)
}

// POST /issues/:id/status. Assignee-only quick transition.
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}
	if err := h.issueService.UpdateStatus(parseID(c.Param("id")), user, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "status updated"})
}

// GET /my-tasks
func (h *IssueHandler) MyTasks(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	filter := service.TaskFilter{
		Status:   c.DefaultQuery("status", "all"),
		Priority: c.DefaultQuery("priority", "all"),
		Order:    c.Query("order"),
	}

	issues, err := h.issueService.MyTasks(user, filter)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	targets, err := h.issueService.ViewTargets(issues)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	summary, err := h.issueService.Summary(user.ID, time.Now())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	list := make([]gin.H, 0, len(issues))
	for i := range issues {
		issue := &issues[i]
		item := gin.H{
			"id":            issue.ID,
			"title":         issue.Title,
			"status":        issue.Status,
			"priority":      issue.Priority,
			"due_date":      issue.DueDate,
			"show_on_board": issue.ShowOnBoard,
			"updated_at":    issue.UpdatedAt,
			"view_issue_id": targets[issue.ID],
		}
		if issue.Project != nil {
			item["project"] = gin.H{"id": issue.Project.ID, "key": issue.Project.Key, "name": issue.Project.Name}
		}
		if issue.Assignee != nil {
			item["assignee"] = issue.Assignee.Brief()
		}
		list = append(list, item)
	}

	Success(c, gin.H{
		"issues":  list,
		"summary": summary,
	})
}

// POST /issues/:id/comments
func (h *IssueHandler) AddComment(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}
	comment, err := h.issueService.AddComment(parseID(c.Param("id")), user.ID, req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, comment)
}

// DELETE /comments/:id
func (h *IssueHandler) DeleteComment(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if err := h.issueService.DeleteComment(parseID(c.Param("id")), user); err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "comment deleted"})
}

// POST /issues/:id/attachments
func (h *IssueHandler) AddAttachment(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	issue, err := h.issueService.GetByID(parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, 40001, "file is required")
		return
	}
	src, err := fh.Open()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer src.Close()

	path, err := h.store.Save("attachments", fh.Filename, src)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	att, err := h.issueService.AddAttachment(issue.ID, user.ID, path, fh.Filename)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, att)
}

// DELETE /attachments/:id
func (h *IssueHandler) DeleteAttachment(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	path, err := h.issueService.DeleteAttachment(parseID(c.Param("id")), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	_ = h.store.Delete(path)
	Success(c, gin.H{"message": "attachment deleted"})
}

type issueRequest struct {
	Title       string `json:"title" binding:"omitempty,max=200"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssigneeID  *uint  `json:"assignee_id"`
	MemberIDs   []uint `json:"member_ids"`
	DueDate     string `json:"due_date"`
	ShowOnBoard *bool  `json:"show_on_board"`
}

func (r *issueRequest) toInput() (service.IssueInput, error) {
	due, err := parseDate(r.DueDate)
	if err != nil {
		return service.IssueInput{}, fmt.Errorf("invalid due_date")
	}
	return service.IssueInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		AssigneeID:  r.AssigneeID,
		MemberIDs:   r.MemberIDs,
		DueDate:     due,
	}, nil
}

// issueInputFromForm reads the multipart board-action fields.
func issueInputFromForm(c *gin.Context) (service.IssueInput, error) {
	input := service.IssueInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Status:      c.PostForm("status"),
		Priority:    c.PostForm("priority"),
	}
	if input.Status != "" && !model.ValidStatus(input.Status) {
		return input, fmt.Errorf("invalid status")
	}
	if input.Priority != "" && !model.ValidPriority(input.Priority) {
		return input, fmt.Errorf("invalid priority")
	}
	if s := c.PostForm("due_date"); s != "" {
		due, err := parseDate(s)
		if err != nil {
			return input, fmt.Errorf("invalid due_date")
		}
		input.DueDate = due
	}
	for _, raw := range c.PostFormArray("member_ids") {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return input, fmt.Errorf("invalid member id")
		}
		input.MemberIDs = append(input.MemberIDs, uint(id))
	}
	return input, nil
}
