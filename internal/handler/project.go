package handler

import (
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/middleware"
	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/service"
	"github.com/gtrack/backend/internal/storage"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	issueService   *service.IssueService
	store          *storage.LocalStore
}

func NewProjectHandler(projectService *service.ProjectService, issueService *service.IssueService, store *storage.LocalStore) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		issueService:   issueService,
		store:          store,
	}
}

// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user.Profile != nil && user.Profile.Role == model.RoleBoss {
		Forbidden(c, 40302, "Directors do not create projects")
		return
	}

	var req struct {
		Name         string `json:"name" binding:"required,max=100"`
		Key          string `json:"key" binding:"required,max=10"`
		Description  string `json:"description"`
		IssueDate    string `json:"issue_date"`
		DeadlineDate string `json:"deadline_date"`
		SOP          string `json:"sop"`
		ReferenceURL string `json:"reference_url" binding:"omitempty,url"`
		MemberIDs    []uint `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		BadRequest(c, 40001, "invalid issue_date")
		return
	}
	deadlineDate, err := parseDate(req.DeadlineDate)
	if err != nil {
		BadRequest(c, 40001, "invalid deadline_date")
		return
	}

	project, err := h.projectService.Create(user, service.ProjectInput{
		Name:         req.Name,
		Key:          req.Key,
		Description:  req.Description,
		IssueDate:    issueDate,
		DeadlineDate: deadlineDate,
		SOP:          req.SOP,
		ReferenceURL: req.ReferenceURL,
		MemberIDs:    req.MemberIDs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, projectDetail(project))
}

// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	projects, err := h.projectService.VisibleProjects(user)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	list := make([]gin.H, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		item := gin.H{
			"id":            p.ID,
			"name":          p.Name,
			"key":           p.Key,
			"description":   p.Description,
			"department":    p.Department,
			"issue_date":    p.IssueDate,
			"deadline_date": p.DeadlineDate,
			"created_at":    p.CreatedAt,
		}
		if p.Owner != nil {
			item["owner"] = p.Owner.Brief()
		}
		list = append(list, item)
	}
	Success(c, gin.H{"list": list, "total": len(list)})
}

// GET /projects/:id
func (h *ProjectHandler) GetDetail(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	project, err := h.projectService.GetVisible(user, parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, projectDetail(project))
}

// GET /projects/:id/board
func (h *ProjectHandler) Board(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	project, err := h.projectService.GetVisible(user, parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	cols, err := h.issueService.Board(project.ID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{
		"project": projectDetail(project),
		"board":   cols,
	})
}

// POST /projects/:id/board
//
// Board actions: "status" records a quick status update, "issue" reports an
// issue or blocker against the project's current board slot. Directors are
// read-only on the board.
func (h *ProjectHandler) BoardAction(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user.Profile != nil && user.Profile.Role == model.RoleBoss {
		Forbidden(c, 40302, "Directors cannot create status or issues")
		return
	}

	project, err := h.projectService.GetVisible(user, parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	action := c.PostForm("action")
	input, err := issueInputFromForm(c)
	if err != nil {
		BadRequest(c, 40001, err.Error())
		return
	}

	var issue *model.Issue
	switch action {
	case "status":
		issue, err = h.issueService.QuickStatusUpdate(project, user, input)
	case "issue", "status_issue":
		issue, err = h.issueService.ReportIssue(project, user, input)
	default:
		BadRequest(c, 40001, "unknown board action")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	files := formFiles(c, "attachments")
	for _, fh := range files {
		path, name, err := h.saveUpload(fh, "attachments")
		if err != nil {
			InternalError(c, err.Error())
			return
		}
		if _, err := h.issueService.AddAttachment(issue.ID, user.ID, path, name); err != nil {
			InternalError(c, err.Error())
			return
		}
	}

	Success(c, gin.H{"issue": issue})
}

// PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	project, err := h.projectService.GetVisible(user, parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var req struct {
		Name         *string `json:"name"`
		Key          *string `json:"key"`
		Description  *string `json:"description"`
		IssueDate    *string `json:"issue_date"`
		DeadlineDate *string `json:"deadline_date"`
		SOP          *string `json:"sop"`
		ReferenceURL *string `json:"reference_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Key != nil {
		updates["key"] = *req.Key
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.SOP != nil {
		updates["sop"] = *req.SOP
	}
	if req.ReferenceURL != nil {
		updates["reference_url"] = *req.ReferenceURL
	}
	if req.IssueDate != nil {
		d, err := parseDate(*req.IssueDate)
		if err != nil {
			BadRequest(c, 40001, "invalid issue_date")
			return
		}
		updates["issue_date"] = d
	}
	if req.DeadlineDate != nil {
		d, err := parseDate(*req.DeadlineDate)
		if err != nil {
			BadRequest(c, 40001, "invalid deadline_date")
			return
		}
		updates["deadline_date"] = d
	}

	updated, err := h.projectService.Update(project.ID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, projectDetail(updated))
}

// PUT /projects/:id/members. Director/Team Lead only (route-gated).
func (h *ProjectHandler) UpdateMembers(c *gin.Context) {
	id := parseID(c.Param("id"))
	if _, err := h.projectService.GetByID(id); err != nil {
		respondServiceError(c, err)
		return
	}

	var req struct {
		MemberIDs []uint `json:"member_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	if err := h.projectService.UpdateMembers(id, req.MemberIDs); err != nil {
		respondServiceError(c, err)
		return
	}
	project, err := h.projectService.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, projectDetail(project))
}

// DELETE /projects/:id. Director/Team Lead only (route-gated). Cascades to
// issues, comments and attachments.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id := parseID(c.Param("id"))
	paths, err := h.projectService.Delete(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	for _, p := range paths {
		_ = h.store.Delete(p)
	}
	Success(c, gin.H{"message": "project deleted"})
}

// POST /projects/:id/attachments
func (h *ProjectHandler) AddAttachment(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	project, err := h.projectService.GetVisible(user, parseID(c.Param("id")))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, 40001, "file is required")
		return
	}
	path, name, err := h.saveUpload(fh, "project_attachments")
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	att, err := h.projectService.AddAttachment(project.ID, user.ID, path, name)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, att)
}

// DELETE /project-attachments/:id
func (h *ProjectHandler) DeleteAttachment(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	path, err := h.projectService.DeleteAttachment(parseID(c.Param("id")), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	_ = h.store.Delete(path)
	Success(c, gin.H{"message": "attachment deleted"})
}

// GET /departments/:code
func (h *ProjectHandler) DepartmentOverview(c *gin.Context) {
	code := c.Param("code")
	if !model.ValidDepartment(code) {
		NotFound(c, 40406, "unknown department")
		return
	}

	projects, err := h.projectService.DepartmentProjects(code)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	members, err := h.projectService.DepartmentMembers(code)
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
	recent, err := h.issueService.RecentIssues(projectIDs, 5)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	memberList := make([]model.UserBrief, 0, len(members))
	for i := range members {
		memberList = append(memberList, members[i].Brief())
	}

	Success(c, gin.H{
		"dept_code":     code,
		"dept_label":    model.DepartmentLabels[code],
		"projects":      projects,
		"members":       memberList,
		"status_counts": statusCounts,
		"recent_issues": recent,
	})
}

func (h *ProjectHandler) saveUpload(fh *multipart.FileHeader, prefix string) (path, filename string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()
	path, err = h.store.Save(prefix, fh.Filename, src)
	if err != nil {
		return "", "", err
	}
	return path, fh.Filename, nil
}

func projectDetail(p *model.Project) gin.H {
	members := make([]gin.H, 0, len(p.Members))
	for _, m := range p.Members {
		item := gin.H{"id": m.UserID, "joined_at": m.JoinedAt}
		if m.User != nil {
			brief := m.User.Brief()
			item["username"] = brief.Username
			item["full_name"] = brief.FullName
			item["role"] = brief.Role
			item["department"] = brief.Department
		}
		members = append(members, item)
	}

	detail := gin.H{
		"id":             p.ID,
		"name":           p.Name,
		"key":            p.Key,
		"description":    p.Description,
		"sop":            p.SOP,
		"reference_url":  p.ReferenceURL,
		"department":     p.Department,
		"issue_date":     p.IssueDate,
		"deadline_date":  p.DeadlineDate,
		"board_issue_id": p.BoardIssueID,
		"members":        members,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
	if p.Owner != nil {
		detail["owner"] = p.Owner.Brief()
	}
	return detail
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}
