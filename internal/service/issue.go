package service

import (
	"fmt"
	"time"

	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/notify"
	"gorm.io/gorm"
)

type IssueService struct {
	db     *gorm.DB
	dir    *DirectoryService
	fanout *notify.Engine
}

func NewIssueService(db *gorm.DB, dir *DirectoryService, fanout *notify.Engine) *IssueService {
	return &IssueService{db: db, dir: dir, fanout: fanout}
}

type IssueInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  *uint
	MemberIDs   []uint
	DueDate     *time.Time
}

// BoardColumns groups a project's board-visible issues by status.
type BoardColumns struct {
	Todo       []model.Issue `json:"todo"`
	InProgress []model.Issue `json:"in_progress"`
	Done       []model.Issue `json:"done"`
}

func (s *IssueService) Board(projectID uint) (*BoardColumns, error) {
	var issues []model.Issue
	err := s.db.Preload("Assignee").
		Where("project_id = ? AND show_on_board = ?", projectID, true).
		Order("created_at desc").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	cols := &BoardColumns{
		Todo:       []model.Issue{},
		InProgress: []model.Issue{},
		Done:       []model.Issue{},
	}
	for _, issue := range issues {
		switch issue.Status {
		case model.StatusInProgress:
			cols.InProgress = append(cols.InProgress, issue)
		case model.StatusDone:
			cols.Done = append(cols.Done, issue)
		default:
			cols.Todo = append(cols.Todo, issue)
		}
	}
	return cols, nil
}

func (s *IssueService) GetByID(id uint) (*model.Issue, error) {
	var issue model.Issue
	err := s.db.Preload("Project").Preload("Assignee").Preload("Members.User").
		First(&issue, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("40403:issue not found")
		}
		return nil, err
	}
	return &issue, nil
}

// Create saves a plain issue on a project (explicit issue creation, no
// board-slot involvement, no fanout).
func (s *IssueService) Create(projectID uint, in IssueInput) (*model.Issue, error) {
	issue := &model.Issue{
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      defaultStatus(in.Status),
		Priority:    defaultPriority(in.Priority),
		AssigneeID:  in.AssigneeID,
		DueDate:     in.DueDate,
		ShowOnBoard: true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(issue).Error; err != nil {
			return err
		}
		return setIssueMembers(tx, issue.ID, in.MemberIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(issue.ID)
}

// QuickStatusUpdate is the board "status" action: a fresh board-visible
// issue assigned to the actor, which becomes the project's board slot, then
// an IssueActivity fanout.
func (s *IssueService) QuickStatusUpdate(project *model.Project, actor *model.User, in IssueInput) (*model.Issue, error) {
	title := in.Title
	if title == "" {
		title = "Status update"
	}
	issue := &model.Issue{
		ProjectID:   project.ID,
		Title:       title,
		Description: in.Description,
		Status:      defaultStatus(in.Status),
		Priority:    defaultPriority(in.Priority),
		AssigneeID:  &actor.ID,
		DueDate:     in.DueDate,
		ShowOnBoard: true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(issue).Error; err != nil {
			return err
		}
		if err := setIssueMembers(tx, issue.ID, in.MemberIDs); err != nil {
			return err
		}
		return tx.Model(&model.Project{}).Where("id = ?", project.ID).
			Update("board_issue_id", issue.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.fanout.IssueActivity(notify.IssueActivityEvent{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ActorID:     actor.ID,
		Verb:        actor.Username + " " + notify.VerbUpdatedStatus,
	}); err != nil {
		return nil, err
	}
	return s.GetByID(issue.ID)
}

// ReportIssue is the board "issue" action. When the project has a board
// slot the slot issue is updated in place; otherwise a new issue is created
// and claims the slot. Either way an IssueActivity fanout follows.
func (s *IssueService) ReportIssue(project *model.Project, actor *model.User, in IssueInput) (*model.Issue, error) {
	var issue *model.Issue

	if project.BoardIssueID != nil {
		var existing model.Issue
		if err := s.db.First(&existing, *project.BoardIssueID).Error; err == nil {
			issue = &existing
		}
	}

	var err error
	if issue != nil {
		updates := map[string]interface{}{}
		if in.Title != "" {
			updates["title"] = in.Title
		}
		if in.Description != "" {
			updates["description"] = in.Description
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if len(updates) > 0 {
				if err := tx.Model(issue).Updates(updates).Error; err != nil {
					return err
				}
			}
			if in.MemberIDs != nil {
				if err := tx.Where("issue_id = ?", issue.ID).Delete(&model.IssueMember{}).Error; err != nil {
					return err
				}
				if err := setIssueMembers(tx, issue.ID, in.MemberIDs); err != nil {
					return err
				}
			}
			return nil
		})
	} else {
		title := in.Title
		if title == "" {
			title = "Reported issue"
		}
		issue = &model.Issue{
			ProjectID:   project.ID,
			Title:       title,
			Description: in.Description,
			Status:      defaultStatus(in.Status),
			Priority:    defaultPriority(in.Priority),
			AssigneeID:  &actor.ID,
			DueDate:     in.DueDate,
			ShowOnBoard: true,
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(issue).Error; err != nil {
				return err
			}
			if err := setIssueMembers(tx, issue.ID, in.MemberIDs); err != nil {
				return err
			}
			return tx.Model(&model.Project{}).Where("id = ?", project.ID).
				Update("board_issue_id", issue.ID).Error
		})
	}
	if err != nil {
		return nil, err
	}

	if err := s.fanout.IssueActivity(notify.IssueActivityEvent{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ActorID:     actor.ID,
		Verb:        actor.Username + " " + notify.VerbReportedIssue,
	}); err != nil {
		return nil, err
	}
	return s.GetByID(issue.ID)
}

// Update applies a partial edit to an issue.
func (s *IssueService) Update(id uint, updates map[string]interface{}, memberIDs []uint) (*model.Issue, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&model.Issue{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if memberIDs != nil {
			if err := tx.Where("issue_id = ?", id).Delete(&model.IssueMember{}).Error; err != nil {
				return err
			}
			return setIssueMembers(tx, id, memberIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// UpdateStatus flips an issue's status; only the assignee may do so.
func (s *IssueService) UpdateStatus(issueID uint, user *model.User, status string) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("40001:invalid status")
	}
	var issue model.Issue
	err := s.db.Where("id = ? AND assignee_id = ?", issueID, user.ID).First(&issue).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("40403:issue not found")
		}
		return err
	}
	return s.db.Model(&issue).Update("status", status).Error
}

// TaskFilter narrows the personal task listing.
type TaskFilter struct {
	Status   string
	Priority string
	Order    string
}

// MyTasks lists issues where the user is assignee or member, deduplicated,
// with the requested filter and ordering applied.
//
// Ordering is by the priority label string, not severity rank, matching the
// behavior this listing has always had.
func (s *IssueService) MyTasks(user *model.User, f TaskFilter) ([]model.Issue, error) {
	query := s.db.Preload("Project").Preload("Assignee").
		Where(
			"assignee_id = ? OR id IN (SELECT issue_id FROM issue_members WHERE user_id = ?)",
			user.ID, user.ID,
		)

	if f.Status != "" && f.Status != "all" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Priority != "" && f.Priority != "all" {
		query = query.Where("priority = ?", f.Priority)
	}

	switch f.Order {
	case "due_asc":
		query = query.Order("due_date asc, priority asc, id asc")
	case "due_desc":
		query = query.Order("due_date desc, priority desc, id asc")
	case "prio_desc":
		query = query.Order("priority desc, status asc, id asc")
	case "updated_desc":
		query = query.Order("updated_at desc, id asc")
	default:
		query = query.Order("status asc, updated_at desc, id asc")
	}

	var issues []model.Issue
	if err := query.Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// TaskSummary counts only issues where the user is the assignee;
// member-only issues are excluded here even though the listing shows them.
type TaskSummary struct {
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Done       int64 `json:"done"`
	Overdue    int64 `json:"overdue"`
}

func (s *IssueService) Summary(userID uint, now time.Time) (*TaskSummary, error) {
	base := func() *gorm.DB {
		return s.db.Model(&model.Issue{}).Where("assignee_id = ?", userID)
	}
	var sum TaskSummary
	if err := base().Where("status = ?", model.StatusTodo).Count(&sum.Todo).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", model.StatusInProgress).Count(&sum.InProgress).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", model.StatusDone).Count(&sum.Done).Error; err != nil {
		return nil, err
	}
	today := now.Truncate(24 * time.Hour)
	err := base().Where("due_date < ? AND status != ?", today, model.StatusDone).
		Count(&sum.Overdue).Error
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// ViewTargets maps each issue to the detail page it should link to: when
// the issue's project has a later hidden (show_on_board=false) issue, that
// one wins over the row's own id.
func (s *IssueService) ViewTargets(issues []model.Issue) (map[uint]uint, error) {
	projectIDs := make(map[uint]struct{})
	for _, issue := range issues {
		projectIDs[issue.ProjectID] = struct{}{}
	}

	latestByProject := make(map[uint]uint, len(projectIDs))
	for pid := range projectIDs {
		var latest model.Issue
		err := s.db.Where("project_id = ? AND show_on_board = ?", pid, false).
			Order("created_at desc, id desc").
			First(&latest).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}
		latestByProject[pid] = latest.ID
	}

	targets := make(map[uint]uint, len(issues))
	for _, issue := range issues {
		if target, ok := latestByProject[issue.ProjectID]; ok {
			targets[issue.ID] = target
		} else {
			targets[issue.ID] = issue.ID
		}
	}
	return targets, nil
}

// RecentActivity lists board-visible issues created since the cutoff across
// the given projects, newest first. Feeds the Lead/Director dashboards.
func (s *IssueService) RecentActivity(projectIDs []uint, cutoff time.Time) ([]model.Issue, error) {
	if len(projectIDs) == 0 {
		return []model.Issue{}, nil
	}
	var issues []model.Issue
	err := s.db.Preload("Project").Preload("Assignee").
		Where("project_id IN ? AND show_on_board = ? AND created_at >= ?", projectIDs, true, cutoff).
		Order("created_at desc").
		Find(&issues).Error
	return issues, err
}

// CountsByStatus tallies issues across the given projects.
func (s *IssueService) CountsByStatus(projectIDs []uint) (map[string]int64, error) {
	counts := map[string]int64{
		model.StatusTodo:       0,
		model.StatusInProgress: 0,
		model.StatusDone:       0,
	}
	if len(projectIDs) == 0 {
		return counts, nil
	}
	for status := range counts {
		var n int64
		err := s.db.Model(&model.Issue{}).
			Where("project_id IN ? AND status = ?", projectIDs, status).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}

func (s *IssueService) CountsByPriority(projectIDs []uint) (map[string]int64, error) {
	counts := map[string]int64{
		model.PriorityLow:      0,
		model.PriorityMedium:   0,
		model.PriorityHigh:     0,
		model.PriorityCritical: 0,
	}
	if len(projectIDs) == 0 {
		return counts, nil
	}
	for priority := range counts {
		var n int64
		err := s.db.Model(&model.Issue{}).
			Where("project_id IN ? AND priority = ?", projectIDs, priority).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		counts[priority] = n
	}
	return counts, nil
}

// RecentIssues returns the most recently updated issues in the projects.
func (s *IssueService) RecentIssues(projectIDs []uint, limit int) ([]model.Issue, error) {
	if len(projectIDs) == 0 {
		return []model.Issue{}, nil
	}
	var issues []model.Issue
	err := s.db.Preload("Project").Preload("Assignee").
		Where("project_id IN ?", projectIDs).
		Order("updated_at desc").Limit(limit).
		Find(&issues).Error
	return issues, err
}

// NavCounts are the per-user badge numbers shown on every page.
type NavCounts struct {
	OpenIssues int64 `json:"open_issues"`
	Overdue    int64 `json:"overdue"`
}

func (s *IssueService) NavCounts(userID uint, now time.Time) (*NavCounts, error) {
	var counts NavCounts
	err := s.db.Model(&model.Issue{}).
		Where("assignee_id = ? AND status != ?", userID, model.StatusDone).
		Count(&counts.OpenIssues).Error
	if err != nil {
		return nil, err
	}
	today := now.Truncate(24 * time.Hour)
	err = s.db.Model(&model.Issue{}).
		Where("assignee_id = ? AND due_date < ? AND status != ?", userID, today, model.StatusDone).
		Count(&counts.Overdue).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// Comments lists an issue's thread, oldest first.
func (s *IssueService) Comments(issueID uint) ([]model.Comment, error) {
	var comments []model.Comment
	err := s.db.Preload("Author").
		Where("issue_id = ?", issueID).
		Order("created_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

// Attachments lists an issue's stored files.
func (s *IssueService) Attachments(issueID uint) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := s.db.Preload("UploadedBy").
		Where("issue_id = ?", issueID).
		Order("uploaded_at asc, id asc").
		Find(&attachments).Error
	return attachments, err
}

// AddComment appends to an issue's comment thread.
func (s *IssueService) AddComment(issueID, authorID uint, body string) (*model.Comment, error) {
	if _, err := s.GetByID(issueID); err != nil {
		return nil, err
	}
	comment := &model.Comment{IssueID: issueID, AuthorID: authorID, Body: body}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, err
	}
	s.db.Preload("Author").First(comment, comment.ID)
	return comment, nil
}

// DeleteComment removes a comment if the user is its author or a Director.
func (s *IssueService) DeleteComment(commentID uint, user *model.User) error {
	var comment model.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("40405:comment not found")
		}
		return err
	}
	if comment.AuthorID != user.ID && !s.dir.IsDirector(user) {
		return fmt.Errorf("40303:you do not have permission to delete this comment")
	}
	return s.db.Delete(&comment).Error
}

// AddAttachment records a stored issue file.
func (s *IssueService) AddAttachment(issueID, uploaderID uint, path, filename string) (*model.Attachment, error) {
	att := &model.Attachment{
		IssueID:      issueID,
		Path:         path,
		Filename:     filename,
		UploadedByID: uploaderID,
	}
	if err := s.db.Create(att).Error; err != nil {
		return nil, err
	}
	return att, nil
}

// DeleteAttachment removes an issue file record if the user uploaded it or
// is a Director. Returns the stored path for blob cleanup.
func (s *IssueService) DeleteAttachment(attachmentID uint, user *model.User) (string, error) {
	var att model.Attachment
	if err := s.db.First(&att, attachmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", fmt.Errorf("40404:attachment not found")
		}
		return "", err
	}
	if att.UploadedByID != user.ID && !s.dir.IsDirector(user) {
		return "", fmt.Errorf("40303:you do not have permission to delete this attachment")
	}
	if err := s.db.Delete(&att).Error; err != nil {
		return "", err
	}
	return att.Path, nil
}

func setIssueMembers(tx *gorm.DB, issueID uint, memberIDs []uint) error {
	for _, uid := range memberIDs {
		member := &model.IssueMember{IssueID: issueID, UserID: uid}
		if err := tx.Create(member).Error; err != nil {
			return err
		}
	}
	return nil
}

func defaultStatus(status string) string {
	if model.ValidStatus(status) {
		return status
	}
	return model.StatusTodo
}

func defaultPriority(priority string) string {
	if model.ValidPriority(priority) {
		return priority
	}
	return model.PriorityMedium
}
