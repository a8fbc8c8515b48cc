package model

import (
	"time"
)

// Issue status codes.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Issue priority codes.
const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Issue struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProjectID   uint       `gorm:"not null;index:idx_issues_project_id" json:"project_id"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"type:varchar(20);not null;default:TODO;index:idx_status" json:"status"`
	Priority    string     `gorm:"type:varchar(20);not null;default:MEDIUM" json:"priority"`
	AssigneeID  *uint      `gorm:"index:idx_assignee_id" json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
	// ShowOnBoard hides the issue from the kanban columns when false while
	// keeping it visible in task lists and detail views.
	ShowOnBoard bool      `gorm:"default:true" json:"show_on_board"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Project  *Project      `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User         `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Members  []IssueMember `gorm:"foreignKey:IssueID" json:"members,omitempty"`
}

func (Issue) TableName() string { return "issues" }

// IsOverdue reports whether the due date has passed and the issue is not done.
func (i *Issue) IsOverdue(now time.Time) bool {
	if i.DueDate == nil || i.Status == StatusDone {
		return false
	}
	return i.DueDate.Before(now.Truncate(24 * time.Hour))
}

type IssueMember struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	IssueID uint `gorm:"not null;uniqueIndex:uk_issue_user" json:"issue_id"`
	UserID  uint `gorm:"not null;uniqueIndex:uk_issue_user;index:idx_issue_members_user_id" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (IssueMember) TableName() string { return "issue_members" }

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IssueID   uint      `gorm:"not null;index:idx_comments_issue_id" json:"issue_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string { return "comments" }

type Attachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	IssueID      uint      `gorm:"not null;index:idx_attachments_issue_id" json:"issue_id"`
	Path         string    `gorm:"type:varchar(512);not null" json:"path"`
	Filename     string    `gorm:"type:varchar(256);not null" json:"filename"`
	UploadedByID uint      `gorm:"not null" json:"uploaded_by_id"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

func (Attachment) TableName() string { return "attachments" }
