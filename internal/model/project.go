package model

import (
	"time"
)

type Project struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Key          string     `gorm:"type:varchar(10);uniqueIndex;not null" json:"key"`
	Description  string     `gorm:"type:text" json:"description"`
	OwnerID      uint       `gorm:"not null;index:idx_owner_id" json:"owner_id"`
	IssueDate    *time.Time `json:"issue_date"`
	DeadlineDate *time.Time `json:"deadline_date"`
	SOP          string     `gorm:"type:text" json:"sop"`
	ReferenceURL string     `gorm:"type:varchar(512)" json:"reference_url"`
	Department   string     `gorm:"type:varchar(20);index:idx_projects_department" json:"department"`
	// BoardIssueID points at the issue currently occupying the project's
	// board slot (the row quick status updates and reported issues act on).
	BoardIssueID *uint     `json:"board_issue_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Owner   *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

func (Project) TableName() string { return "projects" }

type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:uk_project_user" json:"project_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_project_user;index:idx_project_members_user_id" json:"user_id"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProjectMember) TableName() string { return "project_members" }

type ProjectAttachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"not null;index:idx_project_attachments_project_id" json:"project_id"`
	Path         string    `gorm:"type:varchar(512);not null" json:"path"`
	Filename     string    `gorm:"type:varchar(256);not null" json:"filename"`
	UploadedByID uint      `gorm:"not null" json:"uploaded_by_id"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

func (ProjectAttachment) TableName() string { return "project_attachments" }
