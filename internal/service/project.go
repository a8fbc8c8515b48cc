package service

import (
	"fmt"
	"time"

	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/notify"
	"gorm.io/gorm"
)

type ProjectService struct {
	db     *gorm.DB
	dir    *DirectoryService
	fanout *notify.Engine
}

func NewProjectService(db *gorm.DB, dir *DirectoryService, fanout *notify.Engine) *ProjectService {
	return &ProjectService{db: db, dir: dir, fanout: fanout}
}

// VisibleProjects implements the visibility rule: Directors see every
// project; everyone else sees projects they own or belong to, without any
// department restriction.
func (s *ProjectService) VisibleProjects(user *model.User) ([]model.Project, error) {
	query := s.db.Model(&model.Project{}).Preload("Owner.Profile")
	if !s.dir.IsDirector(user) {
		query = query.Where(
			"owner_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			user.ID, user.ID,
		)
	}
	var projects []model.Project
	if err := query.Order("name asc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// VisibleProjectIDs is the id-only variant used by issue listings.
func (s *ProjectService) VisibleProjectIDs(user *model.User) ([]uint, error) {
	projects, err := s.VisibleProjects(user)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetVisible loads a project only if the user may see it.
func (s *ProjectService) GetVisible(user *model.User, id uint) (*model.Project, error) {
	query := s.db.Preload("Owner.Profile").Preload("Members.User.Profile")
	if !s.dir.IsDirector(user) {
		query = query.Where(
			"owner_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			user.ID, user.ID,
		)
	}
	var project model.Project
	if err := query.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("40402:project not found")
		}
		return nil, err
	}
	return &project, nil
}

func (s *ProjectService) GetByID(id uint) (*model.Project, error) {
	var project model.Project
	err := s.db.Preload("Owner.Profile").Preload("Members.User.Profile").First(&project, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("40402:project not found")
		}
		return nil, err
	}
	return &project, nil
}

type ProjectInput struct {
	Name         string
	Key          string
	Description  string
	IssueDate    *time.Time
	DeadlineDate *time.Time
	SOP          string
	ReferenceURL string
	MemberIDs    []uint
}

// Create saves the project, inherits the owner's department, attaches
// members and fans out the creation notification.
func (s *ProjectService) Create(owner *model.User, in ProjectInput) (*model.Project, error) {
	var count int64
	s.db.Model(&model.Project{}).Where("`key` = ?", in.Key).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("40005:project key already exists")
	}

	project := &model.Project{
		Name:         in.Name,
		Key:          in.Key,
		Description:  in.Description,
		OwnerID:      owner.ID,
		IssueDate:    in.IssueDate,
		DeadlineDate: in.DeadlineDate,
		SOP:          in.SOP,
		ReferenceURL: in.ReferenceURL,
	}
	if owner.Profile != nil {
		project.Department = owner.Profile.Department
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		for _, uid := range in.MemberIDs {
			member := &model.ProjectMember{ProjectID: project.ID, UserID: uid}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.fanout.ProjectCreated(notify.ProjectCreatedEvent{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		OwnerID:       owner.ID,
		OwnerUsername: owner.Username,
		MemberIDs:     in.MemberIDs,
	}); err != nil {
		return nil, err
	}

	return s.GetByID(project.ID)
}

func (s *ProjectService) Update(id uint, updates map[string]interface{}) (*model.Project, error) {
	if key, ok := updates["key"]; ok {
		var count int64
		s.db.Model(&model.Project{}).Where("`key` = ? AND id != ?", key, id).Count(&count)
		if count > 0 {
			return nil, fmt.Errorf("40005:project key already exists")
		}
	}
	if err := s.db.Model(&model.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// UpdateMembers replaces the member set. Restricted to Director/Team Lead at
// the handler layer.
func (s *ProjectService) UpdateMembers(projectID uint, memberIDs []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&model.ProjectMember{}).Error; err != nil {
			return err
		}
		for _, uid := range memberIDs {
			member := &model.ProjectMember{ProjectID: projectID, UserID: uid}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the project and cascades to its issues, comments,
// attachments, memberships and notifications. Returns stored file paths so
// the caller can clear the blob store.
func (s *ProjectService) Delete(id uint) ([]string, error) {
	var project model.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("40402:project not found")
		}
		return nil, err
	}

	var issueIDs []uint
	if err := s.db.Model(&model.Issue{}).Where("project_id = ?", id).Pluck("id", &issueIDs).Error; err != nil {
		return nil, err
	}

	var paths []string
	s.db.Model(&model.Attachment{}).Where("issue_id IN ?", issueIDs).Pluck("path", &paths)
	var projectPaths []string
	s.db.Model(&model.ProjectAttachment{}).Where("project_id = ?", id).Pluck("path", &projectPaths)
	paths = append(paths, projectPaths...)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(issueIDs) > 0 {
			if err := tx.Where("issue_id IN ?", issueIDs).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("issue_id IN ?", issueIDs).Delete(&model.Attachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("issue_id IN ?", issueIDs).Delete(&model.IssueMember{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).Delete(&model.Issue{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectAttachment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *ProjectService) IsMember(projectID, userID uint) bool {
	var count int64
	s.db.Model(&model.ProjectMember{}).Where("project_id = ? AND user_id = ?", projectID, userID).Count(&count)
	return count > 0
}

// CanAccess reports whether the user may see the project (owner, member, or
// Director).
func (s *ProjectService) CanAccess(user *model.User, project *model.Project) bool {
	if s.dir.IsDirector(user) {
		return true
	}
	if project.OwnerID == user.ID {
		return true
	}
	return s.IsMember(project.ID, user.ID)
}

// DepartmentProjects returns projects whose owner or any member belongs to
// the department. Independent of the requesting user's own visibility.
func (s *ProjectService) DepartmentProjects(dept string) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.Preload("Owner.Profile").
		Where(`owner_id IN (SELECT user_id FROM profiles WHERE department = ?)
			OR id IN (SELECT project_id FROM project_members
				JOIN profiles ON profiles.user_id = project_members.user_id
				WHERE profiles.department = ?)`, dept, dept).
		Order("name asc").
		Find(&projects).Error
	return projects, err
}

// DepartmentMembers lists users whose profile is in the department.
func (s *ProjectService) DepartmentMembers(dept string) ([]model.User, error) {
	var users []model.User
	err := s.db.Preload("Profile").
		Where("id IN (SELECT user_id FROM profiles WHERE department = ?)", dept).
		Order("username asc").
		Find(&users).Error
	return users, err
}

// AddAttachment records a stored project file.
func (s *ProjectService) AddAttachment(projectID, uploaderID uint, path, filename string) (*model.ProjectAttachment, error) {
	att := &model.ProjectAttachment{
		ProjectID:    projectID,
		Path:         path,
		Filename:     filename,
		UploadedByID: uploaderID,
	}
	if err := s.db.Create(att).Error; err != nil {
		return nil, err
	}
	return att, nil
}

// DeleteAttachment removes a project file record if the user uploaded it or
// is a Director. Returns the stored path for blob cleanup.
func (s *ProjectService) DeleteAttachment(attachmentID uint, user *model.User) (string, error) {
	var att model.ProjectAttachment
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
