package service

import (
	"github.com/gtrack/backend/internal/model"
	"gorm.io/gorm"
)

// DirectoryService resolves users to their role and department. Role never
// grants implicit data access; callers re-check at the point of use.
type DirectoryService struct {
	db *gorm.DB
}

func NewDirectoryService(db *gorm.DB) *DirectoryService {
	return &DirectoryService{db: db}
}

// ProfileOf is the total lookup every role helper goes through: ok is false
// for users with no profile yet (freshly provisioned accounts).
func (s *DirectoryService) ProfileOf(user *model.User) (*model.Profile, bool) {
	if user == nil || user.Profile == nil {
		return nil, false
	}
	return user.Profile, true
}

func (s *DirectoryService) IsDirector(user *model.User) bool {
	p, ok := s.ProfileOf(user)
	return ok && p.Role == model.RoleBoss
}

func (s *DirectoryService) IsLead(user *model.User) bool {
	p, ok := s.ProfileOf(user)
	return ok && p.Role == model.RoleLead
}

// RoleOf defaults to Member when the user has no profile.
func (s *DirectoryService) RoleOf(user *model.User) string {
	p, ok := s.ProfileOf(user)
	if !ok {
		return model.RoleEmployee
	}
	return p.Role
}

func (s *DirectoryService) DepartmentOf(user *model.User) string {
	p, ok := s.ProfileOf(user)
	if !ok {
		return ""
	}
	return p.Department
}

// DirectorIDs returns every user holding the Director role.
func (s *DirectoryService) DirectorIDs() ([]uint, error) {
	var ids []uint
	err := s.db.Model(&model.Profile{}).
		Where("role = ?", model.RoleBoss).
		Pluck("user_id", &ids).Error
	return ids, err
}
