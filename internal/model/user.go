package model

import (
	"time"
)

// Role codes stored on Profile.
const (
	RoleBoss     = "BOSS" // Director
	RoleLead     = "LEAD" // Team Lead
	RoleEmployee = "EMP"  // Member
)

// Department codes stored on Profile and Project.
const (
	DeptDev       = "DEV"
	DeptGraphic   = "GRAPHIC"
	DeptSocial    = "SOCIAL"
	DeptAI        = "AI"
	DeptELearning = "ELEARNING"
	DeptLead      = "LEAD"
	DeptSEO       = "SEO"
)

// DepartmentLabels maps department codes to display names.
var DepartmentLabels = map[string]string{
	DeptDev:       "Developer",
	DeptGraphic:   "Graphic",
	DeptSocial:    "Social Media",
	DeptAI:        "AI Developer",
	DeptELearning: "eLearning",
	DeptLead:      "Lead",
	DeptSEO:       "SEO",
}

func ValidRole(role string) bool {
	switch role {
	case RoleBoss, RoleLead, RoleEmployee:
		return true
	}
	return false
}

func ValidDepartment(dept string) bool {
	_, ok := DepartmentLabels[dept]
	return ok
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	FullName  string    `gorm:"type:varchar(128)" json:"full_name"`
	Email     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string { return "users" }

// Profile is one-to-one with User. Department may be empty; a Director
// carries no department at all.
type Profile struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	Role       string `gorm:"type:varchar(10);not null;default:EMP;index:idx_role" json:"role"`
	Department string `gorm:"type:varchar(20);index:idx_profiles_department" json:"department"`
}

func (Profile) TableName() string { return "profiles" }

type UserBrief struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

func (u *User) Brief() UserBrief {
	b := UserBrief{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
	}
	if u.Profile != nil {
		b.Role = u.Profile.Role
		b.Department = u.Profile.Department
	}
	return b
}
