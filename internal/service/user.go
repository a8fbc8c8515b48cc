package service

import (
	"fmt"
	"strings"

	"github.com/gtrack/backend/internal/mail"
	"github.com/gtrack/backend/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	db             *gorm.DB
	sender         mail.Sender
	logger         *zap.Logger
	allowedDomains map[string]struct{}
	loginURL       string
}

func NewUserService(db *gorm.DB, sender mail.Sender, logger *zap.Logger, allowedDomains []string, loginURL string) *UserService {
	domains := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		domains[strings.ToLower(d)] = struct{}{}
	}
	return &UserService{
		db:             db,
		sender:         sender,
		logger:         logger,
		allowedDomains: domains,
		loginURL:       loginURL,
	}
}

func (s *UserService) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.Preload("Profile").First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("40401:user not found")
		}
		return nil, err
	}
	return &user, nil
}

// TeamList returns all active users with their profiles.
func (s *UserService) TeamList() ([]model.User, error) {
	var users []model.User
	err := s.db.Preload("Profile").
		Where("is_active = ?", true).
		Order("username asc").
		Find(&users).Error
	return users, err
}

type InviteInput struct {
	Email      string
	FullName   string
	Role       string
	Department string
}

// Invite provisions (or updates) a user who will log in via OTP only. The
// welcome email is best-effort: delivery failure does not fail the invite.
func (s *UserService) Invite(in InviteInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	at := strings.LastIndex(email, "@")
	if at < 1 {
		return nil, fmt.Errorf("40001:invalid email address")
	}
	if _, ok := s.allowedDomains[email[at+1:]]; !ok {
		return nil, fmt.Errorf("40006:please use a company email address")
	}
	if !model.ValidRole(in.Role) {
		return nil, fmt.Errorf("40001:invalid role")
	}
	if in.Department != "" && !model.ValidDepartment(in.Department) {
		return nil, fmt.Errorf("40001:invalid department")
	}

	var user model.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("email = ?", email).First(&user)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			user = model.User{
				Username: s.uniqueUsername(tx, email[:at]),
				Email:    email,
				FullName: strings.TrimSpace(in.FullName),
				IsActive: true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		} else if name := strings.TrimSpace(in.FullName); name != "" {
			if err := tx.Model(&user).Update("full_name", name).Error; err != nil {
				return err
			}
		}

		var profile model.Profile
		result = tx.Where("user_id = ?", user.ID).First(&profile)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			profile = model.Profile{UserID: user.ID}
		}
		profile.Role = in.Role
		if in.Department != "" {
			profile.Department = in.Department
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}

	body := "Hi,\n\n" +
		"You've been added to the G-Track dashboard.\n" +
		"To log in, go to the OTP login page, enter this email address " +
		"and use the one-time code you receive.\n\n" +
		"Login page: " + s.loginURL + "\n"
	if err := s.sender.Send(email, "You've been added to G-Track dashboard", body); err != nil {
		s.logger.Warn("welcome mail failed", zap.String("email", email), zap.Error(err))
	}

	return s.GetByID(user.ID)
}

// uniqueUsername derives a username from the email local part, suffixing a
// counter until it is free.
func (s *UserService) uniqueUsername(tx *gorm.DB, base string) string {
	username := base
	for i := 1; ; i++ {
		var count int64
		tx.Model(&model.User{}).Where("username = ?", username).Count(&count)
		if count == 0 {
			return username
		}
		username = fmt.Sprintf("%s%d", base, i)
	}
}
