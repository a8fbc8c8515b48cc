package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/notify"
	"github.com/gtrack/backend/internal/service"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Profile{},
		&model.Project{}, &model.ProjectMember{}, &model.ProjectAttachment{},
		&model.Issue{}, &model.IssueMember{},
		&model.Comment{}, &model.Attachment{},
		&model.Notification{}, &model.EmailOTP{},
	))
	return db
}

func newFanout(db *gorm.DB) *notify.Engine {
	return notify.NewEngine(db, service.NewDirectoryService(db), zap.NewNop())
}

func newProjectService(db *gorm.DB) *service.ProjectService {
	return service.NewProjectService(db, service.NewDirectoryService(db), newFanout(db))
}

func newIssueService(db *gorm.DB) *service.IssueService {
	return service.NewIssueService(db, service.NewDirectoryService(db), newFanout(db))
}

func seedUser(t *testing.T, db *gorm.DB, username, role, dept string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    username + "@corp.test",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	profile := &model.Profile{UserID: user.ID, Role: role, Department: dept}
	require.NoError(t, db.Create(profile).Error)
	user.Profile = profile
	return user
}

func seedProject(t *testing.T, db *gorm.DB, name, key string, owner *model.User, members ...*model.User) *model.Project {
	t.Helper()
	project := &model.Project{Name: name, Key: key, OwnerID: owner.ID}
	if owner.Profile != nil {
		project.Department = owner.Profile.Department
	}
	require.NoError(t, db.Create(project).Error)
	for _, m := range members {
		require.NoError(t, db.Create(&model.ProjectMember{ProjectID: project.ID, UserID: m.ID}).Error)
	}
	return project
}

func seedIssue(t *testing.T, db *gorm.DB, issue *model.Issue) *model.Issue {
	t.Helper()
	// Create drops the zero-valued field (the column default wins and is
	// backfilled into the struct), so persist ShowOnBoard=false explicitly.
	hidden := !issue.ShowOnBoard
	require.NoError(t, db.Create(issue).Error)
	if hidden {
		issue.ShowOnBoard = false
		require.NoError(t, db.Model(issue).Update("show_on_board", false).Error)
	}
	return issue
}

func datePtr(t time.Time) *time.Time { return &t }

// fakeSender records outgoing mail and optionally fails.
type fakeSender struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (s *fakeSender) Send(to, subject, body string) error {
	if s.fail {
		return fmt.Errorf("smtp unreachable")
	}
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// fakeLimiter denies once max is hit.
type fakeLimiter struct {
	calls int
	max   int
}

func (l *fakeLimiter) Allow(ctx context.Context, email string) (bool, error) {
	l.calls++
	return l.calls <= l.max, nil
}

func newOTPService(db *gorm.DB, sender *fakeSender, limiter service.OTPLimiter) *service.OTPService {
	return service.NewOTPService(db, service.NewDirectoryService(db), sender, limiter,
		zap.NewNop(), []string{"corp.test"}, "test-secret", 24)
}
