package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/service"
)

func newUserService(db *gorm.DB, sender *fakeSender) *service.UserService {
	return service.NewUserService(db, sender, zap.NewNop(),
		[]string{"corp.test"}, "https://gtrack.corp.test/login")
}

func TestInviteCreatesUserAndProfile(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{}
	svc := newUserService(db, sender)

	user, err := svc.Invite(service.InviteInput{
		Email:      "Jane.Doe@Corp.Test",
		FullName:   "Jane Doe",
		Role:       model.RoleLead,
		Department: model.DeptDev,
	})
	require.NoError(t, err)
	require.Equal(t, "jane.doe@corp.test", user.Email)
	require.Equal(t, "jane.doe", user.Username)
	require.True(t, user.IsActive)
	require.NotNil(t, user.Profile)
	require.Equal(t, model.RoleLead, user.Profile.Role)
	require.Equal(t, model.DeptDev, user.Profile.Department)

	require.Len(t, sender.sent, 1)
	require.Equal(t, "jane.doe@corp.test", sender.sent[0].To)
}

func TestInviteRejectsForeignDomainAndBadRole(t *testing.T) {
	db := openTestDB(t)
	svc := newUserService(db, &fakeSender{})

	_, err := svc.Invite(service.InviteInput{Email: "x@gmail.com", Role: model.RoleEmployee})
	require.Error(t, err)
	require.Contains(t, err.Error(), "40006:")

	_, err = svc.Invite(service.InviteInput{Email: "x@corp.test", Role: "ADMIN"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "40001:")

	_, err = svc.Invite(service.InviteInput{
		Email: "x@corp.test", Role: model.RoleEmployee, Department: "LEGAL",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "40001:")
}

func TestInviteSuffixesTakenUsername(t *testing.T) {
	db := openTestDB(t)
	svc := newUserService(db, &fakeSender{})

	// "sam" is taken by a user on a different email
	require.NoError(t, db.Create(&model.User{
		Username: "sam", Email: "sam.elsewhere@corp.test", IsActive: true,
	}).Error)

	user, err := svc.Invite(service.InviteInput{
		Email: "sam@corp.test", Role: model.RoleEmployee,
	})
	require.NoError(t, err)
	require.Equal(t, "sam1", user.Username)
}

func TestInviteUpdatesExistingUser(t *testing.T) {
	db := openTestDB(t)
	svc := newUserService(db, &fakeSender{})

	existing := seedUser(t, db, "sam", model.RoleEmployee, model.DeptSEO)

	user, err := svc.Invite(service.InviteInput{
		Email:      "sam@corp.test",
		FullName:   "Sam Smith",
		Role:       model.RoleLead,
		Department: model.DeptDev,
	})
	require.NoError(t, err)
	require.Equal(t, existing.ID, user.ID)
	require.Equal(t, "Sam Smith", user.FullName)
	require.Equal(t, model.RoleLead, user.Profile.Role)
	require.Equal(t, model.DeptDev, user.Profile.Department)

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestInviteSucceedsWhenWelcomeMailFails(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{fail: true}
	svc := newUserService(db, sender)

	user, err := svc.Invite(service.InviteInput{
		Email: "new@corp.test", Role: model.RoleEmployee,
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
}

func TestTeamListExcludesInactive(t *testing.T) {
	db := openTestDB(t)
	svc := newUserService(db, &fakeSender{})

	seedUser(t, db, "beta", model.RoleEmployee, "")
	seedUser(t, db, "alpha", model.RoleLead, "")
	gone := seedUser(t, db, "gone", model.RoleEmployee, "")
	require.NoError(t, db.Model(gone).Update("is_active", false).Error)

	users, err := svc.TeamList()
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "alpha", users[0].Username)
	require.Equal(t, "beta", users[1].Username)
}
