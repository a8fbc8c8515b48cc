package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gtrack/backend/internal/model"
	jwtpkg "github.com/gtrack/backend/pkg/jwt"
)

func TestRequestOTPRejectsForeignDomain(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{}
	svc := newOTPService(db, sender, nil)

	err := svc.RequestOTP(context.Background(), "someone@gmail.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "40006:")
	require.Empty(t, sender.sent)
}

func TestRequestOTPUnknownUser(t *testing.T) {
	db := openTestDB(t)
	sender := &fakeSender{}
	svc := newOTPService(db, sender, nil)

	err := svc.RequestOTP(context.Background(), "ghost@corp.test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "40401:")
	require.Empty(t, sender.sent)
}

func TestRequestOTPThrottled(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "user", model.RoleEmployee, "")
	sender := &fakeSender{}
	svc := newOTPService(db, sender, &fakeLimiter{max: 1})

	require.NoError(t, svc.RequestOTP(context.Background(), "user@corp.test"))

	err := svc.RequestOTP(context.Background(), "user@corp.test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "42901:")
	require.Len(t, sender.sent, 1)
}

func TestRequestOTPMailFailureIsFatal(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "user", model.RoleEmployee, "")
	sender := &fakeSender{fail: true}
	svc := newOTPService(db, sender, nil)

	err := svc.RequestOTP(context.Background(), "user@corp.test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "50002:")
}

func TestRequestAndVerifyOTP(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "user", model.RoleLead, model.DeptDev)
	sender := &fakeSender{}
	svc := newOTPService(db, sender, nil)

	require.NoError(t, svc.RequestOTP(context.Background(), "User@Corp.Test"))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "user@corp.test", sender.sent[0].To)

	var otp model.EmailOTP
	require.NoError(t, db.First(&otp).Error)
	require.Len(t, otp.Code, 6)
	require.Contains(t, sender.sent[0].Body, otp.Code)

	got, token, expireAt, err := svc.VerifyOTP(context.Background(), "user@corp.test", otp.Code)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.True(t, expireAt.After(time.Now()))

	claims, err := jwtpkg.ParseToken("test-secret", token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, model.RoleLead, claims.Role)

	// a code verifies exactly once
	_, _, _, err = svc.VerifyOTP(context.Background(), "user@corp.test", otp.Code)
	require.Error(t, err)
	require.Contains(t, err.Error(), "40102:")
}

func TestVerifyOTPWrongCode(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "user", model.RoleEmployee, "")
	sender := &fakeSender{}
	svc := newOTPService(db, sender, nil)

	require.NoError(t, svc.RequestOTP(context.Background(), "user@corp.test"))

	_, _, _, err := svc.VerifyOTP(context.Background(), "user@corp.test", "000000")
	require.Error(t, err)
	require.Contains(t, err.Error(), "40102:")
}

func TestVerifyOTPExpired(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "user", model.RoleEmployee, "")
	sender := &fakeSender{}
	svc := newOTPService(db, sender, nil)

	otp := &model.EmailOTP{
		UserID:    user.ID,
		Email:     "user@corp.test",
		Code:      "123456",
		CreatedAt: time.Now().Add(-model.OTPValidity - time.Minute),
	}
	require.NoError(t, db.Create(otp).Error)

	_, _, _, err := svc.VerifyOTP(context.Background(), "user@corp.test", "123456")
	require.Error(t, err)
	require.Contains(t, err.Error(), "40103:")
}

func TestVerifyOTPUsesLatestCode(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "user", model.RoleEmployee, "")
	sender := &fakeSender{}
	svc := newOTPService(db, sender, nil)

	old := &model.EmailOTP{
		UserID: user.ID, Email: "user@corp.test", Code: "111111",
		CreatedAt: time.Now().Add(-5 * time.Minute),
	}
	require.NoError(t, db.Create(old).Error)
	fresh := &model.EmailOTP{UserID: user.ID, Email: "user@corp.test", Code: "222222"}
	require.NoError(t, db.Create(fresh).Error)

	// both codes are still unused and inside the validity window
	got, _, _, err := svc.VerifyOTP(context.Background(), "user@corp.test", "222222")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}
