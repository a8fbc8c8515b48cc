package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gtrack/backend/internal/mail"
	"github.com/gtrack/backend/internal/model"
	jwtpkg "github.com/gtrack/backend/pkg/jwt"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OTPLimiter throttles code requests per email address.
type OTPLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
}

type OTPService struct {
	db             *gorm.DB
	dir            *DirectoryService
	sender         mail.Sender
	limiter        OTPLimiter
	logger         *zap.Logger
	allowedDomains map[string]struct{}
	jwtSecret      string
	jwtExpireHours int
	now            func() time.Time
}

func NewOTPService(db *gorm.DB, dir *DirectoryService, sender mail.Sender, limiter OTPLimiter, logger *zap.Logger, allowedDomains []string, jwtSecret string, jwtExpireHours int) *OTPService {
	domains := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		domains[strings.ToLower(d)] = struct{}{}
	}
	return &OTPService{
		db:             db,
		dir:            dir,
		sender:         sender,
		limiter:        limiter,
		logger:         logger,
		allowedDomains: domains,
		jwtSecret:      jwtSecret,
		jwtExpireHours: jwtExpireHours,
		now:            time.Now,
	}
}

func (s *OTPService) domainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	_, ok := s.allowedDomains[email[at+1:]]
	return ok
}

// RequestOTP generates and emails a fresh login code. Prior unused codes for
// the same user are left alone. A mail failure is fatal: the user must not
// be told a code was sent when none was delivered.
func (s *OTPService) RequestOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !s.domainAllowed(email) {
		return fmt.Errorf("40006:please use your company work email address")
	}

	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("40401:no account found with that email")
		}
		return err
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, email)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("42901:too many codes requested, please try again later")
		}
	}

	code := model.GenerateOTPCode()
	otp := &model.EmailOTP{UserID: user.ID, Email: email, Code: code}
	if err := s.db.Create(otp).Error; err != nil {
		return err
	}

	body := fmt.Sprintf("Your login code is: %s\n\nIt expires in 10 minutes.", code)
	if err := s.sender.Send(email, "Your login code", body); err != nil {
		s.logger.Error("otp mail delivery failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("50002:could not send the login code, please try again")
	}
	return nil
}

// VerifyOTP checks the most recent unused (email, code) row. Invalid and
// expired are distinct outcomes: an expired code requires a fresh request,
// an invalid one only a retyped entry.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) (*model.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	var otp model.EmailOTP
	err := s.db.Where("email = ? AND code = ? AND is_used = ?", email, code, false).
		Order("created_at desc, id desc").
		First(&otp).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", time.Time{}, fmt.Errorf("40102:invalid code or email")
		}
		return nil, "", time.Time{}, err
	}

	if otp.IsExpired(s.now()) {
		return nil, "", time.Time{}, fmt.Errorf("40103:this code has expired, please request a new one")
	}

	if err := s.db.Model(&otp).Update("is_used", true).Error; err != nil {
		return nil, "", time.Time{}, err
	}

	var user model.User
	if err := s.db.Preload("Profile").First(&user, otp.UserID).Error; err != nil {
		return nil, "", time.Time{}, err
	}

	token, expireAt, err := jwtpkg.GenerateToken(s.jwtSecret, user.ID, s.dir.RoleOf(&user), s.jwtExpireHours)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	return &user, token, expireAt, nil
}
