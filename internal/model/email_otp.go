package model

import (
	"crypto/rand"
	"math/big"
	"time"
)

// OTPValidity is how long a login code stays usable after creation.
const OTPValidity = 10 * time.Minute

type EmailOTP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_email_otps_user_id" json:"user_id"`
	Email     string    `gorm:"type:varchar(128);not null;index:idx_email_code,priority:1" json:"email"`
	Code      string    `gorm:"type:varchar(6);not null;index:idx_email_code,priority:2" json:"-"`
	IsUsed    bool      `gorm:"default:false" json:"is_used"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (EmailOTP) TableName() string { return "email_otps" }

func (o *EmailOTP) IsExpired(now time.Time) bool {
	return o.CreatedAt.Before(now.Add(-OTPValidity))
}

// GenerateOTPCode returns a random 6-digit numeric code.
func GenerateOTPCode() string {
	const digits = "0123456789"
	buf := make([]byte, 6)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			// crypto/rand failure is unrecoverable for login codes
			panic(err)
		}
		buf[i] = digits[n.Int64()]
	}
	return string(buf)
}
