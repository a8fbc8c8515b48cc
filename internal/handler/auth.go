package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/middleware"
	"github.com/gtrack/backend/internal/service"
)

type AuthHandler struct {
	otpService *service.OTPService
}

func NewAuthHandler(otpService *service.OTPService) *AuthHandler {
	return &AuthHandler{otpService: otpService}
}

// POST /auth/otp/request
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	if err := h.otpService.RequestOTP(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "OTP sent to your email"})
}

// POST /auth/otp/verify
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	user, token, expireAt, err := h.otpService.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"token":     token,
		"expire_at": expireAt,
		"user":      user.Brief(),
	})
}

// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		Unauthorized(c, 40103, "not authenticated")
		return
	}
	Success(c, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"full_name":  user.FullName,
		"email":      user.Email,
		"profile":    user.Profile,
		"created_at": user.CreatedAt,
	})
}
