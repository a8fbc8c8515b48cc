package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gtrack/backend/internal/model"
	"github.com/gtrack/backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /team
func (h *UserHandler) TeamList(c *gin.Context) {
	users, err := h.userService.TeamList()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	list := make([]model.UserBrief, 0, len(users))
	for i := range users {
		list = append(list, users[i].Brief())
	}
	Success(c, gin.H{"members": list, "total": len(list)})
}

// POST /invites. Director/Team Lead only (route-gated).
func (h *UserHandler) Invite(c *gin.Context) {
	var req struct {
		Email      string `json:"email" binding:"required,email"`
		FullName   string `json:"full_name"`
		Role       string `json:"role" binding:"required"`
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, 40001, "validation failed: "+err.Error())
		return
	}

	user, err := h.userService.Invite(service.InviteInput{
		Email:      req.Email,
		FullName:   req.FullName,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"user":    user.Brief(),
		"message": "user saved, they can now log in using OTP",
	})
}
