package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
	"trailbook/api/internal/service"
)

type userResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Photo *string `json:"photo,omitempty"`
	Role  string  `json:"role"`
}

// toUserResponse is the only path from a user row to a payload; the
// password hash and reset token fields have no JSON representation at all.
func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Photo: user.Photo,
		Role:  string(user.Role),
	}
}

func (h HandlerSet) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.cfg.Production(), true)
}

func (h HandlerSet) sendAuthResult(c *gin.Context, status int, result service.AuthResult) {
	h.setSessionCookie(c, result.Token, int(h.cfg.Security.CookieTTL.Seconds()))
	c.JSON(status, gin.H{
		"status": "success",
		"token":  result.Token,
		"data":   gin.H{"user": toUserResponse(result.User)},
	})
}

type signupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.sendAuthResult(c, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.BadRequest("Please provide an email and password"))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.sendAuthResult(c, http.StatusOK, result)
}

// Logout overwrites the client cookie with a sentinel that expires in a few
// seconds; the server keeps no session state to tear down.
func (h HandlerSet) Logout(c *gin.Context) {
	h.setSessionCookie(c, middleware.LogoutSentinel, 10)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.BadRequest("Please provide your email"))
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	result, err := h.authService.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}

	h.sendAuthResult(c, http.StatusOK, result)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

func (h HandlerSet) UpdateMyPassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	result, err := h.authService.UpdatePassword(c.Request.Context(), user, req.CurrentPassword, req.Password, req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}

	h.sendAuthResult(c, http.StatusOK, result)
}
