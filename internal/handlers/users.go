package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/middleware"
	"trailbook/api/internal/models"
	"trailbook/api/internal/repository"
)

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": toUserResponse(user)},
	})
}

// UpdateMe changes identity fields only. Password updates have their own
// route, and role is never client-writable here.
func (h HandlerSet) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	name := c.PostForm("name")
	emailAddr := c.PostForm("email")

	var photo *string
	if header, err := c.FormFile("photo"); err == nil && header != nil {
		url, err := h.mediaService.UploadUserPhoto(c.Request.Context(), user.ID, header)
		if err != nil {
			fail(c, err)
			return
		}
		photo = &url
	}

	if name == "" && emailAddr == "" && photo == nil {
		// JSON body fallback for API clients that don't send forms.
		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			name, emailAddr = req.Name, req.Email
		}
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, name, emailAddr, photo)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": toUserResponse(updated)},
	})
}

// DeleteMe deactivates the account; rows are never hard-deleted.
func (h HandlerSet) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperror.NotAuthenticated("You are not logged in"))
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), user.ID); err != nil {
		fail(c, err)
		return
	}

	h.setSessionCookie(c, middleware.LogoutSentinel, 10)
	c.JSON(http.StatusNoContent, nil)
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	users, err := h.users.List(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(out),
		"data":    gin.H{"users": out},
	})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			fail(c, apperror.NotFound("No user found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"user": toUserResponse(user)},
	})
}

type updateRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required,oneof=user guide lead-guide admin"`
}

func (h HandlerSet) UpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.ValidationFailed(err.Error()))
		return
	}

	if err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			fail(c, apperror.NotFound("No user found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h HandlerSet) DeactivateUser(c *gin.Context) {
	if err := h.users.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			fail(c, apperror.NotFound("No user found with that id"))
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
