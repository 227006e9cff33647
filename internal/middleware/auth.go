package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/models"
	"trailbook/api/internal/security"
)

const currentUserKey = "current_user"

// SessionCookie is the cookie carrying the session token for browser
// clients. LogoutSentinel is the short-lived value written on logout.
const (
	SessionCookie  = "jwt"
	LogoutSentinel = "loggedout"
)

// UserSource loads the account referenced by a verified token.
type UserSource interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// CurrentUser returns the authenticated user attached by RequireAuth or
// OptionalAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

// extractToken checks the Authorization header first, then the session
// cookie, in that order.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" && cookie != LogoutSentinel {
		return cookie
	}
	return ""
}

// authenticate walks the full chain: token present, token valid, user still
// exists and is active, password not changed since the token was issued.
func authenticate(c *gin.Context, secret string, users UserSource) (models.User, error) {
	tokenStr := extractToken(c)
	if tokenStr == "" {
		return models.User{}, apperror.NotAuthenticated("You are not logged in")
	}

	claims, err := security.ParseToken(tokenStr, secret)
	if err != nil {
		return models.User{}, err
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		// Treated as an authentication failure, not a 404, so the response
		// does not confirm whether the account ever existed.
		return models.User{}, apperror.NotAuthenticated("The user belonging to this token no longer exists")
	}
	if !user.Active {
		return models.User{}, apperror.NotAuthenticated("The user belonging to this token no longer exists")
	}

	if claims.IssuedAt != nil && user.PasswordChangedSince(claims.IssuedAt.Time) {
		return models.User{}, apperror.StalePassword()
	}

	return user, nil
}

// RequireAuth protects a route: any failure in the chain rejects with 401.
func RequireAuth(secret string, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c, secret, users)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// OptionalAuth personalizes rendered pages. Any failure resolves to
// anonymous; it never rejects and must never guard an action.
func OptionalAuth(secret string, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := authenticate(c, secret, users); err == nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// RequireRoles rejects authenticated users whose role is outside the set.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(apperror.NotAuthenticated("You are not logged in"))
			c.Abort()
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			_ = c.Error(apperror.Forbidden("You do not have permission to perform this action"))
			c.Abort()
			return
		}

		c.Next()
	}
}
