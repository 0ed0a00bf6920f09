package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/config"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

// Context keys set by the auth middleware.
const (
	ctxKeyUser      = "user"
	ctxKeyUserID    = "user_id"
	ctxKeyUserRole  = "user_role"
	ctxKeyUserEmail = "user_email"
)

// CasdoorAuthMiddleware authenticates requests against Casdoor-issued
// bearer tokens and resolves the caller to a user record.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Cert,
			cfg.Application,
			cfg.Organization,
		),
		userRepo: userRepo,
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": msg,
	})
}

func abortForbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":   "forbidden",
		"message": msg,
	})
}

// AuthMiddleware validates the bearer token and stores the resolved
// user in the gin context for downstream handlers.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization header missing")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		user, err := cam.resolveUser(c.Request.Context(), claims)
		if err != nil {
			abortUnauthorized(c, "failed to resolve user")
			return
		}

		c.Set(ctxKeyUser, user)
		c.Set(ctxKeyUserID, user.ID)
		c.Set(ctxKeyUserRole, user.Role)
		c.Set(ctxKeyUserEmail, user.Email)
		c.Next()
	}
}

// RequireRoleMiddleware gates a route group on the caller's role. The
// check is exact membership: admins do not pass student-only groups, so
// exam taking stays a student operation.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			abortForbidden(c, "user role not found in context")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abortForbidden(c, "insufficient permissions")
	}
}

// resolveUser prefers the user repository (cache or Casdoor lookup) and
// falls back to the data embedded in the token claims, so a Casdoor
// outage does not lock out holders of valid tokens.
func (cam *CasdoorAuthMiddleware) resolveUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	if claims.Id == "" {
		return nil, errors.New("token carries no user id")
	}

	if user, err := cam.userRepo.GetByID(ctx, claims.Id); err == nil {
		return user, nil
	}
	return userFromClaims(claims), nil
}

func userFromClaims(claims *casdoorsdk.Claims) *models.User {
	role := models.RoleStudent
	switch strings.ToLower(claims.User.Type) {
	case "admin", "administrator":
		role = models.RoleAdmin
	}
	if claims.User.IsAdmin {
		role = models.RoleAdmin
	}

	avatar := claims.User.Avatar
	now := time.Now()
	return &models.User{
		ID:            claims.Id,
		FullName:      claims.User.DisplayName,
		Email:         claims.User.Email,
		Role:          role,
		AvatarURL:     &avatar,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// GetUserFromContext returns the authenticated user set by AuthMiddleware.
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil, errors.New("invalid user type in context")
	}
	return user, nil
}

func GetUserIDFromContext(c *gin.Context) (string, error) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", errors.New("user id not found in context")
	}
	id, ok := v.(string)
	if !ok {
		return "", errors.New("invalid user id type in context")
	}
	return id, nil
}

func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	v, ok := c.Get(ctxKeyUserRole)
	if !ok {
		return "", errors.New("user role not found in context")
	}
	role, ok := v.(models.UserRole)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
