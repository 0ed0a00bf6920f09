package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

// CasdoorConfig holds the connection settings for the Casdoor identity
// provider that owns all user records.
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

const (
	userCacheTTL   = 15 * time.Minute
	existsCacheTTL = time.Minute
)

// UserCasdoor is a read-only UserRepository backed by Casdoor, with a
// redis cache in front so hot lookups (exam decoration, auth) do not
// hit the identity provider on every request.
type UserCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client
}

func NewUserCasdoor(cfg CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	return &UserCasdoor{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.OrganizationName,
			cfg.ApplicationName,
		),
		redis: redisClient,
	}
}

func userCacheKey(kind, value string) string {
	return fmt.Sprintf("user:%s:%s", kind, value)
}

// cachedUser returns the cached user for key, or nil on miss or when
// redis is not configured. Cache errors are swallowed; Casdoor is the
// source of truth.
func (u *UserCasdoor) cachedUser(ctx context.Context, key string) *models.User {
	if u.redis == nil {
		return nil
	}

	raw, err := u.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

// rememberUser caches the user under both its id and email keys.
func (u *UserCasdoor) rememberUser(ctx context.Context, user *models.User) {
	if u.redis == nil || user == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	u.redis.Set(ctx, userCacheKey("id", user.ID), raw, userCacheTTL)
	u.redis.Set(ctx, userCacheKey("email", user.Email), raw, userCacheTTL)
}

// toModel maps a Casdoor user onto the service's user model. Timestamps
// that fail to parse are left zero.
func toModel(cu *casdoorsdk.User) *models.User {
	if cu == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if cu.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, cu.CreatedTime)
	}
	if cu.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, cu.UpdatedTime)
	}

	return &models.User{
		ID:            cu.Id,
		FullName:      cu.DisplayName,
		Email:         cu.Email,
		Role:          roleOf(cu),
		AvatarURL:     &cu.Avatar,
		EmailVerified: cu.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// roleOf collapses Casdoor's role list onto the two-role model. Any
// admin marker wins; everything else is a student.
func roleOf(cu *casdoorsdk.User) models.UserRole {
	if cu.IsAdmin {
		return models.RoleAdmin
	}
	for _, r := range cu.Roles {
		switch strings.ToLower(r.Name) {
		case "admin", "administrator":
			return models.RoleAdmin
		}
	}
	return models.RoleStudent
}

// lookup serves a single-user read through the cache, falling back to
// the given Casdoor fetch on miss.
func (u *UserCasdoor) lookup(ctx context.Context, key string, fetch func() (*casdoorsdk.User, error)) (*models.User, error) {
	if cached := u.cachedUser(ctx, key); cached != nil {
		return cached, nil
	}

	cu, err := fetch()
	if err != nil {
		return nil, fmt.Errorf("casdoor lookup failed: %w", err)
	}
	if cu == nil {
		return nil, errors.New("user not found")
	}

	user := toModel(cu)
	u.rememberUser(ctx, user)
	return user, nil
}

func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	return u.lookup(ctx, userCacheKey("id", id), func() (*casdoorsdk.User, error) {
		return u.client.GetUserByUserId(id)
	})
}

func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.lookup(ctx, userCacheKey("email", email), func() (*casdoorsdk.User, error) {
		return u.client.GetUserByEmail(email)
	})
}

// GetByIDs resolves a batch of ids. Users that cannot be fetched are
// skipped rather than failing the whole batch; callers treat missing
// entries as unresolved display names.
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetByID(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	key := userCacheKey("exists", id)
	if u.redis != nil {
		if flag, err := u.redis.Get(ctx, key).Result(); err == nil {
			return flag == "1", nil
		}
	}

	cu, err := u.client.GetUser(id)
	if err != nil {
		return false, fmt.Errorf("casdoor existence check failed: %w", err)
	}
	exists := cu != nil

	if u.redis != nil {
		flag := "0"
		if exists {
			flag = "1"
		}
		u.redis.Set(ctx, key, flag, existsCacheTTL)
	}
	return exists, nil
}

func (u *UserCasdoor) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}

// List pages through the organization's users. Casdoor pages are
// 1-indexed, so the offset is translated here.
func (u *UserCasdoor) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	page := filters.Offset/limit + 1

	query := map[string]string{}
	if filters.Query != "" {
		query["field"] = "email"
		query["value"] = filters.Query
	}

	casdoorUsers, count, err := u.client.GetPaginationUsers(page, limit, query)
	if err != nil {
		return nil, 0, fmt.Errorf("casdoor user listing failed: %w", err)
	}

	users := make([]*models.User, 0, len(casdoorUsers))
	for _, cu := range casdoorUsers {
		if user := toModel(cu); user != nil {
			users = append(users, user)
			u.rememberUser(ctx, user)
		}
	}
	return users, int64(count), nil
}
