package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/examstack/exam-service/internal/cache"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/repositories/casdoor"
)

// RepositoryConfig carries the connections the repository layer needs.
// RedisClient may be nil; caching then degrades to direct reads.
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig
}

// PostgreSQLRepository is the aggregate Repository over postgres-backed
// stores plus the Casdoor-backed user store.
type PostgreSQLRepository struct {
	db     *gorm.DB
	rdb    *redis.Client
	caches *cache.CacheManager

	question repositories.QuestionRepository
	exam     repositories.ExamRepository
	result   repositories.ResultRepository
	user     repositories.UserRepository
}

func NewPostgreSQLRepository(cfg RepositoryConfig) repositories.Repository {
	r := &PostgreSQLRepository{
		db:     cfg.DB,
		rdb:    cfg.RedisClient,
		caches: cache.NewCacheManager(cfg.RedisClient),
	}
	r.question = NewQuestionPostgreSQL(cfg.DB, cfg.RedisClient)
	r.exam = NewExamPostgreSQL(cfg.DB, cfg.RedisClient)
	r.result = NewResultPostgreSQL(cfg.DB, cfg.RedisClient)
	r.user = casdoor.NewUserCasdoor(cfg.CasdoorConfig, cfg.RedisClient)
	return r
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }

func (r *PostgreSQLRepository) Exam() repositories.ExamRepository { return r.exam }

func (r *PostgreSQLRepository) Result() repositories.ResultRepository { return r.result }

func (r *PostgreSQLRepository) User() repositories.UserRepository { return r.user }

// WithTransaction runs fn against a repository view bound to one
// database transaction. The user store is external and stays shared.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &PostgreSQLRepository{
			db:       tx,
			rdb:      r.rdb,
			caches:   r.caches,
			question: NewQuestionPostgreSQL(tx, r.rdb),
			exam:     NewExamPostgreSQL(tx, r.rdb),
			result:   NewResultPostgreSQL(tx, r.rdb),
			user:     r.user,
		}
		return fn(scoped)
	})
}

// Ping verifies the database and, when configured, the cache.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	if r.rdb != nil {
		if err := r.caches.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping: %w", err)
		}
	}
	return nil
}

// Close releases the database and redis connections.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	if r.rdb != nil {
		if err := r.rdb.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}

type repositoryManager struct {
	cfg  RepositoryConfig
	repo repositories.Repository
}

// NewRepositoryManager wraps the repository layer with lifecycle
// management (connection checks, shutdown).
func NewRepositoryManager(cfg RepositoryConfig) repositories.RepositoryManager {
	return &repositoryManager{cfg: cfg}
}

// Initialize verifies the configured connections before handing out
// repositories.
func (m *repositoryManager) Initialize() error {
	if m.cfg.DB == nil {
		return errors.New("database connection is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sqlDB, err := m.cfg.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if m.cfg.RedisClient != nil {
		if err := m.cfg.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	m.repo = NewPostgreSQLRepository(m.cfg)
	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return errors.New("repository not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
