package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/examstack/exam-service/internal/config"
	"github.com/examstack/exam-service/internal/models"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// TranslateError maps driver errors onto gorm sentinels like
		// ErrDuplicatedKey, which the submission flow relies on.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Question{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamAssignment{},
		&models.ExamResult{},
		&models.ResultAnswer{},
	); err != nil {
		return err
	}

	// One completed result per student per exam. Enforced in the database
	// so concurrent submissions cannot both land.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_results_completed
		 ON exam_results (exam_id, student_id)
		 WHERE status = 'completed'`,
	).Error
}
