package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cfss-backend/models"
	"cfss-backend/utils"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitGormDB opens the postgres database holding the activity log and the
// report registry. An empty DSN leaves both disabled and returns nil.
// The connection goes through lib/pq so DATABASE_URL accepts both URL and
// key=value forms.
func InitGormDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		utils.Logger.Warn("DATABASE_URL not set, activity log and report registry disabled")
		return nil, nil
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database with GORM: %w", err)
	}

	return db, nil
}

// AutoMigrate creates or updates the tables owned by this service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ActivityLogGorm{}, &models.ReportRecordGorm{})
}

// SaveActivityLog inserts one activity log row. A nil db is a no-op.
func SaveActivityLog(ctx context.Context, db *gorm.DB, log *models.ActivityLogGorm) error {
	if db == nil {
		return nil
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	if err := db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("save activity log: %w", err)
	}
	return nil
}

// ActivityLogFilter narrows ListActivityLogs.
type ActivityLogFilter struct {
	ProjectID string
	UserEmail string
	Page      int
	PageSize  int
}

// ListActivityLogs returns one page of activity log rows, newest first, and
// the total row count for the filter.
func ListActivityLogs(ctx context.Context, db *gorm.DB, filter ActivityLogFilter) ([]models.ActivityLogGorm, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}

	query := db.WithContext(ctx).Model(&models.ActivityLogGorm{})
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.UserEmail != "" {
		query = query.Where("LOWER(user_email) = LOWER(?)", filter.UserEmail)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	var logs []models.ActivityLogGorm
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, total, nil
}

// SaveReportRecord registers an uploaded report. A nil db is a no-op.
func SaveReportRecord(ctx context.Context, db *gorm.DB, record *models.ReportRecordGorm) error {
	if db == nil {
		return nil
	}
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("save report record: %w", err)
	}
	return nil
}

// ExpiredReportRecords returns registered reports created before cutoff.
func ExpiredReportRecords(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]models.ReportRecordGorm, error) {
	var records []models.ReportRecordGorm
	err := db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("query expired reports: %w", err)
	}
	return records, nil
}

// DeleteReportRecord soft-deletes the registry row for key.
func DeleteReportRecord(ctx context.Context, db *gorm.DB, key string) error {
	err := db.WithContext(ctx).
		Where("object_key = ?", key).
		Delete(&models.ReportRecordGorm{}).Error
	if err != nil {
		return fmt.Errorf("delete report record %s: %w", key, err)
	}
	return nil
}

// Registry binds the activity log and report registry helpers to one
// connection. A Registry with a nil DB stores nothing.
type Registry struct {
	DB *gorm.DB
}

func (r Registry) SaveActivityLog(ctx context.Context, log *models.ActivityLogGorm) error {
	return SaveActivityLog(ctx, r.DB, log)
}

func (r Registry) SaveReportRecord(ctx context.Context, record *models.ReportRecordGorm) error {
	return SaveReportRecord(ctx, r.DB, record)
}

func (r Registry) ExpiredReportRecords(ctx context.Context, cutoff time.Time) ([]models.ReportRecordGorm, error) {
	if r.DB == nil {
		return nil, nil
	}
	return ExpiredReportRecords(ctx, r.DB, cutoff)
}

func (r Registry) DeleteReportRecord(ctx context.Context, key string) error {
	if r.DB == nil {
		return nil
	}
	return DeleteReportRecord(ctx, r.DB, key)
}
