package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GORM-compatible models with proper tags

// ActivityLogGorm represents the activity_log table with GORM tags
type ActivityLogGorm struct {
	ID           uint           `gorm:"primaryKey;column:id" json:"id"`
	CreatedAt    time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UserEmail    string         `gorm:"column:user_email;not null" json:"user_email"`
	HostName     string         `gorm:"column:host_name" json:"host_name"`
	IPAddress    string         `gorm:"column:ip_address" json:"ip_address"`
	EventContext string         `gorm:"column:event_context;not null" json:"event_context"`
	EventName    string         `gorm:"column:event_name;not null" json:"event_name"`
	Description  string         `gorm:"column:description;not null" json:"description"`
	ProjectID    string         `gorm:"column:project_id;index" json:"project_id"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ActivityLogGorm
func (ActivityLogGorm) TableName() string {
	return "activity_log"
}

// ReportRecordGorm registers every uploaded report object so the retention
// sweep can find it without listing the bucket.
type ReportRecordGorm struct {
	ID             uint           `gorm:"primaryKey;column:id" json:"id"`
	ObjectKey      string         `gorm:"column:object_key;uniqueIndex;not null" json:"object_key"`
	ProjectID      string         `gorm:"column:project_id;index;not null" json:"project_id"`
	ReportType     string         `gorm:"column:report_type;not null" json:"report_type"`
	RevisionNumber int            `gorm:"column:revision_number" json:"revision_number"`
	GeneratedBy    string         `gorm:"column:generated_by;not null" json:"generated_by"`
	Sections       pq.StringArray `gorm:"column:sections;type:text[]" json:"sections"`
	PageCount      int            `gorm:"column:page_count" json:"page_count"`
	Flattened      bool           `gorm:"column:flattened;default:false" json:"flattened"`
	Watermarked    bool           `gorm:"column:watermarked;default:false" json:"watermarked"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for ReportRecordGorm
func (ReportRecordGorm) TableName() string {
	return "report_record"
}
