package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 账号角色。
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// ValidRole 判断角色是否在允许的集合内。
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Account 表示平台账号，用户名与邮箱均全局唯一。
type Account struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:100;not null"`
	Email        string `gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Verified     bool   `gorm:"not null;default:false"`
	Role         string `gorm:"size:32;not null;default:student"`
	CVs          []CV   `gorm:"constraint:OnDelete:CASCADE"`
}

// CV 表示账号创建的简历记录，创建后不再修改。
type CV struct {
	gorm.Model
	AccountID  uint           `gorm:"index;not null"`
	Account    Account        `gorm:"constraint:OnDelete:CASCADE"`
	FullName   string         `gorm:"size:100;not null"`
	Email      string         `gorm:"size:120;not null"`
	Phone      string         `gorm:"size:20;not null"`
	Links      datatypes.JSON `gorm:"type:jsonb"`
	Summary    string         `gorm:"type:text"`
	Skills     string         `gorm:"type:text"`
	Experience string         `gorm:"type:text"`
	Education  string         `gorm:"type:text"`
	Projects   string         `gorm:"type:text"`
}

// 导出任务状态。
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// CVExport 记录一次异步导出及其在对象存储中的位置。
type CVExport struct {
	gorm.Model
	CVID      uint   `gorm:"index;not null"`
	CV        CV     `gorm:"constraint:OnDelete:CASCADE"`
	AccountID uint   `gorm:"index;not null"`
	Format    string `gorm:"size:8;not null"`
	Status    string `gorm:"size:32;not null"`
	ObjectKey string `gorm:"size:512"`
	Error     string `gorm:"size:512"`
}

// Course 表示可报名的课程。
type Course struct {
	gorm.Model
	Title       string  `gorm:"size:200;not null"`
	Description string  `gorm:"type:text;not null"`
	Category    string  `gorm:"size:100;not null;index"`
	Price       int     `gorm:"not null"`
	Rating      float64 `gorm:"not null;default:0"`
}

// Enrollment 连接账号与课程，并记录学习进度（0-100）。
type Enrollment struct {
	gorm.Model
	AccountID uint    `gorm:"uniqueIndex:idx_enrollment_account_course;not null"`
	Account   Account `gorm:"constraint:OnDelete:CASCADE"`
	CourseID  uint    `gorm:"uniqueIndex:idx_enrollment_account_course;not null"`
	Course    Course  `gorm:"constraint:OnDelete:CASCADE"`
	Progress  int     `gorm:"not null;default:0"`
}

// Blog 表示一篇博客文章。
type Blog struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"size:150;not null"`
	Content   string    `gorm:"type:text;not null"`
	Author    string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"index"`
}

// AllModels lists every model for AutoMigrate in tests and tooling.
func AllModels() []any {
	return []any{&Account{}, &CV{}, &CVExport{}, &Course{}, &Enrollment{}, &Blog{}}
}
