package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// 课程列表排序方式。
const (
	CourseSortNone   = ""
	CourseSortPrice  = "price"
	CourseSortRating = "rating"
)

// MaxProgress 是学习进度的上限。
const MaxProgress = 100

// CourseFilter 描述课程列表的查询条件。
type CourseFilter struct {
	Search   string
	Category string
	Sort     string
}

// CourseStore 负责课程与报名记录。
type CourseStore struct {
	db *gorm.DB
}

func NewCourseStore(db *gorm.DB) *CourseStore {
	return &CourseStore{db: db}
}

// ListCourses 按标题关键字（不区分大小写）与分类过滤；price 升序，rating 降序。
func (s *CourseStore) ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	query := s.db.WithContext(ctx).Model(&Course{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	switch filter.Sort {
	case CourseSortPrice:
		query = query.Order("price ASC")
	case CourseSortRating:
		query = query.Order("rating DESC")
	}
	query = query.Order("id ASC")

	var courses []Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *CourseStore) FindCourseByID(ctx context.Context, id uint) (*Course, error) {
	var course Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

// SeedCourses 插入标题尚不存在的课程，返回新插入的数量。
func (s *CourseStore) SeedCourses(ctx context.Context, courses []Course) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range courses {
			var count int64
			if err := tx.Model(&Course{}).Where("title = ?", courses[i].Title).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&courses[i]).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed courses: %w", err)
	}
	return inserted, nil
}

// Enroll 为账号报名课程；已报名时返回现有记录且 created 为 false。
func (s *CourseStore) Enroll(ctx context.Context, accountID, courseID uint) (enrollment *Enrollment, created bool, err error) {
	if _, err := s.FindCourseByID(ctx, courseID); err != nil {
		return nil, false, err
	}

	existing, err := s.findEnrollment(ctx, accountID, courseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	enrollment = &Enrollment{AccountID: accountID, CourseID: courseID, Progress: 0}
	if err := s.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			// 并发报名：唯一索引兜底，返回已存在的记录。
			existing, findErr := s.findEnrollment(ctx, accountID, courseID)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create enrollment: %w", err)
	}
	return enrollment, true, nil
}

func (s *CourseStore) findEnrollment(ctx context.Context, accountID, courseID uint) (*Enrollment, error) {
	var enrollment Enrollment
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND course_id = ?", accountID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &enrollment, nil
}

// ListEnrollmentsByAccount 返回账号的全部报名记录（附带课程）。
func (s *CourseStore) ListEnrollmentsByAccount(ctx context.Context, accountID uint) ([]Enrollment, error) {
	var enrollments []Enrollment
	if err := s.db.WithContext(ctx).
		Preload("Course").
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindEnrollmentByID 不做归属过滤，调用方比较 AccountID。
func (s *CourseStore) FindEnrollmentByID(ctx context.Context, id uint) (*Enrollment, error) {
	var enrollment Enrollment
	if err := s.db.WithContext(ctx).Preload("Course").First(&enrollment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &enrollment, nil
}

// UpdateProgress 写入进度，超过上限时截断为 MaxProgress。
func (s *CourseStore) UpdateProgress(ctx context.Context, enrollment *Enrollment, progress int) error {
	if progress > MaxProgress {
		progress = MaxProgress
	}
	if err := s.db.WithContext(ctx).Model(enrollment).Update("progress", progress).Error; err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	enrollment.Progress = progress
	return nil
}
