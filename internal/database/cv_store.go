package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CVStore 负责简历与导出记录的持久化。
type CVStore struct {
	db *gorm.DB
}

func NewCVStore(db *gorm.DB) *CVStore {
	return &CVStore{db: db}
}

func (s *CVStore) CreateCV(ctx context.Context, cv *CV) error {
	if err := s.db.WithContext(ctx).Create(cv).Error; err != nil {
		return fmt.Errorf("create cv: %w", translate(err))
	}
	return nil
}

// FindCVByID 不做归属过滤；调用方负责比较 AccountID 以区分 404 与 403。
func (s *CVStore) FindCVByID(ctx context.Context, id uint) (*CV, error) {
	var cv CV
	if err := s.db.WithContext(ctx).First(&cv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &cv, nil
}

func (s *CVStore) ListCVsByAccount(ctx context.Context, accountID uint) ([]CV, error) {
	var cvs []CV
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&cvs).Error; err != nil {
		return nil, err
	}
	return cvs, nil
}

func (s *CVStore) CreateExport(ctx context.Context, export *CVExport) error {
	if export.Status == "" {
		export.Status = ExportStatusPending
	}
	if err := s.db.WithContext(ctx).Create(export).Error; err != nil {
		return fmt.Errorf("create cv export: %w", translate(err))
	}
	return nil
}

func (s *CVStore) FindExportByID(ctx context.Context, id uint) (*CVExport, error) {
	var export CVExport
	if err := s.db.WithContext(ctx).First(&export, id).Error; err != nil {
		return nil, translate(err)
	}
	return &export, nil
}

// CompleteExport 记录对象 Key 并将状态置为 completed。
func (s *CVStore) CompleteExport(ctx context.Context, id uint, objectKey string) error {
	return s.updateExport(ctx, id, map[string]any{
		"status":     ExportStatusCompleted,
		"object_key": objectKey,
		"error":      "",
	})
}

// FailExport 记录失败原因，截断到列宽。
func (s *CVStore) FailExport(ctx context.Context, id uint, reason string) error {
	if len(reason) > 512 {
		reason = reason[:512]
	}
	return s.updateExport(ctx, id, map[string]any{
		"status": ExportStatusFailed,
		"error":  reason,
	})
}

func (s *CVStore) updateExport(ctx context.Context, id uint, updates map[string]any) error {
	if err := s.db.WithContext(ctx).Model(&CVExport{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update cv export %d: %w", id, err)
	}
	return nil
}
