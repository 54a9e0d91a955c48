package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// AccountStore 基于 GORM 的账号存储。
type AccountStore struct {
	db *gorm.DB
}

// NewAccountStore 构造 AccountStore。
func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

// FindAccountByEmail 按邮箱查询账号，未命中返回 ErrNotFound。
func (s *AccountStore) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// FindAccountByID 按主键查询账号。
func (s *AccountStore) FindAccountByID(ctx context.Context, id uint) (*Account, error) {
	var account Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// CreateAccount 插入账号；唯一约束冲突返回 ErrDuplicate。
func (s *AccountStore) CreateAccount(ctx context.Context, account *Account) error {
	if account.Role == "" {
		account.Role = RoleStudent
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", translate(err))
	}
	return nil
}

// MarkAccountVerified 将账号标记为已验证；重复调用无副作用。
func (s *AccountStore) MarkAccountVerified(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Update("verified", true)
	if result.Error != nil {
		return fmt.Errorf("mark account verified: %w", result.Error)
	}
	return nil
}

// UpdateAccountRole 修改账号角色并返回更新后的记录。
func (s *AccountStore) UpdateAccountRole(ctx context.Context, id uint, role string) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, id).Error; err != nil {
			return err
		}
		return tx.Model(&account).Update("role", role).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	account.Role = role
	return &account, nil
}

// ListAccounts 按注册顺序列出全部账号。
func (s *AccountStore) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
