package database

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 表示按主键或唯一键查询未命中。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 表示唯一约束冲突（存储层兜底）。
	ErrDuplicate = errors.New("duplicate record")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
