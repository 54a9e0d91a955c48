package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只使用前 72 字节，超出部分会被静默忽略。
const maxPasswordBytes = 72

// HashPassword 使用 bcrypt 生成带盐的密码哈希。
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash 校验密码是否匹配哈希。
// hash 为空（账号不存在）时仍对占位哈希做一次比较，使耗时与真实校验接近，并返回 false。
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(placeholderHash()), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	placeholderOnce sync.Once
	placeholder     string
)

func placeholderHash() string {
	placeholderOnce.Do(func() {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("edtech-placeholder-password"), bcrypt.DefaultCost)
		placeholder = string(hashed)
	})
	return placeholder
}
