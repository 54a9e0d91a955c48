package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// VerificationPurpose 是邮箱验证令牌的用途标签。
	VerificationPurpose = "email-confirm"
	// VerificationMaxAge 是签发后令牌的有效窗口（含边界）。
	VerificationMaxAge = 3600 * time.Second
)

// VerificationSigner 签发与校验无状态的邮箱验证令牌：{email, purpose, iat} 经 HS256 签名。
type VerificationSigner struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

type verificationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewVerificationSigner 使用进程级密钥构造签名器。
func NewVerificationSigner(secret string) (*VerificationSigner, error) {
	if secret == "" {
		return nil, errEmptySigningKey
	}
	return &VerificationSigner{
		secret: []byte(secret),
		maxAge: VerificationMaxAge,
		now:    time.Now,
	}, nil
}

// Issue 返回嵌入邮箱、用途标签与当前时间的签名令牌。
func (s *VerificationSigner) Issue(email string) (string, error) {
	claims := verificationClaims{
		Email:   email,
		Purpose: VerificationPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Parse 校验签名、用途与有效期并返回邮箱。
// 篡改、过期、用途不符统一返回 ErrInvalidOrExpiredToken，不向调用方区分原因。
func (s *VerificationSigner) Parse(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidOrExpiredToken
	}

	claims := &verificationClaims{}
	// 有效期按 iat 自行计算，允许恰好等于窗口上限。
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", ErrInvalidOrExpiredToken
	}

	if claims.Purpose != VerificationPurpose || claims.Email == "" || claims.IssuedAt == nil {
		return "", ErrInvalidOrExpiredToken
	}

	age := s.now().Unix() - claims.IssuedAt.Unix()
	if age < 0 || age > int64(s.maxAge/time.Second) {
		return "", ErrInvalidOrExpiredToken
	}

	return claims.Email, nil
}
