package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"edtech/internal/database"
)

const (
	verificationSubject  = "Verify your EdTech account"
	verificationTemplate = "Click the link to verify your account: %s"
	notifyTimeout        = 5 * time.Second
)

// AccountStore 是 Manager 依赖的账号持久化能力。
type AccountStore interface {
	FindAccountByEmail(ctx context.Context, email string) (*database.Account, error)
	CreateAccount(ctx context.Context, account *database.Account) error
	MarkAccountVerified(ctx context.Context, id uint) error
}

// Notifier 投递一封纯文本邮件。实现可以是同步 SMTP，也可以是入队。
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Manager 负责注册、邮箱验证与登录凭据校验。
type Manager struct {
	store      AccountStore
	signer     *VerificationSigner
	notifier   Notifier
	linkPrefix string
	logger     *slog.Logger
}

// NewManager 组装 Manager；linkPrefix 形如 "https://host/v1/auth/verify/"，令牌直接拼接在其后。
func NewManager(store AccountStore, signer *VerificationSigner, notifier Notifier, linkPrefix string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      store,
		signer:     signer,
		notifier:   notifier,
		linkPrefix: linkPrefix,
		logger:     logger,
	}
}

// Register 创建未验证的账号并尽力发送验证邮件。
// 邮件发送失败只记录日志，不影响注册结果。
func (m *Manager) Register(ctx context.Context, username, email, password string) (*database.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if _, err := m.store.FindAccountByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &database.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Verified:     false,
		Role:         database.RoleStudent,
	}
	if err := m.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, m.duplicateCause(ctx, email)
		}
		return nil, err
	}

	m.sendVerification(ctx, account.Email)
	return account, nil
}

// 并发注册时唯一约束兜底，再查一次邮箱以确定冲突字段。
func (m *Manager) duplicateCause(ctx context.Context, email string) error {
	if _, err := m.store.FindAccountByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// IssueVerificationToken 为邮箱签发验证令牌。
func (m *Manager) IssueVerificationToken(email string) (string, error) {
	return m.signer.Issue(email)
}

// VerificationLink 返回带令牌的绝对验证链接。
func (m *Manager) VerificationLink(token string) string {
	return m.linkPrefix + token
}

// Verify 校验令牌并把对应账号置为已验证；已验证的账号再次验证同样成功。
func (m *Manager) Verify(ctx context.Context, token string) (*database.Account, error) {
	email, err := m.signer.Parse(token)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}

	account, err := m.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !account.Verified {
		if err := m.store.MarkAccountVerified(ctx, account.ID); err != nil {
			return nil, err
		}
		account.Verified = true
		m.logger.InfoContext(ctx, "account verified", slog.Uint64("account_id", uint64(account.ID)))
	}
	return account, nil
}

// Authenticate 校验邮箱与密码。
// 邮箱不存在与密码错误返回同一个错误；凭据正确但未验证时返回 ErrUnverified。
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*database.Account, error) {
	account, err := m.store.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// 与正常校验消耗相近的时间，避免通过耗时探测邮箱是否注册。
			CheckPasswordHash(password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !account.Verified {
		return nil, ErrUnverified
	}
	return account, nil
}

// ResendVerification 为未验证账号重新发送验证邮件。
// 账号不存在或已验证时静默返回，调用方无法据此判断邮箱是否注册。
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	account, err := m.store.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}
	if account.Verified {
		return nil
	}
	m.sendVerification(ctx, account.Email)
	return nil
}

func (m *Manager) sendVerification(ctx context.Context, email string) {
	if m.notifier == nil {
		return
	}

	token, err := m.signer.Issue(email)
	if err != nil {
		m.logger.ErrorContext(ctx, "issue verification token failed", slog.Any("error", err))
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	body := fmt.Sprintf(verificationTemplate, m.VerificationLink(token))
	if err := m.notifier.Send(sendCtx, email, verificationSubject, body); err != nil {
		m.logger.WarnContext(ctx, "send verification email failed",
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
}
