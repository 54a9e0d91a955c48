package api

import (
	"errors"
	"log/slog"
	"net/http"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"edtech/internal/api/middleware"
	"edtech/internal/auth"
	"edtech/internal/database"
)

const refreshTokenCookieName = "refresh_token"

// AuthHandler 处理注册、邮箱验证、登录、刷新与退出。
type AuthHandler struct {
	manager      *auth.Manager
	tokens       *auth.TokenService
	accounts     middleware.AccountLookup
	sessions     SessionStore
	logger       *slog.Logger
	cookieDomain string
}

// NewAuthHandler 构造认证处理器；sessions 为 nil 时不做登录节流与刷新令牌吊销检查。
func NewAuthHandler(manager *auth.Manager, tokens *auth.TokenService, accounts middleware.AccountLookup, sessions SessionStore, logger *slog.Logger, cookieDomain string) *AuthHandler {
	return &AuthHandler{
		manager:      manager,
		tokens:       tokens,
		accounts:     accounts,
		sessions:     sessions,
		logger:       logger,
		cookieDomain: cookieDomain,
	}
}

type accountResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newAccountResponse(a *database.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Verified:  a.Verified,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// Register 创建未验证账号并发送验证邮件。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := h.loggerFromContext(c).With(slog.String("email", req.Email))

	account, err := h.manager.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			logger.Info("register conflict: email already exists")
			Conflict(c, "Email already exists!")
		case errors.Is(err, auth.ErrDuplicateUsername):
			logger.Info("register conflict: username already taken")
			Conflict(c, "Username already taken!")
		case errors.Is(err, auth.ErrPasswordTooLong):
			BadRequest(c, "Password is too long.")
		default:
			logger.Error("register failed", slog.Any("error", err))
			Internal(c, "internal error")
		}
		return
	}

	logger.Info("account registered", slog.Uint64("account_id", uint64(account.ID)))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created! Please check your email to verify.",
		"account": newAccountResponse(account),
	})
}

// Verify 消费邮件中的验证令牌。
func (h *AuthHandler) Verify(c *gin.Context) {
	account, err := h.manager.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidOrExpiredToken) {
			BadRequest(c, "The verification link is invalid or expired.")
			return
		}
		h.loggerFromContext(c).Error("verify failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified! You can now log in.",
		"account": newAccountResponse(account),
	})
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendVerification 总是返回 202，不暴露邮箱是否已注册。
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.manager.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.loggerFromContext(c).Error("resend verification failed", slog.Any("error", err))
	}
	Message(c, http.StatusAccepted, "If an unverified account exists for this email, a new verification link has been sent.")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login 校验凭据并返回 Token；未验证的账号即使密码正确也会被拒绝。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("email", req.Email))

	if h.sessions != nil {
		limited, reason, err := h.sessions.CheckLogin(ctx, c.ClientIP(), req.Email)
		if err != nil {
			logger.Warn("login throttle check failed", slog.Any("error", err))
		} else if limited {
			TooManyRequests(c, reason)
			return
		}
	}

	account, err := h.manager.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			logger.Info("login failed: invalid credentials")
			h.recordLoginFailure(c, req.Email)
			Error(c, http.StatusUnauthorized, "Invalid email or password.")
		case errors.Is(err, auth.ErrUnverified):
			logger.Info("login rejected: email not verified")
			Forbidden(c, "Please verify your email before logging in.")
		default:
			logger.Error("login failed", slog.Any("error", err))
			Internal(c, "internal error")
		}
		return
	}

	if h.sessions != nil {
		_ = h.sessions.ResetLoginFailures(ctx, req.Email)
	}

	tokenPair, err := h.tokens.GenerateTokenPair(account.ID)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("login succeeded", slog.Uint64("account_id", uint64(account.ID)))
	h.replyWithTokenPair(c, tokenPair)
}

func (h *AuthHandler) recordLoginFailure(c *gin.Context, email string) {
	if h.sessions == nil {
		return
	}
	if err := h.sessions.RecordLoginFailure(c.Request.Context(), email); err != nil {
		h.loggerFromContext(c).Warn("record login failure failed", slog.Any("error", err))
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 校验刷新令牌并颁发新的 TokenPair，旧令牌随即作废。
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims, ok := h.validRefreshClaims(c)
	if !ok {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	if _, err := h.accounts.FindAccountByID(ctx, claims.AccountID); err != nil {
		logger.Info("refresh account not found", slog.Any("error", err))
		Unauthorized(c)
		return
	}

	tokenPair, err := h.tokens.GenerateTokenPair(claims.AccountID)
	if err != nil {
		logger.Error("refresh generate token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.revoke(c, claims); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	h.replyWithTokenPair(c, tokenPair)
}

// Logout 将刷新令牌加入黑名单并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := h.validRefreshClaims(c)
	if !ok {
		Unauthorized(c)
		return
	}

	if err := h.revoke(c, claims); err != nil {
		h.loggerFromContext(c).Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	stdhttp.SetCookie(c.Writer, &stdhttp.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: stdhttp.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.cookieDomain),
	})
	Message(c, http.StatusOK, "You have been logged out.")
}

// Me 返回当前登录账号。
func (h *AuthHandler) Me(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(account))
}

func (h *AuthHandler) validRefreshClaims(c *gin.Context) (*auth.TokenClaims, bool) {
	refreshToken := extractRefreshToken(c)
	if refreshToken == "" {
		return nil, false
	}

	logger := h.loggerFromContext(c)
	claims, err := h.tokens.ValidateToken(refreshToken)
	if err != nil {
		logger.Info("refresh token invalid", slog.Any("error", err))
		return nil, false
	}
	if claims.TokenType != auth.TokenTypeRefresh || claims.ID == "" {
		logger.Info("refresh token wrong type", slog.String("token_type", claims.TokenType))
		return nil, false
	}

	if h.sessions != nil {
		revoked, err := h.sessions.IsRefreshTokenRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
			return nil, false
		}
		if revoked {
			logger.Info("refresh token revoked", slog.String("jti", claims.ID))
			return nil, false
		}
	}
	return claims, true
}

func (h *AuthHandler) revoke(c *gin.Context, claims *auth.TokenClaims) error {
	if h.sessions == nil {
		return nil
	}
	ttl := h.tokens.RefreshTokenTTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return h.sessions.RevokeRefreshToken(c.Request.Context(), claims.ID, ttl)
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, tokenPair auth.TokenPair) {
	h.setRefreshCookie(c, tokenPair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: tokenPair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokens.AccessTokenTTL().Seconds()),
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	maxAge := int(h.tokens.RefreshTokenTTL().Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	stdhttp.SetCookie(c.Writer, &stdhttp.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: stdhttp.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.cookieDomain),
		Expires:  time.Now().Add(h.tokens.RefreshTokenTTL()),
	})
}

func extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
