package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func registerBody(username, email string) map[string]string {
	return map[string]string{"username": username, "email": email, "password": "pw123456"}
}

func loginBody(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshTokenCookieName {
			return cookie.Value
		}
	}
	t.Fatalf("refresh cookie missing")
	return ""
}

func TestAuth_RegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/auth/register", registerBody("jane", "a@b.com"), "")
	assertStatus(t, http.StatusCreated, rec)
	assert.Contains(t, rec.Body.String(), "Please check your email to verify")

	rec = env.do(t, http.MethodPost, "/v1/auth/login", loginBody("a@b.com", "pw123456"), "")
	assertStatus(t, http.StatusForbidden, rec)

	rec = env.do(t, http.MethodGet, "/v1/auth/verify/"+env.notifier.token(t, "a@b.com"), nil, "")
	assertStatus(t, http.StatusOK, rec)
	assert.Contains(t, rec.Body.String(), "Email verified")

	rec = env.do(t, http.MethodPost, "/v1/auth/login", loginBody("a@b.com", "pw123456"), "")
	assertStatus(t, http.StatusOK, rec)
	tokens := decode[tokenResponse](t, rec)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, 900, tokens.ExpiresIn)
	assert.NotEmpty(t, refreshCookie(t, rec))

	rec = env.do(t, http.MethodGet, "/v1/me", nil, tokens.AccessToken)
	assertStatus(t, http.StatusOK, rec)
	me := decode[accountResponse](t, rec)
	assert.Equal(t, "jane", me.Username)
	assert.True(t, me.Verified)
	assert.Equal(t, "student", me.Role)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	assertStatus(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/auth/register", registerBody("jane", "a@b.com"), ""))
	rec := env.do(t, http.MethodPost, "/v1/auth/register", registerBody("john", "a@b.com"), "")
	assertStatus(t, http.StatusConflict, rec)
	assert.Contains(t, rec.Body.String(), "Email already exists")
}

func TestAuth_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/auth/register", map[string]string{"username": "jane", "email": "not-an-email", "password": "pw123456"}, "")
	assertStatus(t, http.StatusBadRequest, rec)
}

func TestAuth_VerifyInvalidToken(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/auth/verify/not-a-token", nil, "")
	assertStatus(t, http.StatusBadRequest, rec)
	assert.Contains(t, rec.Body.String(), "invalid or expired")
}

func TestAuth_LoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "jane", "student", true)

	wrongPassword := env.do(t, http.MethodPost, "/v1/auth/login", loginBody("jane@example.com", "nope"), "")
	assertStatus(t, http.StatusUnauthorized, wrongPassword)

	unknown := env.do(t, http.MethodPost, "/v1/auth/login", loginBody("ghost@example.com", "password123"), "")
	assertStatus(t, http.StatusUnauthorized, unknown)

	assert.JSONEq(t, wrongPassword.Body.String(), unknown.Body.String())
	assert.Equal(t, 1, env.sessions.failures["jane@example.com"])
}

func TestAuth_LoginRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "jane", "student", true)
	env.sessions.limited = true

	rec := env.do(t, http.MethodPost, "/v1/auth/login", loginBody("jane@example.com", "password123"), "")
	assertStatus(t, http.StatusTooManyRequests, rec)
}

func TestAuth_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "jane", "student", true)

	rec := env.do(t, http.MethodPost, "/v1/auth/login", loginBody("jane@example.com", "password123"), "")
	assertStatus(t, http.StatusOK, rec)
	firstRefresh := refreshCookie(t, rec)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": firstRefresh}, "")
	assertStatus(t, http.StatusOK, rec)
	secondRefresh := refreshCookie(t, rec)
	access := decode[tokenResponse](t, rec).AccessToken

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": firstRefresh}, "")
	assertStatus(t, http.StatusUnauthorized, rec)

	rec = env.do(t, http.MethodPost, "/v1/auth/logout", map[string]string{"refresh_token": secondRefresh}, access)
	assertStatus(t, http.StatusOK, rec)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": secondRefresh}, "")
	assertStatus(t, http.StatusUnauthorized, rec)
}

func TestAuth_RefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	_, access := env.createAccount(t, "jane", "student", true)

	rec := env.do(t, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": access}, "")
	assertStatus(t, http.StatusUnauthorized, rec)
}

func TestAuth_ResendVerificationAlwaysAccepted(t *testing.T) {
	env := newTestEnv(t)
	assertStatus(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/auth/register", registerBody("jane", "a@b.com"), ""))
	delete(env.notifier.bodies, "a@b.com")

	rec := env.do(t, http.MethodPost, "/v1/auth/verify/resend", map[string]string{"email": "a@b.com"}, "")
	assertStatus(t, http.StatusAccepted, rec)

	rec = env.do(t, http.MethodGet, "/v1/auth/verify/"+env.notifier.token(t, "a@b.com"), nil, "")
	assertStatus(t, http.StatusOK, rec)

	rec = env.do(t, http.MethodPost, "/v1/auth/verify/resend", map[string]string{"email": "ghost@b.com"}, "")
	assertStatus(t, http.StatusAccepted, rec)
}

func TestAuth_MeRequiresVerifiedAccount(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createAccount(t, "jane", "student", false)

	assertStatus(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/me", nil, token))
	assertStatus(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/v1/me", nil, ""))
}
