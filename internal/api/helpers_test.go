package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"edtech/internal/auth"
	"edtech/internal/database"
	"edtech/internal/database/dbtest"
	"edtech/internal/export"
)

const testLinkPrefix = "http://127.0.0.1:5000/v1/auth/verify/"

func init() {
	gin.SetMode(gin.TestMode)
}

type captureNotifier struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (n *captureNotifier) Send(_ context.Context, to, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies[to] = body
	return nil
}

func (n *captureNotifier) token(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	body, ok := n.bodies[email]
	require.True(t, ok, "no verification mail for %s", email)
	idx := strings.Index(body, testLinkPrefix)
	require.GreaterOrEqual(t, idx, 0)
	return body[idx+len(testLinkPrefix):]
}

type fakeQueue struct {
	tasks []*asynq.Task
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "t", Type: task.Type()}, nil
}

type fakeSigner struct{}

func (fakeSigner) PresignDownload(_ context.Context, objectKey string, _ time.Duration, filename string) (string, error) {
	return "https://files.example.com/" + objectKey + "?filename=" + filename, nil
}

type echoPrinter struct{}

func (echoPrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	return []byte("%PDF-" + html), nil
}

type memorySessions struct {
	mu       sync.Mutex
	limited  bool
	failures map[string]int
	revoked  map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{failures: map[string]int{}, revoked: map[string]bool{}}
}

func (s *memorySessions) CheckLogin(context.Context, string, string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limited {
		return true, "rate limit exceeded", nil
	}
	return false, "", nil
}

func (s *memorySessions) RecordLoginFailure(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[email]++
	return nil
}

func (s *memorySessions) ResetLoginFailures(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, email)
	return nil
}

func (s *memorySessions) RevokeRefreshToken(_ context.Context, jti string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = true
	return nil
}

func (s *memorySessions) IsRefreshTokenRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[jti], nil
}

type testEnv struct {
	router   *gin.Engine
	accounts *database.AccountStore
	cvs      *database.CVStore
	courses  *database.CourseStore
	tokens   *auth.TokenService
	notifier *captureNotifier
	queue    *fakeQueue
	sessions *memorySessions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService("test-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)
	signer, err := auth.NewVerificationSigner("test-secret")
	require.NoError(t, err)

	env := &testEnv{
		accounts: database.NewAccountStore(db),
		cvs:      database.NewCVStore(db),
		courses:  database.NewCourseStore(db),
		tokens:   tokens,
		notifier: &captureNotifier{bodies: map[string]string{}},
		queue:    &fakeQueue{},
		sessions: newMemorySessions(),
	}

	router := NewRouter(logger)
	RegisterRoutes(router, Deps{
		Accounts:   env.accounts,
		CVs:        env.cvs,
		Courses:    env.courses,
		Blogs:      database.NewBlogStore(db),
		Manager:    auth.NewManager(env.accounts, signer, env.notifier, testLinkPrefix, logger),
		Tokens:     tokens,
		Sessions:   env.sessions,
		Exporter:   export.NewEngine(echoPrinter{}),
		Queue:      env.queue,
		Signer:     fakeSigner{},
		Logger:     logger,
		PresignTTL: 15 * time.Minute,
	})
	env.router = router
	return env
}

// createAccount 直接写库创建账号并返回访问令牌。
func (e *testEnv) createAccount(t *testing.T, username, role string, verified bool) (*database.Account, string) {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	account := &database.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Verified:     verified,
		Role:         role,
	}
	require.NoError(t, e.accounts.CreateAccount(context.Background(), account))
	pair, err := e.tokens.GenerateTokenPair(account.ID)
	require.NoError(t, err)
	return account, pair.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertStatus(t *testing.T, want int, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

