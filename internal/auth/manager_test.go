package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"edtech/internal/database"
	"edtech/internal/database/dbtest"
)

const testLinkPrefix = "http://127.0.0.1:5000/v1/auth/verify/"

type sentMail struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, subject: subject, body: body})
	return n.err
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no mail sent")
	return n.sent[len(n.sent)-1]
}

type managerFixture struct {
	db       *gorm.DB
	manager  *Manager
	store    *database.AccountStore
	notifier *recordingNotifier
	now      time.Time
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &managerFixture{
		db:       db,
		store:    database.NewAccountStore(db),
		notifier: &recordingNotifier{},
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	signer := newTestSigner(t, &f.now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.manager = NewManager(f.store, signer, f.notifier, testLinkPrefix, logger)
	return f
}

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()
	idx := strings.Index(body, testLinkPrefix)
	require.GreaterOrEqual(t, idx, 0, "link missing from body: %s", body)
	return body[idx+len(testLinkPrefix):]
}

func TestManager_RegisterSendsVerificationMail(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	account, err := f.manager.Register(ctx, "jane", "a@b.com", "pw123456")
	require.NoError(t, err)
	assert.False(t, account.Verified)
	assert.Equal(t, database.RoleStudent, account.Role)
	assert.NotEqual(t, "pw123456", account.PasswordHash)

	mail := f.notifier.last(t)
	assert.Equal(t, "a@b.com", mail.to)
	assert.Equal(t, "Verify your EdTech account", mail.subject)
	assert.True(t, strings.HasPrefix(mail.body, "Click the link to verify your account: "+testLinkPrefix))

	verified, err := f.manager.Verify(ctx, tokenFromBody(t, mail.body))
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	stored, err := f.store.FindAccountByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, stored.Verified)
}

func TestManager_RegisterDuplicateEmail(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Register(ctx, "jane", "a@b.com", "pw")
	require.NoError(t, err)

	_, err = f.manager.Register(ctx, "someone-else", "a@b.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Len(t, f.notifier.sent, 1)

	var count int64
	require.NoError(t, f.db.Model(&database.Account{}).Where("email = ?", "a@b.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestManager_RegisterDuplicateUsername(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Register(ctx, "jane", "a@b.com", "pw")
	require.NoError(t, err)

	_, err = f.manager.Register(ctx, "jane", "c@d.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestManager_RegisterSurvivesNotifierFailure(t *testing.T) {
	f := newManagerFixture(t)
	f.notifier.err = errors.New("smtp unreachable")

	account, err := f.manager.Register(context.Background(), "jane", "a@b.com", "pw")
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Len(t, f.notifier.sent, 1)
}

func TestManager_VerifyIsIdempotent(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Register(ctx, "jane", "a@b.com", "pw")
	require.NoError(t, err)
	token := tokenFromBody(t, f.notifier.last(t).body)

	for i := 0; i < 2; i++ {
		account, err := f.manager.Verify(ctx, token)
		require.NoError(t, err)
		assert.True(t, account.Verified)
	}
}

func TestManager_VerifyExpiredOrUnknown(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Register(ctx, "jane", "a@b.com", "pw")
	require.NoError(t, err)
	token := tokenFromBody(t, f.notifier.last(t).body)

	f.now = f.now.Add(3601 * time.Second)
	_, err = f.manager.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	stored, err := f.store.FindAccountByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.Verified)

	orphan, err := f.manager.IssueVerificationToken("ghost@b.com")
	require.NoError(t, err)
	_, err = f.manager.Verify(ctx, orphan)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestManager_Authenticate(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Register(ctx, "jane", "a@b.com", "pw123456")
	require.NoError(t, err)

	_, err = f.manager.Authenticate(ctx, "a@b.com", "pw123456")
	assert.ErrorIs(t, err, ErrUnverified)

	_, err = f.manager.Authenticate(ctx, "a@b.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.manager.Authenticate(ctx, "nobody@b.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.manager.Verify(ctx, tokenFromBody(t, f.notifier.last(t).body))
	require.NoError(t, err)

	account, err := f.manager.Authenticate(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "jane", account.Username)
}

func TestManager_ResendVerification(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()

	_, err := f.manager.Register(ctx, "jane", "a@b.com", "pw")
	require.NoError(t, err)

	require.NoError(t, f.manager.ResendVerification(ctx, "a@b.com"))
	assert.Len(t, f.notifier.sent, 2)

	require.NoError(t, f.manager.ResendVerification(ctx, "ghost@b.com"))
	assert.Len(t, f.notifier.sent, 2)

	_, err = f.manager.Verify(ctx, tokenFromBody(t, f.notifier.last(t).body))
	require.NoError(t, err)

	require.NoError(t, f.manager.ResendVerification(ctx, "a@b.com"))
	assert.Len(t, f.notifier.sent, 2)
}
