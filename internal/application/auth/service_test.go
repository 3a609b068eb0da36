package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redibo/rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error) {
	args := m.Called(ctx, sub)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

// memVerifications is an in-memory verificationStore keyed by user+type.
type memVerifications struct {
	rows map[string]*domain.Verification
}

func newMemVerifications() *memVerifications {
	return &memVerifications{rows: map[string]*domain.Verification{}}
}

func (m *memVerifications) Put(_ context.Context, v *domain.Verification) error {
	m.rows[v.UserID+"/"+v.Type] = v
	return nil
}
func (m *memVerifications) Get(_ context.Context, userID, verType string) (*domain.Verification, error) {
	if v, ok := m.rows[userID+"/"+verType]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memVerifications) Delete(_ context.Context, userID, verType string) error {
	delete(m.rows, userID+"/"+verType)
	return nil
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type stubSigner struct{}

func (stubSigner) Sign(userID, email, fullName, role string) (string, error) {
	return "token-for-" + userID, nil
}

// --- helpers ---

func hash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func testUser(t *testing.T, twoFactor bool) *domain.User {
	return &domain.User{
		UserID:           "u1",
		Email:            "alice@example.com",
		PasswordHash:     hash(t, "password123"),
		Role:             domain.RoleRenter,
		FirstName:        "Alice",
		LastName:         "Smith",
		TwoFactorEnabled: twoFactor,
		Enable:           true,
	}
}

func newTestService(us *mockUserStore, vs *memVerifications, mailer *mockMailer) Service {
	return NewService(ServiceDeps{
		UserRepo:         us,
		VerificationRepo: vs,
		Mailer:           mailer,
		JWTProvider:      stubSigner{},
		CodeTTL:          10 * time.Minute,
	})
}

// --- tests ---

func TestLogin_NoTwoFactorIssuesToken(t *testing.T) {
	us := &mockUserStore{}
	u := testUser(t, false)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	svc := newTestService(us, newMemVerifications(), &mockMailer{})
	result, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-u1", result.Token)
	assert.False(t, result.TwoFactorRequired)
	assert.Equal(t, u, result.User)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, false), nil)

	svc := newTestService(us, newMemVerifications(), &mockMailer{})
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	svc := newTestService(us, newMemVerifications(), &mockMailer{})
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	us := &mockUserStore{}
	u := testUser(t, false)
	u.Enable = false
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	svc := newTestService(us, newMemVerifications(), &mockMailer{})
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_NoSignerConfigured(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, false), nil)

	// Runs without JWT keys the way the degraded startup path does.
	svc := NewService(ServiceDeps{
		UserRepo:         us,
		VerificationRepo: newMemVerifications(),
		Mailer:           &mockMailer{},
		CodeTTL:          10 * time.Minute,
	})
	result, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestLogin_TwoFactorSendsCodeWithoutToken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, true), nil)
	vs := newMemVerifications()
	mailer := &mockMailer{}
	mailer.On("SendEmail", "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(us, vs, mailer)
	result, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.True(t, result.TwoFactorRequired)
	assert.Empty(t, result.Token)

	v, err := vs.Get(context.Background(), "u1", domain.VerificationTwoFactor)
	require.NoError(t, err)
	assert.Len(t, v.Code, 6)
	mailer.AssertExpectations(t)
}

func TestVerifyTwoFactor_FullFlow(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, true), nil)
	vs := newMemVerifications()
	mailer := &mockMailer{}
	mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(us, vs, mailer)
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	v, err := vs.Get(context.Background(), "u1", domain.VerificationTwoFactor)
	require.NoError(t, err)

	result, err := svc.VerifyTwoFactor(context.Background(), TwoFactorRequest{
		Email: "alice@example.com",
		Code:  v.Code,
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-u1", result.Token)

	// The code is single-use.
	_, err = svc.VerifyTwoFactor(context.Background(), TwoFactorRequest{
		Email: "alice@example.com",
		Code:  v.Code,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyTwoFactor_WrongCode(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, true), nil)
	vs := newMemVerifications()
	require.NoError(t, vs.Put(context.Background(), &domain.Verification{
		UserID:    "u1",
		Type:      domain.VerificationTwoFactor,
		Code:      "123456",
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}))

	svc := newTestService(us, vs, &mockMailer{})
	_, err := svc.VerifyTwoFactor(context.Background(), TwoFactorRequest{
		Email: "alice@example.com",
		Code:  "654321",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyTwoFactor_ExpiredCode(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, true), nil)
	vs := newMemVerifications()
	require.NoError(t, vs.Put(context.Background(), &domain.Verification{
		UserID:    "u1",
		Type:      domain.VerificationTwoFactor,
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}))

	svc := newTestService(us, vs, &mockMailer{})
	_, err := svc.VerifyTwoFactor(context.Background(), TwoFactorRequest{
		Email: "alice@example.com",
		Code:  "123456",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRequestPasswordRecovery_UnknownEmailReportsSuccess(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)
	mailer := &mockMailer{}

	svc := newTestService(us, newMemVerifications(), mailer)
	err := svc.RequestPasswordRecovery(context.Background(), RecoveryRequest{
		Email: "nobody@example.com",
	})
	assert.NoError(t, err)
	mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_FullFlow(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, false), nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		newHash, ok := m["password_hash"].(string)
		if !ok {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpassword1")) == nil
	})).Return(nil)
	vs := newMemVerifications()
	mailer := &mockMailer{}
	mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(us, vs, mailer)
	require.NoError(t, svc.RequestPasswordRecovery(context.Background(), RecoveryRequest{
		Email: "alice@example.com",
	}))

	v, err := vs.Get(context.Background(), "u1", domain.VerificationRecovery)
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:       "alice@example.com",
		Code:        v.Code,
		NewPassword: "newpassword1",
	})
	require.NoError(t, err)
	us.AssertExpectations(t)
}
