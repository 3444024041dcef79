package login

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mincadmin/internal/domain/identifier"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) LoginInit(ctx context.Context, id string) (Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Account), args.Error(1)
}

func (m *MockAuthenticator) LoginPassword(ctx context.Context, id, password string) (Account, error) {
	args := m.Called(ctx, id, password)
	return args.Get(0).(Account), args.Error(1)
}

func (m *MockAuthenticator) SendOTP(ctx context.Context, email, otpContext string) error {
	return m.Called(ctx, email, otpContext).Error(0)
}

func (m *MockAuthenticator) VerifyOTP(ctx context.Context, email, otp, otpContext string) error {
	return m.Called(ctx, email, otp, otpContext).Error(0)
}

func intp(n int) *int { return &n }

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     Response
		wantKind error
		wantMsg  string
	}{
		{"not found", http.StatusNotFound, Response{Error: "whatever"}, ErrUserNotFound, MsgUserNotFound},
		{"locked with time", http.StatusForbidden, Response{Reason: "locked", LockoutUntil: "2025-09-09T22:18:58+00:00"}, ErrLocked, "Account locked until 2025-09-09 22:18:58 UTC"},
		{"locked without time", http.StatusForbidden, Response{Reason: "LOCKED"}, ErrLocked, "Account locked"},
		{"inactive with server text", http.StatusForbidden, Response{Error: "Suspended."}, ErrInactive, "Suspended."},
		{"inactive default", http.StatusForbidden, Response{}, ErrInactive, MsgInactive},
		{"attempts camel", http.StatusUnauthorized, Response{AttemptsLeft: intp(2)}, ErrBadPassword, "Incorrect password. You have 2 more attempts before lockout."},
		{"attempts snake singular", http.StatusUnauthorized, Response{AttemptsLeft2: intp(1)}, ErrBadPassword, "Incorrect password. You have 1 more attempt before lockout."},
		{"no attempts", http.StatusUnauthorized, Response{}, ErrBadPassword, MsgBadPassword},
		{"other", http.StatusBadRequest, Response{}, ErrAuthFailed, MsgInitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.status, tt.body, MsgInitFailed, time.UTC)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestWizard_RejectsLocally(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", identifier.MsgInvalid},
		{"not an id", identifier.MsgInvalid},
		{"user@evil.com", identifier.MsgDisallowed},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			auth := new(MockAuthenticator)
			w := NewWizard(auth, Config{})

			err := w.SubmitIdentifier(context.Background(), tt.raw)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
			assert.EqualError(t, err, tt.want)
			assert.Equal(t, StepIdentifier, w.Step())
			auth.AssertNotCalled(t, "LoginInit", mock.Anything, mock.Anything)
		})
	}
}

func TestWizard_FullFlow(t *testing.T) {
	ctx := context.Background()
	auth := new(MockAuthenticator)
	w := NewWizard(auth, Config{RequireOTP: true})

	auth.On("LoginInit", ctx, "MM12A34567").Return(Account{MincID: "MM12A34567", Email: "jo@vegu.me"}, nil)
	auth.On("LoginPassword", ctx, "MM12A34567", "pw").Return(Account{MincID: "MM12A34567", Email: "jo@vegu.me"}, nil)
	auth.On("SendOTP", ctx, "jo@vegu.me", OTPContext).Return(nil)
	auth.On("VerifyOTP", ctx, "jo@vegu.me", "12345", OTPContext).Return(nil)

	require.NoError(t, w.SubmitIdentifier(ctx, " mm12a34567 "))
	assert.Equal(t, StepPassword, w.Step())
	assert.Equal(t, "MM12A34567", w.Identifier())

	assert.ErrorIs(t, w.SubmitOTP(ctx, "12345"), ErrWrongStep)

	require.NoError(t, w.SubmitPassword(ctx, "pw"))
	assert.Equal(t, StepOTP, w.Step())

	require.NoError(t, w.SendOTP(ctx))
	require.NoError(t, w.SubmitOTP(ctx, " 12345 "))
	assert.Equal(t, StepDone, w.Step())
	assert.Equal(t, "jo@vegu.me", w.Account().Email)
	auth.AssertExpectations(t)
}

func TestWizard_WithoutOTP(t *testing.T) {
	ctx := context.Background()
	auth := new(MockAuthenticator)
	w := NewWizard(auth, Config{})

	auth.On("LoginInit", ctx, "jo@vegu.me").Return(Account{Email: "jo@vegu.me"}, nil)
	auth.On("LoginPassword", ctx, "jo@vegu.me", "pw").Return(Account{MincID: "MM12A34567"}, nil)

	require.NoError(t, w.SubmitIdentifier(ctx, "Jo@Vegu.me"))
	require.NoError(t, w.SubmitPassword(ctx, "pw"))
	assert.Equal(t, StepDone, w.Step())
	assert.Equal(t, "MM12A34567", w.Account().MincID)
}

func TestWizard_PasswordFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantStep Step
	}{
		{"wrong password stays", FromResponse(http.StatusUnauthorized, Response{AttemptsLeft: intp(2)}, "", time.UTC), StepPassword},
		{"locked goes back", FromResponse(http.StatusForbidden, Response{Reason: "locked", LockoutUntil: "2025-01-01T00:00:00Z"}, "", time.UTC), StepIdentifier},
		{"inactive goes back", FromResponse(http.StatusForbidden, Response{}, "", time.UTC), StepIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			auth := new(MockAuthenticator)
			w := NewWizard(auth, Config{})
			auth.On("LoginInit", ctx, "MM12A34567").Return(Account{MincID: "MM12A34567"}, nil)
			auth.On("LoginPassword", ctx, "MM12A34567", "bad").Return(Account{}, tt.err)

			require.NoError(t, w.SubmitIdentifier(ctx, "MM12A34567"))
			err := w.SubmitPassword(ctx, "bad")

			assert.Equal(t, tt.err, err)
			assert.Equal(t, tt.wantStep, w.Step())
		})
	}
}

func TestLockout(t *testing.T) {
	err := FromResponse(http.StatusForbidden, Response{Reason: "locked", LockoutUntil: "2025-01-01T00:00:00Z"}, "", time.UTC)
	until, ok := Lockout(err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), until.UTC())

	_, ok = Lockout(assert.AnError)
	assert.False(t, ok)
}
