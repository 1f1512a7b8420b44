package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/oli-store-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	args := m.Called(ctx, phone)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockOTPService struct{ mock.Mock }

func (m *mockOTPService) IssueForEmail(ctx context.Context, rawEmail string) (*domain.OTP, error) {
	args := m.Called(ctx, rawEmail)
	if o, _ := args.Get(0).(*domain.OTP); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTPService) VerifyForEmail(ctx context.Context, rawEmail, code string) (bool, error) {
	args := m.Called(ctx, rawEmail, code)
	return args.Bool(0), args.Error(1)
}
func (m *mockOTPService) IsRecentlyVerified(ctx context.Context, rawPhone string) (bool, error) {
	args := m.Called(ctx, rawPhone)
	return args.Bool(0), args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newTestService(us *mockUserStore, otp *mockOTPService, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		OTPService:  otp,
		JWTProvider: jwt,
	})
}

func baseReq() domain.RegisterRequest {
	phone := "+1 (555) 123-4567"
	return domain.RegisterRequest{
		FirstName:       "Alice",
		LastName:        "Smith",
		Email:           "alice@example.com",
		Phone:           &phone,
		Password:        "password123",
		ConfirmPassword: "password123",
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Register ---

func TestRegister_PasswordMismatch(t *testing.T) {
	req := baseReq()
	req.ConfirmPassword = "different"

	svc := newTestService(&mockUserStore{}, &mockOTPService{}, nil)
	_, err := svc.Register(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := newTestService(us, &mockOTPService{}, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_PhoneConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(&domain.User{}, nil)

	svc := newTestService(us, &mockOTPService{}, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertExpectations(t)
}

func TestRegister_PhoneNotVerified(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	otp.On("IsRecentlyVerified", mock.Anything, "+15551234567").Return(false, nil)

	svc := newTestService(us, otp, nil)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_Success(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)
	otp.On("IsRecentlyVerified", mock.Anything, "+15551234567").Return(true, nil)

	var created *domain.User
	us.On("Put", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)

	svc := newTestService(us, otp, nil)
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created, u)
	assert.Equal(t, "alice@example.com", u.Email)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "+15551234567", *u.Phone)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.True(t, u.Enable)
	assert.NotEmpty(t, u.UserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
}

func TestRegister_WithoutPhoneSkipsOTPCheck(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	req := baseReq()
	req.Phone = nil
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(us, otp, nil)
	u, err := svc.Register(context.Background(), req)

	require.NoError(t, err)
	assert.Nil(t, u.Phone)
	otp.AssertNotCalled(t, "IsRecentlyVerified", mock.Anything, mock.Anything)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	us := &mockUserStore{}
	jwt := &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{
		UserID:       "u1",
		Email:        "alice@example.com",
		PasswordHash: hashOf(t, "password123"),
		Role:         domain.RoleCustomer,
		Enable:       true,
	}, nil)
	jwt.On("Sign", "u1", domain.RoleCustomer).Return("signed-token", nil)

	svc := newTestService(us, &mockOTPService{}, jwt)
	u, bearer, err := svc.Login(context.Background(), " alice@example.com ", "password123")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "signed-token", bearer)
}

func TestLogin_FailuresAreUniform(t *testing.T) {
	hash := hashOf(t, "password123")
	cases := []struct {
		name     string
		user     *domain.User
		getErr   error
		password string
	}{
		{name: "unknown email", getErr: domain.ErrNotFound, password: "password123"},
		{name: "disabled account", user: &domain.User{PasswordHash: hash, Enable: false}, password: "password123"},
		{name: "wrong password", user: &domain.User{PasswordHash: hash, Enable: true}, password: "wrong"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			us := &mockUserStore{}
			us.On("GetByEmail", mock.Anything, "alice@example.com").Return(c.user, c.getErr)

			svc := newTestService(us, &mockOTPService{}, &mockJWTSigner{})
			_, _, err := svc.Login(context.Background(), "alice@example.com", c.password)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrUnauthorized))
			assert.Contains(t, err.Error(), "invalid credentials")
		})
	}
}

// --- password reset ---

func TestForgotPassword_UnknownAddressReportsSuccess(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	us.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	svc := newTestService(us, otp, nil)
	err := svc.ForgotPassword(context.Background(), "ghost@example.com")

	require.NoError(t, err)
	otp.AssertNotCalled(t, "IssueForEmail", mock.Anything, mock.Anything)
}

func TestForgotPassword_IssuesCodeForKnownAddress(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u1"}, nil)
	otp.On("IssueForEmail", mock.Anything, "alice@example.com").Return(&domain.OTP{Code: "123456"}, nil)

	svc := newTestService(us, otp, nil)
	err := svc.ForgotPassword(context.Background(), "alice@example.com")

	require.NoError(t, err)
	otp.AssertExpectations(t)
}

func TestResetPassword_InvalidCode(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	otp.On("VerifyForEmail", mock.Anything, "alice@example.com", "000000").Return(false, nil)

	svc := newTestService(us, otp, nil)
	err := svc.ResetPassword(context.Background(), "alice@example.com", "000000", "newpassword1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_Success(t *testing.T) {
	us := &mockUserStore{}
	otp := &mockOTPService{}
	otp.On("VerifyForEmail", mock.Anything, "alice@example.com", "123456").Return(true, nil)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u1"}, nil)

	var updates map[string]interface{}
	us.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)

	svc := newTestService(us, otp, nil)
	err := svc.ResetPassword(context.Background(), "alice@example.com", "123456", "newpassword1")

	require.NoError(t, err)
	require.Contains(t, updates, "password_hash")
	hash := updates["password_hash"].(string)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword1")))
}
