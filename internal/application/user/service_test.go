package user

import (
	"context"
	"errors"
	"testing"

	"github.com/oli-store-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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
func (m *mockUserStore) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	args := m.Called(ctx, phone)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func enabledUser(id string) *domain.User {
	return &domain.User{UserID: id, Email: id + "@example.com", Enable: true}
}

// --- tests ---

func TestList_ClampsLimit(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("ScanPage", mock.Anything, int32(20), "").Return([]domain.User{}, "", nil)

	svc := NewService(repo)
	_, _, err := svc.List(context.Background(), 0, "")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestGet_DisabledUserHidden(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Enable: false}, nil)

	svc := NewService(repo)
	_, err := svc.Get(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdate_EmailConflict(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(enabledUser("u1"), nil)
	repo.On("GetByEmail", mock.Anything, "taken@example.com").Return(enabledUser("u2"), nil)

	email := "taken@example.com"
	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Email: &email})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdate_OwnEmailNotAConflict(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(enabledUser("u1"), nil)
	repo.On("GetByEmail", mock.Anything, "u1@example.com").Return(enabledUser("u1"), nil)
	repo.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	email := "u1@example.com"
	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Email: &email})

	require.NoError(t, err)
}

func TestUpdate_PhoneNormalized(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(enabledUser("u1"), nil)
	repo.On("GetByPhone", mock.Anything, "+15551234567").Return(nil, domain.ErrNotFound)

	var updates map[string]interface{}
	repo.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)

	phone := "+1 (555) 123-4567"
	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Phone: &phone})

	require.NoError(t, err)
	assert.Equal(t, "+15551234567", updates["phone"])
}

func TestUpdate_UnknownRoleRejected(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(enabledUser("u1"), nil)

	role := "superuser"
	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: &role})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdate_NoFields(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(enabledUser("u1"), nil)

	svc := NewService(repo)
	_, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestDelete_SoftDeletes(t *testing.T) {
	repo := &mockUserStore{}
	repo.On("Get", mock.Anything, "u1").Return(enabledUser("u1"), nil)
	repo.On("SoftDelete", mock.Anything, "u1").Return(nil)

	svc := NewService(repo)
	require.NoError(t, svc.Delete(context.Background(), "u1"))
	repo.AssertExpectations(t)
}
