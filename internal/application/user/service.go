package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/oli-store-api/internal/domain"
	"github.com/oli-store-api/internal/pkg/identity"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail     = "email"
	fieldPhone     = "phone"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldRole      = "role"
	fieldEnable    = "enable"
)

type Service interface {
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Enable {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		if existing, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && existing.UserID != userID {
			return nil, fmt.Errorf("email already exists: %w", domain.ErrConflict)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Phone != nil {
		cleaned := identity.Phone(*req.Phone)
		if existing, err := s.repo.GetByPhone(ctx, cleaned); err == nil && existing.UserID != userID {
			return nil, fmt.Errorf("phone already exists: %w", domain.ErrConflict)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates[fieldPhone] = cleaned
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Role != nil {
		switch *req.Role {
		case domain.RoleAdmin, domain.RoleCustomer:
			updates[fieldRole] = *req.Role
		default:
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, domain.ErrBadRequest)
		}
	}
	if req.Enable != nil {
		updates[fieldEnable] = *req.Enable
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}

	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, userID)
}
