package http

import (
	"context"

	"github.com/oli-store-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

// OtpRepository is the minimal interface the router requires from an OTP store.
type OtpRepository interface {
	Create(ctx context.Context, o *domain.OTP) error
	LatestUnverified(ctx context.Context, identity string) (*domain.OTP, error)
	LatestVerified(ctx context.Context, identity string) (*domain.OTP, error)
	DeleteUnverified(ctx context.Context, identity string) (int, error)
	MarkVerified(ctx context.Context, identity, otpID string) error
}
