package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oli-store-api/internal/domain"
	"github.com/oli-store-api/internal/pkg/id"
	"github.com/oli-store-api/internal/pkg/identity"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const fieldPasswordHash = "password_hash"

type Service interface {
	// Register creates a customer account. A supplied phone must hold a
	// recent verified OTP grant — registration is how phone ownership proof
	// is consumed.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	// Login returns the user and a signed bearer token. All credential
	// failures look identical to the caller.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// ForgotPassword issues a reset code to the address when an account
	// exists. It reports success either way so callers cannot probe which
	// addresses have accounts.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword consumes a reset code and stores the new password hash.
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type otpService interface {
	IssueForEmail(ctx context.Context, rawEmail string) (*domain.OTP, error)
	VerifyForEmail(ctx context.Context, rawEmail, code string) (bool, error)
	IsRecentlyVerified(ctx context.Context, rawPhone string) (bool, error)
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	users userStore
	otp   otpService
	jwt   jwtSigner
}

type ServiceDeps struct {
	UserRepo    userStore
	OTPService  otpService
	JWTProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users: deps.UserRepo,
		otp:   deps.OTPService,
		jwt:   deps.JWTProvider,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("password and confirm_password must match: %w", domain.ErrBadRequest)
	}
	email := strings.TrimSpace(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already exists: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var phone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		cleaned := identity.Phone(*req.Phone)
		if _, err := s.users.GetByPhone(ctx, cleaned); err == nil {
			return nil, fmt.Errorf("phone already exists: %w", domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		ok, err := s.otp.IsRecentlyVerified(ctx, cleaned)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("phone not verified: %w", domain.ErrForbidden)
		}
		phone = &cleaned
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.jwt.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	if _, err := s.users.GetByEmail(ctx, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Report success anyway — account existence must not leak.
			slog.Info("password reset requested for unknown address")
			return nil
		}
		return err
	}
	_, err := s.otp.IssueForEmail(ctx, email)
	return err
}

func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	ok, err := s.otp.VerifyForEmail(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)})
}
