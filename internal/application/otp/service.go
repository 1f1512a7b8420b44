package otp

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
)

// Service issues and verifies one-time passcodes for phone numbers and email
// addresses. Normalization always happens inside the service: callers hand in
// the raw destination and the service derives the storage identity itself.
type Service interface {
	// IssueForPhone invalidates any pending code for the phone, persists a
	// fresh one and attempts SMS delivery. Delivery failure does not fail
	// the call — the persisted code stays verifiable.
	IssueForPhone(ctx context.Context, rawPhone string) (*domain.OTP, error)
	// IssueForEmail is the email-destination variant of IssueForPhone.
	IssueForEmail(ctx context.Context, rawEmail string) (*domain.OTP, error)
	// Verify checks the submitted code against the phone's pending record.
	// It returns false for every rejection — no pending code, expired code,
	// wrong code — without distinguishing them.
	Verify(ctx context.Context, rawPhone, code string) (bool, error)
	// VerifyForEmail is the email-destination variant of Verify.
	VerifyForEmail(ctx context.Context, rawEmail, code string) (bool, error)
	// IsRecentlyVerified reports whether the phone holds a verified record
	// still inside the validity window, measured from when the code was
	// issued (not when it was verified).
	IsRecentlyVerified(ctx context.Context, rawPhone string) (bool, error)
}

type otpStore interface {
	Create(ctx context.Context, o *domain.OTP) error
	LatestUnverified(ctx context.Context, identity string) (*domain.OTP, error)
	LatestVerified(ctx context.Context, identity string) (*domain.OTP, error)
	DeleteUnverified(ctx context.Context, identity string) (int, error)
	MarkVerified(ctx context.Context, identity, otpID string) error
}

type codeGenerator interface {
	Generate() string
}

type smsGateway interface {
	SendOTP(ctx context.Context, mobile, code string) bool
}

type emailGateway interface {
	SendPasswordResetOTP(to, code string) bool
}

type service struct {
	store otpStore
	gen   codeGenerator
	sms   smsGateway
	mail  emailGateway
	now   func() time.Time

	// locks serializes delete-then-insert per identity so two concurrent
	// issuance calls cannot both pass the purge and leave two live pending
	// codes. The verify race is handled separately by the store's
	// conditional update.
	locks keyedMutex
}

type ServiceDeps struct {
	Store  otpStore
	Codes  codeGenerator
	SMS    smsGateway
	Mailer emailGateway
	Now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store: deps.Store,
		gen:   deps.Codes,
		sms:   deps.SMS,
		mail:  deps.Mailer,
		now:   now,
	}
}

func (s *service) IssueForPhone(ctx context.Context, rawPhone string) (*domain.OTP, error) {
	ident := identity.Phone(rawPhone)
	if ident == "" {
		return nil, fmt.Errorf("phone is required: %w", domain.ErrBadRequest)
	}
	rec, err := s.issue(ctx, ident)
	if err != nil {
		return nil, err
	}
	// Deliver to the dialable number, not the storage identity. For phones
	// the two happen to coincide.
	if !s.sms.SendOTP(ctx, ident, rec.Code) {
		slog.Warn("otp: sms delivery failed", "phone", ident)
	}
	return rec, nil
}

func (s *service) IssueForEmail(ctx context.Context, rawEmail string) (*domain.OTP, error) {
	addr := strings.TrimSpace(rawEmail)
	if addr == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	rec, err := s.issue(ctx, identity.Email(rawEmail))
	if err != nil {
		return nil, err
	}
	// Deliver to the human-facing address; the tagged identity never leaves
	// the store.
	if !s.mail.SendPasswordResetOTP(addr, rec.Code) {
		slog.Warn("otp: email delivery failed", "email", addr)
	}
	return rec, nil
}

// issue runs the purge-then-insert sequence under the identity's lock.
// Persistence failures abort the call; at most one unverified record for the
// identity survives afterwards. A live verified grant is deliberately left
// alone — requesting a fresh code must not revoke proof of ownership already
// given within the window.
func (s *service) issue(ctx context.Context, ident string) (*domain.OTP, error) {
	unlock := s.locks.lock(ident)
	defer unlock()

	if _, err := s.store.DeleteUnverified(ctx, ident); err != nil {
		return nil, fmt.Errorf("purge pending otps: %w", err)
	}
	rec := &domain.OTP{
		Identity:  ident,
		OTPID:     id.New(),
		Code:      s.gen.Generate(),
		Verified:  false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist otp: %w", err)
	}
	return rec, nil
}

func (s *service) Verify(ctx context.Context, rawPhone, code string) (bool, error) {
	return s.verify(ctx, identity.Phone(rawPhone), code)
}

func (s *service) VerifyForEmail(ctx context.Context, rawEmail, code string) (bool, error) {
	return s.verify(ctx, identity.Email(rawEmail), code)
}

// verify is a single-shot check-and-set against the identity's pending
// record. The stored code is compared exactly as persisted; only the
// submitted code is trimmed.
func (s *service) verify(ctx context.Context, ident, submitted string) (bool, error) {
	rec, err := s.store.LatestUnverified(ctx, ident)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Expired(s.now()) {
		return false, nil
	}
	if strings.TrimSpace(submitted) != rec.Code {
		return false, nil
	}
	if err := s.store.MarkVerified(ctx, rec.Identity, rec.OTPID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent verify won the conditional update.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) IsRecentlyVerified(ctx context.Context, rawPhone string) (bool, error) {
	rec, err := s.store.LatestVerified(ctx, identity.Phone(rawPhone))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !rec.Expired(s.now()), nil
}
