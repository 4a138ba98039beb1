package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
	"github.com/lesbonsservices/booking-api/internal/core/ports"
)

// dummyPassword is hashed once and compared against when a login email is
// unknown, so both failure paths pay for one hash comparison.
const dummyPassword = "not-a-real-password-never-matches"

// AuthService implements registration and login.
type AuthService struct {
	users  ports.UserRepository
	tokens ports.TokenService
	hasher ports.PasswordHasher
	lock   ports.RegistrationLock
	audit  ports.AuditRecorder
	logger zerolog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type AuthOption func(*AuthService)

// WithRegistrationLock guards check-then-save with a per-email lock.
func WithRegistrationLock(lock ports.RegistrationLock) AuthOption {
	return func(s *AuthService) { s.lock = lock }
}

// WithAuditRecorder sends login and registration outcomes to rec.
func WithAuditRecorder(rec ports.AuditRecorder) AuthOption {
	return func(s *AuthService) { s.audit = rec }
}

func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	logger zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a CLIENT account. A requested role is accepted when it is
// a known role but never stored: professionals go through RegisterProfessional.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Role != "" && !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	return s.register(ctx, in, domain.RoleClient, nil, domain.AuditUserRegistered)
}

// RegisterProfessional creates a PROFESSIONAL account with its business profile.
func (s *AuthService) RegisterProfessional(ctx context.Context, in ports.RegisterProfessionalInput) (*domain.User, error) {
	now := s.now()
	profile := &domain.Professional{
		BusinessName: strings.TrimSpace(in.BusinessName),
		Description:  strings.TrimSpace(in.Description),
		Phone:        strings.TrimSpace(in.Phone),
		City:         strings.TrimSpace(in.City),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.register(ctx, in.User, domain.RoleProfessional, profile, domain.AuditProfessionalRegistered)
}

func (s *AuthService) register(
	ctx context.Context,
	in ports.RegisterInput,
	role domain.Role,
	profile *domain.Professional,
	kind domain.AuditKind,
) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.lock != nil {
		release, acquired, err := s.lock.Acquire(ctx, email)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("email", email).Msg("registration lock unavailable, continuing without it")
		case !acquired:
			s.record(ctx, domain.AuditRegistrationRejected, 0, email, "concurrent registration")
			return nil, domain.ErrRegistrationInProgress
		default:
			defer release()
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	if exists {
		s.logger.Warn().Str("email", email).Msg("registration rejected, email already used")
		s.record(ctx, domain.AuditRegistrationRejected, 0, email, "email already used")
		return nil, &domain.EmailAlreadyUsedError{Email: email}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now()
	saved, err := s.users.Save(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		IsActive:     true,
		Professional: profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("register: save user: %w", err)
	}

	s.logger.Info().Int64("user_id", saved.ID).Str("role", string(role)).Msg("user registered")
	s.record(ctx, kind, saved.ID, email, "")
	return saved, nil
}

// Login checks email and password and mints a session token. Every
// credential failure returns domain.ErrInvalidCredentials; the precise
// cause is only logged.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		s.loginFailed(ctx, 0, email, "empty credentials")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, fmt.Errorf("login: find user: %w", err)
		}
		s.hasher.Verify(s.dummy(), password)
		s.loginFailed(ctx, 0, email, "unknown email")
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.loginFailed(ctx, user.ID, email, "password mismatch")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.loginFailed(ctx, user.ID, email, "account inactive")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("login succeeded")
	s.record(ctx, domain.AuditLoginSucceeded, user.ID, email, "")

	return &ports.LoginResult{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Token:  token,
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID int64, email, reason string) {
	s.logger.Warn().Str("email", email).Str("reason", reason).Msg("login failed")
	s.record(ctx, domain.AuditLoginFailed, userID, email, reason)
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to prepare dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) record(ctx context.Context, kind domain.AuditKind, userID int64, email, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{
		Kind:        kind,
		PrincipalID: userID,
		Email:       email,
		Reason:      reason,
		Meta:        domain.RequestMetaFromContext(ctx),
		OccurredAt:  s.now(),
	})
}
