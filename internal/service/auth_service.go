package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-pos/internal/auth"
	"retail-pos/internal/model"
	"retail-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const invalidCredentials = "invalid email or password"

// authService implements AuthService.
type authService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	verify   func(password, hash string) (bool, error)
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		verify:   auth.VerifyPassword,
		now:      time.Now,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// Register creates a staff account with a bcrypt-hashed password.
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, model.NewValidationError("password must be at most %d bytes", auth.MaxPasswordBytes).
			WithDetails(map[string]string{"password": fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes)})
	}

	email := strings.TrimSpace(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	if existing != nil {
		s.logger.Debug().Str("email", email).Msg("email already registered")
		return nil, model.NewDuplicateError("email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleStaff,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")

	return user, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil {
		_, _ = s.verify(req.Password, auth.DummyHash())
		s.logger.Debug().Msg("login for unknown email")
		return nil, model.NewAuthError(invalidCredentials)
	}

	ok, err := s.verify(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to verify password")
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if !ok {
		s.logger.Debug().Str("user_id", user.ID.String()).Msg("wrong password")
		return nil, model.NewAuthError(invalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID, user.Role, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return &model.LoginResult{
		Token: token,
		User: model.UserSummary{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

// Profile returns the authenticated user's account.
func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("user", userID.String())
	}
	return user, nil
}
