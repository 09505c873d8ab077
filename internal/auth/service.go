package auth

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/Captainsparrow404/neuvii-backend/internal"
	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
)

// UserRepository is the slice of the identity store the credential
// lifecycle needs.
type UserRepository interface {
	GetByEmail(email string) (*identity.User, error)
	GetByID(id int64) (*identity.User, error)
	UpdatePassword(userID int64, passwordHash string, promoteStaff bool) error
}

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (*LoginResult, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ResetWithTemporary(dto ResetPasswordDTO) (*LoginResult, error)
	VerifyTemporary(email, tempPassword string) error
	ChangePassword(userID int64, dto ChangePasswordDTO) error
	GetUser(userID int64) (*identity.User, error)
}

type Service struct {
	repo       UserRepository
	tokenGen   *JWTTokenGenerator
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo UserRepository, tokenGen *JWTTokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		tokenGen:   tokenGen,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Authenticate verifies credentials and issues a token pair. Disabled
// accounts are reported distinctly from bad credentials; unknown emails
// are not.
func (s *Service) Authenticate(dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to look up user", err)
	}

	if err := VerifyPassword(user.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("authentication failed: password mismatch", "email", identity.NormalizeEmail(dto.Email))
		return nil, internal.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, internal.ErrAccountDisabled
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue tokens", err)
	}

	return &LoginResult{
		Tokens:                tokens,
		UserID:                user.ID,
		Email:                 user.Email,
		FullName:              user.FullName(),
		Role:                  string(user.Role()),
		PasswordResetRequired: user.PasswordResetRequired,
	}, nil
}

func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGen.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	user, err := s.repo.GetByID(userID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !user.IsActive {
		return AuthTokens{}, internal.ErrAccountDisabled
	}

	return s.issueTokens(user)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateToken(tokenString)
}

// VerifyTemporary checks a temporary credential without consuming it,
// backing the pre-filled reset form.
func (s *Service) VerifyTemporary(email, tempPassword string) error {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("failed to look up user", err)
	}
	if err := VerifyPassword(user.PasswordHash, tempPassword); err != nil {
		return internal.ErrInvalidTempPassword
	}
	return nil
}

// ResetWithTemporary replaces the temporary credential and activates the
// account, then signs the user in.
func (s *Service) ResetWithTemporary(dto ResetPasswordDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to look up user", err)
	}

	if err := VerifyPassword(user.PasswordHash, dto.TempPassword); err != nil {
		s.logger.Warn("password reset failed: temporary password mismatch", "user_id", user.ID)
		return nil, internal.ErrInvalidTempPassword
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(user.ID, hash, user.Role().StaffAccess()); err != nil {
		return nil, internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password reset completed, account active", "user_id", user.ID, "role", user.Role())

	user.PasswordResetRequired = false
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, internal.NewInternalError("failed to issue tokens", err)
	}

	return &LoginResult{
		Tokens:                tokens,
		UserID:                user.ID,
		Email:                 user.Email,
		FullName:              user.FullName(),
		Role:                  string(user.Role()),
		PasswordResetRequired: false,
	}, nil
}

// ChangePassword sets a new password for an authenticated user, clears
// the reset flag and promotes staff access for admin-side roles.
func (s *Service) ChangePassword(userID int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	user, err := s.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return internal.ErrUserNotFound
		}
		return internal.NewInternalError("failed to look up user", err)
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(user.ID, hash, user.Role().StaffAccess()); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

func (s *Service) GetUser(userID int64) (*identity.User, error) {
	return s.repo.GetByID(userID)
}

func (s *Service) issueTokens(user *identity.User) (AuthTokens, error) {
	id := strconv.FormatInt(user.ID, 10)

	accessToken, err := s.tokenGen.GenerateAccessToken(id, user.Email)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokenGen.GenerateRefreshToken(id, user.Email)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
