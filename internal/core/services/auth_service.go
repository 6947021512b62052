package services

import (
	"context"
	"errors"
	"sync"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/persistence/repositories"
	"payportal/internal/config"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/jwt"
	"payportal/internal/pkg/logger"
	"payportal/internal/pkg/metrics"
	"payportal/internal/pkg/password"
	"payportal/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	identity         *IdentityService
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	identity *IdentityService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		identity:         identity,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input; fields are already validated
type RegisterInput struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Username      string
	Password      string
}

// LoginInput represents login input
type LoginInput struct {
	Username string
	Password string
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"-"`
}

// Register creates a customer principal
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	user, err := s.createPrincipal(ctx, input, domain.RoleCustomer)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	logger.Info("user registered", logger.Uint("user_id", user.ID), logger.String("username", user.Username))
	return user.ToResponse(), nil
}

// CreateEmployee provisions an employee principal from a seed entry
func (s *AuthService) CreateEmployee(ctx context.Context, seed config.EmployeeSeed) error {
	errs := validation.ValidateRegistration(validation.Registration{
		FullName:      seed.FullName,
		IDNumber:      seed.IDNumber,
		AccountNumber: seed.AccountNumber,
		Username:      seed.Username,
		Password:      seed.Password,
	})
	if len(errs) > 0 {
		return fieldErrors(errs)
	}

	_, err := s.createPrincipal(ctx, &RegisterInput{
		FullName:      seed.FullName,
		IDNumber:      seed.IDNumber,
		AccountNumber: seed.AccountNumber,
		Username:      seed.Username,
		Password:      seed.Password,
	}, domain.RoleEmployee)
	if errors.Is(err, ErrUserAlreadyExists) {
		return config.ErrSeedExists
	}
	return err
}

func (s *AuthService) createPrincipal(ctx context.Context, input *RegisterInput, role domain.Role) (*models.User, error) {
	// 1. Username must be free
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	// 2. Identity numbers must be unused
	if err := s.identity.EnsureUnique(ctx, input.IDNumber, input.AccountNumber); err != nil {
		return nil, err
	}

	// 3. Hash password and seal PII
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, fieldErrors(validation.Errors{{
				Field:   "password",
				Message: "Password must be 8 to 72 characters, with an uppercase, lowercase, number and symbol.",
			}})
		}
		return nil, err
	}
	sealed, err := s.identity.Seal(input.IDNumber, input.AccountNumber)
	if err != nil {
		return nil, err
	}

	// 4. Create user
	user := &models.User{
		Username:           input.Username,
		FullName:           input.FullName,
		Password:           hashedPassword,
		Role:               role,
		IDNumber:           sealed.IDNumber,
		IDNumberIndex:      &sealed.IDNumberIndex,
		AccountNumber:      sealed.AccountNumber,
		AccountNumberIndex: &sealed.AccountNumberIndex,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration won a unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateCause(ctx, user)
		}
		return nil, err
	}

	return user, nil
}

// duplicateCause reports which unique column a rejected insert collided on.
func (s *AuthService) duplicateCause(ctx context.Context, user *models.User) error {
	if exists, err := s.userRepo.ExistsByUsername(ctx, user.Username); err == nil && exists {
		return ErrUserAlreadyExists
	}
	if exists, err := s.userRepo.ExistsByIDNumberIndex(ctx, *user.IDNumberIndex); err == nil && exists {
		return ErrIDNumberInUse
	}
	if exists, err := s.userRepo.ExistsByAccountNumberIndex(ctx, *user.AccountNumberIndex); err == nil && exists {
		return ErrAccountNumberInUse
	}
	return ErrUniquenessUnverifiable
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnVerify spends one bcrypt comparison so unknown usernames cost the same as wrong passwords
func burnVerify(plaintext string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = password.Hash("unused-placeholder-secret")
	})
	password.Verify(plaintext, dummyHash)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user by username
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			burnVerify(input.Password)
			metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		logger.Warn("login rejected", logger.String("username", user.Username))
		return nil, ErrInvalidCredentials
	}

	// 3. Issue and store tokens
	resp, err := s.issue(ctx, user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	logger.Info("user logged in", logger.Uint("user_id", user.ID), logger.String("role", user.Role.String()))
	return resp, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Find live token by hash
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}
	if storedToken.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	// 3. Get user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 4. Revoke old refresh token (rotation)
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, storedToken.TokenHash); err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	logger.Info("all sessions revoked", logger.Uint("user_id", userID))
	return nil
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*domain.TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Username,
		user.Role.String(),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTTL(),
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTTL(),
	)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token hash in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: timeNow().Add(s.cfg.JWT.RefreshTTL()),
	}

	return s.refreshTokenRepo.Create(ctx, token)
}
