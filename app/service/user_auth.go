package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/dto"
	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/app/repository"
	"github.com/vibast-solutions/ms-go-posts/app/types"
	"github.com/vibast-solutions/ms-go-posts/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrRefreshTokenReused = errors.New("refresh token is expired or used")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrLoginThrottled     = errors.New("too many login attempts")
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindProfileByID(ctx context.Context, id uint64) (*entity.User, error)
	SetRefreshToken(ctx context.Context, userID uint64, token string) error
	SwapRefreshToken(ctx context.Context, userID uint64, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID uint64) error
}

type loginLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type UserAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *types.LoginRequest) (*dto.SessionResult, error)
	RefreshSession(ctx context.Context, refreshToken string) (*dto.SessionResult, error)
	Logout(ctx context.Context, userID uint64) error
	AuthenticateAccessToken(ctx context.Context, accessToken string) (*entity.User, error)
	GetProfile(ctx context.Context, userID uint64) (*entity.User, error)
	RevokeSession(ctx context.Context, email string) error
}

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	userRepo userRepository
	tokens   *TokenService
	cfg      *config.Config
	limiter  loginLimiter
}

func NewUserAuthService(
	userRepo userRepository,
	tokens *TokenService,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		userRepo: userRepo,
		tokens:   tokens,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithLoginLimiter throttles login attempts per email.
func WithLoginLimiter(limiter loginLimiter) UserAuthServiceOption {
	return func(s *userAuthService) {
		if limiter != nil {
			s.limiter = limiter
		}
	}
}

func (s *userAuthService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error) {
	if err := s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	email := NormalizeEmail(req.Email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
		}
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return profileOf(user), nil
}

func (s *userAuthService) Login(ctx context.Context, req *types.LoginRequest) (*dto.SessionResult, error) {
	email := NormalizeEmail(req.Email)

	if err := s.checkLoginLimit(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	// A new login replaces whatever session the user had before.
	if err = s.userRepo.SetRefreshToken(ctx, user.ID, pair.Refresh.Value); err != nil {
		return nil, err
	}

	return newSessionResult(profileOf(user), pair), nil
}

func (s *userAuthService) RefreshSession(ctx context.Context, refreshToken string) (*dto.SessionResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		logTokenFailure("refresh", err)
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
	}

	if !user.RefreshToken.Valid || subtle.ConstantTimeCompare([]byte(user.RefreshToken.String), []byte(refreshToken)) != 1 {
		return nil, ErrRefreshTokenReused
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	swapped, err := s.userRepo.SwapRefreshToken(ctx, user.ID, refreshToken, pair.Refresh.Value)
	if err != nil {
		return nil, err
	}
	if !swapped {
		logrus.WithField("user_id", user.ID).Warn("Refresh token rotated concurrently")
		return nil, ErrRefreshTokenReused
	}

	return newSessionResult(profileOf(user), pair), nil
}

func (s *userAuthService) Logout(ctx context.Context, userID uint64) error {
	return s.userRepo.ClearRefreshToken(ctx, userID)
}

func (s *userAuthService) AuthenticateAccessToken(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		logTokenFailure("access", err)
		return nil, err
	}

	return s.GetProfile(ctx, claims.UserID)
}

func (s *userAuthService) GetProfile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (s *userAuthService) RevokeSession(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	return s.userRepo.ClearRefreshToken(ctx, user.ID)
}

func (s *userAuthService) checkLoginLimit(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, retryAfter, err := s.limiter.Allow(ctx, email)
	if err != nil {
		// Redis trouble must not lock everyone out.
		logrus.WithError(err).Warn("Login limiter unavailable, allowing attempt")
		return nil
	}
	if !allowed {
		return fmt.Errorf("%w: retry in %s", ErrLoginThrottled, retryAfter.Round(time.Second))
	}

	return nil
}

func logTokenFailure(kind string, err error) {
	entry := logrus.WithField("token_kind", kind)
	if errors.Is(err, ErrTokenExpired) {
		entry.Debug("Token rejected: expired")
		return
	}
	entry.Debug("Token rejected: malformed or forged")
}

func profileOf(user *entity.User) *entity.User {
	return &entity.User{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func newSessionResult(user *entity.User, pair *TokenPair) *dto.SessionResult {
	return &dto.SessionResult{
		User:                  user,
		AccessToken:           pair.Access.Value,
		AccessTokenExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:          pair.Refresh.Value,
		RefreshTokenExpiresAt: pair.Refresh.ExpiresAt,
	}
}
