package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = fmt.Errorf("%w: token has expired", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: token is malformed or has a bad signature", ErrInvalidToken)
)

type Claims struct {
	UserID   uint64 `json:"user_id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// TokenService signs and verifies access and refresh tokens. The two kinds use
// separate secrets, so a refresh token never passes access verification and vice versa.
type TokenService struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg, now: time.Now}
}

func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

func (s *TokenService) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshTokenTTL
}

func (s *TokenService) IssueAccessToken(user *entity.User) (IssuedToken, error) {
	return s.issue(&Claims{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}, s.cfg.AccessTokenTTL, []byte(s.cfg.AccessTokenSecret))
}

func (s *TokenService) IssueRefreshToken(userID uint64) (IssuedToken, error) {
	return s.issue(&Claims{UserID: userID}, s.cfg.RefreshTokenTTL, []byte(s.cfg.RefreshTokenSecret))
}

func (s *TokenService) IssuePair(user *entity.User) (*TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	return s.Verify(tokenString, []byte(s.cfg.AccessTokenSecret))
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return s.Verify(tokenString, []byte(s.cfg.RefreshTokenSecret))
}

// Verify checks signature, algorithm and expiry. Every failure satisfies
// errors.Is(err, ErrInvalidToken); expired tokens additionally match ErrTokenExpired.
func (s *TokenService) Verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (s *TokenService) issue(claims *Claims, ttl time.Duration, secret []byte) (IssuedToken, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   strconv.FormatUint(claims.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}
