package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
)

type SessionResult struct {
	User                  *entity.User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
