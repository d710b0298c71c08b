package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID           uint64
	FullName     string
	Email        string
	PasswordHash string
	RefreshToken sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
