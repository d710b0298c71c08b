package entity

import "time"

type Post struct {
	ID          uint64
	OwnerID     uint64
	Title       string
	Description string
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
