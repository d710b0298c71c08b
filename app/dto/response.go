package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
)

// Envelope wraps every HTTP response body, success or error.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func NewEnvelope(statusCode int, data any, message string) *Envelope {
	return &Envelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    statusCode < 400,
	}
}

type UserResponse struct {
	ID        uint64    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type LoginResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

type TokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type PostResponse struct {
	ID          uint64    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewPostResponse(post *entity.Post) *PostResponse {
	return &PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		IsCompleted: post.IsCompleted,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

func NewPostListResponse(posts []*entity.Post) []*PostResponse {
	list := make([]*PostResponse, 0, len(posts))
	for _, post := range posts {
		list = append(list, NewPostResponse(post))
	}
	return list
}
