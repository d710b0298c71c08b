package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

var ErrInvalidPostID = errors.New("invalid post id")

type CreatePostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCompleted *bool  `json:"isCompleted"`
}

func NewCreatePostRequestFromContext(ctx echo.Context) (*CreatePostRequest, error) {
	var body CreatePostRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *CreatePostRequest) Validate() error {
	if isBlank(r.Title) || isBlank(r.Description) {
		return errors.New("title and description are required")
	}
	if tooLong(r.Title) {
		return fmt.Errorf("title must be at most %d characters", MaxFieldLength)
	}

	return nil
}

type UpdatePostRequest struct {
	ID          json.RawMessage `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	IsCompleted *bool           `json:"isCompleted"`
}

func NewUpdatePostRequestFromContext(ctx echo.Context) (*UpdatePostRequest, error) {
	var body UpdatePostRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdatePostRequest) Validate() error {
	if isBlank(r.Title) || isBlank(r.Description) {
		return errors.New("title and description are required")
	}
	if tooLong(r.Title) {
		return fmt.Errorf("title must be at most %d characters", MaxFieldLength)
	}

	return nil
}

func (r *UpdatePostRequest) PostID() (uint64, error) {
	return ParsePostID(r.ID)
}

type DeletePostRequest struct {
	ID json.RawMessage `json:"_id"`
}

func NewDeletePostRequestFromContext(ctx echo.Context) (*DeletePostRequest, error) {
	var body DeletePostRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *DeletePostRequest) PostID() (uint64, error) {
	return ParsePostID(r.ID)
}

// ParsePostID accepts a positive integer given either as a JSON number or a numeric string.
func ParsePostID(raw json.RawMessage) (uint64, error) {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" {
		return 0, ErrInvalidPostID
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		value = strings.TrimSpace(text)
	}

	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidPostID
	}

	return id, nil
}
