package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/app/repository"
	"github.com/vibast-solutions/ms-go-posts/app/types"
)

var (
	ErrPostExists   = errors.New("post with this title already exists")
	ErrPostNotFound = errors.New("post not found")
)

type postRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByIDAndOwner(ctx context.Context, id, ownerID uint64) (*entity.Post, error)
	FindByOwnerAndTitle(ctx context.Context, ownerID uint64, title string) (*entity.Post, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Post, error)
	Update(ctx context.Context, post *entity.Post) (int64, error)
	Delete(ctx context.Context, id, ownerID uint64) (int64, error)
}

// PostService scopes every operation to the owner passed in, so a post
// belonging to someone else is indistinguishable from a missing one.
type PostService interface {
	Create(ctx context.Context, ownerID uint64, req *types.CreatePostRequest) (*entity.Post, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Post, error)
	Update(ctx context.Context, ownerID, postID uint64, req *types.UpdatePostRequest) (*entity.Post, error)
	Delete(ctx context.Context, ownerID, postID uint64) error
}

type postService struct {
	postRepo postRepository
}

func NewPostService(postRepo postRepository) PostService {
	return &postService{postRepo: postRepo}
}

func (s *postService) Create(ctx context.Context, ownerID uint64, req *types.CreatePostRequest) (*entity.Post, error) {
	title := strings.TrimSpace(req.Title)

	existing, err := s.postRepo.FindByOwnerAndTitle(ctx, ownerID, title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPostExists
	}

	now := time.Now()
	post := &entity.Post{
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		IsCompleted: req.IsCompleted != nil && *req.IsCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrPostExists
		}
		return nil, err
	}

	return post, nil
}

func (s *postService) ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Post, error) {
	return s.postRepo.ListByOwner(ctx, ownerID)
}

func (s *postService) Update(ctx context.Context, ownerID, postID uint64, req *types.UpdatePostRequest) (*entity.Post, error) {
	post, err := s.postRepo.FindByIDAndOwner(ctx, postID, ownerID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	title := strings.TrimSpace(req.Title)
	if title != post.Title {
		clash, err := s.postRepo.FindByOwnerAndTitle(ctx, ownerID, title)
		if err != nil {
			return nil, err
		}
		if clash != nil && clash.ID != post.ID {
			return nil, ErrPostExists
		}
	}

	post.Title = title
	post.Description = strings.TrimSpace(req.Description)
	if req.IsCompleted != nil {
		post.IsCompleted = *req.IsCompleted
	}
	post.UpdatedAt = time.Now()

	rows, err := s.postRepo.Update(ctx, post)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrPostExists
		}
		return nil, err
	}
	if rows == 0 {
		return nil, ErrPostNotFound
	}

	return post, nil
}

func (s *postService) Delete(ctx context.Context, ownerID, postID uint64) error {
	rows, err := s.postRepo.Delete(ctx, postID, ownerID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPostNotFound
	}

	return nil
}
