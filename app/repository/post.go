package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
)

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts the post and sets its ID. A (owner_id, title) clash returns ErrDuplicateKey.
func (r *PostRepository) Create(ctx context.Context, post *entity.Post) error {
	query := `
		INSERT INTO posts (owner_id, title, description, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		post.OwnerID,
		post.Title,
		post.Description,
		post.IsCompleted,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return wrapDuplicate(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	post.ID = uint64(id)
	return nil
}

func (r *PostRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uint64) (*entity.Post, error) {
	query := `
		SELECT id, owner_id, title, description, is_completed, created_at, updated_at
		FROM posts WHERE id = ? AND owner_id = ?
	`
	return r.findOne(ctx, query, id, ownerID)
}

func (r *PostRepository) FindByOwnerAndTitle(ctx context.Context, ownerID uint64, title string) (*entity.Post, error) {
	query := `
		SELECT id, owner_id, title, description, is_completed, created_at, updated_at
		FROM posts WHERE owner_id = ? AND title = ?
	`
	return r.findOne(ctx, query, ownerID, title)
}

func (r *PostRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Post, error) {
	query := `
		SELECT id, owner_id, title, description, is_completed, created_at, updated_at
		FROM posts WHERE owner_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*entity.Post, 0)
	for rows.Next() {
		post := &entity.Post{}
		if err = rows.Scan(
			&post.ID,
			&post.OwnerID,
			&post.Title,
			&post.Description,
			&post.IsCompleted,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update rewrites the post when it still belongs to its owner and returns the matched row count.
func (r *PostRepository) Update(ctx context.Context, post *entity.Post) (int64, error) {
	query := `
		UPDATE posts SET
			title = ?,
			description = ?,
			is_completed = ?,
			updated_at = ?
		WHERE id = ? AND owner_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		post.Title,
		post.Description,
		post.IsCompleted,
		post.UpdatedAt,
		post.ID,
		post.OwnerID,
	)
	if err != nil {
		return 0, wrapDuplicate(err)
	}
	return result.RowsAffected()
}

// Delete removes the post when it belongs to ownerID and returns the affected row count.
func (r *PostRepository) Delete(ctx context.Context, id, ownerID uint64) (int64, error) {
	query := `DELETE FROM posts WHERE id = ? AND owner_id = ?`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Post, error) {
	post := &entity.Post{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&post.ID,
		&post.OwnerID,
		&post.Title,
		&post.Description,
		&post.IsCompleted,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}
