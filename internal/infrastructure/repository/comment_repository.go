package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/models/dto"
)

const (
	commentColumns = `id, issue_id, user_id, body, created_at, updated_at`

	insertCommentQuery = `
INSERT INTO comments (id, issue_id, user_id, body)
VALUES ($1, $2, $3, $4)
RETURNING ` + commentColumns + `;`

	getCommentQuery = `
SELECT ` + commentColumns + `
FROM comments
WHERE id = $1;`

	updateCommentQuery = `
UPDATE comments
SET body = $2, updated_at = now()
WHERE id = $1
RETURNING ` + commentColumns + `;`

	deleteCommentQuery = `
DELETE FROM comments
WHERE id = $1
RETURNING ` + commentColumns + `;`
)

type CommentRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewCommentRepository(db *pgxpool.Pool, log *zap.Logger) *CommentRepository {
	return &CommentRepository{
		db:  db,
		log: log,
	}
}

func (r *CommentRepository) Create(ctx context.Context, d *dto.CreateCommentDTO) (*domain.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, insertCommentQuery, uuid.NewString(), d.IssueId, d.UserId, d.Body))
}

func (r *CommentRepository) GetById(ctx context.Context, commentId string) (*domain.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, getCommentQuery, commentId))
}

func (r *CommentRepository) Update(ctx context.Context, d *dto.UpdateCommentDTO) (*domain.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, updateCommentQuery, d.CommentId, d.Body))
}

func (r *CommentRepository) Delete(ctx context.Context, commentId string) (*domain.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, deleteCommentQuery, commentId))
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	comment := &domain.Comment{}
	err := row.Scan(
		&comment.Id,
		&comment.IssueId,
		&comment.UserId,
		&comment.Body,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return comment, nil
}
