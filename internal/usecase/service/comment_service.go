package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/models/dto"
	"trackline/internal/infrastructure/repository"
	"trackline/internal/transport/dto/request"
)

var (
	createCommentError = errors.New("create comment error")
	updateCommentError = errors.New("update comment error")
	deleteCommentError = errors.New("delete comment error")
)

// Интерфейс репозитория
type CommentRepository interface {
	Create(ctx context.Context, d *dto.CreateCommentDTO) (*domain.Comment, error)
	GetById(ctx context.Context, commentId string) (*domain.Comment, error)
	Update(ctx context.Context, d *dto.UpdateCommentDTO) (*domain.Comment, error)
	Delete(ctx context.Context, commentId string) (*domain.Comment, error)
}

type CommentService struct {
	repo CommentRepository
	hub  Broadcaster
	log  *zap.Logger
}

func NewCommentService(repo CommentRepository, hub Broadcaster, log *zap.Logger) *CommentService {
	return &CommentService{
		repo: repo,
		hub:  hub,
		log:  log,
	}
}

// Create сохраняет комментарий и рассылает comment.created в канал issue
func (s *CommentService) Create(ctx context.Context, actorId, issueId string, req *request.CreateCommentRequest) (*domain.Comment, error) {
	s.log.Info("create comment request accepted",
		zap.String("issue_id", issueId),
		zap.String("actor_id", actorId),
	)

	if req.Body == "" {
		return nil, WrapError(ErrValidationFailed, errors.New("comment body is empty"))
	}

	comment, err := s.repo.Create(ctx, &dto.CreateCommentDTO{
		IssueId: issueId,
		UserId:  actorId,
		Body:    req.Body,
	})
	if err != nil {
		s.log.Error("failed to create comment",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		// Нарушение FK означает несуществующий issue
		if errors.Is(err, repository.ErrInvalidInput) {
			return nil, WrapError(ErrIssueNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", createCommentError, err)
	}

	s.hub.Publish(domain.ScopesForComment(comment.IssueId), domain.NewCommentCreated(comment))

	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actorId, commentId string, req *request.UpdateCommentRequest) (*domain.Comment, error) {
	s.log.Info("update comment request accepted",
		zap.String("comment_id", commentId),
		zap.String("actor_id", actorId),
	)

	if req.Body == "" {
		return nil, WrapError(ErrValidationFailed, errors.New("comment body is empty"))
	}

	comment, err := s.repo.Update(ctx, &dto.UpdateCommentDTO{
		CommentId: commentId,
		Body:      req.Body,
	})
	if err != nil {
		s.log.Error("failed to update comment",
			zap.String("comment_id", commentId),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, WrapError(ErrCommentNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", updateCommentError, err)
	}

	s.hub.Publish(domain.ScopesForComment(comment.IssueId), domain.NewCommentUpdated(comment))

	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, actorId, commentId string) error {
	s.log.Info("delete comment request accepted",
		zap.String("comment_id", commentId),
		zap.String("actor_id", actorId),
	)

	comment, err := s.repo.Delete(ctx, commentId)
	if err != nil {
		s.log.Error("failed to delete comment",
			zap.String("comment_id", commentId),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrNotFound) {
			return WrapError(ErrCommentNotFound, err)
		}
		return fmt.Errorf("%w: %w", deleteCommentError, err)
	}

	s.hub.Publish(domain.ScopesForComment(comment.IssueId), domain.NewCommentDeleted(comment.Id))

	return nil
}
