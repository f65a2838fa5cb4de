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

const maxTitleLength = 500

var (
	createIssueError = errors.New("create issue error")
	updateIssueError = errors.New("update issue error")
	deleteIssueError = errors.New("delete issue error")
)

// Интерфейс репозитория
type IssueRepository interface {
	Create(ctx context.Context, d *dto.CreateIssueDTO) (*domain.Issue, error)
	GetById(ctx context.Context, issueId string) (*domain.Issue, error)
	Update(ctx context.Context, d *dto.UpdateIssueDTO) (*domain.Issue, error)
	Delete(ctx context.Context, issueId string) (*domain.Issue, error)
}

// IssueAllocator выдает следующий номер issue и ключ команды
type IssueAllocator interface {
	AllocateIssueNumber(ctx context.Context, teamId string) (int, string, error)
}

// Broadcaster доставляет событие живым подпискам. Вызов не блокируется
// на доставке и никогда не возвращает ошибку в мутацию.
type Broadcaster interface {
	Publish(scopes []domain.Scope, event domain.Event)
}

type IssueService struct {
	repo      IssueRepository
	allocator IssueAllocator
	hub       Broadcaster
	log       *zap.Logger
}

func NewIssueService(repo IssueRepository, allocator IssueAllocator, hub Broadcaster, log *zap.Logger) *IssueService {
	return &IssueService{
		repo:      repo,
		allocator: allocator,
		hub:       hub,
		log:       log,
	}
}

// Create выделяет номер в счетчике команды, сохраняет issue и рассылает
// issue.created. Ошибка рассылки не может провалить мутацию: publish
// best-effort и ничего не возвращает.
func (s *IssueService) Create(ctx context.Context, actorId string, req *request.CreateIssueRequest) (*domain.Issue, error) {
	s.log.Info("create issue request accepted",
		zap.String("team_id", req.TeamId),
		zap.String("actor_id", actorId),
	)

	// Валидация
	status := req.Status
	if status == "" {
		status = domain.StatusBacklog
	}
	priority := domain.PriorityNone
	if req.Priority != nil {
		priority = *req.Priority
	}
	if err := validateIssueFields(req.Title, status, priority); err != nil {
		return nil, err
	}
	if req.TeamId == "" {
		return nil, WrapError(ErrInvalidInput, errors.New("team_id is empty"))
	}

	// Выделяем номер: сериализация только внутри команды
	number, teamKey, err := s.allocator.AllocateIssueNumber(ctx, req.TeamId)
	if err != nil {
		s.log.Error("failed to allocate issue number",
			zap.String("team_id", req.TeamId),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, WrapError(ErrTeamNotFound, err)
		}
		if errors.Is(err, repository.ErrLockTimeout) {
			return nil, WrapError(ErrAllocatorUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", createIssueError, err)
	}

	// Запрос в бд
	issue, err := s.repo.Create(ctx, &dto.CreateIssueDTO{
		TeamId:      req.TeamId,
		CreatorId:   actorId,
		AssigneeId:  req.AssigneeId,
		Identifier:  fmt.Sprintf("%s-%d", teamKey, number),
		Number:      number,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
	})
	if err != nil {
		s.log.Error("failed to create issue",
			zap.String("team_id", req.TeamId),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrInvalidInput) {
			return nil, WrapError(ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %w", createIssueError, err)
	}

	s.log.Info("issue created",
		zap.String("issue_id", issue.Id),
		zap.String("identifier", issue.Identifier),
	)

	// Рассылка после успешной записи
	s.hub.Publish(domain.ScopesForIssueCreated(issue.TeamId), domain.NewIssueCreated(issue, actorId))

	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, issueId string) (*domain.Issue, error) {
	issue, err := s.repo.GetById(ctx, issueId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, WrapError(ErrIssueNotFound, err)
		}
		return nil, err
	}
	return issue, nil
}

func (s *IssueService) Update(ctx context.Context, actorId, issueId string, req *request.UpdateIssueRequest) (*domain.Issue, error) {
	s.log.Info("update issue request accepted",
		zap.String("issue_id", issueId),
		zap.String("actor_id", actorId),
	)

	// Валидация только присланных полей
	changedFields := make([]string, 0, 5)
	d := &dto.UpdateIssueDTO{IssueId: issueId}

	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > maxTitleLength {
			return nil, WrapError(ErrValidationFailed, errors.New("title must be 1..500 characters"))
		}
		d.Title = req.Title
		changedFields = append(changedFields, "title")
	}
	if req.Description != nil {
		d.Description = req.Description
		changedFields = append(changedFields, "description")
	}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return nil, WrapError(ErrValidationFailed, fmt.Errorf("unknown status %q", *req.Status))
		}
		d.Status = req.Status
		changedFields = append(changedFields, "status")
	}
	if req.Priority != nil {
		if !domain.ValidPriority(*req.Priority) {
			return nil, WrapError(ErrValidationFailed, fmt.Errorf("priority %d out of range", *req.Priority))
		}
		d.Priority = req.Priority
		changedFields = append(changedFields, "priority")
	}
	if req.AssigneeId != nil {
		if *req.AssigneeId == "" {
			d.ClearAssignee = true
		} else {
			d.AssigneeId = req.AssigneeId
		}
		changedFields = append(changedFields, "assignee_id")
	}

	// Запрос в бд: возвращается каноничная строка
	issue, err := s.repo.Update(ctx, d)
	if err != nil {
		s.log.Error("failed to update issue",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, WrapError(ErrIssueNotFound, err)
		}
		if errors.Is(err, repository.ErrInvalidInput) {
			return nil, WrapError(ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("%w: %w", updateIssueError, err)
	}

	s.log.Info("issue updated",
		zap.String("issue_id", issue.Id),
		zap.Strings("changed_fields", changedFields),
	)

	s.hub.Publish(
		domain.ScopesForIssueUpdated(issue.TeamId, issue.Id),
		domain.NewIssueUpdated(issue, changedFields, actorId),
	)

	return issue, nil
}

func (s *IssueService) Delete(ctx context.Context, actorId, issueId string) error {
	s.log.Info("delete issue request accepted",
		zap.String("issue_id", issueId),
		zap.String("actor_id", actorId),
	)

	issue, err := s.repo.Delete(ctx, issueId)
	if err != nil {
		s.log.Error("failed to delete issue",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrNotFound) {
			return WrapError(ErrIssueNotFound, err)
		}
		return fmt.Errorf("%w: %w", deleteIssueError, err)
	}

	s.hub.Publish(
		domain.ScopesForIssueDeleted(issue.TeamId),
		domain.NewIssueDeleted(issue.Id, issue.Identifier, actorId),
	)

	return nil
}

func validateIssueFields(title, status string, priority int) error {
	if title == "" || len(title) > maxTitleLength {
		return WrapError(ErrValidationFailed, errors.New("title must be 1..500 characters"))
	}
	if !domain.ValidStatus(status) {
		return WrapError(ErrValidationFailed, fmt.Errorf("unknown status %q", status))
	}
	if !domain.ValidPriority(priority) {
		return WrapError(ErrValidationFailed, fmt.Errorf("priority %d out of range", priority))
	}
	return nil
}
