package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/repository"
	"trackline/internal/transport/dto/request"
)

var (
	createUserError = errors.New("create user error")
	getUserError    = errors.New("get user error")
	addMemberError  = errors.New("add member error")
)

// Интерфейс репозитория
type UserRepository interface {
	Create(ctx context.Context, name, avatarUrl string) (*domain.User, error)
	GetById(ctx context.Context, userId string) (*domain.User, error)
	AddToTeam(ctx context.Context, teamId, userId string) error
}

type UserService struct {
	repo UserRepository
	log  *zap.Logger
}

func NewUserService(repo UserRepository, log *zap.Logger) *UserService {
	return &UserService{
		repo: repo,
		log:  log,
	}
}

func (s *UserService) Create(ctx context.Context, req *request.CreateUserRequest) (*domain.User, error) {
	if req.Name == "" {
		return nil, WrapError(ErrValidationFailed, errors.New("user name is empty"))
	}

	user, err := s.repo.Create(ctx, req.Name, req.AvatarUrl)
	if err != nil {
		s.log.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", createUserError, err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userId string) (*domain.User, error) {
	user, err := s.repo.GetById(ctx, userId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, WrapError(ErrUserNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", getUserError, err)
	}
	return user, nil
}

// Snapshot отдает замороженные данные пользователя для presence
func (s *UserService) Snapshot(ctx context.Context, userId string) (domain.UserSnapshot, error) {
	user, err := s.Get(ctx, userId)
	if err != nil {
		return domain.UserSnapshot{}, err
	}
	return domain.UserSnapshot{
		Id:        user.Id,
		Name:      user.Name,
		AvatarUrl: user.AvatarUrl,
	}, nil
}

func (s *UserService) AddToTeam(ctx context.Context, teamId, userId string) error {
	if err := s.repo.AddToTeam(ctx, teamId, userId); err != nil {
		s.log.Error("failed to add member",
			zap.String("team_id", teamId),
			zap.String("user_id", userId),
			zap.Error(err),
		)
		// Нарушение FK означает несуществующую команду или пользователя
		if errors.Is(err, repository.ErrInvalidInput) {
			return WrapError(ErrTeamNotFound, err)
		}
		return fmt.Errorf("%w: %w", addMemberError, err)
	}
	return nil
}
