package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/models/dto"
	"trackline/internal/infrastructure/repository"
	"trackline/internal/transport/dto/request"
)

var (
	createTeamError = errors.New("create team error")
	getTeamError    = errors.New("get team error")

	teamKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
)

// Интерфейс репозитория
type TeamRepository interface {
	Create(ctx context.Context, d *dto.CreateTeamDTO) (*domain.Team, error)
	GetById(ctx context.Context, teamId string) (*domain.Team, error)
}

type TeamService struct {
	repo TeamRepository
	hub  Broadcaster
	log  *zap.Logger
}

func NewTeamService(repo TeamRepository, hub Broadcaster, log *zap.Logger) *TeamService {
	return &TeamService{
		repo: repo,
		hub:  hub,
		log:  log,
	}
}

func (s *TeamService) Create(ctx context.Context, req *request.CreateTeamRequest) (*domain.Team, error) {
	s.log.Info("create team request accepted",
		zap.String("name", req.Name),
		zap.String("key", req.Key),
	)

	// Валидация: ключ 2..10 заглавных, начинается с буквы
	if len(req.Name) < 2 || len(req.Name) > 100 {
		return nil, WrapError(ErrValidationFailed, errors.New("team name must be 2..100 characters"))
	}
	if len(req.Key) < 2 || len(req.Key) > 10 || !teamKeyPattern.MatchString(req.Key) {
		return nil, WrapError(ErrValidationFailed, errors.New("team key must be 2..10 uppercase characters starting with a letter"))
	}

	team, err := s.repo.Create(ctx, &dto.CreateTeamDTO{
		Name: req.Name,
		Key:  req.Key,
	})
	if err != nil {
		s.log.Error("failed to create team",
			zap.String("key", req.Key),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, WrapError(ErrTeamExists, err)
		}
		return nil, fmt.Errorf("%w: %w", createTeamError, err)
	}

	s.log.Info("team created",
		zap.String("team_id", team.Id),
		zap.String("key", team.Key),
	)

	s.hub.Publish(domain.ScopesForTeam(), domain.NewTeamCreated(team))

	return team, nil
}

func (s *TeamService) Get(ctx context.Context, teamId string) (*domain.Team, error) {
	team, err := s.repo.GetById(ctx, teamId)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, WrapError(ErrTeamNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", getTeamError, err)
	}
	return team, nil
}
