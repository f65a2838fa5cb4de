package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/repository"
)

// MembershipRepository проверка членства в команде
type MembershipRepository interface {
	IsMember(ctx context.Context, teamId, userId string) (bool, error)
}

// IssueLookup находит issue, чтобы вывести его команду
type IssueLookup interface {
	GetById(ctx context.Context, issueId string) (*domain.Issue, error)
}

// AccessService реализует проверку доступа к scope для шлюза подписок.
// Доступ к ресурсу определяется членством в команде ресурса.
type AccessService struct {
	teams  MembershipRepository
	issues IssueLookup
	log    *zap.Logger
}

func NewAccessService(teams MembershipRepository, issues IssueLookup, log *zap.Logger) *AccessService {
	return &AccessService{
		teams:  teams,
		issues: issues,
		log:    log,
	}
}

func (s *AccessService) CanAccess(ctx context.Context, scope domain.Scope, requesterId string) (bool, error) {
	if requesterId == "" {
		return false, nil
	}

	switch scope.Kind {
	case domain.ScopeGlobal:
		// Единый workspace: любой аутентифицированный пользователь
		return true, nil

	case domain.ScopeTeam:
		return s.teams.IsMember(ctx, scope.Id, requesterId)

	case domain.ScopeResource:
		issue, err := s.issues.GetById(ctx, scope.Id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Несуществующий ресурс это отказ, а не ошибка
				return false, nil
			}
			return false, err
		}
		return s.teams.IsMember(ctx, issue.TeamId, requesterId)
	}

	return false, nil
}
