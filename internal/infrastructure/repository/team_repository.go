package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/models/dto"
)

const (
	insertTeamQuery = `
INSERT INTO teams (id, name, key)
VALUES ($1, $2, $3)
RETURNING id, name, key, issue_counter, created_at;`

	getTeamQuery = `
SELECT id, name, key, issue_counter, created_at
FROM teams
WHERE id = $1;`

	isMemberQuery = `
SELECT EXISTS (
    SELECT 1 FROM team_members
    WHERE team_id = $1 AND user_id = $2
);`

	lockCounterQuery = `
SELECT key, issue_counter FROM teams
WHERE id = $1
FOR UPDATE;`

	bumpCounterQuery = `
UPDATE teams
SET issue_counter = issue_counter + 1
WHERE id = $1
RETURNING issue_counter;`

	lockTimeoutQuery = `SET LOCAL lock_timeout = '2s';`
)

type TeamRepository struct {
	db         *pgxpool.Pool
	log        *zap.Logger
	maxRetries uint64
}

func NewTeamRepository(db *pgxpool.Pool, log *zap.Logger, maxRetries uint64) *TeamRepository {
	return &TeamRepository{
		db:         db,
		log:        log,
		maxRetries: maxRetries,
	}
}

func (r *TeamRepository) Create(ctx context.Context, d *dto.CreateTeamDTO) (*domain.Team, error) {
	team := &domain.Team{}
	err := r.db.QueryRow(ctx, insertTeamQuery, uuid.NewString(), d.Name, d.Key).Scan(
		&team.Id,
		&team.Name,
		&team.Key,
		&team.IssueCounter,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return team, nil
}

func (r *TeamRepository) GetById(ctx context.Context, teamId string) (*domain.Team, error) {
	team := &domain.Team{}
	err := r.db.QueryRow(ctx, getTeamQuery, teamId).Scan(
		&team.Id,
		&team.Name,
		&team.Key,
		&team.IssueCounter,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return team, nil
}

func (r *TeamRepository) IsMember(ctx context.Context, teamId, userId string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, isMemberQuery, teamId, userId).Scan(&ok); err != nil {
		return false, handleDBError(err)
	}
	return ok, nil
}

// AllocateIssueNumber выдает следующий номер issue для команды.
// Сериализация per-team: блокируется только строка команды, чужие команды
// выделяют номера параллельно. Ожидание блокировки ограничено lock_timeout,
// таймаут повторяется с экспоненциальным backoff не более maxRetries раз.
func (r *TeamRepository) AllocateIssueNumber(ctx context.Context, teamId string) (int, string, error) {
	var (
		number  int
		teamKey string
	)

	op := func() error {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return backoff.Permanent(handleDBError(err))
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, lockTimeoutQuery); err != nil {
			return backoff.Permanent(handleDBError(err))
		}

		// Берем блокировку строки команды
		var current int
		err = tx.QueryRow(ctx, lockCounterQuery, teamId).Scan(&teamKey, &current)
		if err != nil {
			mapped := handleDBError(err)
			if errors.Is(mapped, ErrLockTimeout) {
				// Конкуренция за счетчик: пробуем еще раз
				r.log.Debug("issue counter lock timeout, retrying", zap.String("team_id", teamId))
				return mapped
			}
			// Несуществующая команда не ретраится
			return backoff.Permanent(mapped)
		}

		if err := tx.QueryRow(ctx, bumpCounterQuery, teamId).Scan(&number); err != nil {
			return backoff.Permanent(handleDBError(err))
		}

		return tx.Commit(ctx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, r.maxRetries), ctx))
	if err != nil {
		return 0, "", handleDBError(err)
	}

	return number, teamKey, nil
}
