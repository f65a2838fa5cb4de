package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackline/internal/domain"
)

const (
	insertUserQuery = `
INSERT INTO users (id, name, avatar_url)
VALUES ($1, $2, $3)
RETURNING id, name, avatar_url, created_at;`

	getUserQuery = `
SELECT id, name, avatar_url, created_at
FROM users
WHERE id = $1;`

	insertTeamMemberQuery = `
INSERT INTO team_members (team_id, user_id)
VALUES ($1, $2)
ON CONFLICT (team_id, user_id) DO NOTHING;`
)

type UserRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, log *zap.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log,
	}
}

func (r *UserRepository) Create(ctx context.Context, name, avatarUrl string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, insertUserQuery, uuid.NewString(), name, avatarUrl).Scan(
		&user.Id,
		&user.Name,
		&user.AvatarUrl,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return user, nil
}

func (r *UserRepository) GetById(ctx context.Context, userId string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, getUserQuery, userId).Scan(
		&user.Id,
		&user.Name,
		&user.AvatarUrl,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return user, nil
}

func (r *UserRepository) AddToTeam(ctx context.Context, teamId, userId string) error {
	if _, err := r.db.Exec(ctx, insertTeamMemberQuery, teamId, userId); err != nil {
		return handleDBError(err)
	}
	return nil
}
