package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/models/dto"
)

const (
	issueColumns = `id, team_id, creator_id, assignee_id, identifier, number,
	title, description, status, priority, created_at, updated_at`

	insertIssueQuery = `
INSERT INTO issues (id, team_id, creator_id, assignee_id, identifier, number, title, description, status, priority)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + issueColumns + `;`

	getIssueQuery = `
SELECT ` + issueColumns + `
FROM issues
WHERE id = $1;`

	deleteIssueQuery = `
DELETE FROM issues
WHERE id = $1
RETURNING ` + issueColumns + `;`
)

type IssueRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewIssueRepository(db *pgxpool.Pool, log *zap.Logger) *IssueRepository {
	return &IssueRepository{
		db:  db,
		log: log,
	}
}

func (r *IssueRepository) Create(ctx context.Context, d *dto.CreateIssueDTO) (*domain.Issue, error) {
	row := r.db.QueryRow(ctx, insertIssueQuery,
		uuid.NewString(),
		d.TeamId,
		d.CreatorId,
		d.AssigneeId,
		d.Identifier,
		d.Number,
		d.Title,
		d.Description,
		d.Status,
		d.Priority,
	)
	return scanIssue(row)
}

func (r *IssueRepository) GetById(ctx context.Context, issueId string) (*domain.Issue, error) {
	return scanIssue(r.db.QueryRow(ctx, getIssueQuery, issueId))
}

// Update применяет частичное обновление и возвращает каноничную строку
func (r *IssueRepository) Update(ctx context.Context, d *dto.UpdateIssueDTO) (*domain.Issue, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if d.Title != nil {
		addSet("title", *d.Title)
	}
	if d.Description != nil {
		addSet("description", *d.Description)
	}
	if d.Status != nil {
		addSet("status", *d.Status)
	}
	if d.Priority != nil {
		addSet("priority", *d.Priority)
	}
	if d.ClearAssignee {
		sets = append(sets, "assignee_id = NULL")
	} else if d.AssigneeId != nil {
		addSet("assignee_id", *d.AssigneeId)
	}

	if len(sets) == 0 {
		return r.GetById(ctx, d.IssueId)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, d.IssueId)

	query := fmt.Sprintf(`UPDATE issues SET %s WHERE id = $%d RETURNING `+issueColumns+`;`,
		strings.Join(sets, ", "), len(args))

	return scanIssue(r.db.QueryRow(ctx, query, args...))
}

func (r *IssueRepository) Delete(ctx context.Context, issueId string) (*domain.Issue, error) {
	return scanIssue(r.db.QueryRow(ctx, deleteIssueQuery, issueId))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*domain.Issue, error) {
	issue := &domain.Issue{}
	err := row.Scan(
		&issue.Id,
		&issue.TeamId,
		&issue.CreatorId,
		&issue.AssigneeId,
		&issue.Identifier,
		&issue.Number,
		&issue.Title,
		&issue.Description,
		&issue.Status,
		&issue.Priority,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return issue, nil
}
