package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/repository"
)

// MockMembershipRepository мок проверки членства
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) IsMember(ctx context.Context, teamId, userId string) (bool, error) {
	args := m.Called(ctx, teamId, userId)
	return args.Bool(0), args.Error(1)
}

func TestAccessService_GlobalScope(t *testing.T) {
	teams := new(MockMembershipRepository)
	issues := new(MockIssueRepository)
	service := NewAccessService(teams, issues, zap.NewNop())

	ok, err := service.CanAccess(context.Background(), domain.GlobalScope(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Анонимов не пускаем никуда
	ok, err = service.CanAccess(context.Background(), domain.GlobalScope(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessService_TeamScope(t *testing.T) {
	teams := new(MockMembershipRepository)
	issues := new(MockIssueRepository)
	service := NewAccessService(teams, issues, zap.NewNop())

	teams.On("IsMember", mock.Anything, "t1", "member").Return(true, nil)
	teams.On("IsMember", mock.Anything, "t1", "outsider").Return(false, nil)

	ok, err := service.CanAccess(context.Background(), domain.TeamScope("t1"), "member")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.CanAccess(context.Background(), domain.TeamScope("t1"), "outsider")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessService_ResourceScopeChecksIssueTeam(t *testing.T) {
	teams := new(MockMembershipRepository)
	issues := new(MockIssueRepository)
	service := NewAccessService(teams, issues, zap.NewNop())

	issues.On("GetById", mock.Anything, "i1").Return(&domain.Issue{Id: "i1", TeamId: "t1"}, nil)
	teams.On("IsMember", mock.Anything, "t1", "member").Return(true, nil)

	ok, err := service.CanAccess(context.Background(), domain.ResourceScope("i1"), "member")
	require.NoError(t, err)
	assert.True(t, ok)
	teams.AssertExpectations(t)
}

func TestAccessService_UnknownResourceIsRejection(t *testing.T) {
	teams := new(MockMembershipRepository)
	issues := new(MockIssueRepository)
	service := NewAccessService(teams, issues, zap.NewNop())

	issues.On("GetById", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	ok, err := service.CanAccess(context.Background(), domain.ResourceScope("ghost"), "member")
	require.NoError(t, err)
	assert.False(t, ok)
	teams.AssertNotCalled(t, "IsMember")
}
