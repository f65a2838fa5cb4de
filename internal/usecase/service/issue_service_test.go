package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/infrastructure/models/dto"
	"trackline/internal/infrastructure/repository"
	"trackline/internal/transport/dto/request"
)

// MockIssueRepository мок репозитория для тестов
type MockIssueRepository struct {
	mock.Mock
}

func (m *MockIssueRepository) Create(ctx context.Context, d *dto.CreateIssueDTO) (*domain.Issue, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

func (m *MockIssueRepository) GetById(ctx context.Context, issueId string) (*domain.Issue, error) {
	args := m.Called(ctx, issueId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

func (m *MockIssueRepository) Update(ctx context.Context, d *dto.UpdateIssueDTO) (*domain.Issue, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

func (m *MockIssueRepository) Delete(ctx context.Context, issueId string) (*domain.Issue, error) {
	args := m.Called(ctx, issueId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

// MockAllocator мок выделения номеров
type MockAllocator struct {
	mock.Mock
}

func (m *MockAllocator) AllocateIssueNumber(ctx context.Context, teamId string) (int, string, error) {
	args := m.Called(ctx, teamId)
	return args.Int(0), args.String(1), args.Error(2)
}

// MockBroadcaster записывает публикации
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Publish(scopes []domain.Scope, event domain.Event) {
	m.Called(scopes, event)
}

func TestIssueService_Create_Success(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	req := &request.CreateIssueRequest{
		TeamId: "t1",
		Title:  "Fix login flow",
	}

	created := &domain.Issue{
		Id:         "i1",
		TeamId:     "t1",
		CreatorId:  "u1",
		Identifier: "ENG-6",
		Number:     6,
		Title:      "Fix login flow",
		Status:     domain.StatusBacklog,
	}

	mockAllocator.On("AllocateIssueNumber", mock.Anything, "t1").Return(6, "ENG", nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *dto.CreateIssueDTO) bool {
		return d.Identifier == "ENG-6" && d.Number == 6 && d.CreatorId == "u1" && d.Status == domain.StatusBacklog
	})).Return(created, nil)
	mockHub.On("Publish",
		[]domain.Scope{domain.GlobalScope(), domain.TeamScope("t1")},
		mock.MatchedBy(func(e domain.Event) bool { return e.Type == domain.EventIssueCreated }),
	).Return()

	issue, err := service.Create(context.Background(), "u1", req)

	require.NoError(t, err)
	assert.Equal(t, "ENG-6", issue.Identifier)
	mockAllocator.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
	mockHub.AssertExpectations(t)
}

func TestIssueService_Create_ValidationFailed(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	badPriority := 7
	tests := []struct {
		name string
		req  *request.CreateIssueRequest
	}{
		{name: "empty title", req: &request.CreateIssueRequest{TeamId: "t1", Title: ""}},
		{name: "unknown status", req: &request.CreateIssueRequest{TeamId: "t1", Title: "x", Status: "archived"}},
		{name: "priority out of range", req: &request.CreateIssueRequest{TeamId: "t1", Title: "x", Priority: &badPriority}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue, err := service.Create(context.Background(), "u1", tt.req)

			assert.Nil(t, issue)
			var domainErr *DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		})
	}

	// Ни выделения номера, ни записи, ни рассылки
	mockAllocator.AssertNotCalled(t, "AllocateIssueNumber")
	mockRepo.AssertNotCalled(t, "Create")
	mockHub.AssertNotCalled(t, "Publish")
}

func TestIssueService_Create_UnknownTeam(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	mockAllocator.On("AllocateIssueNumber", mock.Anything, "ghost").Return(0, "", repository.ErrNotFound)

	issue, err := service.Create(context.Background(), "u1", &request.CreateIssueRequest{TeamId: "ghost", Title: "x"})

	assert.Nil(t, issue)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
	mockHub.AssertNotCalled(t, "Publish")
}

func TestIssueService_Create_AllocatorUnavailable(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	mockAllocator.On("AllocateIssueNumber", mock.Anything, "t1").Return(0, "", repository.ErrLockTimeout)

	issue, err := service.Create(context.Background(), "u1", &request.CreateIssueRequest{TeamId: "t1", Title: "x"})

	assert.Nil(t, issue)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALLOCATOR_UNAVAILABLE", domainErr.Code)
	mockRepo.AssertNotCalled(t, "Create")
	mockHub.AssertNotCalled(t, "Publish")
}

func TestIssueService_Update_PublishesToDetailScope(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	newTitle := "Renamed"
	updated := &domain.Issue{Id: "i1", TeamId: "t1", Identifier: "ENG-6", Title: newTitle}

	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *dto.UpdateIssueDTO) bool {
		return d.IssueId == "i1" && d.Title != nil && *d.Title == newTitle
	})).Return(updated, nil)
	mockHub.On("Publish",
		[]domain.Scope{domain.GlobalScope(), domain.TeamScope("t1"), domain.ResourceScope("i1")},
		mock.MatchedBy(func(e domain.Event) bool {
			if e.Type != domain.EventIssueUpdated {
				return false
			}
			fields, ok := e.Fields["changed_fields"].([]string)
			return ok && len(fields) == 1 && fields[0] == "title"
		}),
	).Return()

	issue, err := service.Update(context.Background(), "u1", "i1", &request.UpdateIssueRequest{Title: &newTitle})

	require.NoError(t, err)
	assert.Equal(t, newTitle, issue.Title)
	mockRepo.AssertExpectations(t)
	mockHub.AssertExpectations(t)
}

func TestIssueService_Update_ValidationErrorIsNotBroadcast(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	badPriority := 9
	issue, err := service.Update(context.Background(), "u1", "i1", &request.UpdateIssueRequest{Priority: &badPriority})

	assert.Nil(t, issue)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	mockRepo.AssertNotCalled(t, "Update")
	mockHub.AssertNotCalled(t, "Publish")
}

func TestIssueService_Delete_Success(t *testing.T) {
	logger := zap.NewNop()
	mockRepo := new(MockIssueRepository)
	mockAllocator := new(MockAllocator)
	mockHub := new(MockBroadcaster)
	service := NewIssueService(mockRepo, mockAllocator, mockHub, logger)

	deleted := &domain.Issue{Id: "i1", TeamId: "t1", Identifier: "ENG-6"}
	mockRepo.On("Delete", mock.Anything, "i1").Return(deleted, nil)
	mockHub.On("Publish",
		[]domain.Scope{domain.GlobalScope(), domain.TeamScope("t1")},
		mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventIssueDeleted && e.Fields["issue_id"] == "i1"
		}),
	).Return()

	err := service.Delete(context.Background(), "u1", "i1")

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockHub.AssertExpectations(t)
}
