package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"trackline/internal/domain"
	"trackline/internal/transport/dto/request"
	"trackline/internal/transport/dto/response"
	"trackline/internal/usecase/service"
)

// actorHeader идентификатор действующего пользователя, проставляется
// внешним слоем аутентификации. Явный актор вместо ambient-состояния.
const actorHeader = "X-User-Id"

type IssueService interface {
	Create(ctx context.Context, actorId string, req *request.CreateIssueRequest) (*domain.Issue, error)
	Get(ctx context.Context, issueId string) (*domain.Issue, error)
	Update(ctx context.Context, actorId, issueId string, req *request.UpdateIssueRequest) (*domain.Issue, error)
	Delete(ctx context.Context, actorId, issueId string) error
}

type IssueHandler struct {
	svc IssueService
	log *zap.Logger
}

func NewIssueHandler(svc IssueService, log *zap.Logger) *IssueHandler {
	return &IssueHandler{
		svc: svc,
		log: log,
	}
}

func actorId(r *http.Request) string {
	return r.Header.Get(actorHeader)
}

func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	h.log.Info("createIssue request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	actor := actorId(r)
	if actor == "" {
		WriteError(w, http.StatusUnauthorized, ErrorResponse{
			Error: ErrorDetail{Code: "UNAUTHORIZED", Message: "missing actor"},
		})
		return
	}

	// Парсим json в модель CreateIssueRequest
	var req request.CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	// Вызов сервиса
	issue, err := h.svc.Create(r.Context(), actor, &req)
	if err != nil {
		h.log.Error("failed to create issue",
			zap.String("team_id", req.TeamId),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusCreated, response.IssueResponse{Issue: issue})
}

func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request) {
	issueId := chi.URLParam(r, "issueId")

	issue, err := h.svc.Get(r.Context(), issueId)
	if err != nil {
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.IssueResponse{Issue: issue})
}

func (h *IssueHandler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	h.log.Info("updateIssue request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	actor := actorId(r)
	if actor == "" {
		WriteError(w, http.StatusUnauthorized, ErrorResponse{
			Error: ErrorDetail{Code: "UNAUTHORIZED", Message: "missing actor"},
		})
		return
	}

	issueId := chi.URLParam(r, "issueId")

	var req request.UpdateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	issue, err := h.svc.Update(r.Context(), actor, issueId, &req)
	if err != nil {
		h.log.Error("failed to update issue",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.IssueResponse{Issue: issue})
}

func (h *IssueHandler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	h.log.Info("deleteIssue request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	actor := actorId(r)
	if actor == "" {
		WriteError(w, http.StatusUnauthorized, ErrorResponse{
			Error: ErrorDetail{Code: "UNAUTHORIZED", Message: "missing actor"},
		})
		return
	}

	issueId := chi.URLParam(r, "issueId")

	if err := h.svc.Delete(r.Context(), actor, issueId); err != nil {
		h.log.Error("failed to delete issue",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.DeletedResponse{Id: issueId})
}
