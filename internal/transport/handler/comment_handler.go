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

type CommentService interface {
	Create(ctx context.Context, actorId, issueId string, req *request.CreateCommentRequest) (*domain.Comment, error)
	Update(ctx context.Context, actorId, commentId string, req *request.UpdateCommentRequest) (*domain.Comment, error)
	Delete(ctx context.Context, actorId, commentId string) error
}

type CommentHandler struct {
	svc CommentService
	log *zap.Logger
}

func NewCommentHandler(svc CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		svc: svc,
		log: log,
	}
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	h.log.Info("createComment request received",
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

	var req request.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	comment, err := h.svc.Create(r.Context(), actor, issueId, &req)
	if err != nil {
		h.log.Error("failed to create comment",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusCreated, response.CommentResponse{Comment: comment})
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	h.log.Info("updateComment request received",
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

	commentId := chi.URLParam(r, "commentId")

	var req request.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	comment, err := h.svc.Update(r.Context(), actor, commentId, &req)
	if err != nil {
		h.log.Error("failed to update comment",
			zap.String("comment_id", commentId),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.CommentResponse{Comment: comment})
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	h.log.Info("deleteComment request received",
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

	commentId := chi.URLParam(r, "commentId")

	if err := h.svc.Delete(r.Context(), actor, commentId); err != nil {
		h.log.Error("failed to delete comment",
			zap.String("comment_id", commentId),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.DeletedResponse{Id: commentId})
}
