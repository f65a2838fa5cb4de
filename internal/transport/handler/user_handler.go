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

type UserService interface {
	Create(ctx context.Context, req *request.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userId string) (*domain.User, error)
	AddToTeam(ctx context.Context, teamId, userId string) error
}

type UserHandler struct {
	svc UserService
	log *zap.Logger
}

func NewUserHandler(svc UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		svc: svc,
		log: log,
	}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	h.log.Info("createUser request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	var req request.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	user, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusCreated, response.UserResponse{User: user})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")

	user, err := h.svc.Get(r.Context(), userId)
	if err != nil {
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.UserResponse{User: user})
}

func (h *UserHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	h.log.Info("addMember request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	teamId := chi.URLParam(r, "teamId")

	var req request.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	if err := h.svc.AddToTeam(r.Context(), teamId, req.UserId); err != nil {
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
