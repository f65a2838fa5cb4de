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

type TeamService interface {
	Create(ctx context.Context, req *request.CreateTeamRequest) (*domain.Team, error)
	Get(ctx context.Context, teamId string) (*domain.Team, error)
}

type TeamHandler struct {
	svc TeamService
	log *zap.Logger
}

func NewTeamHandler(svc TeamService, log *zap.Logger) *TeamHandler {
	return &TeamHandler{
		svc: svc,
		log: log,
	}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	h.log.Info("createTeam request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	// Парсим json в модель CreateTeamRequest
	var req request.CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode request body", zap.Error(err))
		statusCode, errResp := HandleError(service.WrapError(service.ErrInvalidInput, err))
		WriteError(w, statusCode, errResp)
		return
	}

	// Вызов сервиса
	team, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		h.log.Error("failed to create team",
			zap.String("key", req.Key),
			zap.Error(err),
		)
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusCreated, response.TeamResponse{Team: team})
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamId := chi.URLParam(r, "teamId")

	team, err := h.svc.Get(r.Context(), teamId)
	if err != nil {
		statusCode, errResp := HandleError(err)
		WriteError(w, statusCode, errResp)
		return
	}

	writeJSON(w, http.StatusOK, response.TeamResponse{Team: team})
}
