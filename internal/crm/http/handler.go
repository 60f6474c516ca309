package crmhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bizdash/bizdash/internal/crm"
	"github.com/bizdash/bizdash/internal/platform/httpx"
	"github.com/bizdash/bizdash/internal/records"
)

// CRMService is the pipeline and follow-up contract used by the handler.
type CRMService interface {
	Pipeline(ctx context.Context) (crm.PipelineReport, error)
	AddOpportunity(ctx context.Context, input crm.OpportunityInput) (records.PipelineEntry, error)
	MoveStage(ctx context.Context, id string, stage records.PipelineStage, notes string) error
	Tasks(ctx context.Context) (crm.TaskBoard, error)
	CreateTask(ctx context.Context, input crm.TaskInput) (records.Task, error)
	CompleteTask(ctx context.Context, id string) error
	RecentInteractions(ctx context.Context, limit int) ([]records.Interaction, error)
	LogInteraction(ctx context.Context, input crm.InteractionInput) (records.Interaction, error)
}

// Handler wires CRM endpoints.
type Handler struct {
	logger  *slog.Logger
	service CRMService
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service CRMService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/crm", func(r chi.Router) {
		r.Get("/pipeline", h.pipeline)
		r.Post("/pipeline", h.addOpportunity)
		r.Put("/pipeline/{id}/stage", h.moveStage)
		r.Get("/tasks", h.tasks)
		r.Post("/tasks", h.createTask)
		r.Post("/tasks/{id}/complete", h.completeTask)
		r.Get("/interactions", h.interactions)
		r.Post("/interactions", h.logInteraction)
	})
}

func (h *Handler) pipeline(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Pipeline(r.Context())
	if err != nil {
		h.fail(w, "load pipeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) addOpportunity(w http.ResponseWriter, r *http.Request) {
	var input crm.OpportunityInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.AddOpportunity(r.Context(), input)
	if err != nil {
		h.fail(w, "add opportunity", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type stageRequest struct {
	Stage records.PipelineStage `json:"stage"`
	Notes string                `json:"notes"`
}

func (h *Handler) moveStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.MoveStage(r.Context(), chi.URLParam(r, "id"), req.Stage, req.Notes); err != nil {
		h.fail(w, "move stage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tasks(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Tasks(r.Context())
	if err != nil {
		h.fail(w, "list tasks", err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var input crm.TaskInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.CreateTask(r.Context(), input)
	if err != nil {
		h.fail(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CompleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "complete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) interactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be a number")
			return
		}
		limit = n
	}
	items, err := h.service.RecentInteractions(r.Context(), limit)
	if err != nil {
		h.fail(w, "list interactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"interactions": items})
}

func (h *Handler) logInteraction(w http.ResponseWriter, r *http.Request) {
	var input crm.InteractionInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.LogInteraction(r.Context(), input)
	if err != nil {
		h.fail(w, "log interaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, crm.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, crm.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
