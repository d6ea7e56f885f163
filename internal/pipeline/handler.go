package pipeline

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/handlers"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/routes"
)

// Handler provides HTTP endpoints for pipeline submission.
type Handler struct {
	orchestrator *Orchestrator
	fetchLimit   int64
	logger       *slog.Logger
}

// BatchRequest lists the email ids to process.
type BatchRequest struct {
	EmailIDs []string `json:"email_ids"`
}

// NewHandler creates a Handler over the orchestrator.
func NewHandler(orchestrator *Orchestrator, fetchLimit int64, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		fetchLimit:   fetchLimit,
		logger:       logger.With("handler", "pipeline"),
	}
}

// Routes returns the route group definition for pipeline endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/pipeline",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/process/{emailId}", Handler: h.Process},
			{Method: "POST", Pattern: "/batch", Handler: h.Batch},
			{Method: "POST", Pattern: "/sync", Handler: h.Sync},
		},
	}
}

// Process runs the pipeline for one ingested email.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	emailID := r.PathValue("emailId")

	run, err := h.orchestrator.Process(r.Context(), emailID)
	if err != nil {
		handlers.RespondError(w, h.logger, mapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// Batch runs the pipeline for each listed email over the worker pool.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	items := h.orchestrator.ProcessBatch(r.Context(), req.EmailIDs)
	handlers.RespondJSON(w, http.StatusOK, items)
}

// Sync fetches new mailbox messages, ingests them, and processes the batch.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	items, err := h.orchestrator.Sync(r.Context(), h.fetchLimit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadGateway, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

func mapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, ErrFatalInput), errors.Is(err, emails.ErrMissingID):
		return http.StatusBadRequest
	case errors.Is(err, emails.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
