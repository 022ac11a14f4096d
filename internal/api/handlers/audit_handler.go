package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/entity"
)

type AuditService interface {
	History(ctx context.Context, scope access.Scope, taskID int64) ([]entity.TaskAudit, error)
}

type AuditHandler struct {
	auditService AuditService
	logger       *slog.Logger
}

func NewAuditHandler(auditService AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

type auditResponse struct {
	ID        int64             `json:"id"`
	Username  string            `json:"username"`
	Action    entity.ActionType `json:"action"`
	OldValues json.RawMessage   `json:"oldValues,omitempty"`
	NewValues json.RawMessage   `json:"newValues,omitempty"`
	Changes   json.RawMessage   `json:"changes,omitempty"`
	ChangedAt time.Time         `json:"changedAt"`
}

func rawJSON(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return nil
	}
	return json.RawMessage(*s)
}

// History - GET /tasks/{id}/audit
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	records, err := h.auditService.History(r.Context(), access.ScopeFor(p), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]auditResponse, len(records))
	for i, rec := range records {
		out[i] = auditResponse{
			ID:        rec.ID,
			Username:  rec.Username,
			Action:    rec.Action,
			OldValues: rawJSON(rec.OldValues),
			NewValues: rawJSON(rec.NewValues),
			Changes:   rawJSON(rec.Changes),
			ChangedAt: rec.ChangedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
