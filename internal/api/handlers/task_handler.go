package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/api/middleware"
	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/go-chi/chi/v5"
)

// TaskService is the part of usecase.TaskService the HTTP layer calls.
type TaskService interface {
	List(ctx context.Context, scope access.Scope, filter entity.TaskFilter) ([]entity.Task, error)
	ListAll(ctx context.Context, scope access.Scope) ([]entity.Task, error)
	GetByID(ctx context.Context, scope access.Scope, id int64) (*entity.Task, error)
	Create(ctx context.Context, principal entity.Principal, draft entity.TaskDraft) (*entity.Task, error)
	Update(ctx context.Context, principal entity.Principal, id int64, patch entity.TaskPatch) (*entity.Task, error)
	ToggleCompleted(ctx context.Context, principal entity.Principal, id int64) (*entity.Task, error)
	Delete(ctx context.Context, principal entity.Principal, id int64) error
}

type TaskHandler struct {
	taskService TaskService
	logger      *slog.Logger
}

func NewTaskHandler(taskService TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// requirePrincipal достает вызывающего из контекста; без него запрос отклоняется
func requirePrincipal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (entity.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeServiceError(w, logger, entity.ErrUnauthenticated)
	}
	return p, ok
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid task id")
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListAll(r.Context(), access.ScopeFor(p))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) FilterTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	tasks, err := h.taskService.List(r.Context(), access.ScopeFor(p), filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// parseFilter treats a parameter that is present but empty as supplied, so
// "?status=" is rejected instead of ignored.
func parseFilter(r *http.Request) (entity.TaskFilter, error) {
	q := r.URL.Query()
	var filter entity.TaskFilter

	if q.Has("status") {
		status := q.Get("status")
		filter.Status = &status
	}
	if q.Has("priority") {
		priority := q.Get("priority")
		filter.Priority = &priority
	}
	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{
		{"dueDateBefore", &filter.DueDateBefore},
		{"dueDateAfter", &filter.DueDateAfter},
	} {
		if !q.Has(bound.name) {
			continue
		}
		day, err := parseDate(q.Get(bound.name))
		if err != nil {
			return entity.TaskFilter{}, &entity.ValidationError{Field: bound.name, Message: "expected YYYY-MM-DD"}
		}
		*bound.dst = &day
	}
	return filter, nil
}

// создаем новую задачу
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}
	fields, err := req.validate()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), p, fields.draft())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(r.Context(), access.ScopeFor(p), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}
	fields, err := req.validate()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), p, id, fields.patch())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleCompleted(r.Context(), p, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), p, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
