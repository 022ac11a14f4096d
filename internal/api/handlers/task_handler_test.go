package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/api/middleware"
	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	listFunc    func(ctx context.Context, scope access.Scope, filter entity.TaskFilter) ([]entity.Task, error)
	listAllFunc func(ctx context.Context, scope access.Scope) ([]entity.Task, error)
	getFunc     func(ctx context.Context, scope access.Scope, id int64) (*entity.Task, error)
	createFunc  func(ctx context.Context, p entity.Principal, draft entity.TaskDraft) (*entity.Task, error)
	updateFunc  func(ctx context.Context, p entity.Principal, id int64, patch entity.TaskPatch) (*entity.Task, error)
	toggleFunc  func(ctx context.Context, p entity.Principal, id int64) (*entity.Task, error)
	deleteFunc  func(ctx context.Context, p entity.Principal, id int64) error
}

var errNotImplemented = errors.New("not implemented")

func (m *MockTaskService) List(ctx context.Context, scope access.Scope, filter entity.TaskFilter) ([]entity.Task, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, scope, filter)
	}
	return nil, errNotImplemented
}

func (m *MockTaskService) ListAll(ctx context.Context, scope access.Scope) ([]entity.Task, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, scope)
	}
	return nil, errNotImplemented
}

func (m *MockTaskService) GetByID(ctx context.Context, scope access.Scope, id int64) (*entity.Task, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, scope, id)
	}
	return nil, errNotImplemented
}

func (m *MockTaskService) Create(ctx context.Context, p entity.Principal, draft entity.TaskDraft) (*entity.Task, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, p, draft)
	}
	return nil, errNotImplemented
}

func (m *MockTaskService) Update(ctx context.Context, p entity.Principal, id int64, patch entity.TaskPatch) (*entity.Task, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, p, id, patch)
	}
	return nil, errNotImplemented
}

func (m *MockTaskService) ToggleCompleted(ctx context.Context, p entity.Principal, id int64) (*entity.Task, error) {
	if m.toggleFunc != nil {
		return m.toggleFunc(ctx, p, id)
	}
	return nil, errNotImplemented
}

func (m *MockTaskService) Delete(ctx context.Context, p entity.Principal, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, p, id)
	}
	return errNotImplemented
}

var (
	alice = entity.Principal{Username: "alice", Role: entity.RoleUser}
	root  = entity.Principal{Username: "root", Role: entity.RoleAdmin}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve прогоняет запрос через chi, подставляя principal в контекст
func serve(t *testing.T, svc *MockTaskService, p *entity.Principal, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewTaskHandler(svc, discardLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if p != nil {
				req = req.WithContext(middleware.WithPrincipal(req.Context(), *p))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/tasks", h.ListTasks)
	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks/filter", h.FilterTasks)
	r.Get("/tasks/{id}", h.GetTask)
	r.Put("/tasks/{id}", h.UpdateTask)
	r.Put("/tasks/{id}/toggle", h.ToggleTask)
	r.Delete("/tasks/{id}", h.DeleteTask)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestListTasks_ScopeFollowsRole(t *testing.T) {
	var got access.Scope
	svc := &MockTaskService{
		listAllFunc: func(_ context.Context, scope access.Scope) ([]entity.Task, error) {
			got = scope
			return []entity.Task{{ID: 1, Title: "a", OwnerUsername: "alice"}}, nil
		},
	}

	rr := serve(t, svc, &alice, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, access.OwnedBy("alice"), got)
	assert.Contains(t, rr.Body.String(), `"ownerUsername":"alice"`)

	rr = serve(t, svc, &root, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, got.IsAll())
}

func TestListTasks_WithoutPrincipal(t *testing.T) {
	rr := serve(t, &MockTaskService{}, nil, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestFilterTasks_ParsesQuery(t *testing.T) {
	var got entity.TaskFilter
	svc := &MockTaskService{
		listFunc: func(_ context.Context, _ access.Scope, filter entity.TaskFilter) ([]entity.Task, error) {
			got = filter
			return []entity.Task{}, nil
		},
	}

	rr := serve(t, svc, &alice, http.MethodGet, "/tasks/filter?status=todo&dueDateBefore=2024-05-01", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	require.NotNil(t, got.Status)
	assert.Equal(t, "todo", *got.Status)
	assert.Nil(t, got.Priority)
	require.NotNil(t, got.DueDateBefore)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *got.DueDateBefore)
	assert.Nil(t, got.DueDateAfter)
}

func TestFilterTasks_EmptyParamIsPresent(t *testing.T) {
	var got entity.TaskFilter
	svc := &MockTaskService{
		listFunc: func(_ context.Context, _ access.Scope, filter entity.TaskFilter) ([]entity.Task, error) {
			got = filter
			return nil, &entity.InvalidFilterValueError{Field: "status", Value: ""}
		},
	}

	rr := serve(t, svc, &alice, http.MethodGet, "/tasks/filter?status=", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, got.Status)
	assert.Equal(t, "", *got.Status)
	assert.Contains(t, rr.Body.String(), `"error":"invalid_filter_value"`)
}

func TestFilterTasks_BadDate(t *testing.T) {
	called := false
	svc := &MockTaskService{
		listFunc: func(context.Context, access.Scope, entity.TaskFilter) ([]entity.Task, error) {
			called = true
			return nil, nil
		},
	}

	rr := serve(t, svc, &alice, http.MethodGet, "/tasks/filter?dueDateAfter=05/01/2024", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"field":"dueDateAfter"`)
	assert.False(t, called)
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "created",
			body:           `{"title":"Write docs","priority":"high","dueDate":"2024-06-01"}`,
			expectedStatus: http.StatusCreated,
			expectedBody:   `"dueDate":"2024-06-01"`,
		},
		{name: "invalid json", body: `{`, expectedStatus: http.StatusBadRequest, expectedBody: "invalid_json"},
		{name: "missing title", body: `{}`, expectedStatus: http.StatusBadRequest, expectedBody: `"field":"title"`},
		{name: "bad priority", body: `{"title":"x","priority":"URGENT"}`, expectedStatus: http.StatusBadRequest, expectedBody: `"field":"priority"`},
		{name: "bad date", body: `{"title":"x","dueDate":"tomorrow"}`, expectedStatus: http.StatusBadRequest, expectedBody: `"field":"dueDate"`},
		{name: "bad attachment", body: `{"title":"x","attachmentBase64":"%%%"}`, expectedStatus: http.StatusBadRequest, expectedBody: `"field":"attachmentBase64"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTaskService{
				createFunc: func(_ context.Context, p entity.Principal, d entity.TaskDraft) (*entity.Task, error) {
					return &entity.Task{
						ID:            7,
						Title:         d.Title,
						DueDate:       d.DueDate,
						Priority:      d.Priority,
						OwnerUsername: p.Username,
					}, nil
				},
			}

			rr := serve(t, svc, &alice, http.MethodPost, "/tasks", tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
		})
	}
}

func TestCreateTask_PassesOwnerThrough(t *testing.T) {
	var got entity.TaskDraft
	svc := &MockTaskService{
		createFunc: func(_ context.Context, _ entity.Principal, d entity.TaskDraft) (*entity.Task, error) {
			got = d
			return &entity.Task{ID: 1, Title: d.Title, OwnerUsername: d.OwnerUsername}, nil
		},
	}

	rr := serve(t, svc, &root, http.MethodPost, "/tasks", `{"title":"t","ownerUsername":" bob ","status":"in_progress"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "bob", got.OwnerUsername)
	require.NotNil(t, got.Status)
	assert.Equal(t, entity.StatusInProgress, *got.Status)
}

func TestGetTask(t *testing.T) {
	svc := &MockTaskService{
		getFunc: func(_ context.Context, scope access.Scope, id int64) (*entity.Task, error) {
			task := &entity.Task{ID: 1, Title: "mine", OwnerUsername: "alice"}
			if id == task.ID && scope.Permits(task) {
				return task, nil
			}
			return nil, &entity.NotFoundError{ID: id}
		},
	}

	rr := serve(t, svc, &alice, http.MethodGet, "/tasks/1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title":"mine"`)

	rr = serve(t, svc, &alice, http.MethodGet, "/tasks/2", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "task not found with id 2")

	rr = serve(t, svc, &alice, http.MethodGet, "/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_id")
}

func TestUpdateTask(t *testing.T) {
	var gotID int64
	var got entity.TaskPatch
	svc := &MockTaskService{
		updateFunc: func(_ context.Context, p entity.Principal, id int64, patch entity.TaskPatch) (*entity.Task, error) {
			gotID, got = id, patch
			return &entity.Task{ID: id, Title: patch.Title, OwnerUsername: p.Username}, nil
		},
	}

	rr := serve(t, svc, &alice, http.MethodPut, "/tasks/5", `{"title":"renamed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(5), gotID)
	assert.Equal(t, "renamed", got.Title)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.Completed)
}

func TestToggleTask(t *testing.T) {
	svc := &MockTaskService{
		toggleFunc: func(_ context.Context, _ entity.Principal, id int64) (*entity.Task, error) {
			done := true
			return &entity.Task{ID: id, Title: "t", Completed: &done}, nil
		},
	}

	rr := serve(t, svc, &alice, http.MethodPut, "/tasks/3/toggle", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"completed":true`)
}

func TestDeleteTask(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusNoContent},
		{name: "not found", err: &entity.NotFoundError{ID: 9}, expectedStatus: http.StatusNotFound},
		{name: "storage failure", err: errors.New("connection reset"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTaskService{
				deleteFunc: func(context.Context, entity.Principal, int64) error { return tt.err },
			}
			rr := serve(t, svc, &alice, http.MethodDelete, "/tasks/9", "")
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.NotContains(t, rr.Body.String(), "connection reset")
		})
	}
}
