package grpc

import (
	"context"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/api/middleware"
	"github.com/St1cky1/todo-service/internal/entity"
	"google.golang.org/protobuf/types/known/structpb"
)

// TaskService is the part of usecase.TaskService exposed over gRPC.
type TaskService interface {
	List(ctx context.Context, scope access.Scope, filter entity.TaskFilter) ([]entity.Task, error)
	ListAll(ctx context.Context, scope access.Scope) ([]entity.Task, error)
	GetByID(ctx context.Context, scope access.Scope, id int64) (*entity.Task, error)
	Create(ctx context.Context, principal entity.Principal, draft entity.TaskDraft) (*entity.Task, error)
	Update(ctx context.Context, principal entity.Principal, id int64, patch entity.TaskPatch) (*entity.Task, error)
	ToggleCompleted(ctx context.Context, principal entity.Principal, id int64) (*entity.Task, error)
	Delete(ctx context.Context, principal entity.Principal, id int64) error
}

func (s *GRPCServer) principal(ctx context.Context) (entity.Principal, error) {
	p, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		return entity.Principal{}, entity.ErrUnauthenticated
	}
	return p, nil
}

// ListTasks - все видимые задачи
func (s *GRPCServer) ListTasks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "ListTasks", err)
	}
	tasks, err := s.taskService.ListAll(ctx, access.ScopeFor(p))
	if err != nil {
		return nil, toStatus(s.logger, "ListTasks", err)
	}
	return tasksToStruct(tasks)
}

// FilterTasks - фильтр по status/priority/dueDateBefore/dueDateAfter
func (s *GRPCServer) FilterTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "FilterTasks", err)
	}
	filter, err := parseFilter(req)
	if err != nil {
		return nil, toStatus(s.logger, "FilterTasks", err)
	}
	tasks, err := s.taskService.List(ctx, access.ScopeFor(p), filter)
	if err != nil {
		return nil, toStatus(s.logger, "FilterTasks", err)
	}
	return tasksToStruct(tasks)
}

func (s *GRPCServer) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "GetTask", err)
	}
	id, err := taskID(req)
	if err != nil {
		return nil, toStatus(s.logger, "GetTask", err)
	}
	task, err := s.taskService.GetByID(ctx, access.ScopeFor(p), id)
	if err != nil {
		return nil, toStatus(s.logger, "GetTask", err)
	}
	return taskToStruct(task)
}

func (s *GRPCServer) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "CreateTask", err)
	}
	draft, err := parseTaskInput(req)
	if err != nil {
		return nil, toStatus(s.logger, "CreateTask", err)
	}
	task, err := s.taskService.Create(ctx, p, draft)
	if err != nil {
		return nil, toStatus(s.logger, "CreateTask", err)
	}
	return taskToStruct(task)
}

// UpdateTask - полная замена полей, id берется из поля "id"
func (s *GRPCServer) UpdateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "UpdateTask", err)
	}
	id, err := taskID(req)
	if err != nil {
		return nil, toStatus(s.logger, "UpdateTask", err)
	}
	input, err := parseTaskInput(req)
	if err != nil {
		return nil, toStatus(s.logger, "UpdateTask", err)
	}
	task, err := s.taskService.Update(ctx, p, id, entity.TaskPatch(input))
	if err != nil {
		return nil, toStatus(s.logger, "UpdateTask", err)
	}
	return taskToStruct(task)
}

func (s *GRPCServer) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "ToggleTask", err)
	}
	id, err := taskID(req)
	if err != nil {
		return nil, toStatus(s.logger, "ToggleTask", err)
	}
	task, err := s.taskService.ToggleCompleted(ctx, p, id)
	if err != nil {
		return nil, toStatus(s.logger, "ToggleTask", err)
	}
	return taskToStruct(task)
}

func (s *GRPCServer) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.principal(ctx)
	if err != nil {
		return nil, toStatus(s.logger, "DeleteTask", err)
	}
	id, err := taskID(req)
	if err != nil {
		return nil, toStatus(s.logger, "DeleteTask", err)
	}
	if err := s.taskService.Delete(ctx, p, id); err != nil {
		return nil, toStatus(s.logger, "DeleteTask", err)
	}
	return structpb.NewStruct(map[string]any{"success": true})
}
