package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/St1cky1/todo-service/internal/repository"
	"github.com/google/uuid"
)

// AuditPublisher интерфейс для публикации аудита (RabbitMQ)
type AuditPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}

const (
	auditPublishTimeout = 5 * time.Second

	// совпадает с title VARCHAR(255) в миграции
	maxTitleLength = 255
)

// TaskService plans scoped queries and executes task commands. Every
// operation resolves visibility through access.ScopeFor or receives a Scope
// produced by it.
type TaskService struct {
	taskRepo  repository.ITaskRepository
	publisher AuditPublisher
	logger    *slog.Logger

	publishes sync.WaitGroup
}

// NewTaskService accepts a nil publisher, which disables audit events.
func NewTaskService(
	taskRepo repository.ITaskRepository,
	publisher AuditPublisher,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// PlanQuery turns a filter into repository criteria. The first matching
// rule wins: status+priority, status, priority, due-before, due-after,
// then no filter. When both date bounds are set only due-before applies.
func (s *TaskService) PlanQuery(scope access.Scope, filter entity.TaskFilter) (entity.TaskCriteria, error) {
	criteria := entity.TaskCriteria{Owner: scope.Owner()}

	switch {
	case filter.Status != nil && filter.Priority != nil:
		status, err := parseStatusFilter(*filter.Status)
		if err != nil {
			return entity.TaskCriteria{}, err
		}
		priority, err := parsePriorityFilter(*filter.Priority)
		if err != nil {
			return entity.TaskCriteria{}, err
		}
		criteria.Status = &status
		criteria.Priority = &priority
	case filter.Status != nil:
		status, err := parseStatusFilter(*filter.Status)
		if err != nil {
			return entity.TaskCriteria{}, err
		}
		criteria.Status = &status
	case filter.Priority != nil:
		priority, err := parsePriorityFilter(*filter.Priority)
		if err != nil {
			return entity.TaskCriteria{}, err
		}
		criteria.Priority = &priority
	case filter.DueDateBefore != nil:
		before := *filter.DueDateBefore
		criteria.DueBefore = &before
	case filter.DueDateAfter != nil:
		after := *filter.DueDateAfter
		criteria.DueAfter = &after
	}

	return criteria, nil
}

func parseStatusFilter(raw string) (entity.TaskStatus, error) {
	status, ok := entity.ParseStatus(raw)
	if !ok {
		return "", &entity.InvalidFilterValueError{Field: "status", Value: raw}
	}
	return status, nil
}

func parsePriorityFilter(raw string) (entity.TaskPriority, error) {
	priority, ok := entity.ParsePriority(raw)
	if !ok {
		return "", &entity.InvalidFilterValueError{Field: "priority", Value: raw}
	}
	return priority, nil
}

// List returns the tasks inside scope that match filter.
func (s *TaskService) List(ctx context.Context, scope access.Scope, filter entity.TaskFilter) ([]entity.Task, error) {
	criteria, err := s.PlanQuery(scope, filter)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.Find(ctx, criteria)
}

// ListAll returns every task inside scope.
func (s *TaskService) ListAll(ctx context.Context, scope access.Scope) ([]entity.Task, error) {
	return s.List(ctx, scope, entity.TaskFilter{})
}

// GetByID fails with *entity.NotFoundError when the task is missing or
// outside scope; the two cases are indistinguishable.
func (s *TaskService) GetByID(ctx context.Context, scope access.Scope, id int64) (*entity.Task, error) {
	var (
		task *entity.Task
		err  error
	)
	if scope.IsAll() {
		task, err = s.taskRepo.FindByID(ctx, id)
	} else {
		task, err = s.taskRepo.FindByIDAndOwner(ctx, id, scope.Owner())
	}
	if err != nil {
		return nil, err
	}
	if task == nil || !scope.Permits(task) {
		return nil, &entity.NotFoundError{ID: id}
	}
	return task, nil
}

func (s *TaskService) Create(ctx context.Context, principal entity.Principal, draft entity.TaskDraft) (*entity.Task, error) {
	if err := validateTitle(draft.Title); err != nil {
		return nil, err
	}

	task := &entity.Task{
		Title:         draft.Title,
		Description:   draft.Description,
		DueDate:       draft.DueDate,
		Priority:      draft.Priority,
		Status:        draft.Status,
		Completed:     draft.Completed,
		OwnerUsername: access.EffectiveOwner(principal, draft.OwnerUsername),
		Attachment:    draft.Attachment,
	}
	if task.Completed == nil {
		completed := false
		task.Completed = &completed
	}
	if task.Status == nil {
		status := entity.StatusTodo
		task.Status = &status
	}

	created, err := s.taskRepo.Save(ctx, task)
	if err != nil {
		return nil, err
	}

	s.sendAuditMessage(entity.ActionCreate, principal.Username, created.ID, nil, created)
	return created, nil
}

// Update replaces every mutable field with the patch; absent fields are
// cleared. Only admins can move the task to another owner.
func (s *TaskService) Update(ctx context.Context, principal entity.Principal, id int64, patch entity.TaskPatch) (*entity.Task, error) {
	if err := validateTitle(patch.Title); err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, access.ScopeFor(principal), id)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	updated.Title = patch.Title
	updated.Description = patch.Description
	updated.DueDate = patch.DueDate
	updated.Priority = patch.Priority
	updated.Completed = patch.Completed
	updated.Status = patch.Status
	updated.Attachment = patch.Attachment
	updated.OwnerUsername = access.ReassignedOwner(principal, existing.OwnerUsername, patch.OwnerUsername)

	saved, err := s.taskRepo.Save(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.sendAuditMessage(entity.ActionUpdate, principal.Username, id, existing, saved)
	return saved, nil
}

// ToggleCompleted flips the completed flag; a missing flag counts as false.
// Status is never touched.
func (s *TaskService) ToggleCompleted(ctx context.Context, principal entity.Principal, id int64) (*entity.Task, error) {
	existing, err := s.GetByID(ctx, access.ScopeFor(principal), id)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	completed := !existing.IsCompleted()
	updated.Completed = &completed

	saved, err := s.taskRepo.Save(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.sendAuditMessage(entity.ActionToggle, principal.Username, id, existing, saved)
	return saved, nil
}

// Delete re-checks existence inside the caller's scope right before the
// delete, independent of any earlier read.
func (s *TaskService) Delete(ctx context.Context, principal entity.Principal, id int64) error {
	scope := access.ScopeFor(principal)

	var (
		exists bool
		err    error
	)
	if scope.IsAll() {
		exists, err = s.taskRepo.ExistsByID(ctx, id)
	} else {
		exists, err = s.taskRepo.ExistsByIDAndOwner(ctx, id, scope.Owner())
	}
	if err != nil {
		return err
	}
	if !exists {
		return &entity.NotFoundError{ID: id}
	}

	if err := s.taskRepo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.sendAuditMessage(entity.ActionDelete, principal.Username, id, nil, nil)
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &entity.ValidationError{Field: "title"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return &entity.ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", maxTitleLength)}
	}
	return nil
}

// WaitPublishes blocks until every audit event started so far has been
// handed to the publisher or has failed.
func (s *TaskService) WaitPublishes() {
	s.publishes.Wait()
}

// sendAuditMessage публикует событие асинхронно; ошибки только логируются.
func (s *TaskService) sendAuditMessage(
	action entity.ActionType,
	username string,
	taskID int64,
	oldTask *entity.Task,
	newTask *entity.Task,
) {
	if s.publisher == nil {
		return
	}

	auditMsg := &entity.AuditMessage{
		MessageID: uuid.NewString(),
		Action:    action,
		Username:  username,
		EntityID:  taskID,
		Timestamp: time.Now().UTC(),
	}
	if oldTask != nil {
		auditMsg.OldValues = taskSnapshot(oldTask)
	}
	if newTask != nil {
		auditMsg.NewValues = taskSnapshot(newTask)
	}
	if oldTask != nil && newTask != nil {
		auditMsg.Changes = diffSnapshots(auditMsg.OldValues, auditMsg.NewValues)
	}

	s.publishes.Add(1)
	go func() {
		defer s.publishes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), auditPublishTimeout)
		defer cancel()
		if err := s.publisher.PublishAuditMessage(ctx, auditMsg); err != nil {
			s.logger.Error("audit publish failed", "action", action, "task_id", taskID, "error", err)
			return
		}
		s.logger.Debug("audit published", "action", action, "task_id", taskID)
	}()
}

func taskSnapshot(t *entity.Task) map[string]any {
	snapshot := map[string]any{
		"title":          t.Title,
		"owner_username": t.OwnerUsername,
		"completed":      t.IsCompleted(),
		"description":    nil,
		"due_date":       nil,
		"priority":       nil,
		"status":         nil,
		"has_attachment": t.Attachment != nil,
	}
	if t.Description != nil {
		snapshot["description"] = *t.Description
	}
	if t.DueDate != nil {
		snapshot["due_date"] = t.DueDate.Format(time.DateOnly)
	}
	if t.Priority != nil {
		snapshot["priority"] = string(*t.Priority)
	}
	if t.Status != nil {
		snapshot["status"] = string(*t.Status)
	}
	return snapshot
}

func diffSnapshots(oldValues, newValues map[string]any) map[string]any {
	changes := make(map[string]any)
	for field, oldValue := range oldValues {
		if newValue := newValues[field]; newValue != oldValue {
			changes[field] = map[string]any{"old": oldValue, "new": newValue}
		}
	}
	return changes
}
