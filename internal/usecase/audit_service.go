package usecase

import (
	"context"
	"fmt"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/St1cky1/todo-service/internal/repository"
)

// AuditService reads the change history written by the audit worker.
type AuditService struct {
	taskRepo  repository.ITaskRepository
	auditRepo repository.ITaskAuditRepository
}

func NewAuditService(taskRepo repository.ITaskRepository, auditRepo repository.ITaskAuditRepository) *AuditService {
	return &AuditService{
		taskRepo:  taskRepo,
		auditRepo: auditRepo,
	}
}

// History возвращает записи аудита задачи, новые первыми. Админ видит историю
// любой задачи, включая удаленные; остальные только своих существующих.
func (s *AuditService) History(ctx context.Context, scope access.Scope, taskID int64) ([]entity.TaskAudit, error) {
	if !scope.IsAll() {
		exists, err := s.taskRepo.ExistsByIDAndOwner(ctx, taskID, scope.Owner())
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &entity.NotFoundError{ID: taskID}
		}
	}

	records, err := s.auditRepo.ListByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	return records, nil
}
