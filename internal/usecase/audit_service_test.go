package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/St1cky1/todo-service/internal/access"
	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskAuditRepository struct {
	ListByTaskIDFunc func(ctx context.Context, taskID int64) ([]entity.TaskAudit, error)
}

func (m *MockTaskAuditRepository) Create(context.Context, *entity.TaskAudit) error {
	return errors.New("not implemented")
}

func (m *MockTaskAuditRepository) ListByTaskID(ctx context.Context, taskID int64) ([]entity.TaskAudit, error) {
	if m.ListByTaskIDFunc != nil {
		return m.ListByTaskIDFunc(ctx, taskID)
	}
	return nil, nil
}

func TestAuditService_History(t *testing.T) {
	tasks, repo := newTestService()
	own := mustCreate(t, tasks, alice, entity.TaskDraft{Title: "mine"})
	foreign := mustCreate(t, tasks, bob, entity.TaskDraft{Title: "theirs"})

	audits := &MockTaskAuditRepository{
		ListByTaskIDFunc: func(_ context.Context, taskID int64) ([]entity.TaskAudit, error) {
			return []entity.TaskAudit{{ID: 1, EntityID: taskID, Action: entity.ActionCreate, ChangedAt: time.Now()}}, nil
		},
	}
	svc := NewAuditService(repo, audits)
	ctx := context.Background()

	records, err := svc.History(ctx, access.ScopeFor(alice), own.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, own.ID, records[0].EntityID)

	_, err = svc.History(ctx, access.ScopeFor(alice), foreign.ID)
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)

	// админ видит историю удаленной задачи
	require.NoError(t, tasks.Delete(ctx, admin, foreign.ID))
	records, err = svc.History(ctx, access.ScopeFor(admin), foreign.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAuditService_HistoryStorageError(t *testing.T) {
	_, repo := newTestService()
	audits := &MockTaskAuditRepository{
		ListByTaskIDFunc: func(context.Context, int64) ([]entity.TaskAudit, error) {
			return nil, errors.New("db down")
		},
	}

	_, err := NewAuditService(repo, audits).History(context.Background(), access.All(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
