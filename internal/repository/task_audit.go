package repository

import (
	"context"
	"fmt"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskAuditRepository struct {
	db *pgxpool.Pool
}

var _ ITaskAuditRepository = (*TaskAuditRepository)(nil)

func NewTaskAuditRepository(db *pgxpool.Pool) *TaskAuditRepository {
	return &TaskAuditRepository{
		db: db,
	}
}

func (r *TaskAuditRepository) Create(ctx context.Context, audit *entity.TaskAudit) error {
	query := `
	INSERT INTO task_audit (username, action, entity_type, entity_id, old_values, new_values, changes, changed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id
	`

	err := r.db.QueryRow(
		ctx,
		query,
		audit.Username,
		string(audit.Action),
		audit.EntityType,
		audit.EntityID,
		audit.OldValues,
		audit.NewValues,
		audit.Changes,
		audit.ChangedAt,
	).Scan(&audit.ID)
	if err != nil {
		return fmt.Errorf("insert audit for task %d: %w", audit.EntityID, err)
	}
	return nil
}

func (r *TaskAuditRepository) ListByTaskID(ctx context.Context, taskID int64) ([]entity.TaskAudit, error) {
	query := `
	SELECT id, username, action, entity_type, entity_id, old_values, new_values, changes, changed_at
	FROM task_audit
	WHERE entity_id = $1 AND entity_type = 'task'
	ORDER BY changed_at DESC
	`
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list audit for task %d: %w", taskID, err)
	}
	defer rows.Close()

	var audits []entity.TaskAudit
	for rows.Next() {
		var audit entity.TaskAudit
		var action string
		err := rows.Scan(
			&audit.ID,
			&audit.Username,
			&action,
			&audit.EntityType,
			&audit.EntityID,
			&audit.OldValues,
			&audit.NewValues,
			&audit.Changes,
			&audit.ChangedAt,
		)
		if err != nil {
			return nil, err
		}
		audit.Action = entity.ActionType(action)
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
