package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, due_date, priority, status, completed, owner_username, attachment_base64, created_at, updated_at`

type TaskRepository struct {
	db *pgxpool.Pool
}

var _ ITaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func (r *TaskRepository) Save(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	if task.ID == 0 {
		return r.insert(ctx, task)
	}
	return r.update(ctx, task)
}

func (r *TaskRepository) insert(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	INSERT INTO task (title, description, due_date, priority, status, completed, owner_username, attachment_base64)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + taskColumns

	saved, err := scanTask(r.db.QueryRow(ctx, query, taskArgs(task)...))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return saved, nil
}

func (r *TaskRepository) update(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	UPDATE task
	SET title = $1, description = $2, due_date = $3, priority = $4, status = $5,
	    completed = $6, owner_username = $7, attachment_base64 = $8, updated_at = CURRENT_TIMESTAMP
	WHERE id = $9
	RETURNING ` + taskColumns

	args := append(taskArgs(task), task.ID)
	saved, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &entity.NotFoundError{ID: task.ID}
		}
		return nil, fmt.Errorf("update task %d: %w", task.ID, err)
	}
	return saved, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM task WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *TaskRepository) FindByIDAndOwner(ctx context.Context, id int64, owner string) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM task WHERE id = $1 AND owner_username = $2`
	return r.findOne(ctx, query, id, owner)
}

func (r *TaskRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Task, error) {
	task, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Find(ctx context.Context, criteria entity.TaskCriteria) ([]entity.Task, error) {
	query, args := buildFindQuery(criteria)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM task WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check task %d: %w", id, err)
	}
	return exists, nil
}

func (r *TaskRepository) ExistsByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM task WHERE id = $1 AND owner_username = $2)`,
		id, owner,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check task %d: %w", id, err)
	}
	return exists, nil
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM task WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// buildFindQuery динамически строит WHERE по заданным критериям.
func buildFindQuery(c entity.TaskCriteria) (string, []any) {
	var conds []string
	var args []any

	add := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, expr+" $"+strconv.Itoa(len(args)))
	}

	if c.Owner != "" {
		add("owner_username =", c.Owner)
	}
	if c.Status != nil {
		add("status =", string(*c.Status))
	}
	if c.Priority != nil {
		add("priority =", string(*c.Priority))
	}
	if c.DueBefore != nil {
		add("due_date <", *c.DueBefore)
	}
	if c.DueAfter != nil {
		add("due_date >", *c.DueAfter)
	}

	query := `SELECT ` + taskColumns + ` FROM task`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"
	return query, args
}

func taskArgs(t *entity.Task) []any {
	var priority, status *string
	if t.Priority != nil {
		p := string(*t.Priority)
		priority = &p
	}
	if t.Status != nil {
		s := string(*t.Status)
		status = &s
	}
	return []any{
		t.Title,
		t.Description,
		t.DueDate,
		priority,
		status,
		t.Completed,
		t.OwnerUsername,
		t.Attachment,
	}
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		task     entity.Task
		dueDate  *time.Time
		priority *string
		status   *string
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&dueDate,
		&priority,
		&status,
		&task.Completed,
		&task.OwnerUsername,
		&task.Attachment,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.DueDate = dueDate
	if priority != nil {
		p := entity.TaskPriority(*priority)
		task.Priority = &p
	}
	if status != nil {
		s := entity.TaskStatus(*status)
		task.Status = &s
	}
	return &task, nil
}
