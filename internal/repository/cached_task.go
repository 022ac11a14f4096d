package repository

import (
	"context"
	"log/slog"

	"github.com/St1cky1/todo-service/internal/entity"
)

// TaskCache is the subset of a key/value cache the decorator needs. Delete
// bumps the task's generation; SetIfGeneration stores only while the
// generation is unchanged.
type TaskCache interface {
	Get(ctx context.Context, id int64) (*entity.Task, bool, error)
	Generation(ctx context.Context, id int64) (int64, error)
	SetIfGeneration(ctx context.Context, task *entity.Task, gen int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// CachedTaskRepository serves FindByID from a cache and invalidates on
// writes. Owner-scoped lookups, existence checks and list queries always go
// to the underlying repository. Cache failures are logged and never fail a
// call.
type CachedTaskRepository struct {
	next   ITaskRepository
	cache  TaskCache
	logger *slog.Logger
}

var _ ITaskRepository = (*CachedTaskRepository)(nil)

func NewCachedTaskRepository(next ITaskRepository, cache TaskCache, logger *slog.Logger) *CachedTaskRepository {
	return &CachedTaskRepository{next: next, cache: cache, logger: logger}
}

func (r *CachedTaskRepository) Save(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	if task.ID != 0 {
		r.invalidate(ctx, task.ID)
	}
	saved, err := r.next.Save(ctx, task)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, saved.ID)
	return saved, nil
}

func (r *CachedTaskRepository) FindByID(ctx context.Context, id int64) (*entity.Task, error) {
	task, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.Warn("task cache read failed", "task_id", id, "error", err)
	} else if ok {
		return task, nil
	}

	// генерацию читаем до похода в БД: запись, успевшая между чтением и
	// заполнением кэша, ее увеличит и заполнение не пройдет
	gen, genErr := r.cache.Generation(ctx, id)
	if genErr != nil {
		r.logger.Warn("task cache generation read failed", "task_id", id, "error", genErr)
	}

	task, err = r.next.FindByID(ctx, id)
	if err != nil || task == nil || genErr != nil {
		return task, err
	}
	if _, err := r.cache.SetIfGeneration(ctx, task, gen); err != nil {
		r.logger.Warn("task cache write failed", "task_id", id, "error", err)
	}
	return task, nil
}

// FindByIDAndOwner always reads the underlying repository: ownership
// decisions never come from a cached copy.
func (r *CachedTaskRepository) FindByIDAndOwner(ctx context.Context, id int64, owner string) (*entity.Task, error) {
	return r.next.FindByIDAndOwner(ctx, id, owner)
}

func (r *CachedTaskRepository) Find(ctx context.Context, criteria entity.TaskCriteria) ([]entity.Task, error) {
	return r.next.Find(ctx, criteria)
}

func (r *CachedTaskRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.next.ExistsByID(ctx, id)
}

func (r *CachedTaskRepository) ExistsByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error) {
	return r.next.ExistsByIDAndOwner(ctx, id, owner)
}

func (r *CachedTaskRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedTaskRepository) invalidate(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.logger.Warn("task cache invalidation failed", "task_id", id, "error", err)
	}
}
