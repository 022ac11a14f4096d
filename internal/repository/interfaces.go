package repository

import (
	"context"

	"github.com/St1cky1/todo-service/internal/entity"
)

// ITaskRepository - хранилище задач. Методы FindByID* возвращают (nil, nil),
// если запись не найдена.
type ITaskRepository interface {
	// Save inserts a task with a zero ID and assigns one; otherwise it
	// overwrites the stored row.
	Save(ctx context.Context, task *entity.Task) (*entity.Task, error)
	FindByID(ctx context.Context, id int64) (*entity.Task, error)
	FindByIDAndOwner(ctx context.Context, id int64, owner string) (*entity.Task, error)
	// Find covers findAll, findByOwner and every status/priority/due-date
	// lookup together with their owner-scoped variants.
	Find(ctx context.Context, criteria entity.TaskCriteria) ([]entity.Task, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
}

// IUserRepository - интерфейс для UserRepository
type IUserRepository interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

// ITaskAuditRepository - интерфейс для TaskAuditRepository
type ITaskAuditRepository interface {
	Create(ctx context.Context, audit *entity.TaskAudit) error
	ListByTaskID(ctx context.Context, taskID int64) ([]entity.TaskAudit, error)
}
