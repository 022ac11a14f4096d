package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/St1cky1/todo-service/internal/repository"
)

// memTaskRepository - in-memory реализация ITaskRepository для тестов
type memTaskRepository struct {
	mu      sync.Mutex
	nextID  int64
	tasks   map[int64]*entity.Task
	saves   int
	failErr error
}

var _ repository.ITaskRepository = (*memTaskRepository)(nil)

func newMemTaskRepository() *memTaskRepository {
	return &memTaskRepository{tasks: map[int64]*entity.Task{}}
}

func (r *memTaskRepository) Save(_ context.Context, task *entity.Task) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	stored := task.Clone()
	if stored.ID == 0 {
		r.nextID++
		stored.ID = r.nextID
	} else if _, ok := r.tasks[stored.ID]; !ok {
		return nil, &entity.NotFoundError{ID: stored.ID}
	}
	r.tasks[stored.ID] = stored
	r.saves++
	return stored.Clone(), nil
}

func (r *memTaskRepository) FindByID(_ context.Context, id int64) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		return task.Clone(), nil
	}
	return nil, nil
}

func (r *memTaskRepository) FindByIDAndOwner(ctx context.Context, id int64, owner string) (*entity.Task, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil || task == nil || task.OwnerUsername != owner {
		return nil, err
	}
	return task, nil
}

func (r *memTaskRepository) Find(_ context.Context, criteria entity.TaskCriteria) ([]entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []entity.Task{}
	for _, task := range r.tasks {
		if criteria.Matches(task) {
			result = append(result, *task.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memTaskRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	return ok, nil
}

func (r *memTaskRepository) ExistsByIDAndOwner(_ context.Context, id int64, owner string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	return ok && task.OwnerUsername == owner, nil
}

func (r *memTaskRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

// MockAuditPublisher - мок для AuditPublisher
type MockAuditPublisher struct {
	messages chan *entity.AuditMessage
	err      error
}

func newMockAuditPublisher() *MockAuditPublisher {
	return &MockAuditPublisher{messages: make(chan *entity.AuditMessage, 16)}
}

func (m *MockAuditPublisher) PublishAuditMessage(_ context.Context, message *entity.AuditMessage) error {
	m.messages <- message
	return m.err
}

// MockUserRepository - мок для IUserRepository
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*entity.User, error)
}

var _ repository.IUserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, errors.New("not implemented")
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}
