package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/google/uuid"
)

// MemoryTaskRepository - хранилище задач в памяти процесса (STORAGE_DRIVER=memory).
// Повторяет семантику фильтрации и сортировки TaskRepository.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]entity.Task
	now   func() time.Time
}

var _ ITaskRepository = (*MemoryTaskRepository)(nil)

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[uuid.UUID]entity.Task),
		now:   time.Now,
	}
}

func (r *MemoryTaskRepository) Create(_ context.Context, task *entity.Task) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return nil, &entity.DuplicateKeyError{Field: "id", Value: task.ID.String()}
	}

	created := *task
	created.CreatedAt = r.now().UTC()
	created.UpdatedAt = created.CreatedAt
	r.tasks[created.ID] = created

	return &created, nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, id uuid.UUID) (*entity.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, task *entity.Task) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok {
		return nil, nil
	}

	stored.Name = task.Name
	stored.Description = task.Description
	stored.Priority = task.Priority
	stored.DueDate = task.DueDate
	stored.Completed = task.Completed
	stored.UpdatedAt = r.now().UTC()
	r.tasks[task.ID] = stored

	return &stored, nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id uuid.UUID) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	delete(r.tasks, id)
	return &task, nil
}

func (r *MemoryTaskRepository) List(_ context.Context, filter entity.TaskFilter, sortBy entity.TaskSort) ([]entity.Task, error) {
	r.mu.RLock()
	tasks := make([]entity.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		tasks = append(tasks, t)
	}
	r.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		return lessTask(&tasks[i], &tasks[j], sortBy)
	})

	return tasks, nil
}

func (r *MemoryTaskRepository) Ping(context.Context) error {
	return nil
}

func lessTask(a, b *entity.Task, s entity.TaskSort) bool {
	var c int
	switch s.Field {
	case entity.SortByID:
		c = 0
	case entity.SortByName:
		c = strings.Compare(a.Name, b.Name)
	case entity.SortByDescription:
		c = strings.Compare(a.Description, b.Description)
	case entity.SortByPriority:
		c = strings.Compare(string(a.Priority), string(b.Priority))
	case entity.SortByDueDate:
		c = compareDueDates(a.DueDate, b.DueDate)
	case entity.SortByCompleted:
		c = compareBools(a.Completed, b.Completed)
	case entity.SortByCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case entity.SortByUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		// по умолчанию createdAt desc
		c = -a.CreatedAt.Compare(b.CreatedAt)
		if c != 0 {
			return c < 0
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	}

	if s.Field == entity.SortByID && s.Desc() {
		return strings.Compare(a.ID.String(), b.ID.String()) > 0
	}
	if c != 0 {
		if s.Desc() {
			return c > 0
		}
		return c < 0
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}

// nil раньше любой даты, как NULLS FIRST при asc
func compareDueDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
