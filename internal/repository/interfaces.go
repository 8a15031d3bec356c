package repository

import (
	"context"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/google/uuid"
)

// ITaskRepository - интерфейс хранилища задач.
// GetByID, Update и Delete возвращают (nil, nil), если задачи нет.
type ITaskRepository interface {
	Create(ctx context.Context, task *entity.Task) (*entity.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	Update(ctx context.Context, task *entity.Task) (*entity.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	List(ctx context.Context, filter entity.TaskFilter, sort entity.TaskSort) ([]entity.Task, error)
	Ping(ctx context.Context) error
}
