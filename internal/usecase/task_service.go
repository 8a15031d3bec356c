package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/St1cky1/task-manager-api/internal/repository"
	"github.com/google/uuid"
)

const auditPublishTimeout = 5 * time.Second

// AuditPublisher публикует сообщения аудита (RabbitMQ)
type AuditPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}

type TaskService struct {
	taskRepo  repository.ITaskRepository
	publisher AuditPublisher
	logger    *slog.Logger
	newID     func() uuid.UUID
	now       func() time.Time
}

// NewTaskService - publisher может быть nil, тогда аудит не отправляется
func NewTaskService(
	taskRepo repository.ITaskRepository,
	publisher AuditPublisher,
	logger *slog.Logger,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "task_service")),
		newID:     uuid.New,
		now:       time.Now,
	}
}

// ParseTaskID разбирает идентификатор из пути запроса
func ParseTaskID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &entity.InvalidIDError{Value: raw}
	}
	return id, nil
}

func (s *TaskService) ListTasks(ctx context.Context, q entity.ListTasksQuery) ([]entity.Task, error) {
	sortBy := entity.TaskSort{
		Field: entity.NormalizeSortField(q.Sort.Field),
		Order: entity.OrderAsc,
	}
	if q.Sort.Order == entity.OrderDesc {
		sortBy.Order = entity.OrderDesc
	}

	// приоритет сортируем в памяти по порядковому номеру, а не по строке
	if sortBy.Field == entity.SortByPriority {
		tasks, err := s.taskRepo.List(ctx, q.Filter, entity.TaskSort{Field: entity.SortByCreatedAt, Order: entity.OrderAsc})
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		SortByPriority(tasks, sortBy.Desc())
		return tasks, nil
	}

	tasks, err := s.taskRepo.List(ctx, q.Filter, sortBy)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// SortByPriority - стабильная сортировка low < medium < high, неизвестные значения первыми
func SortByPriority(tasks []entity.Task, desc bool) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if desc {
			return a > b
		}
		return a < b
	})
}

func (s *TaskService) CreateTask(ctx context.Context, req *entity.CreateTaskRequest) (*entity.Task, error) {
	// 1. Нормализуем и подставляем значения по умолчанию
	task := &entity.Task{
		ID:       s.newID(),
		Name:     strings.TrimSpace(req.Name),
		Priority: entity.DefaultPriority,
		DueDate:  req.DueDate.Ptr(),
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Completed != nil {
		task.Completed = bool(*req.Completed)
	}

	// 2. Валидация
	if err := ValidateTask(task); err != nil {
		return nil, err
	}

	// 3. Создаем задачу
	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	// 4. Асинхронно отправляем аудит
	s.sendAuditMessage(entity.ActionCreate, created.ID, nil, created)

	return created, nil
}

func (s *TaskService) GetTask(ctx context.Context, rawID string) (*entity.Task, error) {
	id, err := ParseTaskID(rawID)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, entity.NewTaskNotFoundError(rawID)
	}

	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, rawID string, req *entity.UpdateTaskRequest) (*entity.Task, error) {
	// 1. Получаем текущую задачу
	oldTask, err := s.GetTask(ctx, rawID)
	if err != nil {
		return nil, err
	}

	if req.Empty() {
		return oldTask, nil
	}

	// 2. Сливаем присланные поля с текущими
	merged := applyUpdate(*oldTask, req)

	// 3. Те же правила, что и при создании. Хранимая запись не меняется при ошибке.
	if err := ValidateTask(&merged); err != nil {
		return nil, err
	}

	// 4. Обновляем задачу
	updatedTask, err := s.taskRepo.Update(ctx, &merged)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if updatedTask == nil {
		return nil, entity.NewTaskNotFoundError(rawID)
	}

	// 5. Асинхронно отправляем аудит
	s.sendAuditMessage(entity.ActionUpdate, updatedTask.ID, oldTask, updatedTask)

	return updatedTask, nil
}

// applyUpdate: отсутствующие поля сохраняются, null сбрасывает поле
func applyUpdate(task entity.Task, req *entity.UpdateTaskRequest) entity.Task {
	if req.Name.Set {
		task.Name = ""
		if !req.Name.Null {
			task.Name = strings.TrimSpace(req.Name.Value)
		}
	}
	if req.Description.Set {
		task.Description = ""
		if !req.Description.Null {
			task.Description = strings.TrimSpace(req.Description.Value)
		}
	}
	if req.Priority.Set {
		task.Priority = entity.DefaultPriority
		if !req.Priority.Null {
			task.Priority = req.Priority.Value
		}
	}
	if req.DueDate.Set {
		task.DueDate = nil
		if !req.DueDate.Null {
			due := req.DueDate.Value.Time
			task.DueDate = &due
		}
	}
	if req.Completed.Set {
		task.Completed = !req.Completed.Null && bool(req.Completed.Value)
	}
	return task
}

func (s *TaskService) DeleteTask(ctx context.Context, rawID string) (*entity.Task, error) {
	id, err := ParseTaskID(rawID)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	if task == nil {
		return nil, entity.NewTaskNotFoundError(rawID)
	}

	s.sendAuditMessage(entity.ActionDelete, task.ID, task, nil)

	return task, nil
}

// Ping проверяет доступность хранилища
func (s *TaskService) Ping(ctx context.Context) error {
	return s.taskRepo.Ping(ctx)
}

// sendAuditMessage отправляет аудит в фоне, ошибки только логируются
func (s *TaskService) sendAuditMessage(action entity.ActionType, taskID uuid.UUID, oldTask, newTask *entity.Task) {
	if s.publisher == nil {
		return
	}

	auditMsg := &entity.AuditMessage{
		Action:     action,
		EntityType: entity.AuditEntityTask,
		EntityID:   taskID,
		OldValues:  entity.AuditValues(oldTask),
		NewValues:  entity.AuditValues(newTask),
		Timestamp:  s.now().UTC(),
	}
	if action == entity.ActionUpdate {
		auditMsg.Changes = entity.AuditChanges(oldTask, newTask)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditPublishTimeout)
		defer cancel()

		if err := s.publisher.PublishAuditMessage(ctx, auditMsg); err != nil {
			s.logger.Error("failed to publish audit message",
				slog.String("action", string(action)),
				slog.String("task_id", taskID.String()),
				slog.String("error", err.Error()))
			return
		}
		s.logger.Debug("audit message published",
			slog.String("action", string(action)),
			slog.String("task_id", taskID.String()))
	}()
}
