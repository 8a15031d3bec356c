package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, name, description, priority, due_date, completed, created_at, updated_at`

// колонки для сортировки по имени поля API
var sortColumns = map[string]string{
	entity.SortByID:          "id",
	entity.SortByName:        "name",
	entity.SortByDescription: "description",
	entity.SortByPriority:    "priority",
	entity.SortByDueDate:     "due_date",
	entity.SortByCompleted:   "completed",
	entity.SortByCreatedAt:   "created_at",
	entity.SortByUpdatedAt:   "updated_at",
}

type TaskRepository struct {
	db *pgxpool.Pool
}

var _ ITaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	INSERT INTO tasks (id, name, description, priority, due_date, completed)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRow(ctx, query,
		task.ID,
		task.Name,
		task.Description,
		task.Priority,
		task.DueDate,
		task.Completed,
	))
	if err != nil {
		return nil, mapError(err)
	}

	return created, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	return task, nil
}

// Update - перезаписывает изменяемые поля уже слитой (merged) задачи одним запросом
func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	UPDATE tasks
	SET name = $1, description = $2, priority = $3, due_date = $4, completed = $5,
	    updated_at = CURRENT_TIMESTAMP
	WHERE id = $6
	RETURNING ` + taskColumns

	updated, err := scanTask(r.db.QueryRow(ctx, query,
		task.Name,
		task.Description,
		task.Priority,
		task.DueDate,
		task.Completed,
		task.ID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	return updated, nil
}

// Delete - удаление задачи, возвращает удаленную запись
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 RETURNING ` + taskColumns

	deleted, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}

	return deleted, nil
}

// List - список задач с фильтрацией и сортировкой
func (r *TaskRepository) List(ctx context.Context, filter entity.TaskFilter, sort entity.TaskSort) ([]entity.Task, error) {
	query, args := buildListQuery(filter, sort)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tasks := []entity.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, mapError(err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return tasks, nil
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// buildListQuery строит SELECT с WHERE по фильтру и ORDER BY по сортировке.
// Пустые значения идут первыми при asc и последними при desc.
func buildListQuery(filter entity.TaskFilter, sort entity.TaskSort) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conditions = append(conditions, "completed = $"+strconv.Itoa(len(args)))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		conditions = append(conditions, "priority = $"+strconv.Itoa(len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks`)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	column, ok := sortColumns[sort.Field]
	switch {
	case !ok:
		b.WriteString(" ORDER BY created_at DESC, id ASC")
	case sort.Desc():
		fmt.Fprintf(&b, " ORDER BY %s DESC NULLS LAST, id ASC", column)
	default:
		fmt.Fprintf(&b, " ORDER BY %s ASC NULLS FIRST, id ASC", column)
	}

	return b.String(), args
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		task     entity.Task
		priority string
	)
	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.Description,
		&priority,
		&task.DueDate,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Priority = entity.Priority(priority)
	return &task, nil
}
