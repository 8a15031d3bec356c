package entity

import (
	"bytes"
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const DefaultPriority = PriorityMedium

// Rank - порядковый номер приоритета для сортировки, неизвестные значения дают 0
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

type Task struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// валидация
type CreateTaskRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	DueDate     *Date      `json:"dueDate"`
	Completed   *Bool      `json:"completed"`
}

// UpdateTaskRequest - частичное обновление: отсутствующие поля не меняются,
// null сбрасывает поле
type UpdateTaskRequest struct {
	Name        Optional[string]   `json:"name"`
	Description Optional[string]   `json:"description"`
	Priority    Optional[Priority] `json:"priority"`
	DueDate     Optional[Date]     `json:"dueDate"`
	Completed   Optional[Bool]     `json:"completed"`
}

// Empty - в теле запроса не было ни одного известного поля
func (r *UpdateTaskRequest) Empty() bool {
	return !r.Name.Set && !r.Description.Set && !r.Priority.Set && !r.DueDate.Set && !r.Completed.Set
}

// Optional различает отсутствующее поле, явный null и значение
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// поля, по которым разрешена сортировка
const (
	SortByID          = "id"
	SortByName        = "name"
	SortByDescription = "description"
	SortByPriority    = "priority"
	SortByDueDate     = "dueDate"
	SortByCompleted   = "completed"
	SortByCreatedAt   = "createdAt"
	SortByUpdatedAt   = "updatedAt"
)

// TaskFilter - условия выборки списка задач, nil означает "не фильтровать"
type TaskFilter struct {
	Completed *bool
	Priority  *Priority
}

// TaskSort - сортировка списка. Пустой Field означает сортировку по умолчанию
// (createdAt desc).
type TaskSort struct {
	Field string
	Order SortOrder
}

func (s TaskSort) Desc() bool {
	return s.Order == OrderDesc
}

// NormalizeSortField возвращает каноническое имя поля или "" для неизвестных полей
func NormalizeSortField(field string) string {
	switch field {
	case SortByID, "_id":
		return SortByID
	case SortByName, SortByDescription, SortByPriority, SortByDueDate,
		SortByCompleted, SortByCreatedAt, SortByUpdatedAt:
		return field
	default:
		return ""
	}
}

type ListTasksQuery struct {
	Filter TaskFilter
	Sort   TaskSort
}

// ParseListQuery собирает фильтр и сортировку из параметров запроса:
// completed (только "true" означает true), priority (пустое значение игнорируется),
// sortBy и order (asc по умолчанию).
func ParseListQuery(params url.Values) ListTasksQuery {
	var q ListTasksQuery
	if params.Has("completed") {
		completed := params.Get("completed") == "true"
		q.Filter.Completed = &completed
	}
	if p := params.Get("priority"); p != "" {
		priority := Priority(p)
		q.Filter.Priority = &priority
	}

	q.Sort.Field = params.Get("sortBy")
	q.Sort.Order = OrderAsc
	if params.Get("order") == string(OrderDesc) {
		q.Sort.Order = OrderDesc
	}
	return q
}
