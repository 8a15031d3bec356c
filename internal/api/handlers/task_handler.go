package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/St1cky1/task-manager-api/internal/api/errmap"
	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/St1cky1/task-manager-api/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// как express.json: 100kb
const maxBodyBytes = 100 << 10

type TaskHandler struct {
	taskService *usecase.TaskService
	logger      *slog.Logger
}

type taskResponse struct {
	Task *entity.Task `json:"task"`
}

type taskListResponse struct {
	Tasks []entity.Task `json:"tasks"`
	Count int           `json:"count"`
}

func NewTaskHandler(taskService *usecase.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks - GET /api/v1/tasks?completed=&priority=&sortBy=&order=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks(r.Context(), entity.ParseListQuery(r.URL.Query()))
	if err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	errmap.WriteJSON(w, h.logger, http.StatusOK, taskListResponse{Tasks: tasks, Count: len(tasks)})
}

// создаем новую задачу
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), &req)
	if err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	errmap.WriteJSON(w, h.logger, http.StatusCreated, taskResponse{Task: task})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	errmap.WriteJSON(w, h.logger, http.StatusOK, taskResponse{Task: task})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req entity.UpdateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	errmap.WriteJSON(w, h.logger, http.StatusOK, taskResponse{Task: task})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.DeleteTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errmap.Respond(w, r, h.logger, err)
		return
	}

	errmap.WriteJSON(w, h.logger, http.StatusOK, taskResponse{Task: task})
}

// decodeBody разбирает JSON тело. Пустое тело эквивалентно {}.
// Ошибки разбора возвращаются как *entity.ValidationError.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var (
		typeErr  *json.UnmarshalTypeError
		parseErr *time.ParseError
		maxErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr):
		msg := fmt.Sprintf("Cast to %s failed for value of type %s", castType(typeErr.Type.Kind().String()), typeErr.Value)
		if typeErr.Field != "" {
			msg += fmt.Sprintf(" at path \"%s\"", typeErr.Field)
		}
		return entity.NewValidationError(entity.FieldError{Field: typeErr.Field, Message: msg})
	case errors.As(err, &parseErr):
		return entity.NewValidationError(entity.FieldError{
			Field:   "dueDate",
			Message: fmt.Sprintf("Cast to date failed for value %q at path \"dueDate\"", parseErr.Value),
		})
	case errors.As(err, &maxErr):
		return entity.NewValidationError(entity.FieldError{
			Field:   "body",
			Message: fmt.Sprintf("request body must not be larger than %d bytes", maxErr.Limit),
		})
	default:
		return entity.NewValidationError(entity.FieldError{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
}

func castType(kind string) string {
	switch kind {
	case "bool":
		return "Boolean"
	case "string":
		return "string"
	case "struct":
		return "date"
	default:
		return kind
	}
}
