package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidID    = errors.New("invalid ID format")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError - одна или несколько ошибок по полям
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Joined()
}

// Joined склеивает сообщения полей через ". "
func (e *ValidationError) Joined() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, ". ")
}

// InvalidIDError - идентификатор не является UUID
type InvalidIDError struct {
	Value string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid ID format: %q", e.Value)
}

func (e *InvalidIDError) Unwrap() error {
	return ErrInvalidID
}

// DuplicateKeyError - нарушение уникальности
type DuplicateKeyError struct {
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s=%s", e.Field, e.Value)
}

// NotFoundError несет сообщение, которое увидит клиент
type NotFoundError struct {
	Message string
}

func NewTaskNotFoundError(id string) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("No task with id : %s", id)}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrTaskNotFound
}
