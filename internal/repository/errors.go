package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/jackc/pgx/v5/pgconn"
)

// коды ошибок PostgreSQL
const (
	uniqueViolationCode           = "23505"
	checkViolationCode            = "23514"
	notNullViolationCode          = "23502"
	invalidTextRepresentationCode = "22P02"
)

var (
	// Key (name)=(write docs) already exists.
	duplicateDetailRe = regexp.MustCompile(`Key \((.+?)\)=\((.*)\) already exists`)
	// invalid input syntax for type uuid: "abc"
	invalidInputRe = regexp.MustCompile(`invalid input syntax for type \w+: "(.*)"`)
)

// имена колонок в API
var columnFields = map[string]string{
	"id":          "id",
	"name":        "name",
	"description": "description",
	"priority":    "priority",
	"due_date":    "dueDate",
	"completed":   "completed",
}

// сообщения для CHECK-ограничений схемы
var checkViolations = map[string]entity.FieldError{
	"tasks_name_length_check":        {Field: "name", Message: "name can not be more than 20 characters"},
	"tasks_name_required_check":      {Field: "name", Message: "must provide name"},
	"tasks_description_length_check": {Field: "description", Message: "description can not be more than 100 characters"},
	"tasks_priority_check":           {Field: "priority", Message: "priority must be one of low, medium, high"},
}

// mapError переводит ошибки PostgreSQL в ошибки домена
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("task store: %w", err)
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		dup := &entity.DuplicateKeyError{Field: pgErr.ColumnName}
		if m := duplicateDetailRe.FindStringSubmatch(pgErr.Detail); m != nil {
			dup.Field, dup.Value = m[1], m[2]
		}
		if f, ok := columnFields[dup.Field]; ok {
			dup.Field = f
		}
		return dup

	case checkViolationCode:
		if fe, ok := checkViolations[pgErr.ConstraintName]; ok {
			return entity.NewValidationError(fe)
		}
		return entity.NewValidationError(entity.FieldError{Field: pgErr.ColumnName, Message: pgErr.Message})

	case notNullViolationCode:
		if pgErr.ColumnName == "name" {
			return entity.NewValidationError(checkViolations["tasks_name_required_check"])
		}
		field := pgErr.ColumnName
		if f, ok := columnFields[field]; ok {
			field = f
		}
		return entity.NewValidationError(entity.FieldError{Field: field, Message: field + " is required"})

	case invalidTextRepresentationCode:
		invalid := &entity.InvalidIDError{}
		if m := invalidInputRe.FindStringSubmatch(pgErr.Message); m != nil {
			invalid.Value = m[1]
		}
		return invalid
	}

	return fmt.Errorf("task store: %w", err)
}
