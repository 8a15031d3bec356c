package entity

import (
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionCreate ActionType = "Create"
	ActionUpdate ActionType = "Update"
	ActionDelete ActionType = "Delete"
)

const AuditEntityTask = "task"

type AuditMessage struct {
	Action     ActionType     `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AuditValues - снимок полей задачи для аудита
func AuditValues(t *Task) map[string]any {
	if t == nil {
		return nil
	}
	values := map[string]any{
		"name":      t.Name,
		"priority":  t.Priority,
		"completed": t.Completed,
	}
	if t.Description != "" {
		values["description"] = t.Description
	}
	if t.DueDate != nil {
		values["dueDate"] = t.DueDate.UTC()
	}
	return values
}

// AuditChanges вычисляет изменения между двумя версиями задачи
func AuditChanges(oldTask, newTask *Task) map[string]any {
	if oldTask == nil || newTask == nil {
		return nil
	}
	oldValues := AuditValues(oldTask)
	newValues := AuditValues(newTask)

	changes := make(map[string]any)
	for _, field := range []string{"name", "description", "priority", "dueDate", "completed"} {
		before, after := oldValues[field], newValues[field]
		if !auditValueEqual(before, after) {
			changes[field] = map[string]any{"old": before, "new": after}
		}
	}
	return changes
}

func auditValueEqual(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA || okB {
		return okA && okB && ta.Equal(tb)
	}
	return a == b
}
