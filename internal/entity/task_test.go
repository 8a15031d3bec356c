package entity

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 1, PriorityLow.Rank())
	assert.Equal(t, 2, PriorityMedium.Rank())
	assert.Equal(t, 3, PriorityHigh.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())
	assert.Equal(t, 0, Priority("").Rank())

	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("HIGH").Valid())
}

func TestUpdateTaskRequestUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, req UpdateTaskRequest)
	}{
		{
			name: "empty object",
			body: `{}`,
			check: func(t *testing.T, req UpdateTaskRequest) {
				assert.True(t, req.Empty())
			},
		},
		{
			name: "unknown fields only",
			body: `{"owner":"bob"}`,
			check: func(t *testing.T, req UpdateTaskRequest) {
				assert.True(t, req.Empty())
			},
		},
		{
			name: "value",
			body: `{"name":"ship it","completed":true}`,
			check: func(t *testing.T, req UpdateTaskRequest) {
				assert.False(t, req.Empty())
				assert.Equal(t, Some("ship it"), req.Name)
				assert.Equal(t, Some[Bool](true), req.Completed)
				assert.False(t, req.Description.Set)
			},
		},
		{
			name: "explicit null",
			body: `{"dueDate":null,"description":null}`,
			check: func(t *testing.T, req UpdateTaskRequest) {
				assert.Equal(t, Null[Date](), req.DueDate)
				assert.Equal(t, Null[string](), req.Description)
				assert.False(t, req.Name.Set)
			},
		},
		{
			name: "date",
			body: `{"dueDate":"2025-03-01T10:00:00Z"}`,
			check: func(t *testing.T, req UpdateTaskRequest) {
				require.True(t, req.DueDate.Set)
				assert.True(t, req.DueDate.Value.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTaskRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			tt.check(t, req)
		})
	}
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var req UpdateTaskRequest
	err := json.Unmarshal([]byte(`{"completed":"yes"}`), &req)
	assert.Error(t, err)
}

func TestNormalizeSortField(t *testing.T) {
	assert.Equal(t, SortByID, NormalizeSortField("_id"))
	assert.Equal(t, SortByID, NormalizeSortField("id"))
	assert.Equal(t, SortByDueDate, NormalizeSortField("dueDate"))
	assert.Equal(t, "", NormalizeSortField("due_date"))
	assert.Equal(t, "", NormalizeSortField(""))
}

func TestTaskJSONOmitsEmptyOptionalFields(t *testing.T) {
	task := Task{
		ID:       uuid.MustParse("6f1c2d1e-8a3b-4c5d-9e6f-7a8b9c0d1e2f"),
		Name:     "write docs",
		Priority: PriorityMedium,
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "6f1c2d1e-8a3b-4c5d-9e6f-7a8b9c0d1e2f", raw["id"])
	assert.Equal(t, false, raw["completed"])
	assert.NotContains(t, raw, "description")
	assert.NotContains(t, raw, "dueDate")
	assert.Contains(t, raw, "createdAt")
}

func TestValidationErrorJoined(t *testing.T) {
	err := NewValidationError(
		FieldError{Field: "name", Message: "must provide name"},
		FieldError{Field: "priority", Message: "`x` is not a valid enum value for path `priority`."},
	)
	assert.Equal(t, "must provide name. `x` is not a valid enum value for path `priority`.", err.Joined())
}

func TestAuditChanges(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sameDue := due.In(time.FixedZone("UTC+3", 3*3600))

	oldTask := &Task{Name: "a", Priority: PriorityLow, DueDate: &due}
	newTask := &Task{Name: "b", Priority: PriorityLow, DueDate: &sameDue, Completed: true}

	changes := AuditChanges(oldTask, newTask)
	assert.Equal(t, map[string]any{
		"name":      map[string]any{"old": "a", "new": "b"},
		"completed": map[string]any{"old": false, "new": true},
	}, changes)

	assert.Nil(t, AuditChanges(nil, newTask))
	assert.Nil(t, AuditValues(nil))
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, q ListTasksQuery)
	}{
		{
			name:  "no params",
			query: "",
			check: func(t *testing.T, q ListTasksQuery) {
				assert.Nil(t, q.Filter.Completed)
				assert.Nil(t, q.Filter.Priority)
				assert.Empty(t, q.Sort.Field)
				assert.Equal(t, OrderAsc, q.Sort.Order)
			},
		},
		{
			name:  "completed true",
			query: "completed=true",
			check: func(t *testing.T, q ListTasksQuery) {
				require.NotNil(t, q.Filter.Completed)
				assert.True(t, *q.Filter.Completed)
			},
		},
		{
			name:  "completed anything else is false",
			query: "completed=TRUE",
			check: func(t *testing.T, q ListTasksQuery) {
				require.NotNil(t, q.Filter.Completed)
				assert.False(t, *q.Filter.Completed)
			},
		},
		{
			name:  "empty priority is ignored",
			query: "priority=",
			check: func(t *testing.T, q ListTasksQuery) {
				assert.Nil(t, q.Filter.Priority)
			},
		},
		{
			name:  "sort",
			query: "priority=low&sortBy=dueDate&order=desc",
			check: func(t *testing.T, q ListTasksQuery) {
				require.NotNil(t, q.Filter.Priority)
				assert.Equal(t, PriorityLow, *q.Filter.Priority)
				assert.Equal(t, "dueDate", q.Sort.Field)
				assert.Equal(t, OrderDesc, q.Sort.Order)
			},
		},
		{
			name:  "unknown order is ascending",
			query: "order=random",
			check: func(t *testing.T, q ListTasksQuery) {
				assert.Equal(t, OrderAsc, q.Sort.Order)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			tt.check(t, ParseListQuery(params))
		})
	}
}
