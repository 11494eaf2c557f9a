package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string  `json:"name" validate:"notblank,max=5"`
	Color    string  `json:"color" validate:"omitempty,color"`
	Username string  `json:"username" validate:"omitempty,username"`
	Nick     *string `json:"nick" validate:"omitempty,notblank"`
	Status   string  `json:"status" validate:"omitempty,oneof=pending in_progress"`
	IDs      []int64 `json:"ids" validate:"omitempty,dive,gt=0"`

	TaskStatus *TaskStatus `json:"task_status" validate:"omitempty,taskstatus"`
	Priority   Priority    `json:"priority" validate:"omitempty,priority"`
}

func TestValidateStruct(t *testing.T) {
	blank := "  "
	ok := "bob"

	tests := []struct {
		name    string
		input   sample
		field   string
		message string
	}{
		{name: "valid", input: sample{Name: "Work", Color: "#3B82F6", Username: "alice_1", Nick: &ok, Status: "pending", IDs: []int64{1}, TaskStatus: ptrTo(TaskStatusArchived), Priority: PriorityUrgent}},
		{name: "blank name", input: sample{Name: "   "}, field: "name", message: "is required"},
		{name: "long name", input: sample{Name: "abcdef"}, field: "name", message: "must be at most 5 characters"},
		{name: "short color", input: sample{Name: "a", Color: "#FFF"}, field: "color", message: "must be a hex color like #3B82F6"},
		{name: "bad username", input: sample{Name: "a", Username: "al ice"}, field: "username", message: "may only contain letters, digits and underscores"},
		{name: "blank pointer", input: sample{Name: "a", Nick: &blank}, field: "nick", message: "is required"},
		{name: "bad enum", input: sample{Name: "a", Status: "done"}, field: "status", message: "must be one of: pending, in_progress"},
		{name: "bad task status", input: sample{Name: "a", TaskStatus: ptrTo(TaskStatus("done"))}, field: "task_status", message: "must be one of: pending, in_progress, completed, archived"},
		{name: "bad priority", input: sample{Name: "a", Priority: "critical"}, field: "priority", message: "must be one of: low, medium, high, urgent"},
		{name: "bad id", input: sample{Name: "a", IDs: []int64{0}}, field: "ids[0]", message: "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
			assert.Equal(t, tt.message, verr.Details[tt.field])
		})
	}
}

func TestValidateStructCountsRunes(t *testing.T) {
	err := ValidateStruct(sample{Name: strings.Repeat("é", 5)})
	assert.NoError(t, err)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("category_id", "category %d not found", 9)
	assert.Equal(t, "category_id: category 9 not found", err.Error())
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, "bad input", (&ValidationError{Message: "bad input"}).Error())
}

func TestIsValidColor(t *testing.T) {
	assert.True(t, IsValidColor("#10b981"))
	assert.False(t, IsValidColor("10B981"))
	assert.False(t, IsValidColor("#10B98"))
}

func ptrTo[T any](v T) *T {
	return &v
}
