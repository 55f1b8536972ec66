package domain

import (
	"strings"
	"time"
)

// TaskFields carries everything needed to create a task.
type TaskFields struct {
	TaskName string    `json:"taskName"`
	Assignee string    `json:"assignee"`
	DueDate  time.Time `json:"dueDate"`
	Priority Priority  `json:"priority"`
}

// Normalize trims the text fields and applies the default priority.
func (f TaskFields) Normalize() TaskFields {
	f.TaskName = strings.TrimSpace(f.TaskName)
	f.Assignee = strings.TrimSpace(f.Assignee)
	if f.Priority == "" {
		f.Priority = DefaultPriority
	}
	if !f.DueDate.IsZero() {
		f.DueDate = f.DueDate.UTC()
	}
	return f
}

// Validate checks the required fields and the priority enum.
func (f TaskFields) Validate() error {
	if f.TaskName == "" {
		return &ValidationError{Field: "taskName", Reason: "is required"}
	}
	if f.Assignee == "" {
		return &ValidationError{Field: "assignee", Reason: "is required"}
	}
	if f.DueDate.IsZero() {
		return &ValidationError{Field: "dueDate", Reason: "is required"}
	}
	if !f.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be one of P1, P2, P3, P4"}
	}
	return nil
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	TaskName *string
	Assignee *string
	DueDate  *time.Time
	Priority *Priority
}

// Normalize trims supplied text fields. Assignee case is kept as given.
func (u TaskUpdate) Normalize() TaskUpdate {
	if u.TaskName != nil {
		v := strings.TrimSpace(*u.TaskName)
		u.TaskName = &v
	}
	if u.Assignee != nil {
		v := strings.TrimSpace(*u.Assignee)
		u.Assignee = &v
	}
	if u.DueDate != nil {
		v := u.DueDate.UTC()
		u.DueDate = &v
	}
	return u
}

// Validate rejects supplied fields that would break the task invariants.
func (u TaskUpdate) Validate() error {
	if u.TaskName != nil && *u.TaskName == "" {
		return &ValidationError{Field: "taskName", Reason: "must not be empty"}
	}
	if u.Assignee != nil && *u.Assignee == "" {
		return &ValidationError{Field: "assignee", Reason: "must not be empty"}
	}
	if u.DueDate != nil && u.DueDate.IsZero() {
		return &ValidationError{Field: "dueDate", Reason: "must not be empty"}
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: "must be one of P1, P2, P3, P4"}
	}
	return nil
}

// Empty reports whether no field is supplied.
func (u TaskUpdate) Empty() bool {
	return u.TaskName == nil && u.Assignee == nil && u.DueDate == nil && u.Priority == nil
}

// Apply copies the supplied fields onto t.
func (u TaskUpdate) Apply(t *Task) {
	if u.TaskName != nil {
		t.TaskName = *u.TaskName
	}
	if u.Assignee != nil {
		t.Assignee = *u.Assignee
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
}
