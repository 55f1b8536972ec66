// Package storage persists tasks. Every backend enforces the task schema itself,
// independent of what callers validated.
package storage

import (
	"context"
	"sort"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

// Backend is implemented by every task store and by the wrappers around them.
type Backend interface {
	InsertTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

func prepareInsert(fields domain.TaskFields) (domain.TaskFields, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return domain.TaskFields{}, err
	}
	return fields, nil
}

func prepareUpdate(upd domain.TaskUpdate) (domain.TaskUpdate, error) {
	upd = upd.Normalize()
	if err := upd.Validate(); err != nil {
		return domain.TaskUpdate{}, err
	}
	return upd, nil
}

func newTask(id string, fields domain.TaskFields) domain.Task {
	now := Now()
	return domain.Task{
		ID:        id,
		TaskName:  fields.TaskName,
		Assignee:  fields.Assignee,
		DueDate:   fields.DueDate,
		Priority:  fields.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// sortTasks orders by creation time, then id.
func sortTasks(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
