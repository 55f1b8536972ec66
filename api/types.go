package api

import (
	"context"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	InsertTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Extractor turns free text into task fields.
type Extractor interface {
	Extract(ctx context.Context, text string) (domain.TaskFields, error)
}
