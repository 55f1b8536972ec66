package domain

// Event types published after successful writes.
const (
	TaskCreated = "task-created"
	TaskUpdated = "task-updated"
	TaskDeleted = "task-deleted"
)

// TaskEvent describes a committed change to a task.
type TaskEvent struct {
	Type   string `json:"type"`
	TaskID string `json:"taskId"`
	Time   int64  `json:"time"`
	Task   *Task  `json:"task,omitempty"`
}
