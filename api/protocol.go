package api

import (
	"strings"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

const maxRequestSize = 64 * 1024 // 64 KiB

// /POST /api/tasks request body
type createTaskRequest struct {
	Text string `json:"text"`
}

// /PUT /api/tasks/:id request body; absent fields are left untouched
type updateTaskRequest struct {
	TaskName *string `json:"taskName"`
	Assignee *string `json:"assignee"`
	DueDate  *string `json:"dueDate"`
	Priority *string `json:"priority"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r updateTaskRequest) toUpdate() (domain.TaskUpdate, error) {
	upd := domain.TaskUpdate{
		TaskName: r.TaskName,
		Assignee: r.Assignee,
	}
	if r.DueDate != nil {
		due, err := domain.ParseDueDate(*r.DueDate)
		if err != nil {
			return domain.TaskUpdate{}, err
		}
		upd.DueDate = &due
	}
	if r.Priority != nil {
		p := domain.Priority(strings.ToUpper(strings.TrimSpace(*r.Priority)))
		upd.Priority = &p
	}
	return upd, nil
}
