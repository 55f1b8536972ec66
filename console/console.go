package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

// DraftLayout is the datetime-local form used for due dates while editing. Draft
// due dates are in the console's local time zone.
const DraftLayout = "2006-01-02T15:04"

var (
	ErrBusy        = errors.New("a task is already being submitted")
	ErrEmptyText   = errors.New("task description is required")
	ErrNotEditing  = errors.New("no task is being edited")
	ErrUnknownTask = errors.New("unknown task")
)

// TaskAPI is the subset of Client the console needs.
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, text string) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message shown after a mutation.
type Notice struct {
	Kind    NoticeKind
	Message string
	At      time.Time
}

// Draft holds the values of the row being edited.
type Draft struct {
	ID       string
	TaskName string
	Assignee string
	DueDate  string
	Priority string

	orig domain.Task
	loc  *time.Location
}

func draftOf(t domain.Task, loc *time.Location) Draft {
	return Draft{
		ID:       t.ID,
		TaskName: t.TaskName,
		Assignee: t.Assignee,
		DueDate:  t.DueDate.In(loc).Format(DraftLayout),
		Priority: string(t.Priority),
		orig:     t,
		loc:      loc,
	}
}

// patch holds only the fields changed since the draft was opened. An untouched
// due date is not resent, so its seconds survive the round trip.
func (d Draft) patch() TaskPatch {
	var p TaskPatch
	if d.TaskName != d.orig.TaskName {
		name := d.TaskName
		p.TaskName = &name
	}
	if d.Assignee != d.orig.Assignee {
		assignee := d.Assignee
		p.Assignee = &assignee
	}
	if prio := strings.ToUpper(d.Priority); prio != string(d.orig.Priority) {
		p.Priority = &prio
	}
	if d.DueDate != d.orig.DueDate.In(d.loc).Format(DraftLayout) {
		due := d.DueDate
		if ts, err := time.ParseInLocation(DraftLayout, strings.TrimSpace(due), d.loc); err == nil {
			due = ts.UTC().Format(time.RFC3339)
		}
		p.DueDate = &due
	}
	return p
}

// Console holds the state of the task screen: the submission form, the
// table fed from the "tasks" query, at most one row in edit mode and the
// pending notices.
type Console struct {
	api     TaskAPI
	queries *QueryCache
	now     func() time.Time
	loc     *time.Location

	mu         sync.Mutex
	input      string
	submitting bool
	editing    *Draft
	notices    []Notice
}

func New(api TaskAPI, queries *QueryCache) *Console {
	return &Console{api: api, queries: queries, now: time.Now, loc: time.Local}
}

// Input returns the text held by the submission form.
func (c *Console) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Submitting reports whether a submission is in flight.
func (c *Console) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit sends text for extraction. The form input is cleared only when the
// task was created.
func (c *Console) Submit(ctx context.Context, text string) (domain.Task, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return domain.Task{}, ErrBusy
	}
	c.input = text
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return domain.Task{}, ErrEmptyText
	}
	c.submitting = true
	c.mu.Unlock()

	task, err := c.api.CreateTask(ctx, strings.TrimSpace(text))

	c.mu.Lock()
	c.submitting = false
	if err == nil {
		c.input = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.notify(NoticeError, "Failed to create task", err)
		return domain.Task{}, err
	}
	c.notify(NoticeSuccess, "Task created successfully!", nil)
	c.refresh(ctx)
	return task, nil
}

// Rows returns the task list from the query cache.
func (c *Console) Rows(ctx context.Context) ([]domain.Task, error) {
	return Fetch(ctx, c.queries, TasksQuery, c.api.ListTasks)
}

// Row returns the task at 1-based position n of the current list.
func (c *Console) Row(ctx context.Context, n int) (domain.Task, error) {
	rows, err := c.Rows(ctx)
	if err != nil {
		return domain.Task{}, err
	}
	if n < 1 || n > len(rows) {
		return domain.Task{}, fmt.Errorf("%w: row %d", ErrUnknownTask, n)
	}
	return rows[n-1], nil
}

// StartEdit puts t in edit mode, replacing any other row being edited.
func (c *Console) StartEdit(t domain.Task) {
	d := draftOf(t, c.loc)
	c.mu.Lock()
	c.editing = &d
	c.mu.Unlock()
}

// Editing returns the current draft.
func (c *Console) Editing() (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return Draft{}, false
	}
	return *c.editing, true
}

// SetField changes one field of the draft.
func (c *Console) SetField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return ErrNotEditing
	}
	switch strings.ToLower(field) {
	case "task", "name", "taskname":
		c.editing.TaskName = value
	case "assignee", "assigned":
		c.editing.Assignee = value
	case "due", "duedate":
		c.editing.DueDate = value
	case "priority":
		c.editing.Priority = strings.ToUpper(value)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// CancelEdit leaves edit mode without saving.
func (c *Console) CancelEdit() {
	c.mu.Lock()
	c.editing = nil
	c.mu.Unlock()
}

// SaveEdit sends the draft. On failure the row stays in edit mode with the
// draft untouched.
func (c *Console) SaveEdit(ctx context.Context) (domain.Task, error) {
	d, ok := c.Editing()
	if !ok {
		return domain.Task{}, ErrNotEditing
	}
	task, err := c.api.UpdateTask(ctx, d.ID, d.patch())
	if err != nil {
		c.notify(NoticeError, "Failed to update task", err)
		return domain.Task{}, err
	}
	c.mu.Lock()
	if c.editing != nil && c.editing.ID == d.ID {
		c.editing = nil
	}
	c.mu.Unlock()
	c.notify(NoticeSuccess, "Task updated successfully!", nil)
	c.refresh(ctx)
	return task, nil
}

// Delete removes the task with id.
func (c *Console) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteTask(ctx, id); err != nil {
		c.notify(NoticeError, "Failed to delete task", err)
		return err
	}
	c.mu.Lock()
	if c.editing != nil && c.editing.ID == id {
		c.editing = nil
	}
	c.mu.Unlock()
	c.notify(NoticeSuccess, "Task deleted successfully!", nil)
	c.refresh(ctx)
	return nil
}

// Notices drains the pending notices.
func (c *Console) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

func (c *Console) notify(kind NoticeKind, msg string, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg += ": " + apiErr.Message
	}
	c.mu.Lock()
	c.notices = append(c.notices, Notice{Kind: kind, Message: msg, At: c.now()})
	c.mu.Unlock()
}

// refresh invalidates the task list and reloads it. A failed reload keeps
// the stale list for the next Rows call to retry.
func (c *Console) refresh(ctx context.Context) {
	c.queries.Invalidate(TasksQuery)
	_, _ = c.Rows(ctx)
}
