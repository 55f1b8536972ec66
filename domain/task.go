package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks a task from P1 (most urgent) to P4.
type Priority string

const (
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
	P4 Priority = "P4"

	// DefaultPriority is applied when none is supplied.
	DefaultPriority = P3
)

// Priorities lists the accepted values in rank order.
var Priorities = []Priority{P1, P2, P3, P4}

// Valid reports whether p is one of P1..P4.
func (p Priority) Valid() bool {
	switch p {
	case P1, P2, P3, P4:
		return true
	}
	return false
}

// Task represents a single stored task.
type Task struct {
	ID        string    `json:"id"`
	TaskName  string    `json:"taskName"`
	Assignee  string    `json:"assignee"`
	DueDate   time.Time `json:"dueDate"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339 timestamps as well as the zone-less forms produced by
// date and datetime-local inputs. Zone-less values are read as UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "dueDate", Reason: "is required"}
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "dueDate", Reason: fmt.Sprintf("%q is not an ISO-8601 date", s)}
}
