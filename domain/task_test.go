package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalUsesWireNames(t *testing.T) {
	due := time.Date(2025, 6, 20, 23, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", TaskName: "Finish landing page", Assignee: "AMAN", DueDate: due, Priority: P2}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	for _, want := range []string{`"id":"t1"`, `"taskName":"Finish landing page"`, `"assignee":"AMAN"`, `"dueDate":"2025-06-20T23:00:00Z"`, `"priority":"P2"`, `"createdAt"`, `"updatedAt"`} {
		if !strings.Contains(string(payload), want) {
			t.Fatalf("expected %s in %s", want, payload)
		}
	}
}

func TestPriorityValid(t *testing.T) {
	for _, p := range Priorities {
		if !p.Valid() {
			t.Fatalf("expected %s to be valid", p)
		}
	}
	for _, p := range []Priority{"", "P0", "P5", "p1", "high"} {
		if p.Valid() {
			t.Fatalf("expected %q to be rejected", p)
		}
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "rfc3339", in: "2025-06-20T23:00:00Z", want: time.Date(2025, 6, 20, 23, 0, 0, 0, time.UTC)},
		{name: "offset", in: "2025-06-20T23:00:00+05:30", want: time.Date(2025, 6, 20, 17, 30, 0, 0, time.UTC)},
		{name: "fraction", in: "2025-06-20T23:00:00.250Z", want: time.Date(2025, 6, 20, 23, 0, 0, 250_000_000, time.UTC)},
		{name: "no zone", in: "2025-06-20T23:00:00", want: time.Date(2025, 6, 20, 23, 0, 0, 0, time.UTC)},
		{name: "datetime-local", in: "2025-06-20T23:00", want: time.Date(2025, 6, 20, 23, 0, 0, 0, time.UTC)},
		{name: "date only", in: " 2025-06-20 ", want: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueDate(tt.in)
			if err != nil {
				t.Fatalf("ParseDueDate(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseDueDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDueDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "20th June"} {
		_, err := ParseDueDate(in)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "dueDate" {
			t.Fatalf("expected dueDate validation error for %q, got %v", in, err)
		}
	}
}

func TestTaskFieldsNormalizeDefaultsPriority(t *testing.T) {
	f := TaskFields{TaskName: "  Write docs ", Assignee: " bob ", DueDate: time.Now()}.Normalize()
	if f.Priority != P3 {
		t.Fatalf("expected default priority P3, got %q", f.Priority)
	}
	if f.TaskName != "Write docs" || f.Assignee != "bob" {
		t.Fatalf("expected trimmed fields, got %+v", f)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTaskFieldsValidate(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		in    TaskFields
		field string
	}{
		{name: "missing name", in: TaskFields{Assignee: "A", DueDate: due, Priority: P1}, field: "taskName"},
		{name: "missing assignee", in: TaskFields{TaskName: "x", DueDate: due, Priority: P1}, field: "assignee"},
		{name: "missing due", in: TaskFields{TaskName: "x", Assignee: "A", Priority: P1}, field: "dueDate"},
		{name: "bad priority", in: TaskFields{TaskName: "x", Assignee: "A", DueDate: due, Priority: "P9"}, field: "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			if err := tt.in.Validate(); !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
		})
	}
}

func TestTaskUpdateApplyOnlySuppliedFields(t *testing.T) {
	due := time.Date(2025, 6, 20, 23, 0, 0, 0, time.UTC)
	task := Task{ID: "1", TaskName: "old", Assignee: "AMAN", DueDate: due, Priority: P2}

	name := "  new name "
	upd := TaskUpdate{TaskName: &name}.Normalize()
	if err := upd.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	upd.Apply(&task)

	if task.TaskName != "new name" {
		t.Fatalf("expected name to change, got %q", task.TaskName)
	}
	if task.Assignee != "AMAN" || !task.DueDate.Equal(due) || task.Priority != P2 {
		t.Fatalf("unexpected changes to other fields: %+v", task)
	}
}

func TestTaskUpdateKeepsAssigneeCase(t *testing.T) {
	assignee := "priya"
	upd := TaskUpdate{Assignee: &assignee}.Normalize()
	task := Task{Assignee: "AMAN"}
	upd.Apply(&task)
	if task.Assignee != "priya" {
		t.Fatalf("expected assignee to be stored as given, got %q", task.Assignee)
	}
}

func TestTaskUpdateValidate(t *testing.T) {
	empty := ""
	bad := Priority("urgent")
	if err := (TaskUpdate{TaskName: &empty}).Validate(); err == nil {
		t.Fatal("expected empty task name to be rejected")
	}
	if err := (TaskUpdate{Assignee: &empty}).Validate(); err == nil {
		t.Fatal("expected empty assignee to be rejected")
	}
	if err := (TaskUpdate{Priority: &bad}).Validate(); err == nil {
		t.Fatal("expected invalid priority to be rejected")
	}
	if !(TaskUpdate{}).Empty() {
		t.Fatal("expected zero update to be empty")
	}
}
