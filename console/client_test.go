package console

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newTestServer(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.EscapedPath(), body: string(b)})
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/"), &reqs
}

func TestClientCreateTask(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusCreated,
		`{"id":"t1","taskName":"Finish landing page","assignee":"AMAN","dueDate":"2025-06-20T23:00:00Z","priority":"P2"}`)

	task, err := c.CreateTask(context.Background(), "Finish landing page Aman by 11pm 20th June")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID != "t1" || task.Priority != domain.P2 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if !task.DueDate.Equal(time.Date(2025, 6, 20, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due date: %v", task.DueDate)
	}
	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/api/tasks" {
		t.Fatalf("unexpected request: %+v", got)
	}
	var body map[string]string
	if err := sonic.UnmarshalString(got.body, &body); err != nil || body["text"] != "Finish landing page Aman by 11pm 20th June" {
		t.Fatalf("unexpected body %q: %v", got.body, err)
	}
}

func TestClientListTasksEmpty(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `[]`)
	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", tasks)
	}
}

func TestClientUpdateSendsOnlySuppliedFields(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"id":"a b","priority":"P1"}`)
	p := "P1"
	if _, err := c.UpdateTask(context.Background(), "a b", TaskPatch{Priority: &p}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := (*reqs)[0]
	if got.method != http.MethodPut || got.path != "/api/tasks/a%20b" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.body != `{"priority":"P1"}` {
		t.Fatalf("unexpected body: %s", got.body)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		wantMsg  string
	}{
		{name: "json error body", status: http.StatusUnprocessableEntity, response: `{"error":"could not understand the task description"}`, wantMsg: "could not understand the task description"},
		{name: "not found", status: http.StatusNotFound, response: `{"error":"task not found"}`, wantMsg: "task not found"},
		{name: "plain body", status: http.StatusBadGateway, response: `upstream down`, wantMsg: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, tt.status, tt.response)
			err := c.DeleteTask(context.Background(), "x")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.wantMsg {
				t.Fatalf("unexpected error: %+v", apiErr)
			}
			if apiErr.Error() == "" {
				t.Fatal("empty error string")
			}
		})
	}
}

func TestClientDeleteNoContent(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusNoContent, "")
	if err := c.DeleteTask(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := (*reqs)[0]; got.method != http.MethodDelete || got.path != "/api/tasks/t1" {
		t.Fatalf("unexpected request: %+v", got)
	}
}
