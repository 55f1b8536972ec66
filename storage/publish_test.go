package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

type fakeQueue struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeQueue) EnqueueMessage(_ context.Context, content string, _ *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return azqueue.EnqueueMessagesResponse{}, f.err
	}
	f.messages = append(f.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

type recordingPublisher struct {
	events []domain.TaskEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev domain.TaskEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestQueuePublisherEncodesEvent(t *testing.T) {
	q := &fakeQueue{}
	p := &QueuePublisher{queue: q}
	task := domain.Task{ID: "t1", TaskName: "Call Rahul", Assignee: "RAVI", Priority: domain.P1}

	if err := p.Publish(context.Background(), domain.TaskEvent{Type: domain.TaskCreated, TaskID: "t1", Time: 42, Task: &task}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(q.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(q.messages))
	}
	var ev domain.TaskEvent
	if err := sonic.UnmarshalString(q.messages[0], &ev); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if ev.Type != domain.TaskCreated || ev.TaskID != "t1" || ev.Time != 42 || ev.Task == nil || ev.Task.Assignee != "RAVI" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestQueuePublisherEnsureQueue(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "created"},
		{name: "already exists", err: &azcore.ResponseError{ErrorCode: "QueueAlreadyExists"}},
		{name: "other failure", err: errors.New("forbidden"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &QueuePublisher{queue: &fakeQueue{}, create: func(context.Context) error { return tt.err }}
			err := p.EnsureQueue(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("EnsureQueue() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishingEmitsAfterWrites(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	base := &stubBackend{
		insertFn: func(context.Context, domain.TaskFields) (domain.Task, error) { return domain.Task{ID: "t1"}, nil },
		updateFn: func(_ context.Context, id string, _ domain.TaskUpdate) (domain.Task, error) {
			return domain.Task{ID: id, Priority: domain.P1}, nil
		},
		deleteFn: func(context.Context, string) error { return nil },
		listFn:   func(context.Context) ([]domain.Task, error) { return []domain.Task{}, nil },
	}
	p := NewPublishing(base, pub, log.New())

	if _, err := p.InsertTask(ctx, domain.TaskFields{}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := p.UpdateTask(ctx, "t1", domain.TaskUpdate{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := p.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := p.ListTasks(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{domain.TaskCreated, domain.TaskUpdated, domain.TaskDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, ev := range pub.events {
		if ev.Type != want[i] || ev.TaskID != "t1" || ev.Time == 0 {
			t.Fatalf("event %d: unexpected %+v", i, ev)
		}
	}
	if pub.events[2].Task != nil {
		t.Fatal("delete event should not carry a task")
	}
	if pub.events[1].Task == nil || pub.events[1].Task.Priority != domain.P1 {
		t.Fatalf("update event should carry the updated task: %+v", pub.events[1].Task)
	}
}

func TestPublishingSkipsFailedWrites(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewPublishing(&stubBackend{
		deleteFn: func(context.Context, string) error { return domain.ErrNotFound },
	}, pub, log.New())

	if err := p.DeleteTask(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestPublishingLogsPublishFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pub := &recordingPublisher{err: errors.New("queue unavailable")}
	p := NewPublishing(&stubBackend{
		insertFn: func(context.Context, domain.TaskFields) (domain.Task, error) { return domain.Task{ID: "t1"}, nil },
	}, pub, logger)

	task, err := p.InsertTask(context.Background(), domain.TaskFields{})
	if err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if task.ID != "t1" {
		t.Fatalf("unexpected task: %+v", task)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.WarnLevel || entry.Data["taskId"] != "t1" {
		t.Fatalf("expected warn entry for failed publish, got %#v", entry)
	}
}

func TestPublishingWithoutPublisher(t *testing.T) {
	p := NewPublishing(&stubBackend{
		insertFn: func(context.Context, domain.TaskFields) (domain.Task, error) { return domain.Task{ID: "t1"}, nil },
	}, nil, nil)
	if _, err := p.InsertTask(context.Background(), domain.TaskFields{}); err != nil {
		t.Fatalf("insert: %v", err)
	}
}
