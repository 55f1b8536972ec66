package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

// Publisher delivers task change events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.TaskEvent) error
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// QueuePublisher sends events as JSON messages to an Azure Storage queue.
type QueuePublisher struct {
	queue  queueClient
	create func(ctx context.Context) error
}

// NewQueuePublisher creates a publisher for the named queue.
func NewQueuePublisher(connStr, queueName string) (*QueuePublisher, error) {
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &QueuePublisher{
		queue: q,
		create: func(ctx context.Context) error {
			_, err := q.Create(ctx, nil)
			return err
		},
	}, nil
}

// EnsureQueue creates the queue unless it already exists.
func (p *QueuePublisher) EnsureQueue(ctx context.Context) error {
	if p.create == nil {
		return nil
	}
	if err := p.create(ctx); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists" {
			return nil
		}
		return err
	}
	return nil
}

func (p *QueuePublisher) Publish(ctx context.Context, ev domain.TaskEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}

// Publishing wraps a Backend and emits an event after every successful write.
// Publish failures are logged and never fail the write.
type Publishing struct {
	Backend
	pub Publisher
	log *log.Logger
}

// NewPublishing creates the wrapper. A nil publisher disables events.
func NewPublishing(base Backend, pub Publisher, logger *log.Logger) *Publishing {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Publishing{Backend: base, pub: pub, log: logger}
}

func (p *Publishing) InsertTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	task, err := p.Backend.InsertTask(ctx, fields)
	if err != nil {
		return domain.Task{}, err
	}
	p.publish(ctx, domain.TaskCreated, task.ID, &task)
	return task, nil
}

func (p *Publishing) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	task, err := p.Backend.UpdateTask(ctx, id, upd)
	if err != nil {
		return domain.Task{}, err
	}
	p.publish(ctx, domain.TaskUpdated, task.ID, &task)
	return task, nil
}

func (p *Publishing) DeleteTask(ctx context.Context, id string) error {
	if err := p.Backend.DeleteTask(ctx, id); err != nil {
		return err
	}
	p.publish(ctx, domain.TaskDeleted, id, nil)
	return nil
}

func (p *Publishing) publish(ctx context.Context, typ, id string, task *domain.Task) {
	if p.pub == nil {
		return
	}
	ev := domain.TaskEvent{Type: typ, TaskID: id, Time: Now().UnixMilli(), Task: task}
	if err := p.pub.Publish(ctx, ev); err != nil {
		p.log.WithFields(log.Fields{
			"event":  typ,
			"taskId": id,
		}).WithError(err).Warn("task event publish failed")
	}
}
