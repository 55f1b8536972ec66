package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

const (
	tasksPartition = "tasks"
	edmDateTime    = "Edm.DateTime"
)

// Tables stores tasks in a single partition of an Azure Storage table.
type Tables struct {
	taskTable *aztables.Client
}

// NewTables creates a Tables store from the given connection string.
func NewTables(connStr, tasksTable string) (*Tables, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	return &Tables{taskTable: svc.NewClient(tasksTable)}, nil
}

// EnsureTable creates the tasks table unless it already exists.
func (s *Tables) EnsureTable(ctx context.Context) error {
	_, err := s.taskTable.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type taskEntity struct {
	entityKeys
	TaskName      string    `json:"TaskName"`
	Assignee      string    `json:"Assignee"`
	DueDate       time.Time `json:"DueDate"`
	DueDateType   string    `json:"DueDate@odata.type,omitempty"`
	Priority      string    `json:"Priority"`
	CreatedAt     time.Time `json:"CreatedAt"`
	CreatedAtType string    `json:"CreatedAt@odata.type,omitempty"`
	UpdatedAt     time.Time `json:"UpdatedAt"`
	UpdatedAtType string    `json:"UpdatedAt@odata.type,omitempty"`
}

func encodeTaskEntity(t domain.Task) ([]byte, error) {
	return sonic.Marshal(taskEntity{
		entityKeys:    entityKeys{PartitionKey: tasksPartition, RowKey: t.ID},
		TaskName:      t.TaskName,
		Assignee:      t.Assignee,
		DueDate:       t.DueDate.UTC(),
		DueDateType:   edmDateTime,
		Priority:      string(t.Priority),
		CreatedAt:     t.CreatedAt.UTC(),
		CreatedAtType: edmDateTime,
		UpdatedAt:     t.UpdatedAt.UTC(),
		UpdatedAtType: edmDateTime,
	})
}

func decodeTaskEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:        ent.RowKey,
		TaskName:  ent.TaskName,
		Assignee:  ent.Assignee,
		DueDate:   ent.DueDate.UTC(),
		Priority:  domain.Priority(ent.Priority),
		CreatedAt: ent.CreatedAt.UTC(),
		UpdatedAt: ent.UpdatedAt.UTC(),
	}, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// InsertTask adds a new entity keyed by a fresh uuid.
func (s *Tables) InsertTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	fields, err := prepareInsert(fields)
	if err != nil {
		return domain.Task{}, err
	}
	task := newTask(uuid.NewString(), fields)
	payload, err := encodeTaskEntity(task)
	if err != nil {
		return domain.Task{}, err
	}
	if _, err := s.taskTable.AddEntity(ctx, payload, nil); err != nil {
		return domain.Task{}, fmt.Errorf("add task entity: %w", err)
	}
	return task, nil
}

// ListTasks returns every task in the partition.
func (s *Tables) ListTasks(ctx context.Context) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + tasksPartition + "'"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			task, err := decodeTaskEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *Tables) getTask(ctx context.Context, id string) (domain.Task, error) {
	ent, err := s.taskTable.GetEntity(ctx, tasksPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, err
	}
	return decodeTaskEntity(ent.Value)
}

// UpdateTask merges the supplied fields into the stored entity. Concurrent updates
// are last-write-wins.
func (s *Tables) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	upd, err := prepareUpdate(upd)
	if err != nil {
		return domain.Task{}, err
	}
	task, err := s.getTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	upd.Apply(&task)
	task.UpdatedAt = Now()

	payload, err := encodeTaskEntity(task)
	if err != nil {
		return domain.Task{}, err
	}
	et := azcore.ETagAny
	if _, err := s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		if isNotFound(err) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("update task entity: %w", err)
	}
	return task, nil
}

// DeleteTask removes the entity.
func (s *Tables) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.taskTable.DeleteEntity(ctx, tasksPartition, id, nil); err != nil {
		if isNotFound(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete task entity: %w", err)
	}
	return nil
}
