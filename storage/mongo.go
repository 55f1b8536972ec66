package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

const (
	DefaultMongoDatabase   = "taskflow"
	DefaultMongoCollection = "tasks"

	namespaceExistsCode = 48
)

type taskDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TaskName  string             `bson:"taskName"`
	Assignee  string             `bson:"assignee"`
	DueDate   time.Time          `bson:"dueDate"`
	Priority  string             `bson:"priority"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d taskDocument) task() domain.Task {
	return domain.Task{
		ID:        d.ID.Hex(),
		TaskName:  d.TaskName,
		Assignee:  d.Assignee,
		DueDate:   d.DueDate.UTC(),
		Priority:  domain.Priority(d.Priority),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// taskValidator mirrors the document schema enforced on the collection.
var taskValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"taskName", "assignee", "dueDate", "priority", "createdAt", "updatedAt"},
		"properties": bson.M{
			"taskName":  bson.M{"bsonType": "string", "minLength": 1},
			"assignee":  bson.M{"bsonType": "string", "minLength": 1},
			"dueDate":   bson.M{"bsonType": "date"},
			"priority":  bson.M{"enum": bson.A{"P1", "P2", "P3", "P4"}},
			"createdAt": bson.M{"bsonType": "date"},
			"updatedAt": bson.M{"bsonType": "date"},
		},
	},
}

// Mongo stores one document per task.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to the given deployment.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func newMongoFromCollection(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

// EnsureSchema creates the collection with its validator, or updates the validator
// of an existing one, and indexes createdAt.
func (m *Mongo) EnsureSchema(ctx context.Context) error {
	db := m.coll.Database()
	err := db.CreateCollection(ctx, m.coll.Name(), options.CreateCollection().SetValidator(taskValidator))
	if err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExistsCode {
			return fmt.Errorf("create collection: %w", err)
		}
		cmd := bson.D{{Key: "collMod", Value: m.coll.Name()}, {Key: "validator", Value: taskValidator}}
		if err := db.RunCommand(ctx, cmd).Err(); err != nil {
			return fmt.Errorf("update validator: %w", err)
		}
	}
	_, err = m.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}}})
	return err
}

// Close disconnects the client, if this store owns one.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *Mongo) InsertTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	fields, err := prepareInsert(fields)
	if err != nil {
		return domain.Task{}, err
	}
	oid := primitive.NewObjectID()
	task := newTask(oid.Hex(), fields)
	doc := taskDocument{
		ID:        oid,
		TaskName:  task.TaskName,
		Assignee:  task.Assignee,
		DueDate:   task.DueDate,
		Priority:  string(task.Priority),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (m *Mongo) ListTasks(ctx context.Context) ([]domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	tasks := make([]domain.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.task())
	}
	sortTasks(tasks)
	return tasks, nil
}

func (m *Mongo) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	upd, err := prepareUpdate(upd)
	if err != nil {
		return domain.Task{}, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Task{}, domain.ErrNotFound
	}

	set := bson.D{}
	if upd.TaskName != nil {
		set = append(set, bson.E{Key: "taskName", Value: *upd.TaskName})
	}
	if upd.Assignee != nil {
		set = append(set, bson.E{Key: "assignee", Value: *upd.Assignee})
	}
	if upd.DueDate != nil {
		set = append(set, bson.E{Key: "dueDate", Value: *upd.DueDate})
	}
	if upd.Priority != nil {
		set = append(set, bson.E{Key: "priority", Value: string(*upd.Priority)})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: Now()})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = m.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	return doc.task(), nil
}

func (m *Mongo) DeleteTask(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
