package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kini99/MisogiAI-natural-language-task-manager/domain"
)

// DefaultSQLiteDSN is used when no DSN is configured.
const DefaultSQLiteDSN = "taskflow.db"

type taskRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	TaskName  string    `gorm:"not null"`
	Assignee  string    `gorm:"not null"`
	DueDate   time.Time `gorm:"not null"`
	Priority  string    `gorm:"not null;check:priority IN ('P1','P2','P3','P4')"`
	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (taskRow) TableName() string { return "tasks" }

func rowFromTask(t domain.Task) taskRow {
	return taskRow{
		ID:        t.ID,
		TaskName:  t.TaskName,
		Assignee:  t.Assignee,
		DueDate:   t.DueDate.UTC(),
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (r taskRow) task() domain.Task {
	return domain.Task{
		ID:        r.ID,
		TaskName:  r.TaskName,
		Assignee:  r.Assignee,
		DueDate:   r.DueDate.UTC(),
		Priority:  domain.Priority(r.Priority),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// SQL stores tasks in a relational database through gorm.
type SQL struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite database and migrates the tasks table.
func OpenSQLite(dsn string, logr *log.Logger) (*SQL, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	if logr == nil {
		logr = log.StandardLogger()
	}

	dbLogger := logger.New(logr, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if isMemoryDSN(dsn) {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := &SQL{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the tasks table.
func (s *SQL) Migrate() error {
	if err := s.db.AutoMigrate(&taskRow{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

func (s *SQL) InsertTask(ctx context.Context, fields domain.TaskFields) (domain.Task, error) {
	fields, err := prepareInsert(fields)
	if err != nil {
		return domain.Task{}, err
	}
	task := newTask(uuid.NewString(), fields)
	row := rowFromTask(task)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *SQL) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var rows []taskRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *SQL) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	upd, err := prepareUpdate(upd)
	if err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row taskRow
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		task = row.task()
		upd.Apply(&task)
		task.UpdatedAt = Now()
		row = rowFromTask(task)
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Task{}, err
		}
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func (s *SQL) DeleteTask(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRow{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
