package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/example/task-manager-demo/domain/task"
	"github.com/example/task-manager-demo/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TasksModule provides the task store and listing engine.
type TasksModule struct {
	db      *gorm.DB
	service *TaskService
	dbPath  string
}

// Compile-time interface checks.
var _ mono.Module = (*TasksModule)(nil)
var _ mono.ServiceProviderModule = (*TasksModule)(nil)
var _ mono.HealthCheckableModule = (*TasksModule)(nil)

// NewModule creates a new TasksModule.
func NewModule() *TasksModule {
	dbPath := os.Getenv("TASKS_DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	return &TasksModule{
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *TasksModule) Name() string {
	return "tasks"
}

// Start initializes the tasks module.
func (m *TasksModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// AutoMigrate is idempotent; migrating users here as well keeps the
	// tasks FK valid regardless of module start order.
	if err := db.AutoMigrate(&user.User{}, &task.Task{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewTaskService(NewTaskRepository(db))

	log.Printf("[tasks] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop shuts down the module.
func (m *TasksModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[tasks] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TasksModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TasksModule) RegisterServices(container mono.ServiceContainer) error {
	services := map[string]func(mono.ServiceContainer) error{
		"create-task": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "create-task", json.Unmarshal, json.Marshal, m.handleCreate)
		},
		"get-task": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "get-task", json.Unmarshal, json.Marshal, m.handleGet)
		},
		"update-task": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "update-task", json.Unmarshal, json.Marshal, m.handleUpdate)
		},
		"delete-task": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "delete-task", json.Unmarshal, json.Marshal, m.handleDelete)
		},
		"list-tasks": func(c mono.ServiceContainer) error {
			return helper.RegisterTypedRequestReplyService(c, "list-tasks", json.Unmarshal, json.Marshal, m.handleList)
		},
	}

	for name, register := range services {
		if err := register(container); err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}

	log.Printf("[tasks] Registered services: create-task, get-task, update-task, delete-task, list-tasks")
	return nil
}

func (m *TasksModule) handleCreate(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskData, error) {
	t, err := m.service.Create(ctx, req.OwnerID, req.Title, req.Completed, req.Priority)
	if err != nil {
		return TaskData{}, err
	}
	return taskData(t), nil
}

func (m *TasksModule) handleGet(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskData, error) {
	t, err := m.service.Get(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		return TaskData{}, err
	}
	return taskData(t), nil
}

func (m *TasksModule) handleUpdate(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskData, error) {
	t, err := m.service.Replace(ctx, req.OwnerID, req.TaskID, task.Update{
		Title:     req.Title,
		Completed: req.Completed,
		Priority:  req.Priority,
	})
	if err != nil {
		return TaskData{}, err
	}
	return taskData(t), nil
}

func (m *TasksModule) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.OwnerID, req.TaskID); err != nil {
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TasksModule) handleList(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	items, total, err := m.service.List(ctx, req.OwnerID,
		task.Filters{
			Completed: req.Completed,
			Priority:  req.Priority,
			Title:     req.Title,
		},
		task.Sort{
			Field:     req.SortBy,
			Direction: task.SortDirection(req.Order),
		},
		task.Page{
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	)
	if err != nil {
		return ListTasksResponse{}, err
	}

	resp := ListTasksResponse{
		Total: total,
		Skip:  req.Skip,
		Limit: req.Limit,
		Data:  make([]TaskData, 0, len(items)),
	}
	for i := range items {
		resp.Data = append(resp.Data, taskData(&items[i]))
	}
	return resp, nil
}
