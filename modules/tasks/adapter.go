package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort defines the interface other modules use to access task
// functionality. Every operation carries the owner scope.
type TaskPort interface {
	Create(ctx context.Context, req *CreateTaskRequest) (*TaskData, error)
	Get(ctx context.Context, ownerID, taskID uint) (*TaskData, error)
	Update(ctx context.Context, req *UpdateTaskRequest) (*TaskData, error)
	Delete(ctx context.Context, ownerID, taskID uint) error
	List(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
}

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	return &TaskAdapter{container: container}
}

// Create creates a task.
func (a *TaskAdapter) Create(ctx context.Context, req *CreateTaskRequest) (*TaskData, error) {
	var resp TaskData
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-task", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-task request failed: %w", err)
	}
	return &resp, nil
}

// Get retrieves a task scoped to its owner.
func (a *TaskAdapter) Get(ctx context.Context, ownerID, taskID uint) (*TaskData, error) {
	req := GetTaskRequest{OwnerID: ownerID, TaskID: taskID}
	var resp TaskData
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-task request failed: %w", err)
	}
	return &resp, nil
}

// Update replaces every mutable field of a task.
func (a *TaskAdapter) Update(ctx context.Context, req *UpdateTaskRequest) (*TaskData, error) {
	var resp TaskData
	if err := helper.CallRequestReplyService(
		ctx, a.container, "update-task", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, fmt.Errorf("update-task request failed: %w", err)
	}
	return &resp, nil
}

// Delete removes a task scoped to its owner.
func (a *TaskAdapter) Delete(ctx context.Context, ownerID, taskID uint) error {
	req := DeleteTaskRequest{OwnerID: ownerID, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "delete-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("delete-task request failed: %w", err)
	}
	return nil
}

// List returns a filtered, sorted, paginated page of tasks.
func (a *TaskAdapter) List(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-tasks", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks request failed: %w", err)
	}
	return &resp, nil
}
