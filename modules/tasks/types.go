package tasks

import (
	"github.com/example/task-manager-demo/domain/task"
)

// TaskData is the wire representation of a task.
type TaskData struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Priority  *int   `json:"priority"`
	OwnerID   uint   `json:"owner_id"`
}

func taskData(t *task.Task) TaskData {
	return TaskData{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Priority:  t.Priority,
		OwnerID:   t.OwnerID,
	}
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	OwnerID   uint   `json:"owner_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Priority  *int   `json:"priority"`
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	OwnerID uint `json:"owner_id"`
	TaskID  uint `json:"task_id"`
}

// UpdateTaskRequest replaces every mutable field of a task.
type UpdateTaskRequest struct {
	OwnerID   uint   `json:"owner_id"`
	TaskID    uint   `json:"task_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Priority  *int   `json:"priority"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	OwnerID uint `json:"owner_id"`
	TaskID  uint `json:"task_id"`
}

// DeleteTaskResponse is the response for deleting a task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ListTasksRequest carries owner scope, filters, sort and pagination.
type ListTasksRequest struct {
	OwnerID   uint   `json:"owner_id"`
	Completed *bool  `json:"completed,omitempty"`
	Priority  *int   `json:"priority,omitempty"`
	Title     string `json:"title,omitempty"`
	SortBy    string `json:"sort_by"`
	Order     string `json:"order"`
	Skip      int    `json:"skip"`
	Limit     int    `json:"limit"`
}

// ListTasksResponse is the page of tasks plus pagination metadata.
type ListTasksResponse struct {
	Total int64      `json:"total"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
	Data  []TaskData `json:"data"`
}
