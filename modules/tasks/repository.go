package tasks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/task-manager-demo/domain/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTaskNotFound is returned for tasks that do not exist or belong
	// to another owner. The two cases are indistinguishable on purpose.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidSortField is returned for sort fields outside the whitelist.
	ErrInvalidSortField = errors.New("unknown sort field")
)

// sortColumns whitelists the fields a listing may sort by. Keys are the
// API-facing names, values the column expressions.
var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"priority":  "priority",
	"completed": "completed",
}

// TaskRepository handles task persistence using GORM.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create saves a new task.
func (r *TaskRepository) Create(t *task.Task) error {
	if err := r.db.Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByOwnerAndID retrieves a task scoped to its owner.
func (r *TaskRepository) FindByOwnerAndID(ownerID, id uint) (*task.Task, error) {
	var t task.Task
	err := r.db.First(&t, "owner_id = ? AND id = ?", ownerID, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// Update performs a full replacement of every mutable field.
func (r *TaskRepository) Update(ownerID, id uint, upd task.Update) (*task.Task, error) {
	t, err := r.FindByOwnerAndID(ownerID, id)
	if err != nil {
		return nil, err
	}

	t.Title = upd.Title
	t.Completed = upd.Completed
	t.Priority = upd.Priority

	if err := r.db.Omit(clause.Associations).Save(t).Error; err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, nil
}

// Delete removes a task scoped to its owner.
func (r *TaskRepository) Delete(ownerID, id uint) error {
	result := r.db.Delete(&task.Task{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List composes owner scoping, filters, sort and pagination into one
// query, plus a pre-pagination count for the pagination metadata.
func (r *TaskRepository) List(ownerID uint, filters task.Filters, sort task.Sort, page task.Page) ([]task.Task, int64, error) {
	column, ok := sortColumns[sort.Field]
	if !ok {
		return nil, 0, ErrInvalidSortField
	}

	// The base query is always owner-scoped before any filter applies.
	base := func() *gorm.DB {
		q := r.db.Model(&task.Task{}).Where("owner_id = ?", ownerID)
		if filters.Completed != nil {
			q = q.Where("completed = ?", *filters.Completed)
		}
		if filters.Priority != nil {
			q = q.Where("priority = ?", *filters.Priority)
		}
		if filters.Title != "" {
			q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filters.Title)+"%")
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	q := base().Order(fmt.Sprintf("%s %s", column, strings.ToUpper(string(sort.Direction))))
	if column != "id" {
		// Deterministic tie-break for equal sort keys.
		q = q.Order("id ASC")
	}

	var items []task.Task
	if err := q.Offset(page.Skip).Limit(page.Limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return items, total, nil
}
