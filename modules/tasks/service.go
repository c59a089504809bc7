package tasks

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/example/task-manager-demo/domain/task"
)

const (
	minTitleLength = 2
	maxTitleLength = 128

	// MaxPageLimit caps the page size of a listing.
	MaxPageLimit = 100
	// DefaultPageLimit is used when the caller does not specify a limit.
	DefaultPageLimit = 10
)

var (
	// ErrInvalidTitle is returned when the title is outside 2-128 characters.
	ErrInvalidTitle = errors.New("title must be between 2 and 128 characters")
	// ErrInvalidSortOrder is returned for directions other than asc/desc.
	ErrInvalidSortOrder = errors.New("order must be asc or desc")
	// ErrInvalidSkip is returned for negative offsets.
	ErrInvalidSkip = errors.New("skip must be non-negative")
	// ErrInvalidLimit is returned for limits outside [0,100].
	ErrInvalidLimit = errors.New("limit must be between 0 and 100")
)

// TaskService handles task business logic. Every operation is scoped to
// the owning user.
type TaskService struct {
	repo *TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo *TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Create validates and persists a new task for the owner.
func (s *TaskService) Create(_ context.Context, ownerID uint, title string, completed bool, priority *int) (*task.Task, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	t := &task.Task{
		Title:     title,
		Completed: completed,
		Priority:  priority,
		OwnerID:   ownerID,
	}
	if err := s.repo.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get retrieves a task by id, scoped to the owner.
func (s *TaskService) Get(_ context.Context, ownerID, id uint) (*task.Task, error) {
	return s.repo.FindByOwnerAndID(ownerID, id)
}

// Replace overwrites every mutable field of a task.
func (s *TaskService) Replace(_ context.Context, ownerID, id uint, upd task.Update) (*task.Task, error) {
	if err := validateTitle(upd.Title); err != nil {
		return nil, err
	}
	return s.repo.Update(ownerID, id, upd)
}

// Delete removes a task, scoped to the owner.
func (s *TaskService) Delete(_ context.Context, ownerID, id uint) error {
	return s.repo.Delete(ownerID, id)
}

// List validates the sort and pagination inputs, then returns the page
// of matching tasks and the pre-pagination total. Validation failures
// surface before any query executes.
func (s *TaskService) List(_ context.Context, ownerID uint, filters task.Filters, sort task.Sort, page task.Page) ([]task.Task, int64, error) {
	if _, ok := sortColumns[sort.Field]; !ok {
		return nil, 0, ErrInvalidSortField
	}
	if sort.Direction != task.SortAsc && sort.Direction != task.SortDesc {
		return nil, 0, ErrInvalidSortOrder
	}
	if page.Skip < 0 {
		return nil, 0, ErrInvalidSkip
	}
	if page.Limit < 0 || page.Limit > MaxPageLimit {
		return nil, 0, ErrInvalidLimit
	}

	return s.repo.List(ownerID, filters, sort, page)
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < minTitleLength || n > maxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}
