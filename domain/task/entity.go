package task

import (
	"github.com/example/task-manager-demo/domain/user"
)

// Task represents a task entity owned by exactly one user.
type Task struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"not null;index" json:"title"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
	Priority  *int   `json:"priority"`
	OwnerID   uint   `gorm:"not null;index" json:"owner_id"`

	Owner user.User `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Update names every mutable field of a task. Updates are full
// replacements: all fields are overwritten, never merged.
type Update struct {
	Title     string
	Completed bool
	Priority  *int
}

// Filters holds the recognized list filters. A nil/empty field means
// the dimension is unconstrained.
type Filters struct {
	Completed *bool
	Priority  *int
	Title     string
}

// SortDirection is the order applied to the sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort holds the sort field and direction for a listing.
type Sort struct {
	Field     string
	Direction SortDirection
}

// Page holds offset/limit pagination bounds.
type Page struct {
	Skip  int
	Limit int
}
