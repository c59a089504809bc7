package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/task-manager-demo/domain/task"
	"github.com/example/task-manager-demo/domain/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*TaskService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &task.Task{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return NewTaskService(NewTaskRepository(db)), db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()

	u := &user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         user.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u.ID
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func defaultSort() task.Sort {
	return task.Sort{Field: "id", Direction: task.SortAsc}
}

func defaultPage() task.Page {
	return task.Page{Skip: 0, Limit: DefaultPageLimit}
}

func TestTaskService_CreateAndGet(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	created, err := service.Create(ctx, owner, "Buy milk", false, intPtr(2))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() task has no id")
	}
	if created.OwnerID != owner {
		t.Errorf("Create() owner = %v, want %v", created.OwnerID, owner)
	}

	got, err := service.Get(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("Get() title = %q, want %q", got.Title, "Buy milk")
	}
	if got.Priority == nil || *got.Priority != 2 {
		t.Errorf("Get() priority = %v, want 2", got.Priority)
	}
}

func TestTaskService_TitleValidation(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"empty", "", true},
		{"one character", "a", true},
		{"two characters", "ab", false},
		{"128 characters", strings.Repeat("x", 128), false},
		{"129 characters", strings.Repeat("x", 129), true},
		{"multibyte runes counted as characters", strings.Repeat("日", 128), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, owner, tt.title, false, nil)
			if tt.wantErr && !errors.Is(err, ErrInvalidTitle) {
				t.Errorf("Create() error = %v, want ErrInvalidTitle", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Create() error = %v", err)
			}
		})
	}
}

func TestTaskService_OwnerScoping(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	created, err := service.Create(ctx, alice, "Alice's task", false, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Another owner sees the task as missing, not as forbidden.
	if _, err := service.Get(ctx, bob, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get() foreign task error = %v, want ErrTaskNotFound", err)
	}
	if _, err := service.Replace(ctx, bob, created.ID, task.Update{Title: "Stolen"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Replace() foreign task error = %v, want ErrTaskNotFound", err)
	}
	if err := service.Delete(ctx, bob, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Delete() foreign task error = %v, want ErrTaskNotFound", err)
	}

	// The owner still has it.
	if _, err := service.Get(ctx, alice, created.ID); err != nil {
		t.Errorf("Get() own task error = %v", err)
	}
}

func TestTaskService_Replace(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	created, err := service.Create(ctx, owner, "Original", false, intPtr(1))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Full replacement, including clearing the priority.
	updated, err := service.Replace(ctx, owner, created.ID, task.Update{
		Title:     "Replaced",
		Completed: true,
		Priority:  nil,
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if updated.Title != "Replaced" || !updated.Completed {
		t.Errorf("Replace() = %+v, want title Replaced, completed true", updated)
	}
	if updated.Priority != nil {
		t.Errorf("Replace() priority = %v, want nil", updated.Priority)
	}

	if _, err := service.Replace(ctx, owner, created.ID, task.Update{Title: "x"}); !errors.Is(err, ErrInvalidTitle) {
		t.Errorf("Replace() bad title error = %v, want ErrInvalidTitle", err)
	}
	if _, err := service.Replace(ctx, owner, 9999, task.Update{Title: "Valid title"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Replace() unknown id error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskService_Delete(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	created, err := service.Create(ctx, owner, "Ephemeral", false, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := service.Get(ctx, owner, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrTaskNotFound", err)
	}
	if err := service.Delete(ctx, owner, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second Delete() error = %v, want ErrTaskNotFound", err)
	}
}

func seedListTasks(t *testing.T, service *TaskService, owner uint) {
	t.Helper()
	ctx := context.Background()

	seed := []struct {
		title     string
		completed bool
		priority  *int
	}{
		{"Write report", false, intPtr(3)},
		{"Review report", true, intPtr(1)},
		{"Buy groceries", false, intPtr(1)},
		{"Walk the dog", true, nil},
		{"Plan vacation", false, intPtr(2)},
	}
	for _, s := range seed {
		if _, err := service.Create(ctx, owner, s.title, s.completed, s.priority); err != nil {
			t.Fatalf("seed Create(%q) error = %v", s.title, err)
		}
	}
}

func TestTaskService_ListFilters(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")
	other := createTestUser(t, db, "bob")

	seedListTasks(t, service, owner)
	if _, err := service.Create(ctx, other, "Bob's report", false, intPtr(1)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("owner scope", func(t *testing.T) {
		items, total, err := service.List(ctx, owner, task.Filters{}, defaultSort(), defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 5 || len(items) != 5 {
			t.Errorf("List() total = %d, len = %d, want 5 and 5", total, len(items))
		}
		for _, item := range items {
			if item.OwnerID != owner {
				t.Errorf("List() leaked task %d of owner %d", item.ID, item.OwnerID)
			}
		}
	})

	t.Run("completed filter", func(t *testing.T) {
		items, total, err := service.List(ctx, owner, task.Filters{Completed: boolPtr(true)}, defaultSort(), defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 2 {
			t.Errorf("List() total = %d, want 2", total)
		}
		for _, item := range items {
			if !item.Completed {
				t.Errorf("List() returned incomplete task %q", item.Title)
			}
		}
	})

	t.Run("priority filter", func(t *testing.T) {
		items, total, err := service.List(ctx, owner, task.Filters{Priority: intPtr(1)}, defaultSort(), defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 2 {
			t.Errorf("List() total = %d, want 2", total)
		}
		for _, item := range items {
			if item.Priority == nil || *item.Priority != 1 {
				t.Errorf("List() returned task %q with priority %v", item.Title, item.Priority)
			}
		}
	})

	t.Run("title substring case-insensitive", func(t *testing.T) {
		items, total, err := service.List(ctx, owner, task.Filters{Title: "REPORT"}, defaultSort(), defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 2 || len(items) != 2 {
			t.Errorf("List() total = %d, len = %d, want 2 and 2", total, len(items))
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		_, total, err := service.List(ctx, owner, task.Filters{Completed: boolPtr(false), Priority: intPtr(1)}, defaultSort(), defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 1 {
			t.Errorf("List() total = %d, want 1", total)
		}
	})
}

func TestTaskService_ListSorting(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	// Equal priorities exercise the id tie-break.
	for i, row := range []struct {
		title    string
		priority int
	}{
		{"First", 2},
		{"Second", 1},
		{"Third", 2},
		{"Fourth", 3},
	} {
		if _, err := service.Create(ctx, owner, row.title, false, intPtr(row.priority)); err != nil {
			t.Fatalf("Create() task %d error = %v", i, err)
		}
	}

	t.Run("priority descending", func(t *testing.T) {
		items, _, err := service.List(ctx, owner, task.Filters{}, task.Sort{Field: "priority", Direction: task.SortDesc}, defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for i := 1; i < len(items); i++ {
			if *items[i-1].Priority < *items[i].Priority {
				t.Errorf("List() priorities not non-increasing at %d: %d < %d", i, *items[i-1].Priority, *items[i].Priority)
			}
		}
	})

	t.Run("id tie-break on equal keys", func(t *testing.T) {
		items, _, err := service.List(ctx, owner, task.Filters{}, task.Sort{Field: "priority", Direction: task.SortAsc}, defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for i := 1; i < len(items); i++ {
			prev, cur := items[i-1], items[i]
			if *prev.Priority == *cur.Priority && prev.ID > cur.ID {
				t.Errorf("List() ids not ascending within equal priority: %d before %d", prev.ID, cur.ID)
			}
		}
	})

	t.Run("title ascending", func(t *testing.T) {
		items, _, err := service.List(ctx, owner, task.Filters{}, task.Sort{Field: "title", Direction: task.SortAsc}, defaultPage())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for i := 1; i < len(items); i++ {
			if items[i-1].Title > items[i].Title {
				t.Errorf("List() titles not ascending: %q before %q", items[i-1].Title, items[i].Title)
			}
		}
	})
}

func TestTaskService_ListPagination(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	for i := 0; i < 5; i++ {
		if _, err := service.Create(ctx, owner, fmt.Sprintf("Task %d", i+1), false, nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	items, total, err := service.List(ctx, owner, task.Filters{}, defaultSort(), task.Page{Skip: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	// Total reflects all matches, not the page.
	if total != 5 {
		t.Errorf("List() total = %d, want 5", total)
	}
	if len(items) != 2 {
		t.Fatalf("List() len = %d, want 2", len(items))
	}
	if items[0].Title != "Task 3" || items[1].Title != "Task 4" {
		t.Errorf("List() page = %q, %q, want Task 3, Task 4", items[0].Title, items[1].Title)
	}

	// Skip past the end yields an empty page with the same total.
	items, total, err = service.List(ctx, owner, task.Filters{}, defaultSort(), task.Page{Skip: 10, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 5 || len(items) != 0 {
		t.Errorf("List() total = %d, len = %d, want 5 and 0", total, len(items))
	}
}

func TestTaskService_ListValidation(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	tests := []struct {
		name    string
		sort    task.Sort
		page    task.Page
		wantErr error
	}{
		{"unknown sort field", task.Sort{Field: "owner_id", Direction: task.SortAsc}, defaultPage(), ErrInvalidSortField},
		{"unknown direction", task.Sort{Field: "id", Direction: "sideways"}, defaultPage(), ErrInvalidSortOrder},
		{"negative skip", defaultSort(), task.Page{Skip: -1, Limit: 10}, ErrInvalidSkip},
		{"negative limit", defaultSort(), task.Page{Skip: 0, Limit: -1}, ErrInvalidLimit},
		{"limit above maximum", defaultSort(), task.Page{Skip: 0, Limit: MaxPageLimit + 1}, ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := service.List(ctx, owner, task.Filters{}, tt.sort, tt.page)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("List() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskRepository_CascadeDeleteWithOwner(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "alice")

	if _, err := service.Create(ctx, owner, "Doomed task", false, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := db.Delete(&user.User{}, "id = ?", owner).Error; err != nil {
		t.Fatalf("delete user error = %v", err)
	}

	var count int64
	if err := db.Model(&task.Task{}).Where("owner_id = ?", owner).Count(&count).Error; err != nil {
		t.Fatalf("count tasks error = %v", err)
	}
	if count != 0 {
		t.Errorf("tasks remaining after owner delete = %d, want 0", count)
	}
}
