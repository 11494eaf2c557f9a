// Package seed loads a demo account with sample categories, tags and tasks.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

// Demo account credentials
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo123"
)

// Services are the operations the seeder drives
type Services struct {
	Store      ports.Store
	Auth       ports.AuthService
	Categories ports.CategoryService
	Tags       ports.TagService
	Tasks      ports.TaskService
}

// Result summarises what was created
type Result struct {
	Skipped    bool
	User       *entities.User
	Categories int
	Tags       int
	Tasks      int
}

type categorySeed struct {
	name        string
	description string
	color       string
}

type tagSeed struct {
	name  string
	color string
}

type taskSeed struct {
	title       string
	description string
	status      entities.TaskStatus
	priority    entities.Priority
	category    string
	tags        []string
	due         time.Duration
}

var categorySeeds = []categorySeed{
	{"Work", "Work related tasks", "#3B82F6"},
	{"Personal", "Personal tasks", "#10B981"},
	{"Shopping", "Shopping list", "#F59E0B"},
	{"Learning", "Study and learning", "#8B5CF6"},
}

var tagSeeds = []tagSeed{
	{"urgent", "#EF4444"},
	{"important", "#F97316"},
	{"easy", "#22C55E"},
	{"review", "#6366F1"},
	{"meeting", "#EC4899"},
}

const day = 24 * time.Hour

var taskSeeds = []taskSeed{
	{
		title:       "Complete project documentation",
		description: "Write comprehensive documentation for the API endpoints and setup instructions.",
		status:      entities.TaskStatusInProgress,
		priority:    entities.PriorityHigh,
		category:    "Work",
		tags:        []string{"important", "review"},
		due:         3 * day,
	},
	{
		title:       "Review pull requests",
		description: "Review and merge pending pull requests from team members.",
		status:      entities.TaskStatusPending,
		priority:    entities.PriorityMedium,
		category:    "Work",
		tags:        []string{"review"},
		due:         day,
	},
	{
		title:       "Weekly team meeting",
		description: "Discuss project progress and upcoming milestones.",
		status:      entities.TaskStatusPending,
		priority:    entities.PriorityMedium,
		category:    "Work",
		tags:        []string{"meeting"},
		due:         2 * day,
	},
	{
		title:       "Buy groceries",
		description: "Milk, eggs, bread, fruits, vegetables",
		status:      entities.TaskStatusPending,
		priority:    entities.PriorityLow,
		category:    "Shopping",
		tags:        []string{"easy"},
		due:         day,
	},
	{
		title:       "Learn Go concurrency patterns",
		description: "Study contexts, worker pools and structured cancellation.",
		status:      entities.TaskStatusInProgress,
		priority:    entities.PriorityMedium,
		category:    "Learning",
		tags:        []string{"important"},
		due:         7 * day,
	},
	{
		title:       "Fix login page bug",
		description: "Users report that the login form sometimes doesn't submit.",
		status:      entities.TaskStatusPending,
		priority:    entities.PriorityUrgent,
		category:    "Work",
		tags:        []string{"urgent", "important"},
		due:         4 * time.Hour,
	},
	{
		title:       "Gym workout",
		description: "30 minutes cardio + strength training",
		status:      entities.TaskStatusCompleted,
		priority:    entities.PriorityLow,
		category:    "Personal",
		due:         -day,
	},
	{
		title:       "Read 'Clean Code' book",
		description: "Continue reading chapter 5-7",
		status:      entities.TaskStatusInProgress,
		priority:    entities.PriorityLow,
		category:    "Learning",
		due:         14 * day,
	},
}

// Run creates the demo data. Nothing is written when any user already exists.
// Due dates are relative to now.
func Run(ctx context.Context, svc Services, now time.Time) (*Result, error) {
	count, err := svc.Store.Users().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return &Result{Skipped: true}, nil
	}

	user, err := svc.Auth.Register(ctx, ports.RegisterRequest{
		Username: DemoUsername,
		Email:    DemoEmail,
		Password: DemoPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}
	result := &Result{User: user}

	categoryIDs := make(map[string]int64, len(categorySeeds))
	for _, c := range categorySeeds {
		description := c.description
		category, err := svc.Categories.CreateCategory(ctx, user.ID, ports.CreateCategoryRequest{
			Name:        c.name,
			Description: &description,
			Color:       c.color,
		})
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", c.name, err)
		}
		categoryIDs[c.name] = category.ID
		result.Categories++
	}

	tagIDs := make(map[string]int64, len(tagSeeds))
	for _, t := range tagSeeds {
		tag, err := svc.Tags.CreateTag(ctx, user.ID, ports.CreateTagRequest{Name: t.name, Color: t.color})
		if err != nil {
			return nil, fmt.Errorf("create tag %q: %w", t.name, err)
		}
		tagIDs[t.name] = tag.ID
		result.Tags++
	}

	for _, t := range taskSeeds {
		description := t.description
		due := now.Add(t.due)
		categoryID := categoryIDs[t.category]

		ids := make([]int64, 0, len(t.tags))
		for _, name := range t.tags {
			ids = append(ids, tagIDs[name])
		}

		_, err := svc.Tasks.CreateTask(ctx, user.ID, ports.CreateTaskRequest{
			Title:       t.title,
			Description: &description,
			Status:      t.status,
			Priority:    t.priority,
			DueDate:     &due,
			CategoryID:  &categoryID,
			TagIDs:      ids,
		})
		if err != nil {
			return nil, fmt.Errorf("create task %q: %w", t.title, err)
		}
		result.Tasks++
	}

	return result, nil
}
