package db

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
)

// Task status filters
const (
	StatusTodo = "todo"
	StatusDone = "done"
)

// ErrTaskNotFound is returned when a task id does not exist or is deleted
var ErrTaskNotFound = errors.New("task not found")

// CreateTaskRequest holds the data needed to create a new task
type CreateTaskRequest struct {
	Title            string
	Tags             []string
	Priority         string // can be "low/medium/high" or "1/2/3" or empty for no priority
	Domain           string // "domain" or "domain/subdomain"
	DueDate          *time.Time
	StartDate        *time.Time
	StartTime        string // HH:MM
	EndTime          string // HH:MM
	EstimatedMinutes int
	Note             string
	SubTasks         []string
}

// TaskPatch is a partial update; nil fields are left untouched
type TaskPatch struct {
	Title            *string
	Priority         *string
	Tags             *[]string
	Domain           *string // empty string clears the domain
	DueDate          *time.Time
	ClearDue         bool
	StartDate        *time.Time
	ClearStartDate   bool
	StartTime        *string // empty string clears
	EndTime          *string // empty string clears
	EstimatedMinutes *int
	Note             *string
	Completed        *bool
}

// TaskQueryOptions filters and orders task listings
type TaskQueryOptions struct {
	Status   string   // todo, done or empty for all
	Tags     []string // tasks carrying any of the tags
	Domain   string   // domain path; a top-level domain includes its sub-domains
	Priority string
	DueOn    *time.Time // tasks due on that calendar day
	OrderBy  string     // e.g. "priority DESC", "due ASC"
	Limit    int
}

// CreateTask creates a new task with tags, domain and sub-tasks
func CreateTask(req CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.New("task title is required")
	}

	priority, err := parser.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	startTime, endTime, err := normalizeTimeBlock(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if req.EstimatedMinutes < 0 {
		return nil, fmt.Errorf("estimated duration must not be negative")
	}

	task := models.Task{
		Title:            title,
		Priority:         priority,
		Due:              req.DueDate,
		StartDate:        req.StartDate,
		StartTime:        startTime,
		EndTime:          endTime,
		EstimatedMinutes: req.EstimatedMinutes,
		Note:             req.Note,
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		// Process tags
		if len(req.Tags) > 0 {
			tags, err := findOrCreateTags(tx, req.Tags)
			if err != nil {
				return err
			}
			task.Tags = tags
		}

		if req.Domain != "" {
			domain, err := findOrCreateDomain(tx, req.Domain)
			if err != nil {
				return err
			}
			task.DomainID = &domain.ID
		}

		for i, st := range req.SubTasks {
			st = strings.TrimSpace(st)
			if st == "" {
				continue
			}
			task.SubTasks = append(task.SubTasks, models.SubTask{Title: st, Position: i})
		}
		renumber(task.SubTasks)

		return tx.Create(&task).Error
	})
	if err != nil {
		return nil, err
	}

	return GetTaskByID(task.ID)
}

// GetTaskByID retrieves a task by ID with all relationships
func GetTaskByID(id uint) (*models.Task, error) {
	var task models.Task

	err := withRelations(DB).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task #%d: %w", id, ErrTaskNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// GetTasks retrieves tasks with optional filters
func GetTasks(opts TaskQueryOptions) ([]models.Task, error) {
	q, err := buildTaskQuery(opts)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return []models.Task{}, nil
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var tasks []models.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// SearchTasks matches query case-insensitively against title, notes, tags,
// domain and priority. Results rank exact matches first, then prefix,
// suffix and finally substring matches.
func SearchTasks(query string, opts TaskQueryOptions) ([]models.Task, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	limit := opts.Limit
	opts.Limit = 0

	tasks, err := GetTasks(opts)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return tasks, nil
	}

	type scored struct {
		task  models.Task
		score int
	}
	var matches []scored
	for _, task := range tasks {
		if s := matchScore(task, query); s > 0 {
			matches = append(matches, scored{task: task, score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]models.Task, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.task)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// matchScore returns 4 for exact, 3 prefix, 2 suffix, 1 contains, 0 none
func matchScore(task models.Task, query string) int {
	fields := []string{task.Title, task.Note, task.PriorityLabel(), task.Domain.Path()}
	fields = append(fields, task.TagNames()...)

	best := 0
	for _, f := range fields {
		f = strings.ToLower(f)
		if f == "" {
			continue
		}
		score := 0
		switch {
		case f == query:
			score = 4
		case strings.HasPrefix(f, query):
			score = 3
		case strings.HasSuffix(f, query):
			score = 2
		case strings.Contains(f, query):
			score = 1
		}
		if score > best {
			best = score
		}
	}
	return best
}

// UpdateTask applies a partial update and returns the fresh task
func UpdateTask(id uint, patch TaskPatch) (*models.Task, error) {
	task, err := GetTaskByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, errors.New("task title must not be empty")
		}
		updates["title"] = title
	}
	if patch.Priority != nil {
		p, err := parser.ParsePriority(*patch.Priority)
		if err != nil {
			return nil, err
		}
		updates["priority"] = p
	}
	if patch.ClearDue {
		updates["due"] = nil
	} else if patch.DueDate != nil {
		updates["due"] = *patch.DueDate
	}
	if patch.ClearStartDate {
		updates["start_date"] = nil
	} else if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	if patch.StartTime != nil || patch.EndTime != nil {
		start, end := task.StartTime, task.EndTime
		if patch.StartTime != nil {
			start = *patch.StartTime
		}
		if patch.EndTime != nil {
			end = *patch.EndTime
		}
		start, end, err = normalizeTimeBlock(start, end)
		if err != nil {
			return nil, err
		}
		updates["start_time"] = start
		updates["end_time"] = end
	}
	if patch.EstimatedMinutes != nil {
		if *patch.EstimatedMinutes < 0 {
			return nil, errors.New("estimated duration must not be negative")
		}
		updates["estimated_minutes"] = *patch.EstimatedMinutes
	}
	if patch.Note != nil {
		updates["note"] = *patch.Note
	}
	if patch.Completed != nil && *patch.Completed != task.Completed {
		updates["completed"] = *patch.Completed
		if *patch.Completed {
			updates["completed_at"] = time.Now()
		} else {
			updates["completed_at"] = nil
		}
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		if patch.Domain != nil {
			if *patch.Domain == "" {
				updates["domain_id"] = nil
			} else {
				domain, err := findOrCreateDomain(tx, *patch.Domain)
				if err != nil {
					return err
				}
				updates["domain_id"] = domain.ID
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Task{ID: id}).Updates(updates).Error; err != nil {
				return err
			}
		}

		if patch.Tags != nil {
			tags, err := findOrCreateTags(tx, *patch.Tags)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.Task{ID: id}).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetTaskByID(id)
}

// MarkTaskDone marks a task as completed
func MarkTaskDone(taskID uint) (*models.Task, error) {
	task, err := GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return nil, fmt.Errorf("task #%d is already completed", taskID)
	}

	done := true
	return UpdateTask(taskID, TaskPatch{Completed: &done})
}

// MarkTaskUndone moves a completed task back to todo
func MarkTaskUndone(taskID uint) (*models.Task, error) {
	task, err := GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if !task.Completed {
		return nil, fmt.Errorf("task #%d is not completed", taskID)
	}

	done := false
	return UpdateTask(taskID, TaskPatch{Completed: &done})
}

// DeleteTask soft-deletes a task; it disappears from every listing
func DeleteTask(taskID uint) (*models.Task, error) {
	task, err := GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if err := DB.Delete(&models.Task{}, taskID).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// RestoreTask brings back a soft-deleted task
func RestoreTask(taskID uint) (*models.Task, error) {
	result := DB.Unscoped().Model(&models.Task{}).
		Where("id = ? AND deleted_at IS NOT NULL", taskID).
		Update("deleted_at", nil)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("task #%d is not deleted: %w", taskID, ErrTaskNotFound)
	}
	return GetTaskByID(taskID)
}

// GetDeletedTasks lists soft-deleted tasks, most recently deleted first
func GetDeletedTasks() ([]models.Task, error) {
	var tasks []models.Task
	err := DB.Unscoped().Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// CountTasks returns the number of live tasks and completed ones
func CountTasks() (total, completed int64, err error) {
	if err = DB.Model(&models.Task{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = DB.Model(&models.Task{}).Where("completed = ?", true).Count(&completed).Error
	return total, completed, err
}

func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Tags").
		Preload("Domain.Parent").
		Preload("SubTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// buildTaskQuery returns nil when the filters cannot match anything
func buildTaskQuery(opts TaskQueryOptions) (*gorm.DB, error) {
	q := withRelations(DB.Model(&models.Task{}))

	switch opts.Status {
	case "":
	case StatusTodo:
		q = q.Where("tasks.completed = ?", false)
	case StatusDone:
		q = q.Where("tasks.completed = ?", true)
	default:
		return nil, fmt.Errorf("unknown status %q (use todo or done)", opts.Status)
	}

	if opts.Priority != "" {
		p, err := parser.ParsePriority(opts.Priority)
		if err != nil {
			return nil, err
		}
		q = q.Where("tasks.priority = ?", p)
	}

	if len(opts.Tags) > 0 {
		tagged := DB.Table("task_tags").
			Select("task_tags.task_id").
			Joins("JOIN tags ON tags.id = task_tags.tag_id").
			Where("tags.name IN ?", opts.Tags)
		q = q.Where("tasks.id IN (?)", tagged)
	}

	if opts.Domain != "" {
		ids, err := domainIDs(opts.Domain)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		q = q.Where("tasks.domain_id IN ?", ids)
	}

	if opts.DueOn != nil {
		d := *opts.DueOn
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		q = q.Where("tasks.due >= ? AND tasks.due < ?", start, start.AddDate(0, 0, 1))
	}

	order, err := parseOrder(opts.OrderBy)
	if err != nil {
		return nil, err
	}
	return q.Order(order), nil
}

var orderColumns = map[string]string{
	"id":         "tasks.id",
	"title":      "tasks.title",
	"priority":   "tasks.priority",
	"due":        "tasks.due",
	"created_at": "tasks.created_at",
	"updated_at": "tasks.updated_at",
	"completed":  "tasks.completed",
}

// parseOrder turns "priority desc" into a safe ORDER BY clause
func parseOrder(orderBy string) (string, error) {
	fields := strings.Fields(strings.ToLower(orderBy))
	if len(fields) == 0 {
		return "tasks.completed ASC, tasks.id ASC", nil
	}
	column, ok := orderColumns[fields[0]]
	if !ok {
		return "", fmt.Errorf("cannot order by %q", fields[0])
	}
	dir := "ASC"
	if len(fields) > 1 {
		switch fields[1] {
		case "asc":
		case "desc":
			dir = "DESC"
		default:
			return "", fmt.Errorf("invalid order direction %q", fields[1])
		}
	}
	return column + " " + dir + ", tasks.id ASC", nil
}

// findOrCreateTags finds existing tags or creates new ones
func findOrCreateTags(tx *gorm.DB, tagNames []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := make(map[string]bool)

	for _, name := range tagNames {
		name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Tag doesn't exist, create it
			tag = models.Tag{Name: name}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		tags = append(tags, tag)
	}

	return tags, nil
}

// findOrCreateDomain resolves a "domain[/subdomain]" path, creating the
// missing nodes
func findOrCreateDomain(tx *gorm.DB, path string) (*models.Domain, error) {
	name, sub, err := parser.ParseDomainPath(path)
	if err != nil {
		return nil, err
	}

	parent, err := findOrCreateDomainNode(tx, name, nil)
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return parent, nil
	}
	return findOrCreateDomainNode(tx, sub, &parent.ID)
}

func findOrCreateDomainNode(tx *gorm.DB, name string, parentID *uint) (*models.Domain, error) {
	var domain models.Domain
	q := tx.Where("name = ?", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	err := q.First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		domain = models.Domain{Name: name, ParentID: parentID}
		if err := tx.Create(&domain).Error; err != nil {
			return nil, err
		}
		return &domain, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// domainIDs resolves a filter path to the matching domain ids
func domainIDs(path string) ([]uint, error) {
	name, sub, err := parser.ParseDomainPath(path)
	if err != nil {
		return nil, err
	}

	var top models.Domain
	err = DB.Where("name = ? AND parent_id IS NULL", name).First(&top).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sub != "" {
		var child models.Domain
		err := DB.Where("name = ? AND parent_id = ?", sub, top.ID).First(&child).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []uint{child.ID}, nil
	}

	ids := []uint{top.ID}
	var children []uint
	if err := DB.Model(&models.Domain{}).Where("parent_id = ?", top.ID).Pluck("id", &children).Error; err != nil {
		return nil, err
	}
	return append(ids, children...), nil
}

// GetDomains lists every domain with its parent loaded
func GetDomains() ([]models.Domain, error) {
	var domains []models.Domain
	err := DB.Preload("Parent").Order("name ASC").Find(&domains).Error
	return domains, err
}

func normalizeTimeBlock(start, end string) (string, string, error) {
	var err error
	if start != "" {
		if start, err = parser.ParseClock(start); err != nil {
			return "", "", fmt.Errorf("invalid start time: %w", err)
		}
	}
	if end != "" {
		if end, err = parser.ParseClock(end); err != nil {
			return "", "", fmt.Errorf("invalid end time: %w", err)
		}
	}
	// HH:MM strings compare in time order
	if start != "" && end != "" && end <= start {
		return "", "", fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return start, end, nil
}

// GetTasksDueBetween returns live tasks due on any day from..to inclusive,
// earliest first
func GetTasksDueBetween(from, to time.Time) ([]models.Task, error) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)

	var tasks []models.Task
	err := withRelations(DB).
		Where("due >= ? AND due < ?", start, end).
		Order("due ASC, id ASC").
		Find(&tasks).Error
	return tasks, err
}
