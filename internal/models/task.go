package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Priority levels stored on Task.Priority
const (
	PriorityNone   = 0
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Task represents a todo item
type Task struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string     `gorm:"not null" json:"title"`
	Priority    int        `gorm:"default:0" json:"priority"` // 0=no priority, 1=low, 2=medium, 3=high
	Completed   bool       `gorm:"default:false;index" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`

	// Scheduling
	Due              *time.Time `json:"due"`
	StartDate        *time.Time `json:"start_date"`
	StartTime        string     `json:"start_time"` // HH:MM
	EndTime          string     `json:"end_time"`   // HH:MM
	EstimatedMinutes int        `json:"estimated_minutes"`

	Note string `json:"note"`

	// Relationships
	DomainID *uint     `gorm:"index" json:"domain_id"`
	Domain   *Domain   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"domain,omitempty"`
	Tags     []Tag     `gorm:"many2many:task_tags;" json:"tags"`
	SubTasks []SubTask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE;" json:"subtasks"`
}

// PriorityLabel returns the human name of the task priority
func (t Task) PriorityLabel() string {
	switch t.Priority {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return ""
	}
}

// TagNames returns the tag names in stored order
func (t Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// SubTaskProgress returns the number of completed sub-tasks and the total
func (t Task) SubTaskProgress() (done, total int) {
	for _, st := range t.SubTasks {
		if st.Completed {
			done++
		}
	}
	return done, len(t.SubTasks)
}

// SubTask is an ordered checklist item inside a task
type SubTask struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TaskID    uint   `gorm:"not null;index" json:"task_id"`
	Title     string `gorm:"not null" json:"title"`
	Completed bool   `gorm:"default:false" json:"completed"`
	Position  int    `gorm:"not null;default:0" json:"position"`
}

// Tag represents a task tag
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`

	// Relationships
	Tasks []Task `gorm:"many2many:task_tags;" json:"-"`
}

// TaskTag is the join table for the many-to-many relationship
type TaskTag struct {
	TaskID uint `gorm:"primaryKey"`
	TagID  uint `gorm:"primaryKey"`
}

// Domain is a node of the two-level task taxonomy. A domain with a
// parent is a sub-domain.
type Domain struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	Name     string  `gorm:"not null;index" json:"name"`
	ParentID *uint   `gorm:"index" json:"parent_id"`
	Parent   *Domain `json:"parent,omitempty"`
}

// Path renders the domain as "domain" or "domain/subdomain"
func (d *Domain) Path() string {
	if d == nil {
		return ""
	}
	if d.Parent != nil {
		return strings.Join([]string{d.Parent.Name, d.Name}, "/")
	}
	return d.Name
}
