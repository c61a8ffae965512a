package model

import (
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Task struct {
	gorm.Model
	ProjectID  uint `gorm:"not null;index" json:"project_id"`
	TaskListID uint `gorm:"not null;index" json:"task_list_id"`

	Title       string   `gorm:"type:varchar(256);not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Priority    Priority `gorm:"type:varchar(16);not null" json:"priority"`
	TaskType    TaskType `gorm:"type:varchar(32);not null" json:"task_type"`

	AssignedTo uint `gorm:"not null" json:"assigned_to_id"`
	CreatedBy  uint `gorm:"not null" json:"created_by"`

	StartDate      *time.Time `json:"start_date,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours *int       `json:"estimated_hours,omitempty"`
	ActualHours    *int       `json:"actual_hours,omitempty"`

	Tags     datatypes.JSONSlice[string] `json:"tags"`
	Feedback *string                     `gorm:"type:text" json:"feedback,omitempty"`

	EquipmentID *uint `json:"equipment_id,omitempty"`
	CustomerID  *uint `json:"customer_id,omitempty"`

	TaskList  TaskList   `json:"-"`
	Assignee  *User      `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Creator   *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Equipment *Equipment `json:"equipment,omitempty"`
	Customer  *Customer  `json:"customer,omitempty"`
}

// Status is the task's visible status: always the name of the owning
// list, never stored. Requires TaskList to be loaded.
func (t *Task) Status() string {
	return t.TaskList.Name
}

// IsOverdue reports whether the due date has passed and the task has
// not reached the terminal list. Tasks without a due date are never
// overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.TaskList.IsTerminal {
		return false
	}
	return t.DueDate.Before(now)
}

// Progress classifies the task for dashboards: completed beats
// overdue beats in_progress beats pending.
func (t *Task) Progress(now time.Time) ProgressStatus {
	switch {
	case t.TaskList.IsTerminal:
		return ProgressCompleted
	case t.IsOverdue(now):
		return ProgressOverdue
	case t.TaskList.Name == "In Progress":
		return ProgressInProgress
	}
	return ProgressPending
}

// SortTasks orders tasks by priority rank (urgent first), ties broken
// by title. Every read path that returns a task collection must use
// this, so a list and the full project tree agree on ordering.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return tasks[i].Title < tasks[j].Title
	})
}
