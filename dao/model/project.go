package model

import (
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectSettings is the structured per-project configuration blob.
type ProjectSettings struct {
	EnableGeneralTasks   bool `json:"enable_general_tasks"`
	EnableEquipmentTasks bool `json:"enable_equipment_tasks"`
	EnableCustomerTasks  bool `json:"enable_customer_tasks"`
	AllowFileUploads     bool `json:"allow_file_uploads"`
	RequireApproval      bool `json:"require_approval"`
	TimeTracking         bool `json:"time_tracking"`
	Public               bool `json:"public"`
}

// DefaultProjectSettings applies when a project is created without an
// explicit settings object.
func DefaultProjectSettings() ProjectSettings {
	return ProjectSettings{
		EnableGeneralTasks:   true,
		EnableEquipmentTasks: true,
		EnableCustomerTasks:  true,
		AllowFileUploads:     true,
		RequireApproval:      false,
		TimeTracking:         false,
		Public:               false,
	}
}

type Project struct {
	gorm.Model
	Name        string        `gorm:"type:varchar(128);not null" json:"name"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Status      ProjectStatus `gorm:"index:status;type:varchar(16);not null" json:"status"`
	Priority    Priority      `gorm:"type:varchar(16);not null" json:"priority"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Budget      *float64      `gorm:"type:decimal(12,2)" json:"budget,omitempty"`
	Client      string        `gorm:"type:varchar(128)" json:"client"`

	Objectives   datatypes.JSONSlice[string] `json:"objectives"`
	Deliverables datatypes.JSONSlice[string] `json:"deliverables"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`

	Settings datatypes.JSONType[ProjectSettings] `json:"settings"`

	CreatedBy        uint `gorm:"not null" json:"created_by"`
	ProjectManagerID uint `gorm:"not null" json:"project_manager_id"`

	Creator        *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	ProjectManager *User `gorm:"foreignKey:ProjectManagerID" json:"project_manager,omitempty"`

	Members   []ProjectMember `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	TaskLists []TaskList      `gorm:"constraint:OnDelete:CASCADE" json:"task_lists,omitempty"`
	Tasks     []Task          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ProjectMember is the team pivot: one user's membership in one
// project, carrying the per-project role.
type ProjectMember struct {
	gorm.Model
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_project_user" json:"user_id"`
	Role      PivotRole `gorm:"type:varchar(16);not null" json:"role"`

	User *User `json:"user,omitempty"`
}

// ProgressPercentage computes completed/total as a percentage rounded
// to one decimal. Zero when there are no tasks, guarding the division.
func ProgressPercentage(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}
