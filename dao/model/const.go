package model

// Role is the platform-wide role of a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleDesigner  Role = "designer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleDesigner:
		return true
	}
	return false
}

// PivotRole is the role a user holds inside one project's team,
// independent of the platform role.
type PivotRole string

const (
	PivotMember  PivotRole = "member"
	PivotManager PivotRole = "manager"
)

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectPlanning  ProjectStatus = "planning"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on-hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectPlanning, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

// Priority applies to both projects and tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities for display, urgent first. Unrecognized
// values sort after every known priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	}
	return 5
}

// TaskType categorizes a task. The equipmentId and customerName types
// additionally require the matching foreign reference on the task.
type TaskType string

const (
	TaskGeneral   TaskType = "general"
	TaskEquipment TaskType = "equipmentId"
	TaskCustomer  TaskType = "customerName"
	TaskFeature   TaskType = "feature"
	TaskBug       TaskType = "bug"
	TaskDesign    TaskType = "design"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskGeneral, TaskEquipment, TaskCustomer, TaskFeature, TaskBug, TaskDesign:
		return true
	}
	return false
}

// ProgressStatus is a read-only classification of a task derived from
// its list membership and due date. Never stored.
type ProgressStatus string

const (
	ProgressCompleted  ProgressStatus = "completed"
	ProgressOverdue    ProgressStatus = "overdue"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressPending    ProgressStatus = "pending"
)

// EquipmentStatus is the operational state of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentOperational EquipmentStatus = "operational"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentRetired     EquipmentStatus = "retired"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentOperational, EquipmentMaintenance, EquipmentRetired:
		return true
	}
	return false
}
