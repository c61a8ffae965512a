package model

import (
	"gorm.io/gorm"
)

type TaskList struct {
	gorm.Model
	ProjectID   uint    `gorm:"not null;index" json:"project_id"`
	Name        string  `gorm:"type:varchar(64);not null" json:"name"`
	Description *string `gorm:"type:varchar(512)" json:"description,omitempty"`
	Color       string  `gorm:"type:varchar(32);not null" json:"color"`
	Order       int     `gorm:"column:sort_order;not null" json:"order"`
	// IsTerminal marks the list that represents completion. Derived
	// fields (completed counts, overdue checks) test this flag instead
	// of matching the list name, so renaming a list does not change
	// completion semantics.
	IsTerminal bool `gorm:"not null;default:false" json:"is_terminal"`

	Tasks []Task `gorm:"constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

// ColorInfo is the display mapping of a palette token.
type ColorInfo struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// palette is the fixed set of recognized color tokens.
var palette = map[string]ColorInfo{
	"gray":   {Name: "Gray", Hex: "#6b7280"},
	"red":    {Name: "Red", Hex: "#ef4444"},
	"yellow": {Name: "Yellow", Hex: "#eab308"},
	"green":  {Name: "Green", Hex: "#22c55e"},
	"blue":   {Name: "Blue", Hex: "#3b82f6"},
	"indigo": {Name: "Indigo", Hex: "#6366f1"},
	"purple": {Name: "Purple", Hex: "#a855f7"},
	"pink":   {Name: "Pink", Hex: "#ec4899"},
}

// KnownColor reports whether the token is in the palette.
func KnownColor(token string) bool {
	_, ok := palette[token]
	return ok
}

// DisplayColor resolves a palette token to its display mapping.
// Unrecognized tokens fall back to a neutral default instead of
// failing, so new palette entries can ship frontend-first.
func DisplayColor(token string) ColorInfo {
	if info, ok := palette[token]; ok {
		return info
	}
	return ColorInfo{Name: "Default", Hex: "#f3f4f6"}
}

// DefaultTaskList describes one of the four lists provisioned with
// every new project.
type DefaultTaskList struct {
	Name       string
	Color      string
	Order      int
	IsTerminal bool
}

// DefaultTaskLists is the starter board created for every project, in
// order. The terminal "Done" list anchors completion semantics.
func DefaultTaskLists() []DefaultTaskList {
	return []DefaultTaskList{
		{Name: "To Do", Color: "gray", Order: 1},
		{Name: "In Progress", Color: "blue", Order: 2},
		{Name: "Review", Color: "yellow", Order: 3},
		{Name: "Done", Color: "green", Order: 4, IsTerminal: true},
	}
}
