package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Equipment is a standalone lookup registry, optionally referenced by
// tasks of type equipmentId.
type Equipment struct {
	gorm.Model
	Name          string          `gorm:"type:varchar(128);not null" json:"name"`
	Code          string          `gorm:"uniqueIndex;type:varchar(64);not null" json:"code"`
	SerialNumber  *string         `gorm:"type:varchar(128)" json:"serial_number,omitempty"`
	EquipmentType string          `gorm:"type:varchar(64)" json:"equipment_type"`
	Status        EquipmentStatus `gorm:"type:varchar(16);not null" json:"status"`
	Location      *string         `gorm:"type:varchar(128)" json:"location,omitempty"`

	Specifications datatypes.JSONMap `json:"specifications"`
}
