package model

import "gorm.io/gorm"

// Customer is a standalone lookup registry, optionally referenced by
// tasks of type customerName.
type Customer struct {
	gorm.Model
	Name    string  `gorm:"type:varchar(128);not null" json:"name"`
	Company *string `gorm:"type:varchar(128)" json:"company,omitempty"`
	Email   *string `gorm:"type:varchar(128)" json:"email,omitempty"`
	Phone   *string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Address *string `gorm:"type:varchar(256)" json:"address,omitempty"`
	Notes   *string `gorm:"type:text" json:"notes,omitempty"`
}
