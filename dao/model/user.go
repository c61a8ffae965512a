package model

import (
	"gorm.io/gorm"
)

// User is the basic entity of the system
type User struct {
	gorm.Model
	Name     string  `gorm:"type:varchar(64);not null" json:"name"`
	Email    string  `gorm:"uniqueIndex;type:varchar(128);not null" json:"email"`
	Password *string `gorm:"type:varchar(256)" json:"-"`
	Role     Role    `gorm:"index:role;type:varchar(16);not null" json:"role"`
	Avatar   *string `gorm:"type:varchar(512)" json:"avatar,omitempty"`

	Memberships []ProjectMember `json:"-"`
}

// UserInfo is the nested shape other resources embed when a related
// user is explicitly loaded.
type UserInfo struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   Role    `json:"role"`
	Avatar *string `json:"avatar,omitempty"`
}

func (u *User) Info() UserInfo {
	return UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: u.Avatar,
	}
}
