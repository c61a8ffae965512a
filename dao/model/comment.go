package model

import "gorm.io/gorm"

const (
	CommentMinLen = 1
	CommentMaxLen = 10000
)

type Comment struct {
	gorm.Model
	TaskID  uint   `gorm:"not null;index" json:"task_id"`
	UserID  uint   `gorm:"not null" json:"user_id"`
	Content string `gorm:"type:text;not null" json:"content"`

	User *User `json:"user,omitempty"`
	Task *Task `json:"-"`
}
