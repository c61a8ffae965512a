package model

import "gorm.io/gorm"

// AttachableType is the kind of record an attachment belongs to. Only
// tasks and comments can own attachments.
type AttachableType string

const (
	AttachableTask    AttachableType = "task"
	AttachableComment AttachableType = "comment"
)

// Owner is a checked (type, id) pair naming the record an attachment
// belongs to. Build it through TaskOwner/CommentOwner so an unknown
// type can never reach the database.
type Owner struct {
	Type AttachableType
	ID   uint
}

func TaskOwner(id uint) Owner    { return Owner{Type: AttachableTask, ID: id} }
func CommentOwner(id uint) Owner { return Owner{Type: AttachableComment, ID: id} }

type Attachment struct {
	gorm.Model
	AttachableType AttachableType `gorm:"type:varchar(16);not null;index:idx_attachable" json:"attachable_type"`
	AttachableID   uint           `gorm:"not null;index:idx_attachable" json:"attachable_id"`

	// Filename is the generated on-disk name; OriginalFilename is
	// what the uploader called it, kept for display only.
	Filename         string `gorm:"type:varchar(128);not null" json:"filename"`
	OriginalFilename string `gorm:"type:varchar(256);not null" json:"original_filename"`
	Path             string `gorm:"type:varchar(512);not null" json:"path"`
	MimeType         string `gorm:"type:varchar(128);not null" json:"mime_type"`
	Size             int64  `gorm:"not null" json:"size"`

	UploadedBy uint  `gorm:"not null" json:"uploaded_by"`
	Uploader   *User `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

// OwnerRef reconstructs the owner pair from the stored columns.
func (a *Attachment) OwnerRef() Owner {
	return Owner{Type: a.AttachableType, ID: a.AttachableID}
}
