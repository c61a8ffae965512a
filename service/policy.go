package service

import (
	"taskboard/dao/model"
	"taskboard/util"
)

// Capabilities is the actor's resolved relationship to one project.
// Every per-entity predicate composes from this one resolution, so
// the "admin OR creator OR manager" checks cannot drift between
// entities.
type Capabilities struct {
	IsAdmin        bool
	IsCreator      bool
	IsManager      bool
	IsTeamMember   bool
	IsPivotManager bool
}

// ResolveCapabilities evaluates the actor against a project and its
// membership. The project's Members relation must be loaded.
func ResolveCapabilities(actor util.JWTMessage, project *model.Project) Capabilities {
	caps := Capabilities{
		IsAdmin:   actor.Role == model.RoleAdmin,
		IsCreator: project.CreatedBy == actor.UserID,
		IsManager: project.ProjectManagerID == actor.UserID,
	}
	for i := range project.Members {
		if project.Members[i].UserID != actor.UserID {
			continue
		}
		caps.IsTeamMember = true
		if project.Members[i].Role == model.PivotManager {
			caps.IsPivotManager = true
		}
	}
	return caps
}

// CanViewProject: team member OR creator OR manager; admin override.
func (caps Capabilities) CanViewProject() bool {
	return caps.IsAdmin || caps.IsTeamMember || caps.IsCreator || caps.IsManager
}

// CanUpdateProject: creator OR manager OR admin OR team pivot manager.
// Task lists share this predicate for all their mutations.
func (caps Capabilities) CanUpdateProject() bool {
	return caps.IsAdmin || caps.IsCreator || caps.IsManager || caps.IsPivotManager
}

// CanDeleteProject: creator OR admin.
func (caps Capabilities) CanDeleteProject() bool {
	return caps.IsAdmin || caps.IsCreator
}

// CanUpdateTask: assignee OR task creator OR project manager OR
// project creator OR admin OR team pivot manager.
func (caps Capabilities) CanUpdateTask(actor util.JWTMessage, task *model.Task) bool {
	return caps.IsAdmin || caps.IsManager || caps.IsCreator || caps.IsPivotManager ||
		task.AssignedTo == actor.UserID || task.CreatedBy == actor.UserID
}

// CanDeleteTask: task creator OR project manager OR project creator OR admin.
func (caps Capabilities) CanDeleteTask(actor util.JWTMessage, task *model.Task) bool {
	return caps.IsAdmin || caps.IsManager || caps.IsCreator || task.CreatedBy == actor.UserID
}

// CanUpdateComment: author OR admin.
func (caps Capabilities) CanUpdateComment(actor util.JWTMessage, comment *model.Comment) bool {
	return caps.IsAdmin || comment.UserID == actor.UserID
}

// CanDeleteComment: author OR admin OR project manager OR project creator.
func (caps Capabilities) CanDeleteComment(actor util.JWTMessage, comment *model.Comment) bool {
	return caps.IsAdmin || caps.IsManager || caps.IsCreator || comment.UserID == actor.UserID
}

// CanDeleteAttachment: uploader OR admin OR project manager/creator of
// the owning task (or owning comment's task).
func (caps Capabilities) CanDeleteAttachment(actor util.JWTMessage, attachment *model.Attachment) bool {
	return caps.IsAdmin || caps.IsManager || caps.IsCreator || attachment.UploadedBy == actor.UserID
}
