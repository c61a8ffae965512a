package service

import (
	"testing"

	"taskboard/dao/model"
	"taskboard/util"

	"github.com/stretchr/testify/assert"
)

func policyProject() *model.Project {
	p := &model.Project{
		CreatedBy:        1,
		ProjectManagerID: 2,
		Members: []model.ProjectMember{
			{UserID: 2, Role: model.PivotManager},
			{UserID: 3, Role: model.PivotMember},
			{UserID: 4, Role: model.PivotManager},
		},
	}
	p.ID = 10
	return p
}

func actor(id uint, role model.Role) util.JWTMessage {
	return util.JWTMessage{UserID: id, Name: "u", Role: role}
}

func TestResolveCapabilities(t *testing.T) {
	project := policyProject()

	caps := ResolveCapabilities(actor(2, model.RoleManager), project)
	assert.True(t, caps.IsManager)
	assert.True(t, caps.IsTeamMember)
	assert.True(t, caps.IsPivotManager)
	assert.False(t, caps.IsCreator)
	assert.False(t, caps.IsAdmin)

	caps = ResolveCapabilities(actor(3, model.RoleDeveloper), project)
	assert.True(t, caps.IsTeamMember)
	assert.False(t, caps.IsPivotManager)

	caps = ResolveCapabilities(actor(1, model.RoleDeveloper), project)
	assert.True(t, caps.IsCreator)
	assert.False(t, caps.IsTeamMember)

	caps = ResolveCapabilities(actor(99, model.RoleAdmin), project)
	assert.True(t, caps.IsAdmin)
	assert.False(t, caps.IsTeamMember)
}

func TestProjectPredicates(t *testing.T) {
	project := policyProject()

	tests := []struct {
		name      string
		actor     util.JWTMessage
		canView   bool
		canUpdate bool
		canDelete bool
	}{
		{"creator", actor(1, model.RoleDeveloper), true, true, true},
		{"project manager", actor(2, model.RoleDeveloper), true, true, false},
		{"plain member", actor(3, model.RoleDeveloper), true, false, false},
		{"pivot manager", actor(4, model.RoleDeveloper), true, true, false},
		{"outsider", actor(50, model.RoleDesigner), false, false, false},
		{"admin outsider", actor(99, model.RoleAdmin), true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := ResolveCapabilities(tt.actor, project)
			assert.Equal(t, tt.canView, caps.CanViewProject(), "view")
			assert.Equal(t, tt.canUpdate, caps.CanUpdateProject(), "update")
			assert.Equal(t, tt.canDelete, caps.CanDeleteProject(), "delete")
		})
	}
}

func TestTaskPredicates(t *testing.T) {
	project := policyProject()
	task := &model.Task{AssignedTo: 3, CreatedBy: 5}

	tests := []struct {
		name      string
		actor     util.JWTMessage
		canUpdate bool
		canDelete bool
	}{
		{"assignee", actor(3, model.RoleDeveloper), true, false},
		{"task creator", actor(5, model.RoleDeveloper), true, true},
		{"project manager", actor(2, model.RoleDeveloper), true, true},
		{"project creator", actor(1, model.RoleDeveloper), true, true},
		{"pivot manager", actor(4, model.RoleDeveloper), true, false},
		{"uninvolved member", actor(6, model.RoleDeveloper), false, false},
		{"admin", actor(99, model.RoleAdmin), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := ResolveCapabilities(tt.actor, project)
			assert.Equal(t, tt.canUpdate, caps.CanUpdateTask(tt.actor, task), "update")
			assert.Equal(t, tt.canDelete, caps.CanDeleteTask(tt.actor, task), "delete")
		})
	}
}

func TestCommentPredicates(t *testing.T) {
	project := policyProject()
	comment := &model.Comment{UserID: 3}

	author := actor(3, model.RoleDeveloper)
	caps := ResolveCapabilities(author, project)
	assert.True(t, caps.CanUpdateComment(author, comment))
	assert.True(t, caps.CanDeleteComment(author, comment))

	manager := actor(2, model.RoleDeveloper)
	caps = ResolveCapabilities(manager, project)
	assert.False(t, caps.CanUpdateComment(manager, comment))
	assert.True(t, caps.CanDeleteComment(manager, comment))

	bystander := actor(7, model.RoleDeveloper)
	caps = ResolveCapabilities(bystander, project)
	assert.False(t, caps.CanUpdateComment(bystander, comment))
	assert.False(t, caps.CanDeleteComment(bystander, comment))

	admin := actor(99, model.RoleAdmin)
	caps = ResolveCapabilities(admin, project)
	assert.True(t, caps.CanUpdateComment(admin, comment))
	assert.True(t, caps.CanDeleteComment(admin, comment))
}

func TestAttachmentPredicates(t *testing.T) {
	project := policyProject()
	att := &model.Attachment{UploadedBy: 3}

	uploader := actor(3, model.RoleDeveloper)
	assert.True(t, ResolveCapabilities(uploader, project).CanDeleteAttachment(uploader, att))

	manager := actor(2, model.RoleDeveloper)
	assert.True(t, ResolveCapabilities(manager, project).CanDeleteAttachment(manager, att))

	bystander := actor(7, model.RoleDeveloper)
	assert.False(t, ResolveCapabilities(bystander, project).CanDeleteAttachment(bystander, att))
}
