package service

import (
	"strings"
	"testing"

	"taskboard/dao/model"
	"taskboard/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommentTrimsContent(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	task := seedTask(t, db, actorFor(manager), todo.ID, "discussed", manager)

	comment, err := createComment(db, actorFor(manager), task.ID, "  looks good  ")
	require.NoError(t, err)
	assert.Equal(t, "looks good", comment.Content)
	assert.Equal(t, manager.ID, comment.UserID)
	require.NotNil(t, comment.User)
	assert.Equal(t, "manager", comment.User.Name)
}

func TestCreateCommentContentBounds(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	task := seedTask(t, db, actorFor(manager), todo.ID, "discussed", manager)
	actor := actorFor(manager)

	var svcErr *Error
	_, err := createComment(db, actor, task.ID, "   ")
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.InvalidRequest, svcErr.Code)

	_, err = createComment(db, actor, task.ID, strings.Repeat("x", model.CommentMaxLen+1))
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.InvalidRequest, svcErr.Code)

	// Exactly at the limit is fine.
	_, err = createComment(db, actor, task.ID, strings.Repeat("x", model.CommentMaxLen))
	assert.NoError(t, err)

	// The limit counts characters, not bytes: a multibyte comment well
	// under the bound must pass even though it exceeds it in bytes.
	comment, err := createComment(db, actor, task.ID, strings.Repeat("中", 4000))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("中", 4000), comment.Content)

	_, err = createComment(db, actor, task.ID, strings.Repeat("中", model.CommentMaxLen+1))
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.InvalidRequest, svcErr.Code)
}

func TestListCommentsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	task := seedTask(t, db, actorFor(manager), todo.ID, "discussed", manager)
	actor := actorFor(manager)

	for _, content := range []string{"first", "second", "third"} {
		_, err := createComment(db, actor, task.ID, content)
		require.NoError(t, err)
	}

	resources, err := listComments(db, actor, task.ID)
	require.NoError(t, err)
	require.Len(t, resources, 3)
	assert.Equal(t, "first", resources[0].Content)
	assert.Equal(t, "second", resources[1].Content)
	assert.Equal(t, "third", resources[2].Content)
}

func TestCommentAuthorization(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	author := seedUser(t, db, "author", model.RoleDeveloper)
	peer := seedUser(t, db, "peer", model.RoleDeveloper)
	outsider := seedUser(t, db, "outsider", model.RoleDeveloper)
	project := seedProject(t, db, creator, manager, author, peer)
	todo := listByName(t, db, project.ID, "To Do")
	task := seedTask(t, db, actorFor(manager), todo.ID, "discussed", author)

	comment, err := createComment(db, actorFor(author), task.ID, "my note")
	require.NoError(t, err)

	var svcErr *Error

	// Outsiders cannot even comment.
	_, err = createComment(db, actorFor(outsider), task.ID, "drive-by")
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.Forbidden, svcErr.Code)

	// A teammate cannot edit someone else's comment.
	_, err = updateComment(db, actorFor(peer), comment.ID, "hijacked")
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.Forbidden, svcErr.Code)

	// The manager cannot edit but can delete.
	_, err = updateComment(db, actorFor(manager), comment.ID, "hijacked")
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.Forbidden, svcErr.Code)

	updated, err := updateComment(db, actorFor(author), comment.ID, "revised note")
	require.NoError(t, err)
	assert.Equal(t, "revised note", updated.Content)

	err = deleteComment(db, actorFor(peer), comment.ID)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.Forbidden, svcErr.Code)

	require.NoError(t, deleteComment(db, actorFor(manager), comment.ID))
	var count int64
	require.NoError(t, db.Model(&model.Comment{}).Where("id = ?", comment.ID).Count(&count).Error)
	assert.Zero(t, count)
}
