package service

import (
	"testing"
	"time"

	"taskboard/dao/model"
	"taskboard/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestCreateTaskDefaults(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	inProgress := listByName(t, db, project.ID, "In Progress")

	task, err := createTask(db, actorFor(manager), inProgress.ID, &CreateTaskReq{
		Title:      "wire the API",
		AssignedTo: manager.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, model.TaskGeneral, task.TaskType)
	assert.Equal(t, project.ID, task.ProjectID)
	assert.Equal(t, task.ProjectID, task.TaskList.ProjectID)
	assert.Equal(t, "In Progress", task.Status())

	resources, err := taskResources(db, []model.Task{*task})
	require.NoError(t, err)
	assert.Equal(t, "In Progress", resources[0].Status)
	assert.Equal(t, model.ProgressInProgress, resources[0].ProgressStatus)
	assert.False(t, resources[0].IsOverdue)
	assert.Zero(t, resources[0].CommentsCount)
	assert.Zero(t, resources[0].AttachmentsCount)
}

func TestCreateTaskAssigneeMustBeOnTeam(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	outsider := seedUser(t, db, "outsider", model.RoleDeveloper)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")

	_, err := createTask(db, actorFor(manager), todo.ID, &CreateTaskReq{
		Title:      "orphaned",
		AssignedTo: outsider.ID,
	})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.UserNotInTeam, svcErr.Code)
}

func TestCreateTaskTypeReferences(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	actor := actorFor(manager)

	t.Run("equipment task requires an equipment row", func(t *testing.T) {
		_, err := createTask(db, actor, todo.ID, &CreateTaskReq{
			Title:      "repair",
			TaskType:   model.TaskEquipment,
			AssignedTo: manager.ID,
		})
		var svcErr *Error
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, response.InvalidRequest, svcErr.Code)

		missing := uint(9999)
		_, err = createTask(db, actor, todo.ID, &CreateTaskReq{
			Title:       "repair",
			TaskType:    model.TaskEquipment,
			AssignedTo:  manager.ID,
			EquipmentID: &missing,
		})
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, response.InvalidRequest, svcErr.Code)

		equipment := model.Equipment{Name: "Press", Code: "PR-1", Status: model.EquipmentOperational}
		require.NoError(t, db.Create(&equipment).Error)
		task, err := createTask(db, actor, todo.ID, &CreateTaskReq{
			Title:       "repair",
			TaskType:    model.TaskEquipment,
			AssignedTo:  manager.ID,
			EquipmentID: &equipment.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, equipment.ID, *task.EquipmentID)
	})

	t.Run("customer task requires a customer row", func(t *testing.T) {
		customer := model.Customer{Name: "ACME"}
		require.NoError(t, db.Create(&customer).Error)
		task, err := createTask(db, actor, todo.ID, &CreateTaskReq{
			Title:      "follow up",
			TaskType:   model.TaskCustomer,
			AssignedTo: manager.ID,
			CustomerID: &customer.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, customer.ID, *task.CustomerID)
	})
}

func TestCreateTaskRespectsProjectSettings(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")

	settings := model.DefaultProjectSettings()
	settings.EnableGeneralTasks = false
	require.NoError(t, db.Model(&model.Project{}).Where("id = ?", project.ID).
		Update("settings", datatypes.NewJSONType(settings)).Error)

	_, err := createTask(db, actorFor(manager), todo.ID, &CreateTaskReq{
		Title:      "plain",
		AssignedTo: manager.ID,
	})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.InvalidRequest, svcErr.Code)
}

func TestMoveTaskAcrossLists(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	done := listByName(t, db, project.ID, "Done")

	task := seedTask(t, db, actorFor(manager), todo.ID, "ship", manager)

	moved, err := moveTask(db, actorFor(manager), task.ID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, moved.TaskListID)
	assert.Equal(t, moved.ProjectID, moved.TaskList.ProjectID)
	assert.Equal(t, "Done", moved.Status())
	assert.Equal(t, model.ProgressCompleted, moved.Progress(time.Now()))
}

func TestMoveTaskRejectsForeignList(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	other, err := createProject(db, &CreateProjectReq{
		Name:             "Other",
		Description:      "other",
		ProjectManagerID: manager.ID,
		TeamMembers:      []uint{manager.ID},
	}, creator.ID)
	require.NoError(t, err)

	todo := listByName(t, db, project.ID, "To Do")
	foreign := listByName(t, db, other.ID, "To Do")
	task := seedTask(t, db, actorFor(manager), todo.ID, "stays put", manager)

	_, err = moveTask(db, actorFor(manager), task.ID, foreign.ID)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.TaskListWrongProject, svcErr.Code)
	assert.Contains(t, svcErr.Message, "must belong to the same project")

	reloaded, err := loadTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, reloaded.TaskListID)
}

func TestUpdateTaskRejectsDueBeforeStart(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")

	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	task, err := createTask(db, actorFor(manager), todo.ID, &CreateTaskReq{
		Title:      "scheduled",
		AssignedTo: manager.ID,
		StartDate:  &start,
	})
	require.NoError(t, err)

	due := start.Add(-24 * time.Hour)
	_, err = updateTask(db, actorFor(manager), task.ID, &UpdateTaskReq{DueDate: &due})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.InvalidRequest, svcErr.Code)

	reloaded, err := loadTask(db, task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DueDate)
	require.NotNil(t, reloaded.StartDate)
	assert.True(t, reloaded.StartDate.Equal(start))
}

func TestUpdateTaskPartialAndListChange(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	dev := seedUser(t, db, "dev", model.RoleDeveloper)
	project := seedProject(t, db, creator, manager, dev)
	todo := listByName(t, db, project.ID, "To Do")
	review := listByName(t, db, project.ID, "Review")

	task := seedTask(t, db, actorFor(manager), todo.ID, "polish", manager)

	priority := model.PriorityUrgent
	updated, err := updateTask(db, actorFor(manager), task.ID, &UpdateTaskReq{
		Priority:   &priority,
		TaskListID: &review.ID,
		AssignedTo: &dev.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityUrgent, updated.Priority)
	assert.Equal(t, review.ID, updated.TaskListID)
	assert.Equal(t, dev.ID, updated.AssignedTo)
	assert.Equal(t, updated.ProjectID, updated.TaskList.ProjectID)
	// Untouched fields survive.
	assert.Equal(t, "polish", updated.Title)
}

func TestTasksOfListOrdering(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	actor := actorFor(manager)

	for _, seed := range []struct {
		title    string
		priority model.Priority
	}{
		{"B", model.PriorityLow},
		{"A", model.PriorityUrgent},
		{"C", model.PriorityMedium},
		{"A2", model.PriorityUrgent},
	} {
		_, err := createTask(db, actor, todo.ID, &CreateTaskReq{
			Title:      seed.title,
			Priority:   seed.priority,
			AssignedTo: manager.ID,
		})
		require.NoError(t, err)
	}

	tasks, err := tasksOfList(db, todo.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(tasks))
	for i := range tasks {
		titles = append(titles, tasks[i].Title)
	}
	assert.Equal(t, []string{"A", "A2", "C", "B"}, titles)
}

func TestTaskAuthorization(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	assignee := seedUser(t, db, "assignee", model.RoleDeveloper)
	bystander := seedUser(t, db, "bystander", model.RoleDeveloper)
	project := seedProject(t, db, creator, manager, assignee, bystander)
	todo := listByName(t, db, project.ID, "To Do")

	task := seedTask(t, db, actorFor(manager), todo.ID, "guarded", assignee)

	title := "renamed"
	_, err := updateTask(db, actorFor(bystander), task.ID, &UpdateTaskReq{Title: &title})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.Forbidden, svcErr.Code)

	_, err = updateTask(db, actorFor(assignee), task.ID, &UpdateTaskReq{Title: &title})
	assert.NoError(t, err)

	// The assignee may edit but not delete.
	err = deleteTask(db, actorFor(assignee), task.ID)
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, response.Forbidden, svcErr.Code)

	require.NoError(t, deleteTask(db, actorFor(manager), task.ID))
}

func TestDeleteTaskCascades(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")

	task := seedTask(t, db, actorFor(manager), todo.ID, "doomed", manager)
	comment, err := createComment(db, actorFor(manager), task.ID, "note")
	require.NoError(t, err)

	require.NoError(t, deleteTask(db, actorFor(manager), task.ID))

	var count int64
	require.NoError(t, db.Model(&model.Comment{}).Where("id = ?", comment.ID).Count(&count).Error)
	assert.Zero(t, count)
	err = db.First(&model.Task{}, task.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOverdueDerivation(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator", model.RoleManager)
	manager := seedUser(t, db, "manager", model.RoleManager)
	project := seedProject(t, db, creator, manager)
	todo := listByName(t, db, project.ID, "To Do")
	done := listByName(t, db, project.ID, "Done")

	past := time.Now().Add(-72 * time.Hour)
	late, err := createTask(db, actorFor(manager), todo.ID, &CreateTaskReq{
		Title:      "late",
		AssignedTo: manager.ID,
		DueDate:    &past,
	})
	require.NoError(t, err)
	finished, err := createTask(db, actorFor(manager), done.ID, &CreateTaskReq{
		Title:      "finished",
		AssignedTo: manager.ID,
		DueDate:    &past,
	})
	require.NoError(t, err)

	resources, err := taskResources(db, []model.Task{*late, *finished})
	require.NoError(t, err)
	assert.True(t, resources[0].IsOverdue)
	assert.Equal(t, model.ProgressOverdue, resources[0].ProgressStatus)
	// Terminal list wins over the elapsed due date.
	assert.False(t, resources[1].IsOverdue)
	assert.Equal(t, model.ProgressCompleted, resources[1].ProgressStatus)
}
