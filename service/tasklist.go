package service

import (
	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTaskListReq struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
	Order       *int    `json:"order"`
}

type UpdateTaskListReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Order       *int    `json:"order"`
	IsTerminal  *bool   `json:"is_terminal"`
}

type ReorderItem struct {
	ID    uint `json:"id" binding:"required"`
	Order int  `json:"order"`
}

type ReorderReq struct {
	Lists []ReorderItem `json:"lists" binding:"required,min=1"`
}

// TaskListResource is a list read shape with the derived fields.
type TaskListResource struct {
	model.TaskList
	ColorInfo  model.ColorInfo `json:"color_info"`
	TasksCount int64           `json:"tasks_count"`
	TaskItems  []TaskResource  `json:"task_items,omitempty"`
}

func taskListResource(db *gorm.DB, list *model.TaskList, withTasks bool) (*TaskListResource, error) {
	var count int64
	if err := db.Model(&model.Task{}).Where("task_list_id = ?", list.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	res := &TaskListResource{
		TaskList:   *list,
		ColorInfo:  model.DisplayColor(list.Color),
		TasksCount: count,
	}
	if withTasks {
		tasks, err := tasksOfList(db, list.ID)
		if err != nil {
			return nil, err
		}
		items, err := taskResources(db, tasks)
		if err != nil {
			return nil, err
		}
		res.TaskItems = items
	}
	return res, nil
}

func projectForUpdate(db *gorm.DB, actor util.JWTMessage, projectID uint) (*model.Project, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanUpdateProject() {
		return nil, forbiddenErr("you cannot manage task lists of this project")
	}
	return project, nil
}

func createTaskList(db *gorm.DB, actor util.JWTMessage, projectID uint, req *CreateTaskListReq) (*model.TaskList, error) {
	if _, err := projectForUpdate(db, actor, projectID); err != nil {
		return nil, err
	}
	color := req.Color
	if color == "" {
		color = "gray"
	}
	list := &model.TaskList{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
	}
	// Order assignment happens inside the insert transaction so two
	// concurrent creates cannot read the same max.
	err := db.Transaction(func(tx *gorm.DB) error {
		if req.Order != nil {
			list.Order = *req.Order
		} else {
			var maxOrder int
			row := tx.Model(&model.TaskList{}).
				Where("project_id = ?", projectID).
				Select("COALESCE(MAX(sort_order), 0)").Row()
			if err := row.Scan(&maxOrder); err != nil {
				return err
			}
			list.Order = maxOrder + 1
		}
		return tx.Create(list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func updateTaskList(db *gorm.DB, actor util.JWTMessage, id uint, req *UpdateTaskListReq) (*model.TaskList, error) {
	var list model.TaskList
	if err := db.First(&list, id).Error; err != nil {
		return nil, err
	}
	if _, err := projectForUpdate(db, actor, list.ProjectID); err != nil {
		return nil, err
	}
	if req.Name != nil {
		list.Name = *req.Name
	}
	if req.Description != nil {
		list.Description = req.Description
	}
	if req.Color != nil {
		// Unknown tokens are accepted; display falls back to the
		// default mapping.
		list.Color = *req.Color
	}
	if req.Order != nil {
		list.Order = *req.Order
	}
	if req.IsTerminal != nil {
		list.IsTerminal = *req.IsTerminal
	}
	if err := db.Save(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// reorderTaskLists bulk-assigns order values. No contiguity or
// uniqueness check: the caller owns the resulting sequence.
func reorderTaskLists(db *gorm.DB, actor util.JWTMessage, projectID uint, items []ReorderItem) error {
	if _, err := projectForUpdate(db, actor, projectID); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&model.TaskList{}).
				Where("id = ? AND project_id = ?", item.ID, projectID).
				Update("sort_order", item.Order)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return notFoundErr("task list")
			}
		}
		return nil
	})
}

// deleteTaskList refuses to delete a list that still owns tasks. The
// count and the delete run in one transaction so a task created
// concurrently cannot slip into a list being removed.
func deleteTaskList(db *gorm.DB, actor util.JWTMessage, id uint) error {
	var list model.TaskList
	if err := db.First(&list, id).Error; err != nil {
		return err
	}
	if _, err := projectForUpdate(db, actor, list.ProjectID); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Task{}).Where("task_list_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictErr(response.TaskListNotEmpty, "task list still contains tasks")
		}
		return tx.Unscoped().Delete(&model.TaskList{}, id).Error
	})
}

func listTaskLists(db *gorm.DB, actor util.JWTMessage, projectID uint) ([]TaskListResource, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot view this project")
	}
	resources := make([]TaskListResource, 0, len(project.TaskLists))
	for i := range project.TaskLists {
		res, err := taskListResource(db, &project.TaskLists[i], true)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, nil
}

func ListTaskLists(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	resources, err := listTaskLists(query.DB, actorFrom(c), projectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources)
}

func CreateTaskList(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CreateTaskListReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	list, err := createTaskList(query.DB, actorFrom(c), projectID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := taskListResource(query.DB, list, false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, res)
}

func UpdateTaskList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskListReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	list, err := updateTaskList(query.DB, actorFrom(c), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := taskListResource(query.DB, list, false)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, res)
}

func ReorderTaskLists(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ReorderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	if err := reorderTaskLists(query.DB, actorFrom(c), projectID, req.Lists); err != nil {
		abortWithError(c, err)
		return
	}
	resources, err := listTaskLists(query.DB, actorFrom(c), projectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources)
}

func DeleteTaskList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteTaskList(query.DB, actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterTaskLists(authed *gin.RouterGroup) {
	authed.GET("/projects/:id/task-lists", ListTaskLists)
	authed.POST("/projects/:id/task-lists", CreateTaskList)
	authed.POST("/projects/:id/task-lists/reorder", ReorderTaskLists)
	authed.PUT("/task-lists/:id", UpdateTaskList)
	authed.DELETE("/task-lists/:id", DeleteTaskList)
}
