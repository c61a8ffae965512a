package service

import (
	"fmt"
	"time"

	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateTaskReq struct {
	Title          string         `json:"title" binding:"required"`
	Description    string         `json:"description"`
	Priority       model.Priority `json:"priority"`
	TaskType       model.TaskType `json:"task_type"`
	AssignedTo     uint           `json:"assigned_to" binding:"required"`
	StartDate      *time.Time     `json:"start_date"`
	DueDate        *time.Time     `json:"due_date"`
	EstimatedHours *int           `json:"estimated_hours"`
	ActualHours    *int           `json:"actual_hours"`
	Tags           []string       `json:"tags"`
	Feedback       *string        `json:"feedback"`
	EquipmentID    *uint          `json:"equipment_id"`
	CustomerID     *uint          `json:"customer_id"`
}

type UpdateTaskReq struct {
	Title          *string         `json:"title"`
	Description    *string         `json:"description"`
	Priority       *model.Priority `json:"priority"`
	TaskType       *model.TaskType `json:"task_type"`
	TaskListID     *uint           `json:"task_list_id"`
	AssignedTo     *uint           `json:"assigned_to"`
	StartDate      *time.Time      `json:"start_date"`
	DueDate        *time.Time      `json:"due_date"`
	EstimatedHours *int            `json:"estimated_hours"`
	ActualHours    *int            `json:"actual_hours"`
	Tags           *[]string       `json:"tags"`
	Feedback       *string         `json:"feedback"`
	EquipmentID    *uint           `json:"equipment_id"`
	CustomerID     *uint           `json:"customer_id"`
}

type MoveTaskReq struct {
	TaskListID uint `json:"task_list_id" binding:"required"`
}

// TaskResource is a task read shape with every derived field the
// frontend renders: status is the owning list's name, never a stored
// column.
type TaskResource struct {
	model.Task
	Status           string               `json:"status"`
	IsOverdue        bool                 `json:"is_overdue"`
	ProgressStatus   model.ProgressStatus `json:"progress_status"`
	AttachmentsCount int64                `json:"attachments_count"`
	CommentsCount    int64                `json:"comments_count"`
}

type idCount struct {
	ID uint
	N  int64
}

func countsByID(db *gorm.DB, m any, idCol string, where string, args ...any) (map[uint]int64, error) {
	var rows []idCount
	err := db.Model(m).
		Select(idCol+" AS id, COUNT(*) AS n").
		Where(where, args...).
		Group(idCol).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}

// taskResources derives the read-time fields for a task collection
// with two grouped count queries instead of one pair per task.
func taskResources(db *gorm.DB, tasks []model.Task) ([]TaskResource, error) {
	if len(tasks) == 0 {
		return []TaskResource{}, nil
	}
	ids := make([]uint, 0, len(tasks))
	for i := range tasks {
		ids = append(ids, tasks[i].ID)
	}
	comments, err := countsByID(db, &model.Comment{}, "task_id", "task_id IN ?", ids)
	if err != nil {
		return nil, err
	}
	attachments, err := countsByID(db, &model.Attachment{}, "attachable_id",
		"attachable_type = ? AND attachable_id IN ?", model.AttachableTask, ids)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	resources := make([]TaskResource, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		resources = append(resources, TaskResource{
			Task:             *t,
			Status:           t.Status(),
			IsOverdue:        t.IsOverdue(now),
			ProgressStatus:   t.Progress(now),
			AttachmentsCount: attachments[t.ID],
			CommentsCount:    comments[t.ID],
		})
	}
	return resources, nil
}

// tasksOfList loads a list's tasks in display order. The same sort is
// used by the project tree, so both paths agree.
func tasksOfList(db *gorm.DB, listID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := db.Preload("TaskList").Preload("Assignee").
		Where("task_list_id = ?", listID).Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	model.SortTasks(tasks)
	return tasks, nil
}

func loadTask(db *gorm.DB, id uint) (*model.Task, error) {
	var task model.Task
	err := db.Preload("TaskList").Preload("Assignee").Preload("Creator").First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func checkHours(hours *int, field string) error {
	if hours != nil && *hours < 0 {
		return validationErr(field + " must not be negative")
	}
	return nil
}

// checkTypeRefs enforces the conditional foreign references: an
// equipmentId task must name existing equipment, a customerName task
// an existing customer. Project settings can switch whole task types
// off.
func checkTypeRefs(db *gorm.DB, settings model.ProjectSettings, taskType model.TaskType, equipmentID, customerID *uint) error {
	switch taskType {
	case model.TaskGeneral:
		if !settings.EnableGeneralTasks {
			return validationErr("general tasks are disabled for this project")
		}
	case model.TaskEquipment:
		if !settings.EnableEquipmentTasks {
			return validationErr("equipment tasks are disabled for this project")
		}
		if equipmentID == nil {
			return validationErr("equipment_id is required for equipmentId tasks")
		}
		var equipment model.Equipment
		if err := db.First(&equipment, *equipmentID).Error; err != nil {
			return validationErr(fmt.Sprintf("equipment %d does not exist", *equipmentID))
		}
	case model.TaskCustomer:
		if !settings.EnableCustomerTasks {
			return validationErr("customer tasks are disabled for this project")
		}
		if customerID == nil {
			return validationErr("customer_id is required for customerName tasks")
		}
		var customer model.Customer
		if err := db.First(&customer, *customerID).Error; err != nil {
			return validationErr(fmt.Sprintf("customer %d does not exist", *customerID))
		}
	}
	return nil
}

// checkAssignee requires the assignee to be on the project team.
func checkAssignee(project *model.Project, assigneeID uint) error {
	for i := range project.Members {
		if project.Members[i].UserID == assigneeID {
			return nil
		}
	}
	return conflictErr(response.UserNotInTeam, fmt.Sprintf("user %d is not a member of the project team", assigneeID))
}

func createTask(db *gorm.DB, actor util.JWTMessage, listID uint, req *CreateTaskReq) (*model.Task, error) {
	var list model.TaskList
	if err := db.First(&list, listID).Error; err != nil {
		return nil, notFoundErr("task list")
	}
	project, err := loadProject(db, list.ProjectID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot create tasks in this project")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, validationErr("invalid priority " + string(priority))
	}
	taskType := req.TaskType
	if taskType == "" {
		taskType = model.TaskGeneral
	}
	if !taskType.Valid() {
		return nil, validationErr("invalid task_type " + string(taskType))
	}
	if err := checkDateOrder(req.StartDate, req.DueDate); err != nil {
		return nil, err
	}
	if err := checkHours(req.EstimatedHours, "estimated_hours"); err != nil {
		return nil, err
	}
	if err := checkHours(req.ActualHours, "actual_hours"); err != nil {
		return nil, err
	}
	if err := checkTypeRefs(db, project.Settings.Data(), taskType, req.EquipmentID, req.CustomerID); err != nil {
		return nil, err
	}
	var assignee model.User
	if err := db.First(&assignee, req.AssignedTo).Error; err != nil {
		return nil, validationErr(fmt.Sprintf("assignee %d does not exist", req.AssignedTo))
	}
	if err := checkAssignee(project, req.AssignedTo); err != nil {
		return nil, err
	}

	task := &model.Task{
		ProjectID:      list.ProjectID,
		TaskListID:     list.ID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       priority,
		TaskType:       taskType,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      actor.UserID,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Tags:           datatypes.NewJSONSlice(compactTagSet(req.Tags)),
		Feedback:       req.Feedback,
		EquipmentID:    req.EquipmentID,
		CustomerID:     req.CustomerID,
	}
	if err := db.Create(task).Error; err != nil {
		return nil, err
	}
	return loadTask(db, task.ID)
}

// checkListConsistency verifies the invariant that a task's list
// belongs to the task's own project.
func checkListConsistency(db *gorm.DB, task *model.Task, targetListID uint) (*model.TaskList, error) {
	var target model.TaskList
	if err := db.First(&target, targetListID).Error; err != nil {
		return nil, notFoundErr("task list")
	}
	if target.ProjectID != task.ProjectID {
		return nil, conflictErr(response.TaskListWrongProject, "task list must belong to the same project")
	}
	return &target, nil
}

func updateTask(db *gorm.DB, actor util.JWTMessage, id uint, req *UpdateTaskReq) (*model.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanUpdateTask(actor, task) {
		return nil, forbiddenErr("you cannot update this task")
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, validationErr("invalid priority " + string(*req.Priority))
		}
		task.Priority = *req.Priority
	}
	if req.TaskType != nil {
		if !req.TaskType.Valid() {
			return nil, validationErr("invalid task_type " + string(*req.TaskType))
		}
		task.TaskType = *req.TaskType
	}
	if req.TaskListID != nil {
		if _, err := checkListConsistency(db, task, *req.TaskListID); err != nil {
			return nil, err
		}
		task.TaskListID = *req.TaskListID
	}
	if req.AssignedTo != nil {
		if err := checkAssignee(project, *req.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = *req.AssignedTo
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if err := checkDateOrder(task.StartDate, task.DueDate); err != nil {
		return nil, err
	}
	if req.EstimatedHours != nil {
		if err := checkHours(req.EstimatedHours, "estimated_hours"); err != nil {
			return nil, err
		}
		task.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		if err := checkHours(req.ActualHours, "actual_hours"); err != nil {
			return nil, err
		}
		task.ActualHours = req.ActualHours
	}
	if req.Tags != nil {
		task.Tags = datatypes.NewJSONSlice(compactTagSet(*req.Tags))
	}
	if req.Feedback != nil {
		task.Feedback = req.Feedback
	}
	if req.EquipmentID != nil {
		task.EquipmentID = req.EquipmentID
	}
	if req.CustomerID != nil {
		task.CustomerID = req.CustomerID
	}
	if err := checkTypeRefs(db, project.Settings.Data(), task.TaskType, task.EquipmentID, task.CustomerID); err != nil {
		return nil, err
	}

	if err := db.Omit("TaskList", "Assignee", "Creator", "Equipment", "Customer").Save(task).Error; err != nil {
		return nil, err
	}
	return loadTask(db, task.ID)
}

// moveTask reassigns a task to another list of the same project.
// Cross-project targets are rejected; there is no position within a
// list, display order is always the priority sort.
func moveTask(db *gorm.DB, actor util.JWTMessage, id, targetListID uint) (*model.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanUpdateTask(actor, task) {
		return nil, forbiddenErr("you cannot move this task")
	}
	target, err := checkListConsistency(db, task, targetListID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&model.Task{}).Where("id = ?", task.ID).
		Update("task_list_id", target.ID).Error; err != nil {
		return nil, err
	}
	return loadTask(db, task.ID)
}

func deleteTask(db *gorm.DB, actor util.JWTMessage, id uint) error {
	task, err := loadTask(db, id)
	if err != nil {
		return err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanDeleteTask(actor, task) {
		return forbiddenErr("you cannot delete this task")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.Comment{}).Select("id").Where("task_id = ?", id)
		if err := tx.Unscoped().
			Where("(attachable_type = ? AND attachable_id = ?) OR (attachable_type = ? AND attachable_id IN (?))",
				model.AttachableTask, id, model.AttachableComment, commentIDs).
			Delete(&model.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("task_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Task{}, id).Error
	})
}

func getTask(db *gorm.DB, actor util.JWTMessage, id uint) (*TaskResource, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot view this task")
	}
	resources, err := taskResources(db, []model.Task{*task})
	if err != nil {
		return nil, err
	}
	return &resources[0], nil
}

func ListTasksOfList(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var list model.TaskList
	if err := query.DB.First(&list, listID).Error; err != nil {
		abortWithError(c, err)
		return
	}
	project, err := loadProject(query.DB, list.ProjectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	caps := ResolveCapabilities(actorFrom(c), project)
	if !caps.CanViewProject() {
		abortWithError(c, forbiddenErr("you cannot view this project"))
		return
	}
	tasks, err := tasksOfList(query.DB, listID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resources, err := taskResources(query.DB, tasks)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources)
}

func GetTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := getTask(query.DB, actorFrom(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, res)
}

func CreateTask(c *gin.Context) {
	listID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CreateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	task, err := createTask(query.DB, actorFrom(c), listID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resources, err := taskResources(query.DB, []model.Task{*task})
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, resources[0])
}

func UpdateTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	task, err := updateTask(query.DB, actorFrom(c), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resources, err := taskResources(query.DB, []model.Task{*task})
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources[0])
}

func MoveTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req MoveTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	task, err := moveTask(query.DB, actorFrom(c), id, req.TaskListID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	resources, err := taskResources(query.DB, []model.Task{*task})
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources[0])
}

func DeleteTask(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteTask(query.DB, actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterTasks(authed *gin.RouterGroup) {
	authed.GET("/task-lists/:id/tasks", ListTasksOfList)
	authed.POST("/task-lists/:id/tasks", CreateTask)
	authed.GET("/tasks/:id", GetTask)
	authed.PUT("/tasks/:id", UpdateTask)
	authed.POST("/tasks/:id/move", MoveTask)
	authed.DELETE("/tasks/:id", DeleteTask)
}
