package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateProjectReq struct {
	Name             string                 `json:"name" binding:"required"`
	Description      string                 `json:"description" binding:"required"`
	Status           model.ProjectStatus    `json:"status"`
	Priority         model.Priority         `json:"priority"`
	StartDate        *time.Time             `json:"start_date"`
	DueDate          *time.Time             `json:"due_date"`
	Budget           *float64               `json:"budget"`
	Client           string                 `json:"client"`
	Objectives       []string               `json:"objectives"`
	Deliverables     []string               `json:"deliverables"`
	Tags             []string               `json:"tags"`
	Settings         *model.ProjectSettings `json:"settings"`
	ProjectManagerID uint                   `json:"project_manager_id" binding:"required"`
	TeamMembers      []uint                 `json:"team_members" binding:"required,min=1"`
}

type UpdateProjectReq struct {
	Name             *string                `json:"name"`
	Description      *string                `json:"description"`
	Status           *model.ProjectStatus   `json:"status"`
	Priority         *model.Priority        `json:"priority"`
	StartDate        *time.Time             `json:"start_date"`
	DueDate          *time.Time             `json:"due_date"`
	Budget           *float64               `json:"budget"`
	Client           *string                `json:"client"`
	Objectives       *[]string              `json:"objectives"`
	Deliverables     *[]string              `json:"deliverables"`
	Tags             *[]string              `json:"tags"`
	Settings         *model.ProjectSettings `json:"settings"`
	ProjectManagerID *uint                  `json:"project_manager_id"`
	TeamMembers      *[]uint                `json:"team_members"`
}

// ProjectResource is a project read shape with the derived aggregates.
type ProjectResource struct {
	model.Project
	TasksCount         int64   `json:"tasks_count"`
	CompletedTasks     int64   `json:"completed_tasks"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

// compactStrings trims every entry and drops the ones left empty.
func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// compactTagSet additionally deduplicates, keeping first occurrence
// order. Tags are a set.
func compactTagSet(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range compactStrings(in) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func checkDateOrder(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return validationErr("due_date must not be before start_date")
	}
	return nil
}

func checkUsersExist(db *gorm.DB, ids []uint) error {
	// Duplicate ids are legal in the request (teamSet collapses them);
	// count distinct so they cannot skew the existence check.
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil
	}
	var count int64
	if err := db.Model(&model.User{}).Where("id IN ?", unique).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(unique)) {
		return validationErr("one or more referenced users do not exist")
	}
	return nil
}

// teamSet builds the membership rows for a project: every listed
// member plus the manager, who is always included with the manager
// pivot role even when omitted from the list.
func teamSet(projectID uint, memberIDs []uint, managerID uint) []model.ProjectMember {
	seen := map[uint]struct{}{managerID: {}}
	members := []model.ProjectMember{{ProjectID: projectID, UserID: managerID, Role: model.PivotManager}}
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, model.ProjectMember{ProjectID: projectID, UserID: id, Role: model.PivotMember})
	}
	return members
}

// provisionDefaultLists creates the starter board for a fresh
// project. Every project gets the same four lists, unconditionally.
func provisionDefaultLists(tx *gorm.DB, projectID uint) error {
	for _, def := range model.DefaultTaskLists() {
		list := model.TaskList{
			ProjectID:  projectID,
			Name:       def.Name,
			Color:      def.Color,
			Order:      def.Order,
			IsTerminal: def.IsTerminal,
		}
		if err := tx.Create(&list).Error; err != nil {
			return err
		}
	}
	return nil
}

func createProject(db *gorm.DB, req *CreateProjectReq, creatorID uint) (*model.Project, error) {
	status := req.Status
	if status == "" {
		status = model.ProjectPlanning
	}
	if !status.Valid() {
		return nil, validationErr("invalid status " + string(status))
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, validationErr("invalid priority " + string(priority))
	}
	if err := checkDateOrder(req.StartDate, req.DueDate); err != nil {
		return nil, err
	}
	if req.Budget != nil && *req.Budget < 0 {
		return nil, validationErr("budget must not be negative")
	}

	var manager model.User
	if err := db.First(&manager, req.ProjectManagerID).Error; err != nil {
		return nil, validationErr(fmt.Sprintf("project manager %d does not exist", req.ProjectManagerID))
	}
	if err := checkUsersExist(db, req.TeamMembers); err != nil {
		return nil, err
	}

	settings := model.DefaultProjectSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	project := &model.Project{
		Name:             req.Name,
		Description:      req.Description,
		Status:           status,
		Priority:         priority,
		StartDate:        req.StartDate,
		DueDate:          req.DueDate,
		Budget:           req.Budget,
		Client:           req.Client,
		Objectives:       datatypes.NewJSONSlice(compactStrings(req.Objectives)),
		Deliverables:     datatypes.NewJSONSlice(compactStrings(req.Deliverables)),
		Tags:             datatypes.NewJSONSlice(compactTagSet(req.Tags)),
		Settings:         datatypes.NewJSONType(settings),
		CreatedBy:        creatorID,
		ProjectManagerID: req.ProjectManagerID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		members := teamSet(project.ID, req.TeamMembers, req.ProjectManagerID)
		if err := tx.Create(&members).Error; err != nil {
			return err
		}
		return provisionDefaultLists(tx, project.ID)
	})
	if err != nil {
		return nil, err
	}
	return loadProject(db, project.ID)
}

// loadProject fetches a project with members and ordered task lists.
func loadProject(db *gorm.DB, id uint) (*model.Project, error) {
	var project model.Project
	err := db.Preload("Members.User").
		Preload("TaskLists", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order")
		}).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func updateProject(db *gorm.DB, actor util.JWTMessage, id uint, req *UpdateProjectReq) (*model.Project, error) {
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanUpdateProject() {
		return nil, forbiddenErr("you cannot update this project")
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, validationErr("invalid status " + string(*req.Status))
		}
		project.Status = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, validationErr("invalid priority " + string(*req.Priority))
		}
		project.Priority = *req.Priority
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		project.DueDate = req.DueDate
	}
	if err := checkDateOrder(project.StartDate, project.DueDate); err != nil {
		return nil, err
	}
	if req.Budget != nil {
		if *req.Budget < 0 {
			return nil, validationErr("budget must not be negative")
		}
		project.Budget = req.Budget
	}
	if req.Client != nil {
		project.Client = *req.Client
	}
	if req.Objectives != nil {
		project.Objectives = datatypes.NewJSONSlice(compactStrings(*req.Objectives))
	}
	if req.Deliverables != nil {
		project.Deliverables = datatypes.NewJSONSlice(compactStrings(*req.Deliverables))
	}
	if req.Tags != nil {
		project.Tags = datatypes.NewJSONSlice(compactTagSet(*req.Tags))
	}
	if req.Settings != nil {
		project.Settings = datatypes.NewJSONType(*req.Settings)
	}
	if req.ProjectManagerID != nil {
		var manager model.User
		if err := db.First(&manager, *req.ProjectManagerID).Error; err != nil {
			return nil, validationErr(fmt.Sprintf("project manager %d does not exist", *req.ProjectManagerID))
		}
		project.ProjectManagerID = *req.ProjectManagerID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if req.TeamMembers != nil {
			// Full replace, not a merge. The current manager is
			// re-added even when omitted, mirroring the create path.
			if err := checkUsersExist(tx, *req.TeamMembers); err != nil {
				return err
			}
			if err := tx.Unscoped().Where("project_id = ?", project.ID).
				Delete(&model.ProjectMember{}).Error; err != nil {
				return err
			}
			members := teamSet(project.ID, *req.TeamMembers, project.ProjectManagerID)
			if err := tx.Create(&members).Error; err != nil {
				return err
			}
		}
		project.Members = nil
		return tx.Omit("Members", "TaskLists", "Tasks").Save(project).Error
	})
	if err != nil {
		return nil, err
	}
	return loadProject(db, project.ID)
}

// deleteProject hard-deletes the project and everything it owns. No
// emptiness guard at this level, unlike task lists.
func deleteProject(db *gorm.DB, actor util.JWTMessage, id uint) error {
	project, err := loadProject(db, id)
	if err != nil {
		return err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanDeleteProject() {
		return forbiddenErr("you cannot delete this project")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		// Fresh subquery builders per use: gorm statement builders
		// are not safe to reuse across clauses.
		taskIDs := func() *gorm.DB {
			return tx.Session(&gorm.Session{NewDB: true}).
				Model(&model.Task{}).Select("id").Where("project_id = ?", id)
		}
		commentIDs := tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.Comment{}).Select("id").Where("task_id IN (?)", taskIDs())
		if err := tx.Unscoped().
			Where("(attachable_type = ? AND attachable_id IN (?)) OR (attachable_type = ? AND attachable_id IN (?))",
				model.AttachableTask, taskIDs(), model.AttachableComment, commentIDs).
			Delete(&model.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("task_id IN (?)", taskIDs()).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&model.TaskList{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&model.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Project{}, id).Error
	})
}

// projectStats counts the project's tasks and how many sit in the
// terminal list.
func projectStats(db *gorm.DB, projectID uint) (total, completed int64, err error) {
	err = db.Model(&model.Task{}).Where("project_id = ?", projectID).Count(&total).Error
	if err != nil {
		return 0, 0, err
	}
	err = db.Model(&model.Task{}).
		Joins("JOIN task_lists ON task_lists.id = tasks.task_list_id").
		Where("tasks.project_id = ? AND task_lists.is_terminal = ?", projectID, true).
		Count(&completed).Error
	if err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

func projectResource(db *gorm.DB, project *model.Project) (*ProjectResource, error) {
	total, completed, err := projectStats(db, project.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectResource{
		Project:            *project,
		TasksCount:         total,
		CompletedTasks:     completed,
		ProgressPercentage: model.ProgressPercentage(completed, total),
	}, nil
}

func listProjects(db *gorm.DB, actor util.JWTMessage) ([]ProjectResource, error) {
	tx := db.Preload("Members.User").Order("created_at DESC")
	if actor.Role != model.RoleAdmin {
		memberOf := db.Model(&model.ProjectMember{}).Select("project_id").Where("user_id = ?", actor.UserID)
		tx = tx.Where("created_by = ? OR project_manager_id = ? OR id IN (?)",
			actor.UserID, actor.UserID, memberOf)
	}
	var projects []model.Project
	if err := tx.Find(&projects).Error; err != nil {
		return nil, err
	}
	resources := make([]ProjectResource, 0, len(projects))
	for i := range projects {
		res, err := projectResource(db, &projects[i])
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, nil
}

func getProject(db *gorm.DB, actor util.JWTMessage, id uint) (*ProjectResource, error) {
	project, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot view this project")
	}
	return projectResource(db, project)
}

func idParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.BadRequestError(c, "invalid id "+raw)
		return 0, false
	}
	return uint(id), true
}

func ListProjects(c *gin.Context) {
	resources, err := listProjects(query.DB, actorFrom(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources)
}

func GetProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := getProject(query.DB, actorFrom(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, res)
}

func CreateProject(c *gin.Context) {
	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	project, err := createProject(query.DB, &req, actorFrom(c).UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := projectResource(query.DB, project)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, res)
}

func UpdateProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	project, err := updateProject(query.DB, actorFrom(c), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := projectResource(query.DB, project)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, res)
}

func DeleteProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteProject(query.DB, actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterProjects(authed *gin.RouterGroup) {
	authed.GET("/projects", ListProjects)
	authed.POST("/projects", CreateProject)
	authed.GET("/projects/:id", GetProject)
	authed.PUT("/projects/:id", UpdateProject)
	authed.DELETE("/projects/:id", DeleteProject)
}
