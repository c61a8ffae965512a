package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CommentReq struct {
	Content string `json:"content" binding:"required"`
}

// CommentResource is a comment read shape with the derived
// attachment count.
type CommentResource struct {
	model.Comment
	AttachmentsCount int64 `json:"attachments_count"`
}

func checkCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	// The bound is in characters, not bytes: multibyte text must not
	// hit the limit early.
	length := utf8.RuneCountInString(trimmed)
	if length < model.CommentMinLen {
		return "", validationErr("comment content must not be empty")
	}
	if length > model.CommentMaxLen {
		return "", validationErr(fmt.Sprintf("comment content must not exceed %d characters", model.CommentMaxLen))
	}
	return trimmed, nil
}

func taskProjectCaps(db *gorm.DB, actor util.JWTMessage, taskID uint) (*model.Task, Capabilities, error) {
	task, err := loadTask(db, taskID)
	if err != nil {
		return nil, Capabilities{}, err
	}
	project, err := loadProject(db, task.ProjectID)
	if err != nil {
		return nil, Capabilities{}, err
	}
	return task, ResolveCapabilities(actor, project), nil
}

func createComment(db *gorm.DB, actor util.JWTMessage, taskID uint, content string) (*model.Comment, error) {
	_, caps, err := taskProjectCaps(db, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot comment on this task")
	}
	trimmed, err := checkCommentContent(content)
	if err != nil {
		return nil, err
	}
	comment := &model.Comment{
		TaskID:  taskID,
		UserID:  actor.UserID,
		Content: trimmed,
	}
	if err := db.Create(comment).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("User").First(comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// listComments returns a task's comments oldest first.
func listComments(db *gorm.DB, actor util.JWTMessage, taskID uint) ([]CommentResource, error) {
	_, caps, err := taskProjectCaps(db, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot view this task")
	}
	var comments []model.Comment
	err = db.Preload("User").Where("task_id = ?", taskID).
		Order("created_at ASC").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	resources := make([]CommentResource, 0, len(comments))
	for i := range comments {
		var count int64
		err = db.Model(&model.Attachment{}).
			Where("attachable_type = ? AND attachable_id = ?", model.AttachableComment, comments[i].ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		resources = append(resources, CommentResource{Comment: comments[i], AttachmentsCount: count})
	}
	return resources, nil
}

func updateComment(db *gorm.DB, actor util.JWTMessage, id uint, content string) (*model.Comment, error) {
	var comment model.Comment
	if err := db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	_, caps, err := taskProjectCaps(db, actor, comment.TaskID)
	if err != nil {
		return nil, err
	}
	if !caps.CanUpdateComment(actor, &comment) {
		return nil, forbiddenErr("you cannot update this comment")
	}
	trimmed, err := checkCommentContent(content)
	if err != nil {
		return nil, err
	}
	comment.Content = trimmed
	if err := db.Save(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func deleteComment(db *gorm.DB, actor util.JWTMessage, id uint) error {
	var comment model.Comment
	if err := db.First(&comment, id).Error; err != nil {
		return err
	}
	_, caps, err := taskProjectCaps(db, actor, comment.TaskID)
	if err != nil {
		return err
	}
	if !caps.CanDeleteComment(actor, &comment) {
		return forbiddenErr("you cannot delete this comment")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("attachable_type = ? AND attachable_id = ?", model.AttachableComment, id).
			Delete(&model.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Comment{}, id).Error
	})
}

func ListComments(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}
	resources, err := listComments(query.DB, actorFrom(c), taskID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, resources)
}

func CreateComment(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	comment, err := createComment(query.DB, actorFrom(c), taskID, req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, CommentResource{Comment: *comment})
}

func UpdateComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	comment, err := updateComment(query.DB, actorFrom(c), id, req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, comment)
}

func DeleteComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteComment(query.DB, actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterComments(authed *gin.RouterGroup) {
	authed.GET("/tasks/:id/comments", ListComments)
	authed.POST("/tasks/:id/comments", CreateComment)
	authed.PUT("/comments/:id", UpdateComment)
	authed.DELETE("/comments/:id", DeleteComment)
}
