package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"taskboard/config"
	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/logutils"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/webdav"
	"gorm.io/gorm"
)

// AttachmentResource is an attachment read shape with the formatted
// size and the download URL.
type AttachmentResource struct {
	model.Attachment
	SizeFormatted string `json:"size_formatted"`
	URL           string `json:"url"`
}

func attachmentResource(att *model.Attachment) AttachmentResource {
	base := strings.TrimSuffix(config.GetConfig().Storage.BaseURL, "/")
	return AttachmentResource{
		Attachment:    *att,
		SizeFormatted: util.FormatFileSize(att.Size),
		URL:           fmt.Sprintf("%s/api/v1/attachments/%d/download", base, att.ID),
	}
}

// ownerProject resolves an attachment owner to its task and project.
// The switch is exhaustive over the two permitted owner kinds.
func ownerProject(db *gorm.DB, owner model.Owner) (*model.Project, error) {
	var taskID uint
	switch owner.Type {
	case model.AttachableTask:
		taskID = owner.ID
	case model.AttachableComment:
		var comment model.Comment
		if err := db.First(&comment, owner.ID).Error; err != nil {
			return nil, notFoundErr("comment")
		}
		taskID = comment.TaskID
	default:
		return nil, validationErr("unknown attachable type " + string(owner.Type))
	}
	var task model.Task
	if err := db.First(&task, taskID).Error; err != nil {
		return nil, notFoundErr("task")
	}
	return loadProject(db, task.ProjectID)
}

type uploadLimits struct {
	maxSize     int64
	allowedMime []string
}

func (l uploadLimits) check(header *multipart.FileHeader) error {
	if l.maxSize > 0 && header.Size > l.maxSize {
		return conflictErr(response.UploadRejected,
			fmt.Sprintf("file %s exceeds the maximum size of %s", header.Filename, util.FormatFileSize(l.maxSize)))
	}
	if len(l.allowedMime) == 0 {
		return nil
	}
	contentType := header.Header.Get("Content-Type")
	for _, prefix := range l.allowedMime {
		if strings.HasPrefix(contentType, prefix) {
			return nil
		}
	}
	return conflictErr(response.UploadRejected,
		fmt.Sprintf("file %s has a disallowed content type %s", header.Filename, contentType))
}

// uploadAttachments stores the files in request order. On the first
// failure the loop stops: already-stored attachments are kept, the
// error names the file that was rejected. No rollback.
func uploadAttachments(ctx context.Context, db *gorm.DB, fsys webdav.FileSystem, actor util.JWTMessage,
	owner model.Owner, files []*multipart.FileHeader, limits uploadLimits) ([]model.Attachment, error) {
	project, err := ownerProject(db, owner)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot attach files here")
	}
	if !project.Settings.Data().AllowFileUploads {
		return nil, validationErr("file uploads are disabled for this project")
	}

	created := make([]model.Attachment, 0, len(files))
	for _, header := range files {
		if err := limits.check(header); err != nil {
			return created, err
		}
		src, err := header.Open()
		if err != nil {
			return created, err
		}
		name := storedName(header.Filename)
		size, err := saveBlob(ctx, fsys, name, src)
		src.Close()
		if err != nil {
			return created, err
		}
		att := model.Attachment{
			AttachableType:   owner.Type,
			AttachableID:     owner.ID,
			Filename:         name,
			OriginalFilename: header.Filename,
			Path:             name,
			MimeType:         header.Header.Get("Content-Type"),
			Size:             size,
			UploadedBy:       actor.UserID,
		}
		if err := db.Create(&att).Error; err != nil {
			if rerr := removeBlob(ctx, fsys, name); rerr != nil {
				logutils.Log.Error(rerr)
			}
			return created, err
		}
		created = append(created, att)
	}
	return created, nil
}

func listAttachments(db *gorm.DB, actor util.JWTMessage, owner model.Owner) ([]AttachmentResource, error) {
	project, err := ownerProject(db, owner)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanViewProject() {
		return nil, forbiddenErr("you cannot view these attachments")
	}
	var attachments []model.Attachment
	err = db.Preload("Uploader").
		Where("attachable_type = ? AND attachable_id = ?", owner.Type, owner.ID).
		Order("created_at ASC").Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	resources := make([]AttachmentResource, 0, len(attachments))
	for i := range attachments {
		resources = append(resources, attachmentResource(&attachments[i]))
	}
	return resources, nil
}

// deleteAttachment removes the record, then the stored file. Blob
// removal failure after the commit is logged, not surfaced: the
// record is the source of truth.
func deleteAttachment(ctx context.Context, db *gorm.DB, fsys webdav.FileSystem, actor util.JWTMessage, id uint) error {
	var att model.Attachment
	if err := db.First(&att, id).Error; err != nil {
		return err
	}
	project, err := ownerProject(db, att.OwnerRef())
	if err != nil {
		return err
	}
	caps := ResolveCapabilities(actor, project)
	if !caps.CanDeleteAttachment(actor, &att) {
		return forbiddenErr("you cannot delete this attachment")
	}
	if err := db.Unscoped().Delete(&model.Attachment{}, id).Error; err != nil {
		return err
	}
	if err := removeBlob(ctx, fsys, att.Path); err != nil {
		logutils.Log.Error(err)
	}
	return nil
}

func configLimits() uploadLimits {
	conf := config.GetConfig()
	return uploadLimits{
		maxSize:     conf.Storage.MaxUploadSize,
		allowedMime: conf.Storage.AllowedMime,
	}
}

func uploadHandler(ownerType model.AttachableType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			response.BadRequestError(c, err.Error())
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			response.BadRequestError(c, "no files supplied")
			return
		}
		owner := model.Owner{Type: ownerType, ID: id}
		created, err := uploadAttachments(c.Request.Context(), query.DB, blobFS(), actorFrom(c),
			owner, files, configLimits())
		if err != nil {
			var svcErr *Error
			if len(created) > 0 && errors.As(err, &svcErr) {
				// Partial success: report the failure but keep and
				// return what was stored.
				c.JSON(svcErr.Status, gin.H{
					"code": svcErr.Code,
					"data": toResources(created),
					"msg":  svcErr.Message,
				})
				return
			}
			abortWithError(c, err)
			return
		}
		response.Created(c, toResources(created))
	}
}

func toResources(attachments []model.Attachment) []AttachmentResource {
	resources := make([]AttachmentResource, 0, len(attachments))
	for i := range attachments {
		resources = append(resources, attachmentResource(&attachments[i]))
	}
	return resources
}

func listHandler(ownerType model.AttachableType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		resources, err := listAttachments(query.DB, actorFrom(c), model.Owner{Type: ownerType, ID: id})
		if err != nil {
			abortWithError(c, err)
			return
		}
		response.Success(c, resources)
	}
}

func DownloadAttachment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var att model.Attachment
	if err := query.DB.First(&att, id).Error; err != nil {
		abortWithError(c, err)
		return
	}
	project, err := ownerProject(query.DB, att.OwnerRef())
	if err != nil {
		abortWithError(c, err)
		return
	}
	caps := ResolveCapabilities(actorFrom(c), project)
	if !caps.CanViewProject() {
		abortWithError(c, forbiddenErr("you cannot download this attachment"))
		return
	}
	f, err := blobFS().OpenFile(c.Request.Context(), att.Path, os.O_RDONLY, 0)
	if err != nil {
		abortWithError(c, notFoundErr("stored file"))
		return
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.OriginalFilename))
	c.Header("Content-Type", att.MimeType)
	http.ServeContent(c.Writer, c.Request, att.OriginalFilename, stat.ModTime(), f)
}

func DeleteAttachment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteAttachment(c.Request.Context(), query.DB, blobFS(), actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterAttachments(authed *gin.RouterGroup) {
	authed.GET("/tasks/:id/attachments", listHandler(model.AttachableTask))
	authed.POST("/tasks/:id/attachments", uploadHandler(model.AttachableTask))
	authed.GET("/comments/:id/attachments", listHandler(model.AttachableComment))
	authed.POST("/comments/:id/attachments", uploadHandler(model.AttachableComment))
	authed.GET("/attachments/:id/download", DownloadAttachment)
	authed.DELETE("/attachments/:id", DeleteAttachment)
}
