package service

import (
	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func listUsers(db *gorm.DB) ([]model.UserInfo, error) {
	var users []model.User
	if err := db.Order("name").Find(&users).Error; err != nil {
		return nil, err
	}
	infos := make([]model.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].Info())
	}
	return infos, nil
}

// ListUsers is the directory behind assignment pickers; any
// authenticated actor may read it.
func ListUsers(c *gin.Context) {
	infos, err := listUsers(query.DB)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, infos)
}

func RegisterUsers(authed *gin.RouterGroup) {
	authed.GET("/users", ListUsers)
}
