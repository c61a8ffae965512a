package service

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterReq struct {
	Name     string     `json:"name" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     model.Role `json:"role"`
	Avatar   *string    `json:"avatar"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResp pairs the profile with the issued bearer token.
type AuthResp struct {
	User  model.UserInfo `json:"user"`
	Token string         `json:"token"`
}

func registerUser(db *gorm.DB, req *RegisterReq) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleDeveloper
	}
	if !role.Valid() {
		return nil, validationErr("invalid role " + string(role))
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, conflictErr(response.EmailTaken, "email already registered")
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     req.Name,
		Email:    email,
		Password: &hash,
		Role:     role,
		Avatar:   req.Avatar,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func loginUser(db *gorm.DB, email, password string) (*model.User, error) {
	var user model.User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{Status: http.StatusUnauthorized, Code: response.Unauthorized, Message: "invalid credentials"}
	}
	if err != nil {
		return nil, err
	}
	if user.Password == nil || !util.VerifyPassword(password, *user.Password) {
		return nil, &Error{Status: http.StatusUnauthorized, Code: response.Unauthorized, Message: "invalid credentials"}
	}
	return &user, nil
}

func issueToken(user *model.User) (string, error) {
	return util.GetTokenMgr().CreateToken(&util.JWTMessage{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	})
}

func Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	user, err := registerUser(query.DB, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	token, err := issueToken(user)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, AuthResp{User: user.Info(), Token: token})
}

func Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	user, err := loginUser(query.DB, req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	token, err := issueToken(user)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, AuthResp{User: user.Info(), Token: token})
}

func CurrentUser(c *gin.Context) {
	actor := actorFrom(c)
	var user model.User
	if err := query.DB.First(&user, actor.UserID).Error; err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, user.Info())
}

func RegisterAuth(public, authed *gin.RouterGroup) {
	public.POST("/auth/register", Register)
	public.POST("/auth/login", Login)
	authed.GET("/auth/user", CurrentUser)
}
