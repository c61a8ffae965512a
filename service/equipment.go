package service

import (
	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EquipmentReq struct {
	Name           string                `json:"name" binding:"required"`
	Code           string                `json:"code" binding:"required"`
	SerialNumber   *string               `json:"serial_number"`
	EquipmentType  string                `json:"equipment_type"`
	Status         model.EquipmentStatus `json:"status"`
	Location       *string               `json:"location"`
	Specifications datatypes.JSONMap     `json:"specifications"`
}

func applyEquipmentReq(equipment *model.Equipment, req *EquipmentReq) error {
	status := req.Status
	if status == "" {
		status = model.EquipmentOperational
	}
	if !status.Valid() {
		return validationErr("invalid status " + string(status))
	}
	equipment.Name = req.Name
	equipment.Code = req.Code
	equipment.SerialNumber = req.SerialNumber
	equipment.EquipmentType = req.EquipmentType
	equipment.Status = status
	equipment.Location = req.Location
	equipment.Specifications = req.Specifications
	return nil
}

func checkCodeFree(db *gorm.DB, code string, excludeID uint) error {
	var count int64
	tx := db.Model(&model.Equipment{}).Where("code = ?", code)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	if err := tx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflictErr(response.EquipmentCodeTaken, "equipment code already in use")
	}
	return nil
}

func createEquipment(db *gorm.DB, actor util.JWTMessage, req *EquipmentReq) (*model.Equipment, error) {
	if !canManageRegistry(actor) {
		return nil, forbiddenErr("you cannot create equipment")
	}
	if err := checkCodeFree(db, req.Code, 0); err != nil {
		return nil, err
	}
	equipment := &model.Equipment{}
	if err := applyEquipmentReq(equipment, req); err != nil {
		return nil, err
	}
	if err := db.Create(equipment).Error; err != nil {
		return nil, err
	}
	return equipment, nil
}

func updateEquipment(db *gorm.DB, actor util.JWTMessage, id uint, req *EquipmentReq) (*model.Equipment, error) {
	if !canManageRegistry(actor) {
		return nil, forbiddenErr("you cannot update equipment")
	}
	var equipment model.Equipment
	if err := db.First(&equipment, id).Error; err != nil {
		return nil, err
	}
	if err := checkCodeFree(db, req.Code, id); err != nil {
		return nil, err
	}
	if err := applyEquipmentReq(&equipment, req); err != nil {
		return nil, err
	}
	if err := db.Save(&equipment).Error; err != nil {
		return nil, err
	}
	return &equipment, nil
}

func deleteEquipment(db *gorm.DB, actor util.JWTMessage, id uint) error {
	if !canManageRegistry(actor) {
		return forbiddenErr("you cannot delete equipment")
	}
	res := db.Unscoped().Delete(&model.Equipment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundErr("equipment")
	}
	return nil
}

func ListEquipment(c *gin.Context) {
	var equipment []model.Equipment
	if err := query.DB.Order("name").Find(&equipment).Error; err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, equipment)
}

func GetEquipment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var equipment model.Equipment
	if err := query.DB.First(&equipment, id).Error; err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, equipment)
}

func CreateEquipment(c *gin.Context) {
	var req EquipmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	equipment, err := createEquipment(query.DB, actorFrom(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, equipment)
}

func UpdateEquipment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req EquipmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	equipment, err := updateEquipment(query.DB, actorFrom(c), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, equipment)
}

func DeleteEquipment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteEquipment(query.DB, actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterEquipment(authed *gin.RouterGroup) {
	authed.GET("/equipment", ListEquipment)
	authed.POST("/equipment", CreateEquipment)
	authed.GET("/equipment/:id", GetEquipment)
	authed.PUT("/equipment/:id", UpdateEquipment)
	authed.DELETE("/equipment/:id", DeleteEquipment)
}
