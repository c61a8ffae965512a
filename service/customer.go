package service

import (
	"taskboard/dao/model"
	"taskboard/dao/query"
	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CustomerReq struct {
	Name    string  `json:"name" binding:"required"`
	Company *string `json:"company"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// canManageRegistry gates the mutations of the lookup registries:
// admins and managers only.
func canManageRegistry(actor util.JWTMessage) bool {
	return actor.Role == model.RoleAdmin || actor.Role == model.RoleManager
}

func applyCustomerReq(customer *model.Customer, req *CustomerReq) {
	customer.Name = req.Name
	customer.Company = req.Company
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.Notes = req.Notes
}

func createCustomer(db *gorm.DB, actor util.JWTMessage, req *CustomerReq) (*model.Customer, error) {
	if !canManageRegistry(actor) {
		return nil, forbiddenErr("you cannot create customers")
	}
	customer := &model.Customer{}
	applyCustomerReq(customer, req)
	if err := db.Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func updateCustomer(db *gorm.DB, actor util.JWTMessage, id uint, req *CustomerReq) (*model.Customer, error) {
	if !canManageRegistry(actor) {
		return nil, forbiddenErr("you cannot update customers")
	}
	var customer model.Customer
	if err := db.First(&customer, id).Error; err != nil {
		return nil, err
	}
	applyCustomerReq(&customer, req)
	if err := db.Save(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func deleteCustomer(db *gorm.DB, actor util.JWTMessage, id uint) error {
	if !canManageRegistry(actor) {
		return forbiddenErr("you cannot delete customers")
	}
	res := db.Unscoped().Delete(&model.Customer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundErr("customer")
	}
	return nil
}

func ListCustomers(c *gin.Context) {
	var customers []model.Customer
	if err := query.DB.Order("name").Find(&customers).Error; err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, customers)
}

func GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var customer model.Customer
	if err := query.DB.First(&customer, id).Error; err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, customer)
}

func CreateCustomer(c *gin.Context) {
	var req CustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	customer, err := createCustomer(query.DB, actorFrom(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Created(c, customer)
}

func UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, err.Error())
		return
	}
	customer, err := updateCustomer(query.DB, actorFrom(c), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, customer)
}

func DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := deleteCustomer(query.DB, actorFrom(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func RegisterCustomers(authed *gin.RouterGroup) {
	authed.GET("/customers", ListCustomers)
	authed.POST("/customers", CreateCustomer)
	authed.GET("/customers/:id", GetCustomer)
	authed.PUT("/customers/:id", UpdateCustomer)
	authed.DELETE("/customers/:id", DeleteCustomer)
}
