package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
)

type Customer struct {
	ID                int            `gorm:"primary_key" json:"id"`
	Name              string         `gorm:"size:100;not null" json:"name" binding:"required"`
	Email             string         `gorm:"size:100;uniqueIndex;not null" json:"email" binding:"required"`
	Phone             string         `gorm:"size:20;not null" json:"phone" binding:"required"`
	Address           string         `gorm:"size:255;not null" json:"address" binding:"required"`
	Lokasi            string         `gorm:"size:100;default:'-'" json:"lokasi"`
	TeknisiPemasangan string         `gorm:"size:100;default:'-'" json:"teknisi_pemasangan"`
	PppoeUsername     *string        `gorm:"size:64;default:null" json:"pppoe_username"`
	PackageId         int            `gorm:"index;not null" json:"package_id" binding:"required"`
	Package           *Package       `json:"package"`
	Status            CustomerStatus `gorm:"type:enum('active','inactive','suspended');default:'active'" json:"status"`
	InstallationDate  time.Time      `json:"installation_date"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name              string         `json:"name" binding:"required"`
	Email             string         `json:"email" binding:"required,email"`
	Phone             string         `json:"phone" binding:"required"`
	Address           string         `json:"address" binding:"required"`
	Lokasi            string         `json:"lokasi"`
	TeknisiPemasangan string         `json:"teknisi_pemasangan"`
	PppoeUsername     string         `json:"pppoe_username"`
	PackageId         int            `json:"package_id" binding:"required"`
	Status            CustomerStatus `json:"status"`
	InstallationDate  *time.Time     `json:"installation_date"`
}

func (input *NewCustomer) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Customer](ctx, "email", input.Email, id); err != nil {
		return err
	}
	if input.PppoeUsername != "" {
		if err := utils.ValidateUnique[Customer](ctx, "pppoe_username", input.PppoeUsername, id); err != nil {
			return err
		}
	}
	if err := utils.ValidatePhoneNumber(input.Phone, "ID"); err != nil {
		return errors.New("invalid phone number")
	}
	if err := utils.ValidateResourceId[Package](ctx, input.PackageId); err != nil {
		return errors.New("package not found")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return errors.New("invalid customer status")
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = CustomerStatusActive
	}
	installationDate := time.Now()
	if input.InstallationDate != nil {
		installationDate = *input.InstallationDate
	}
	lokasi := input.Lokasi
	if lokasi == "" {
		lokasi = "-"
	}
	teknisi := input.TeknisiPemasangan
	if teknisi == "" {
		teknisi = "-"
	}

	customer := Customer{
		Name:              input.Name,
		Email:             input.Email,
		Phone:             input.Phone,
		Address:           input.Address,
		Lokasi:            lokasi,
		TeknisiPemasangan: teknisi,
		PppoeUsername:     utils.NilIfEmpty(input.PppoeUsername),
		PackageId:         input.PackageId,
		Status:            status,
		InstallationDate:  installationDate,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	var customer Customer
	if err := db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address
	if input.Lokasi != "" {
		customer.Lokasi = input.Lokasi
	}
	if input.TeknisiPemasangan != "" {
		customer.TeknisiPemasangan = input.TeknisiPemasangan
	}
	customer.PppoeUsername = utils.NilIfEmpty(input.PppoeUsername)
	customer.PackageId = input.PackageId
	if input.Status != "" {
		customer.Status = input.Status
	}
	if input.InstallationDate != nil {
		customer.InstallationDate = *input.InstallationDate
	}

	if err := db.WithContext(ctx).Save(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// DeleteCustomer refuses while invoices still reference the customer.
func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()

	var customer Customer
	if err := db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}

	invoiceCount, err := utils.ResourceCountWhere[Invoice](ctx, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if invoiceCount > 0 {
		return nil, errors.New("customer has invoices; set status to inactive instead")
	}

	if err := db.WithContext(ctx).Delete(&Customer{}, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()
	var customer Customer
	if err := db.WithContext(ctx).Preload("Package").First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomersByIds(ctx context.Context, ids []int) ([]*Customer, error) {
	db := config.GetDB()
	var customers []*Customer
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func ListCustomers(ctx context.Context, status CustomerStatus, search string) ([]*Customer, error) {
	db := config.GetDB()
	var customers []*Customer
	dbCtx := db.WithContext(ctx).Preload("Package").Order("name asc")
	if status != "" {
		dbCtx = dbCtx.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	if err := dbCtx.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// GetActiveCustomersWithPackage feeds the billing cycle engine.
func GetActiveCustomersWithPackage(ctx context.Context) ([]*Customer, error) {
	db := config.GetDB()
	var customers []*Customer
	if err := db.WithContext(ctx).
		Preload("Package").
		Where("status = ?", CustomerStatusActive).
		Order("id asc").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
