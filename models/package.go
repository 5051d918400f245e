package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"github.com/shopspring/decimal"
)

// Package is an internet subscription plan. Price is copied onto invoices at
// generation time, never referenced live.
type Package struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Speed       string          `gorm:"size:50;not null" json:"speed" binding:"required"`
	Price       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price" binding:"required"`
	Description string          `gorm:"size:255" json:"description"`
	Type        PackageType     `gorm:"type:enum('home','business');default:'home'" json:"type"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPackage struct {
	Name        string          `json:"name" binding:"required"`
	Speed       string          `json:"speed" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Description string          `json:"description"`
	Type        PackageType     `json:"type"`
	IsActive    *bool           `json:"is_active"`
}

func (input *NewPackage) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Package](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Package](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if input.Type != "" && !input.Type.IsValid() {
		return errors.New("invalid package type")
	}
	return nil
}

func CreatePackage(ctx context.Context, input *NewPackage) (*Package, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	pkgType := input.Type
	if pkgType == "" {
		pkgType = PackageTypeHome
	}
	isActive := input.IsActive
	if isActive == nil {
		isActive = utils.NewTrue()
	}

	pkg := Package{
		Name:        input.Name,
		Speed:       input.Speed,
		Price:       input.Price,
		Description: input.Description,
		Type:        pkgType,
		IsActive:    isActive,
	}
	if err := db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func UpdatePackage(ctx context.Context, id int, input *NewPackage) (*Package, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	var pkg Package
	if err := db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		return nil, err
	}

	pkg.Name = input.Name
	pkg.Speed = input.Speed
	pkg.Price = input.Price
	pkg.Description = input.Description
	if input.Type != "" {
		pkg.Type = input.Type
	}
	if input.IsActive != nil {
		pkg.IsActive = input.IsActive
	}

	if err := db.WithContext(ctx).Save(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// DeletePackage refuses while customers or invoices still reference the plan.
func DeletePackage(ctx context.Context, id int) error {
	db := config.GetDB()

	customerCount, err := utils.ResourceCountWhere[Customer](ctx, "package_id = ?", id)
	if err != nil {
		return err
	}
	if customerCount > 0 {
		return errors.New("package is still assigned to customers")
	}
	invoiceCount, err := utils.ResourceCountWhere[Invoice](ctx, "package_id = ?", id)
	if err != nil {
		return err
	}
	if invoiceCount > 0 {
		return errors.New("package is referenced by invoices")
	}

	result := db.WithContext(ctx).Delete(&Package{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

func GetPackage(ctx context.Context, id int) (*Package, error) {
	db := config.GetDB()
	var pkg Package
	if err := db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func ListPackages(ctx context.Context, activeOnly bool) ([]*Package, error) {
	db := config.GetDB()
	var packages []*Package
	dbCtx := db.WithContext(ctx).Order("name asc")
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	if err := dbCtx.Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}
