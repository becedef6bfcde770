package repository

import (
	"context"
	"errors"

	"carrental/internal/model"

	"gorm.io/gorm"
)

// RentalRepository defines the data access surface for rental transactions.
type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental) error
	Save(ctx context.Context, rental *model.Rental) error
	FindByID(ctx context.Context, id uint) (*model.Rental, error)
	// HasActiveByVehicleID reports whether the vehicle is referenced by an
	// Active rental. Used for the delete restriction check.
	HasActiveByVehicleID(ctx context.Context, vehicleID uint) (bool, error)
	HasActiveByCustomerID(ctx context.Context, customerID uint) (bool, error)
	// List returns rentals with customer and vehicle detail eagerly attached.
	List(ctx context.Context, status string, page, limit int) ([]model.Rental, int64, error)
	Recent(ctx context.Context, limit int) ([]model.Rental, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type rentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	return GetDB(ctx, r.db).Create(rental).Error
}

func (r *rentalRepository) Save(ctx context.Context, rental *model.Rental) error {
	return GetDB(ctx, r.db).Save(rental).Error
}

func (r *rentalRepository) FindByID(ctx context.Context, id uint) (*model.Rental, error) {
	var rental model.Rental
	if err := GetDB(ctx, r.db).Preload("Customer").Preload("Vehicle").First(&rental, id).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *rentalRepository) HasActiveByVehicleID(ctx context.Context, vehicleID uint) (bool, error) {
	return r.hasActive(ctx, "vehicle_id = ?", vehicleID)
}

func (r *rentalRepository) HasActiveByCustomerID(ctx context.Context, customerID uint) (bool, error) {
	return r.hasActive(ctx, "customer_id = ?", customerID)
}

func (r *rentalRepository) hasActive(ctx context.Context, cond string, id uint) (bool, error) {
	var rental model.Rental
	err := GetDB(ctx, r.db).Select("id").
		Where(cond, id).Where("status = ?", model.RentalActive).
		First(&rental).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *rentalRepository) List(ctx context.Context, status string, page, limit int) ([]model.Rental, int64, error) {
	var rentals []model.Rental
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Rental{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Customer").Preload("Vehicle").
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&rentals).Error
	if err != nil {
		return nil, 0, err
	}
	return rentals, total, nil
}

func (r *rentalRepository) Recent(ctx context.Context, limit int) ([]model.Rental, error) {
	var rentals []model.Rental
	err := GetDB(ctx, r.db).Preload("Customer").Preload("Vehicle").
		Order("id DESC").Limit(limit).
		Find(&rentals).Error
	return rentals, err
}

func (r *rentalRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Rental{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
