package repository

import (
	"context"
	"errors"

	"carrental/internal/model"

	"gorm.io/gorm"
)

// GroupSummary is one row of the derived configuration view: all units
// sharing make/model/year/daily_rate, with availability counts.
type GroupSummary struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	DailyRate string `json:"daily_rate"`
	Total     int64  `json:"total"`
	Available int64  `json:"available"`
}

// VehicleRepository defines the data access surface for fleet units. All
// methods honor a transaction injected into the context by TransactionManager.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	CreateBatch(ctx context.Context, vehicles []model.Vehicle) error
	Save(ctx context.Context, vehicle *model.Vehicle) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Vehicle, error)
	ExistsByRegistration(ctx context.Context, registration string) (bool, error)
	ListByConfiguration(ctx context.Context, make, vehicleModel string, year int) ([]model.Vehicle, error)
	ListRegistrationsByPrefix(ctx context.Context, prefix string) ([]string, error)
	List(ctx context.Context, search, status string, page, limit int) ([]model.Vehicle, int64, error)
	CountByConfiguration(ctx context.Context, make, vehicleModel string, year int) (int64, error)
	GroupSummaries(ctx context.Context) ([]GroupSummary, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(vehicle).Error
}

func (r *vehicleRepository) CreateBatch(ctx context.Context, vehicles []model.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&vehicles).Error
}

func (r *vehicleRepository) Save(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Save(vehicle).Error
}

func (r *vehicleRepository) Delete(ctx context.Context, id uint) error {
	return GetDB(ctx, r.db).Delete(&model.Vehicle{}, id).Error
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uint) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) ExistsByRegistration(ctx context.Context, registration string) (bool, error) {
	var vehicle model.Vehicle
	err := GetDB(ctx, r.db).Select("id").First(&vehicle, "registration = ?", registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *vehicleRepository) ListByConfiguration(ctx context.Context, make, vehicleModel string, year int) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := GetDB(ctx, r.db).
		Where("make = ? AND model = ? AND year = ?", make, vehicleModel, year).
		Order("id").
		Find(&vehicles).Error
	return vehicles, err
}

// ListRegistrationsByPrefix returns every registration in the store starting
// with prefix, regardless of configuration. Registrations are globally
// unique, so the suffix scan must cover unrelated groups sharing a prefix.
func (r *vehicleRepository) ListRegistrationsByPrefix(ctx context.Context, prefix string) ([]string, error) {
	var registrations []string
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("registration LIKE ?", prefix+"%").
		Pluck("registration", &registrations).Error
	return registrations, err
}

func (r *vehicleRepository) List(ctx context.Context, search, status string, page, limit int) ([]model.Vehicle, int64, error) {
	var vehicles []model.Vehicle
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Vehicle{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("make ILIKE ? OR model ILIKE ? OR registration ILIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("make, model, year, id").Offset(offset).Limit(limit).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

func (r *vehicleRepository) CountByConfiguration(ctx context.Context, make, vehicleModel string, year int) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("make = ? AND model = ? AND year = ?", make, vehicleModel, year).
		Count(&count).Error
	return count, err
}

func (r *vehicleRepository) GroupSummaries(ctx context.Context) ([]GroupSummary, error) {
	var rows []GroupSummary
	err := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Select("make, model, year, daily_rate, COUNT(*) as total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as available", model.VehicleAvailable).
		Group("make, model, year, daily_rate").
		Order("make, model, year").
		Scan(&rows).Error
	return rows, err
}
