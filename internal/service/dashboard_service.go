package service

import (
	"context"
	"fmt"

	"carrental/internal/model"
	"carrental/internal/repository"

	"gorm.io/gorm"
)

// StockRow is one configuration line on the dashboard with a coarse
// availability label.
type StockRow struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Total     int64  `json:"total"`
	Available int64  `json:"available"`
	Level     string `json:"level"` // Out of Stock, Low Stock, Good
}

type DashboardResponse struct {
	TotalVehicles     int64            `json:"total_vehicles"`
	AvailableVehicles int64            `json:"available_vehicles"`
	TotalCustomers    int64            `json:"total_customers"`
	ActiveRentals     int64            `json:"active_rentals"`
	Stock             []StockRow       `json:"stock"`
	RecentRentals     []RentalResponse `json:"recent_rentals"`
}

type DashboardService interface {
	Overview(ctx context.Context) (DashboardResponse, error)
}

type dashboardService struct {
	db          *gorm.DB
	vehicleRepo repository.VehicleRepository
	rentalRepo  repository.RentalRepository
}

func NewDashboardService(db *gorm.DB, vehicleRepo repository.VehicleRepository, rentalRepo repository.RentalRepository) DashboardService {
	return &dashboardService{db: db, vehicleRepo: vehicleRepo, rentalRepo: rentalRepo}
}

// Overview recomputes the aggregate view on every call; nothing is cached, so
// the numbers always reflect the latest mutations.
func (s *dashboardService) Overview(ctx context.Context) (DashboardResponse, error) {
	var response DashboardResponse

	if err := s.db.WithContext(ctx).Model(&model.Vehicle{}).Count(&response.TotalVehicles).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count vehicles: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Vehicle{}).
		Where("status = ?", model.VehicleAvailable).
		Count(&response.AvailableVehicles).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count available vehicles: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Customer{}).Count(&response.TotalCustomers).Error; err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count customers: %w", err)
	}

	activeRentals, err := s.rentalRepo.CountByStatus(ctx, model.RentalActive)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count active rentals: %w", err)
	}
	response.ActiveRentals = activeRentals

	groups, err := s.vehicleRepo.GroupSummaries(ctx)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to load stock summary: %w", err)
	}
	response.Stock = make([]StockRow, 0, len(groups))
	for _, g := range groups {
		response.Stock = append(response.Stock, StockRow{
			Make:      g.Make,
			Model:     g.Model,
			Year:      g.Year,
			Total:     g.Total,
			Available: g.Available,
			Level:     stockLevel(g.Available),
		})
	}

	recent, err := s.rentalRepo.Recent(ctx, 5)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to load recent rentals: %w", err)
	}
	response.RecentRentals = make([]RentalResponse, 0, len(recent))
	for _, r := range recent {
		response.RecentRentals = append(response.RecentRentals, toRentalResponse(r))
	}

	return response, nil
}

func stockLevel(available int64) string {
	switch {
	case available == 0:
		return "Out of Stock"
	case available < 3:
		return "Low Stock"
	default:
		return "Good"
	}
}
