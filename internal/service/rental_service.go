package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carrental/internal/apperrors"
	"carrental/internal/model"
	"carrental/internal/repository"
	ws "carrental/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// dateLayout is the only accepted wire format for rental dates.
const dateLayout = "2006-01-02"

// --- DTOs ---

type CreateRentalRequest struct {
	CustomerID uint   `json:"customer_id" binding:"required"`
	VehicleID  uint   `json:"vehicle_id" binding:"required"`
	ReturnDate string `json:"return_date" binding:"required"`
	// RentalDate defaults to today when omitted.
	RentalDate string `json:"rental_date"`
}

type RentalResponse struct {
	ID           uint   `json:"id"`
	CustomerID   uint   `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	VehicleID    uint   `json:"vehicle_id"`
	Vehicle      string `json:"vehicle"`
	Registration string `json:"registration"`
	RentalDate   string `json:"rental_date"`
	ReturnDate   string `json:"return_date,omitempty"`
	TotalCost    string `json:"total_cost"`
	Status       string `json:"status"`
}

// --- Interface ---

type RentalService interface {
	CreateRental(ctx context.Context, req CreateRentalRequest) (RentalResponse, error)
	// CompleteRental returns false without error when the rental is missing
	// or already finished; completing twice is a no-op, not a failure.
	CompleteRental(ctx context.Context, id uint) (bool, error)
	ListRentals(ctx context.Context, status string, page, limit int) ([]RentalResponse, int64, error)
}

type rentalService struct {
	rentalRepo   repository.RentalRepository
	vehicleRepo  repository.VehicleRepository
	customerRepo repository.CustomerRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
	// now is injectable so tests can pin the default rental date.
	now func() time.Time
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	vehicleRepo repository.VehicleRepository,
	customerRepo repository.CustomerRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) RentalService {
	return &rentalService{
		rentalRepo:   rentalRepo,
		vehicleRepo:  vehicleRepo,
		customerRepo: customerRepo,
		txManager:    txManager,
		hub:          hub,
		now:          time.Now,
	}
}

// CreateRental books an Available vehicle for a customer. The rental insert
// and the Available->Rented flip commit in the same transaction; a reader
// never observes one without the other.
func (s *rentalService) CreateRental(ctx context.Context, req CreateRentalRequest) (RentalResponse, error) {
	var response RentalResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.vehicleRepo.FindByID(txCtx, req.VehicleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.E(apperrors.KindNotFound, "vehicle not found")
			}
			return fmt.Errorf("failed to load vehicle: %w", err)
		}
		if vehicle.Status != model.VehicleAvailable {
			return apperrors.E(apperrors.KindConflict, "vehicle is currently %s", vehicle.Status)
		}

		customer, err := s.customerRepo.FindByID(txCtx, req.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.E(apperrors.KindNotFound, "customer not found")
			}
			return fmt.Errorf("failed to load customer: %w", err)
		}

		rentalDate := s.now().Truncate(24 * time.Hour)
		if req.RentalDate != "" {
			rentalDate, err = time.Parse(dateLayout, req.RentalDate)
			if err != nil {
				return apperrors.E(apperrors.KindInvalidInput, "invalid date format, use YYYY-MM-DD")
			}
		}
		returnDate, err := time.Parse(dateLayout, req.ReturnDate)
		if err != nil {
			return apperrors.E(apperrors.KindInvalidInput, "invalid date format, use YYYY-MM-DD")
		}

		days := int(returnDate.Sub(rentalDate).Hours() / 24)
		if days <= 0 {
			return apperrors.E(apperrors.KindInvalidInput, "return date must be after the start date")
		}

		rental := model.Rental{
			CustomerID: customer.ID,
			VehicleID:  vehicle.ID,
			RentalDate: rentalDate,
			ReturnDate: &returnDate,
			TotalCost:  vehicle.DailyRate.Mul(decimal.NewFromInt(int64(days))),
			Status:     model.RentalActive,
		}
		if err := s.rentalRepo.Create(txCtx, &rental); err != nil {
			return fmt.Errorf("failed to create rental: %w", err)
		}

		vehicle.Status = model.VehicleRented
		if err := s.vehicleRepo.Save(txCtx, vehicle); err != nil {
			return fmt.Errorf("failed to update vehicle status: %w", err)
		}

		rental.Customer = *customer
		rental.Vehicle = *vehicle
		response = toRentalResponse(rental)
		return nil
	})
	if err != nil {
		return RentalResponse{}, err
	}

	s.hub.BroadcastEvent(ws.EventRentalCreated, map[string]interface{}{
		"rental_id": response.ID, "vehicle_id": response.VehicleID, "total_cost": response.TotalCost,
	})
	return response, nil
}

func (s *rentalService) CompleteRental(ctx context.Context, id uint) (bool, error) {
	completed := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rental, err := s.rentalRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load rental: %w", err)
		}
		if rental.Status != model.RentalActive {
			return nil
		}

		rental.Status = model.RentalCompleted
		if err := s.rentalRepo.Save(txCtx, rental); err != nil {
			return fmt.Errorf("failed to update rental: %w", err)
		}

		vehicle, err := s.vehicleRepo.FindByID(txCtx, rental.VehicleID)
		if err != nil {
			return fmt.Errorf("failed to load vehicle: %w", err)
		}
		vehicle.Status = model.VehicleAvailable
		if err := s.vehicleRepo.Save(txCtx, vehicle); err != nil {
			return fmt.Errorf("failed to update vehicle status: %w", err)
		}

		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if completed {
		s.hub.BroadcastEvent(ws.EventRentalCompleted, map[string]interface{}{"rental_id": id})
	}
	return completed, nil
}

func (s *rentalService) ListRentals(ctx context.Context, status string, page, limit int) ([]RentalResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	rentals, total, err := s.rentalRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rentals: %w", err)
	}
	res := make([]RentalResponse, 0, len(rentals))
	for _, r := range rentals {
		res = append(res, toRentalResponse(r))
	}
	return res, total, nil
}

func toRentalResponse(r model.Rental) RentalResponse {
	returnDate := ""
	if r.ReturnDate != nil {
		returnDate = r.ReturnDate.Format(dateLayout)
	}
	return RentalResponse{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CustomerName: r.Customer.Name,
		VehicleID:    r.VehicleID,
		Vehicle:      r.Vehicle.Make + " " + r.Vehicle.Model,
		Registration: r.Vehicle.Registration,
		RentalDate:   r.RentalDate.Format(dateLayout),
		ReturnDate:   returnDate,
		TotalCost:    r.TotalCost.StringFixed(2),
		Status:       r.Status,
	}
}
