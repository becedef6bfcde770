package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"carrental/internal/apperrors"
	"carrental/internal/model"
	"carrental/internal/repository"
	ws "carrental/internal/websocket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type AddVehicleRequest struct {
	Make         string `json:"make" binding:"required"`
	Model        string `json:"model" binding:"required"`
	Year         int    `json:"year" binding:"required"`
	Registration string `json:"registration" binding:"required"`
	DailyRate    string `json:"daily_rate" binding:"required"`
}

type AddVehicleBatchRequest struct {
	Make             string `json:"make" binding:"required"`
	Model            string `json:"model" binding:"required"`
	Year             int    `json:"year" binding:"required"`
	BaseRegistration string `json:"base_registration" binding:"required"`
	DailyRate        string `json:"daily_rate" binding:"required"`
	Quantity         int    `json:"quantity" binding:"required"`
}

type AdjustStockRequest struct {
	Make                  string `json:"make" binding:"required"`
	Model                 string `json:"model" binding:"required"`
	Year                  int    `json:"year" binding:"required"`
	ReferenceRegistration string `json:"reference_registration" binding:"required"`
	DailyRate             string `json:"daily_rate" binding:"required"`
	TargetQuantity        *int   `json:"target_quantity" binding:"required"`
}

// AdjustStockResult reports the reconciliation outcome. OK is false when a
// shrink was rejected because too few units were Available for removal.
type AdjustStockResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

type UpdateVehicleRequest struct {
	Make         *string `json:"make"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	Registration *string `json:"registration"`
	Status       *string `json:"status"`
	DailyRate    *string `json:"daily_rate"`
}

type UpdateVehicleGroupRequest struct {
	OldMake  string `json:"old_make" binding:"required"`
	OldModel string `json:"old_model" binding:"required"`
	OldYear  int    `json:"old_year" binding:"required"`
	NewMake  string `json:"new_make" binding:"required"`
	NewModel string `json:"new_model" binding:"required"`
	NewYear  int    `json:"new_year" binding:"required"`
	NewRate  string `json:"new_rate" binding:"required"`
}

type VehicleResponse struct {
	ID           uint   `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Registration string `json:"registration"`
	Status       string `json:"status"`
	DailyRate    string `json:"daily_rate"`
}

// --- Interface ---

type FleetService interface {
	AddVehicle(ctx context.Context, req AddVehicleRequest) (VehicleResponse, error)
	AddVehicleBatch(ctx context.Context, req AddVehicleBatchRequest) ([]VehicleResponse, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (AdjustStockResult, error)
	UpdateVehicle(ctx context.Context, id uint, req UpdateVehicleRequest) (VehicleResponse, error)
	UpdateVehicleGroup(ctx context.Context, req UpdateVehicleGroupRequest) (int, error)
	DeleteVehicle(ctx context.Context, id uint) (bool, error)
	DeleteVehicleGroup(ctx context.Context, make, vehicleModel string, year int) (int, error)
	GetVehicle(ctx context.Context, id uint) (VehicleResponse, error)
	ListVehicles(ctx context.Context, search, status string, page, limit int) ([]VehicleResponse, int64, error)
	CountVehicles(ctx context.Context, make, vehicleModel string, year int) (int64, error)
	GroupSummaries(ctx context.Context) ([]repository.GroupSummary, error)
}

type fleetService struct {
	vehicleRepo repository.VehicleRepository
	rentalRepo  repository.RentalRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewFleetService(
	vehicleRepo repository.VehicleRepository,
	rentalRepo repository.RentalRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) FleetService {
	return &fleetService{
		vehicleRepo: vehicleRepo,
		rentalRepo:  rentalRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Registration naming helpers ---

// splitSuffix splits a registration into its base prefix and trailing numeric
// suffix. Only the final hyphen-delimited token counts, and it must be purely
// digits: "ABC-12" -> ("ABC", 12, true), "ABC-X-7" -> ("ABC-X", 7, true),
// "ABC" and "ABC-7B" report ok=false.
func splitSuffix(registration string) (string, int, bool) {
	idx := strings.LastIndex(registration, "-")
	if idx < 0 || idx == len(registration)-1 {
		return registration, 0, false
	}
	tail := registration[idx+1:]
	for _, r := range tail {
		if r < '0' || r > '9' {
			return registration, 0, false
		}
	}
	n, err := strconv.Atoi(tail)
	if err != nil {
		return registration, 0, false
	}
	return registration[:idx], n, true
}

func parseRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.E(apperrors.KindInvalidInput, "invalid daily rate %q", raw)
	}
	if rate.IsNegative() {
		return decimal.Zero, apperrors.E(apperrors.KindInvalidInput, "daily rate cannot be negative")
	}
	return rate, nil
}

// --- Stock reconciliation ---

// AdjustStock reconciles a configuration's unit count against a target:
// grow synthesizes collision-free registrations from the reference prefix,
// shrink removes only Available units, newest first, all-or-nothing.
func (s *fleetService) AdjustStock(ctx context.Context, req AdjustStockRequest) (AdjustStockResult, error) {
	if req.TargetQuantity == nil || *req.TargetQuantity < 0 {
		return AdjustStockResult{}, apperrors.E(apperrors.KindInvalidInput, "target quantity must be zero or positive")
	}
	target := *req.TargetQuantity

	rate, err := parseRate(req.DailyRate)
	if err != nil {
		return AdjustStockResult{}, err
	}

	var result AdjustStockResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.vehicleRepo.ListByConfiguration(txCtx, req.Make, req.Model, req.Year)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		current := len(existing)

		switch {
		case target == current:
			result = AdjustStockResult{OK: true, Message: "No change in stock."}
			return nil
		case target > current:
			added, err := s.growStock(txCtx, req, rate, existing, target-current)
			if err != nil {
				return err
			}
			result = AdjustStockResult{
				OK:      true,
				Message: fmt.Sprintf("Added %d new vehicles to fleet.", added),
				Added:   added,
			}
			return nil
		default:
			removed, removable, err := s.shrinkStock(txCtx, existing, current-target)
			if err != nil {
				return err
			}
			if removed == 0 {
				result = AdjustStockResult{
					OK: false,
					Message: fmt.Sprintf("Cannot reduce stock to %d. Only %d available for removal (others are Rented/Maintenance).",
						target, removable),
				}
				return nil
			}
			result = AdjustStockResult{
				OK:      true,
				Message: fmt.Sprintf("Removed %d vehicles from fleet.", removed),
				Removed: removed,
			}
			return nil
		}
	})
	if err != nil {
		return AdjustStockResult{}, err
	}

	if result.OK && (result.Added > 0 || result.Removed > 0) {
		s.hub.BroadcastEvent(ws.EventStockAdjusted, map[string]interface{}{
			"make": req.Make, "model": req.Model, "year": req.Year,
			"added": result.Added, "removed": result.Removed,
		})
	}
	return result, nil
}

// growStock creates `needed` new Available units. The suffix scan covers both
// the configuration itself and every registration in the store sharing the
// derived prefix: registrations are globally unique, so a narrower scan could
// propose an identifier already taken by an unrelated configuration.
func (s *fleetService) growStock(ctx context.Context, req AdjustStockRequest, rate decimal.Decimal, existing []model.Vehicle, needed int) (int, error) {
	base, _, hasSuffix := splitSuffix(req.ReferenceRegistration)
	if !hasSuffix {
		base = req.ReferenceRegistration
	}

	maxSuffix := 0
	for _, v := range existing {
		if _, n, ok := splitSuffix(v.Registration); ok && n > maxSuffix {
			maxSuffix = n
		}
	}

	globalRegs, err := s.vehicleRepo.ListRegistrationsByPrefix(ctx, base+"-")
	if err != nil {
		return 0, fmt.Errorf("failed to scan registrations: %w", err)
	}
	for _, reg := range globalRegs {
		if _, n, ok := splitSuffix(reg); ok && n > maxSuffix {
			maxSuffix = n
		}
	}

	units := make([]model.Vehicle, 0, needed)
	for i := 0; i < needed; i++ {
		newReg := fmt.Sprintf("%s-%d", base, maxSuffix+1+i)

		// Re-verify before committing; a pre-existing irregular registration
		// gets a disambiguating suffix instead of failing the whole batch.
		for attempt := 1; ; attempt++ {
			taken, err := s.vehicleRepo.ExistsByRegistration(ctx, newReg)
			if err != nil {
				return 0, fmt.Errorf("failed to verify registration: %w", err)
			}
			if !taken {
				break
			}
			newReg = fmt.Sprintf("%s-%d-%d", base, maxSuffix+1+i, attempt)
		}

		units = append(units, model.Vehicle{
			Make:         req.Make,
			Model:        req.Model,
			Year:         req.Year,
			Registration: newReg,
			Status:       model.VehicleAvailable,
			DailyRate:    rate,
		})
	}

	if err := s.vehicleRepo.CreateBatch(ctx, units); err != nil {
		return 0, fmt.Errorf("failed to create vehicles: %w", err)
	}
	return len(units), nil
}

// shrinkStock removes `toRemove` Available units, highest id first. Returns
// (0, removableCount, nil) when too few units are safe to remove; the caller
// reports the rejection without touching the store.
func (s *fleetService) shrinkStock(ctx context.Context, existing []model.Vehicle, toRemove int) (int, int, error) {
	available := make([]model.Vehicle, 0, len(existing))
	for _, v := range existing {
		if v.Status == model.VehicleAvailable {
			available = append(available, v)
		}
	}

	if len(available) < toRemove {
		return 0, len(available), nil
	}

	// Newest units go first.
	sort.Slice(available, func(i, j int) bool { return available[i].ID > available[j].ID })
	for i := 0; i < toRemove; i++ {
		if err := s.vehicleRepo.Delete(ctx, available[i].ID); err != nil {
			return 0, 0, fmt.Errorf("failed to remove vehicle %d: %w", available[i].ID, err)
		}
	}
	return toRemove, len(available), nil
}

// --- Vehicle CRUD ---

func (s *fleetService) AddVehicle(ctx context.Context, req AddVehicleRequest) (VehicleResponse, error) {
	rate, err := parseRate(req.DailyRate)
	if err != nil {
		return VehicleResponse{}, err
	}

	vehicle := model.Vehicle{
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Registration: req.Registration,
		Status:       model.VehicleAvailable,
		DailyRate:    rate,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		taken, err := s.vehicleRepo.ExistsByRegistration(txCtx, req.Registration)
		if err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if taken {
			return apperrors.E(apperrors.KindConflict, "a vehicle with registration '%s' already exists", req.Registration)
		}
		return s.vehicleRepo.Create(txCtx, &vehicle)
	})
	if err != nil {
		return VehicleResponse{}, err
	}
	return toVehicleResponse(vehicle), nil
}

func (s *fleetService) AddVehicleBatch(ctx context.Context, req AddVehicleBatchRequest) ([]VehicleResponse, error) {
	if req.Quantity < 1 {
		return nil, apperrors.E(apperrors.KindInvalidInput, "quantity must be at least 1")
	}
	rate, err := parseRate(req.DailyRate)
	if err != nil {
		return nil, err
	}

	var created []model.Vehicle
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		units := make([]model.Vehicle, 0, req.Quantity)
		for i := 1; i <= req.Quantity; i++ {
			reg := req.BaseRegistration
			if req.Quantity > 1 {
				reg = fmt.Sprintf("%s-%d", req.BaseRegistration, i)
			}

			taken, err := s.vehicleRepo.ExistsByRegistration(txCtx, reg)
			if err != nil {
				return fmt.Errorf("failed to check registration: %w", err)
			}
			if taken {
				return apperrors.E(apperrors.KindConflict,
					"a vehicle with registration '%s' already exists, use a different plate prefix", reg)
			}

			units = append(units, model.Vehicle{
				Make:         req.Make,
				Model:        req.Model,
				Year:         req.Year,
				Registration: reg,
				Status:       model.VehicleAvailable,
				DailyRate:    rate,
			})
		}
		if err := s.vehicleRepo.CreateBatch(txCtx, units); err != nil {
			return fmt.Errorf("failed to create vehicles: %w", err)
		}
		created = units
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastEvent(ws.EventVehiclesAdded, map[string]interface{}{
		"make": req.Make, "model": req.Model, "year": req.Year, "count": len(created),
	})

	res := make([]VehicleResponse, 0, len(created))
	for _, v := range created {
		res = append(res, toVehicleResponse(v))
	}
	return res, nil
}

func (s *fleetService) UpdateVehicle(ctx context.Context, id uint, req UpdateVehicleRequest) (VehicleResponse, error) {
	var updated model.Vehicle
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, err := s.vehicleRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.E(apperrors.KindNotFound, "vehicle not found")
			}
			return fmt.Errorf("failed to load vehicle: %w", err)
		}

		if req.Registration != nil && *req.Registration != vehicle.Registration {
			taken, err := s.vehicleRepo.ExistsByRegistration(txCtx, *req.Registration)
			if err != nil {
				return fmt.Errorf("failed to check registration: %w", err)
			}
			if taken {
				return apperrors.E(apperrors.KindConflict,
					"registration '%s' is already used by another vehicle", *req.Registration)
			}
			vehicle.Registration = *req.Registration
		}
		if req.Make != nil {
			vehicle.Make = *req.Make
		}
		if req.Model != nil {
			vehicle.Model = *req.Model
		}
		if req.Year != nil {
			vehicle.Year = *req.Year
		}
		if req.Status != nil {
			switch *req.Status {
			case model.VehicleAvailable, model.VehicleRented, model.VehicleMaintenance:
				vehicle.Status = *req.Status
			default:
				return apperrors.E(apperrors.KindInvalidInput, "status must be Available, Rented or Maintenance")
			}
		}
		if req.DailyRate != nil {
			rate, err := parseRate(*req.DailyRate)
			if err != nil {
				return err
			}
			vehicle.DailyRate = rate
		}

		if err := s.vehicleRepo.Save(txCtx, vehicle); err != nil {
			return fmt.Errorf("failed to update vehicle: %w", err)
		}
		updated = *vehicle
		return nil
	})
	if err != nil {
		return VehicleResponse{}, err
	}
	return toVehicleResponse(updated), nil
}

// UpdateVehicleGroup rewrites make/model/year/rate for every unit in a
// configuration at once.
func (s *fleetService) UpdateVehicleGroup(ctx context.Context, req UpdateVehicleGroupRequest) (int, error) {
	rate, err := parseRate(req.NewRate)
	if err != nil {
		return 0, err
	}

	count := 0
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicles, err := s.vehicleRepo.ListByConfiguration(txCtx, req.OldMake, req.OldModel, req.OldYear)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if len(vehicles) == 0 {
			return apperrors.E(apperrors.KindNotFound, "no vehicles found for that group")
		}
		for i := range vehicles {
			vehicles[i].Make = req.NewMake
			vehicles[i].Model = req.NewModel
			vehicles[i].Year = req.NewYear
			vehicles[i].DailyRate = rate
			if err := s.vehicleRepo.Save(txCtx, &vehicles[i]); err != nil {
				return fmt.Errorf("failed to update vehicle %d: %w", vehicles[i].ID, err)
			}
		}
		count = len(vehicles)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteVehicle removes one unit. Blocked while an Active rental references
// it; the check and the delete share one transaction so a rental cannot slip
// in between.
func (s *fleetService) DeleteVehicle(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.rentalRepo.HasActiveByVehicleID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check rentals: %w", err)
		}
		if active {
			return apperrors.E(apperrors.KindRestriction, "cannot delete vehicle with an active rental")
		}

		if _, err := s.vehicleRepo.FindByID(txCtx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load vehicle: %w", err)
		}
		if err := s.vehicleRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete vehicle: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// DeleteVehicleGroup tears down every unit in a configuration. Any unit that
// is not Available, or that still has an Active rental, blocks the whole
// operation.
func (s *fleetService) DeleteVehicleGroup(ctx context.Context, make, vehicleModel string, year int) (int, error) {
	count := 0
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicles, err := s.vehicleRepo.ListByConfiguration(txCtx, make, vehicleModel, year)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		busy := 0
		for _, v := range vehicles {
			if v.Status != model.VehicleAvailable {
				busy++
			}
		}
		if busy > 0 {
			return apperrors.E(apperrors.KindRestriction,
				"cannot delete group: %d vehicle(s) are currently Rented or in Maintenance", busy)
		}

		for _, v := range vehicles {
			active, err := s.rentalRepo.HasActiveByVehicleID(txCtx, v.ID)
			if err != nil {
				return fmt.Errorf("failed to check rentals: %w", err)
			}
			if active {
				return apperrors.E(apperrors.KindRestriction,
					"cannot delete vehicle %d: it has an active rental", v.ID)
			}
			if err := s.vehicleRepo.Delete(txCtx, v.ID); err != nil {
				return fmt.Errorf("failed to delete vehicle %d: %w", v.ID, err)
			}
		}
		count = len(vehicles)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// --- Reads ---

func (s *fleetService) GetVehicle(ctx context.Context, id uint) (VehicleResponse, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VehicleResponse{}, apperrors.E(apperrors.KindNotFound, "vehicle not found")
		}
		return VehicleResponse{}, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return toVehicleResponse(*vehicle), nil
}

func (s *fleetService) ListVehicles(ctx context.Context, search, status string, page, limit int) ([]VehicleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	vehicles, total, err := s.vehicleRepo.List(ctx, search, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	res := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		res = append(res, toVehicleResponse(v))
	}
	return res, total, nil
}

func (s *fleetService) CountVehicles(ctx context.Context, make, vehicleModel string, year int) (int64, error) {
	return s.vehicleRepo.CountByConfiguration(ctx, make, vehicleModel, year)
}

func (s *fleetService) GroupSummaries(ctx context.Context) ([]repository.GroupSummary, error) {
	return s.vehicleRepo.GroupSummaries(ctx)
}

func toVehicleResponse(v model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		Registration: v.Registration,
		Status:       v.Status,
		DailyRate:    v.DailyRate.StringFixed(2),
	}
}
