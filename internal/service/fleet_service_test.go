package service

import (
	"context"
	"testing"

	"carrental/internal/apperrors"
	"carrental/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFleetFixture() (*memStore, FleetService) {
	store := newMemStore()
	vehicleRepo := &fakeVehicleRepo{store: store}
	rentalRepo := &fakeRentalRepo{store: store}
	svc := NewFleetService(vehicleRepo, rentalRepo, fakeTxManager{}, nil)
	return store, svc
}

func seedUnit(store *memStore, reg, status string) model.Vehicle {
	return store.addVehicle(model.Vehicle{
		Make:         "Toyota",
		Model:        "Vios",
		Year:         2022,
		Registration: reg,
		Status:       status,
		DailyRate:    decimal.NewFromInt(1500),
	})
}

func adjustReq(target int) AdjustStockRequest {
	return AdjustStockRequest{
		Make:                  "Toyota",
		Model:                 "Vios",
		Year:                  2022,
		ReferenceRegistration: "ABC-5",
		DailyRate:             "1500",
		TargetQuantity:        &target,
	}
}

func TestSplitSuffix(t *testing.T) {
	cases := []struct {
		in     string
		base   string
		suffix int
		ok     bool
	}{
		{"ABC-12", "ABC", 12, true},
		{"ABC-X-7", "ABC-X", 7, true},
		{"ABC", "ABC", 0, false},
		{"ABC-7B", "ABC-7B", 0, false},
		{"ABC-", "ABC-", 0, false},
		{"PLATE-2024-3", "PLATE-2024", 3, true},
	}
	for _, tc := range cases {
		base, suffix, ok := splitSuffix(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.base, base, tc.in)
		assert.Equal(t, tc.suffix, suffix, tc.in)
	}
}

func TestAdjustStockNoOp(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-4", model.VehicleAvailable)
	seedUnit(store, "ABC-5", model.VehicleAvailable)

	result, err := svc.AdjustStock(context.Background(), adjustReq(2))
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "No change in stock.", result.Message)
	assert.Len(t, store.vehicles, 2)
}

func TestAdjustStockGrowRoundTrip(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-4", model.VehicleAvailable)
	seedUnit(store, "ABC-5", model.VehicleAvailable)

	result, err := svc.AdjustStock(context.Background(), adjustReq(4))
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Added)

	regs := make(map[string]bool)
	for _, v := range store.vehicles {
		require.False(t, regs[v.Registration], "duplicate registration %s", v.Registration)
		regs[v.Registration] = true
	}
	assert.True(t, regs["ABC-6"])
	assert.True(t, regs["ABC-7"])

	for _, v := range store.vehicles {
		if v.Registration == "ABC-6" || v.Registration == "ABC-7" {
			assert.Equal(t, model.VehicleAvailable, v.Status)
			assert.True(t, v.DailyRate.Equal(decimal.NewFromInt(1500)))
		}
	}
}

func TestAdjustStockGrowScansGlobalPrefix(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	// Unrelated configuration sharing the prefix; its suffix must not be reused.
	store.addVehicle(model.Vehicle{
		Make: "Honda", Model: "City", Year: 2020,
		Registration: "ABC-9", Status: model.VehicleAvailable,
		DailyRate: decimal.NewFromInt(2000),
	})

	result, err := svc.AdjustStock(context.Background(), adjustReq(2))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	var found bool
	for _, v := range store.vehicles {
		assert.NotEqual(t, "ABC-9", v.Registration, "must not collide with other configuration")
		if v.Registration == "ABC-10" {
			found = true
		}
	}
	assert.True(t, found, "expected new unit ABC-10 after the global max suffix 9")
}

func TestAdjustStockGrowReferenceWithoutSuffix(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "VIOS", model.VehicleAvailable)

	req := adjustReq(2)
	req.ReferenceRegistration = "VIOS"
	result, err := svc.AdjustStock(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	var found bool
	for _, v := range store.vehicles {
		if v.Registration == "VIOS-1" {
			found = true
		}
	}
	assert.True(t, found)
}

// takenVehicleRepo simulates a contending writer that grabbed a candidate
// registration between the suffix scan and the insert.
type takenVehicleRepo struct {
	fakeVehicleRepo
	taken map[string]bool
}

func (r *takenVehicleRepo) ExistsByRegistration(ctx context.Context, registration string) (bool, error) {
	if r.taken[registration] {
		return true, nil
	}
	return r.fakeVehicleRepo.ExistsByRegistration(ctx, registration)
}

func TestAdjustStockGrowCollisionDisambiguator(t *testing.T) {
	store := newMemStore()
	repo := &takenVehicleRepo{fakeVehicleRepo: fakeVehicleRepo{store: store}, taken: map[string]bool{"ABC-6": true}}
	svc := NewFleetService(repo, &fakeRentalRepo{store: store}, fakeTxManager{}, nil)
	seedUnit(store, "ABC-5", model.VehicleAvailable)

	target := 2
	result, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		ReferenceRegistration: "ABC-5", DailyRate: "1500", TargetQuantity: &target,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	var found bool
	for _, v := range store.vehicles {
		if v.Registration == "ABC-6-1" {
			found = true
		}
	}
	assert.True(t, found, "expected disambiguated registration ABC-6-1")
}

func TestAdjustStockShrinkRejectsWhenTooFewAvailable(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	seedUnit(store, "ABC-2", model.VehicleRented)
	seedUnit(store, "ABC-3", model.VehicleMaintenance)

	result, err := svc.AdjustStock(context.Background(), adjustReq(0))
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "Only 1 available for removal")
	assert.Len(t, store.vehicles, 3, "store must be left completely unchanged")
}

func TestAdjustStockShrinkSelectsNewestAvailable(t *testing.T) {
	store, svc := newFleetFixture()
	v1 := seedUnit(store, "ABC-1", model.VehicleAvailable)
	v2 := seedUnit(store, "ABC-2", model.VehicleRented)
	v3 := seedUnit(store, "ABC-3", model.VehicleAvailable)
	v4 := seedUnit(store, "ABC-4", model.VehicleAvailable)

	result, err := svc.AdjustStock(context.Background(), adjustReq(2))
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Removed)

	// The two newest Available units go; the rented unit is never a candidate.
	assert.Contains(t, store.vehicles, v1.ID)
	assert.Contains(t, store.vehicles, v2.ID)
	assert.NotContains(t, store.vehicles, v3.ID)
	assert.NotContains(t, store.vehicles, v4.ID)
}

func TestAdjustStockFullTeardown(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	seedUnit(store, "ABC-2", model.VehicleAvailable)

	result, err := svc.AdjustStock(context.Background(), adjustReq(0))
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Empty(t, store.vehicles)
}

func TestAdjustStockRejectsNegativeTarget(t *testing.T) {
	_, svc := newFleetFixture()
	target := -1
	_, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		ReferenceRegistration: "ABC-1", DailyRate: "1500", TargetQuantity: &target,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func TestAddVehicleBatchNumbering(t *testing.T) {
	store, svc := newFleetFixture()

	vehicles, err := svc.AddVehicleBatch(context.Background(), AddVehicleBatchRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		BaseRegistration: "XYZ", DailyRate: "1200", Quantity: 3,
	})
	require.NoError(t, err)
	require.Len(t, vehicles, 3)
	assert.Equal(t, "XYZ-1", vehicles[0].Registration)
	assert.Equal(t, "XYZ-2", vehicles[1].Registration)
	assert.Equal(t, "XYZ-3", vehicles[2].Registration)
	assert.Len(t, store.vehicles, 3)
}

func TestAddVehicleBatchSingleUsesBaseVerbatim(t *testing.T) {
	_, svc := newFleetFixture()
	vehicles, err := svc.AddVehicleBatch(context.Background(), AddVehicleBatchRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		BaseRegistration: "SOLO", DailyRate: "1200", Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "SOLO", vehicles[0].Registration)
}

func TestAddVehicleBatchConflict(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "XYZ-2", model.VehicleAvailable)

	_, err := svc.AddVehicleBatch(context.Background(), AddVehicleBatchRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		BaseRegistration: "XYZ", DailyRate: "1200", Quantity: 3,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Len(t, store.vehicles, 1, "no unit may be created on conflict")
}

func TestUpdateVehicleRegistrationConflict(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	target := seedUnit(store, "ABC-2", model.VehicleAvailable)

	reg := "ABC-1"
	_, err := svc.UpdateVehicle(context.Background(), target.ID, UpdateVehicleRequest{Registration: &reg})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestUpdateVehicleFields(t *testing.T) {
	store, svc := newFleetFixture()
	v := seedUnit(store, "ABC-1", model.VehicleAvailable)

	rate := "1800.50"
	status := model.VehicleMaintenance
	updated, err := svc.UpdateVehicle(context.Background(), v.ID, UpdateVehicleRequest{
		DailyRate: &rate, Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "1800.50", updated.DailyRate)
	assert.Equal(t, model.VehicleMaintenance, updated.Status)
}

func TestUpdateVehicleRejectsUnknownStatus(t *testing.T) {
	store, svc := newFleetFixture()
	v := seedUnit(store, "ABC-1", model.VehicleAvailable)

	status := "Scrapped"
	_, err := svc.UpdateVehicle(context.Background(), v.ID, UpdateVehicleRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func TestUpdateVehicleGroup(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	seedUnit(store, "ABC-2", model.VehicleRented)

	count, err := svc.UpdateVehicleGroup(context.Background(), UpdateVehicleGroupRequest{
		OldMake: "Toyota", OldModel: "Vios", OldYear: 2022,
		NewMake: "Toyota", NewModel: "Vios GR", NewYear: 2023, NewRate: "2100",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	for _, v := range store.vehicles {
		assert.Equal(t, "Vios GR", v.Model)
		assert.Equal(t, 2023, v.Year)
		assert.True(t, v.DailyRate.Equal(decimal.NewFromInt(2100)))
	}
}

func TestUpdateVehicleGroupEmpty(t *testing.T) {
	_, svc := newFleetFixture()
	_, err := svc.UpdateVehicleGroup(context.Background(), UpdateVehicleGroupRequest{
		OldMake: "Nope", OldModel: "None", OldYear: 1999,
		NewMake: "A", NewModel: "B", NewYear: 2000, NewRate: "100",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestDeleteVehicleGroupBlockedByBusyUnit(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	seedUnit(store, "ABC-2", model.VehicleRented)

	_, err := svc.DeleteVehicleGroup(context.Background(), "Toyota", "Vios", 2022)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRestriction, apperrors.KindOf(err))
	assert.Len(t, store.vehicles, 2)
}

func TestDeleteVehicleGroupRemovesAll(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "ABC-1", model.VehicleAvailable)
	seedUnit(store, "ABC-2", model.VehicleAvailable)

	count, err := svc.DeleteVehicleGroup(context.Background(), "Toyota", "Vios", 2022)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Empty(t, store.vehicles)
}

func TestAddVehicleDuplicateRegistration(t *testing.T) {
	store, svc := newFleetFixture()
	seedUnit(store, "DUP-1", model.VehicleAvailable)

	_, err := svc.AddVehicle(context.Background(), AddVehicleRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		Registration: "DUP-1", DailyRate: "900",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestAddVehicleRejectsNegativeRate(t *testing.T) {
	_, svc := newFleetFixture()
	_, err := svc.AddVehicle(context.Background(), AddVehicleRequest{
		Make: "Toyota", Model: "Vios", Year: 2022,
		Registration: "NEG-1", DailyRate: "-5",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}
