package service

import (
	"context"
	"sort"
	"strings"

	"carrental/internal/model"
	"carrental/internal/repository"

	"gorm.io/gorm"
)

// memStore backs the fake repositories with plain maps so service logic can
// be exercised without a database.
type memStore struct {
	vehicles      map[uint]model.Vehicle
	customers     map[uint]model.Customer
	rentals       map[uint]model.Rental
	users         map[string]model.User
	nextVehicleID uint
	nextCustID    uint
	nextRentalID  uint
}

func newMemStore() *memStore {
	return &memStore{
		vehicles:  make(map[uint]model.Vehicle),
		customers: make(map[uint]model.Customer),
		rentals:   make(map[uint]model.Rental),
		users:     make(map[string]model.User),
	}
}

func (m *memStore) addVehicle(v model.Vehicle) model.Vehicle {
	m.nextVehicleID++
	v.ID = m.nextVehicleID
	m.vehicles[v.ID] = v
	return v
}

func (m *memStore) addCustomer(c model.Customer) model.Customer {
	m.nextCustID++
	c.ID = m.nextCustID
	m.customers[c.ID] = c
	return c
}

func (m *memStore) sortedVehicles() []model.Vehicle {
	out := make([]model.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- fake transaction manager ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// --- fake vehicle repository ---

type fakeVehicleRepo struct {
	store *memStore
}

func (r *fakeVehicleRepo) Create(_ context.Context, vehicle *model.Vehicle) error {
	*vehicle = r.store.addVehicle(*vehicle)
	return nil
}

func (r *fakeVehicleRepo) CreateBatch(_ context.Context, vehicles []model.Vehicle) error {
	for i := range vehicles {
		vehicles[i] = r.store.addVehicle(vehicles[i])
	}
	return nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, vehicle *model.Vehicle) error {
	r.store.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id uint) error {
	delete(r.store.vehicles, id)
	return nil
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uint) (*model.Vehicle, error) {
	v, ok := r.store.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *fakeVehicleRepo) ExistsByRegistration(_ context.Context, registration string) (bool, error) {
	for _, v := range r.store.vehicles {
		if v.Registration == registration {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeVehicleRepo) ListByConfiguration(_ context.Context, make, vehicleModel string, year int) ([]model.Vehicle, error) {
	var out []model.Vehicle
	for _, v := range r.store.sortedVehicles() {
		if v.Make == make && v.Model == vehicleModel && v.Year == year {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) ListRegistrationsByPrefix(_ context.Context, prefix string) ([]string, error) {
	var out []string
	for _, v := range r.store.vehicles {
		if strings.HasPrefix(v.Registration, prefix) {
			out = append(out, v.Registration)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) List(_ context.Context, search, status string, page, limit int) ([]model.Vehicle, int64, error) {
	var out []model.Vehicle
	for _, v := range r.store.sortedVehicles() {
		if status != "" && v.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Make+" "+v.Model+" "+v.Registration), strings.ToLower(search)) {
			continue
		}
		out = append(out, v)
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *fakeVehicleRepo) CountByConfiguration(ctx context.Context, make, vehicleModel string, year int) (int64, error) {
	vehicles, _ := r.ListByConfiguration(ctx, make, vehicleModel, year)
	return int64(len(vehicles)), nil
}

func (r *fakeVehicleRepo) GroupSummaries(_ context.Context) ([]repository.GroupSummary, error) {
	type key struct {
		make, model, rate string
		year              int
	}
	groups := make(map[key]*repository.GroupSummary)
	for _, v := range r.store.vehicles {
		k := key{v.Make, v.Model, v.DailyRate.StringFixed(2), v.Year}
		g, ok := groups[k]
		if !ok {
			g = &repository.GroupSummary{Make: v.Make, Model: v.Model, Year: v.Year, DailyRate: k.rate}
			groups[k] = g
		}
		g.Total++
		if v.Status == model.VehicleAvailable {
			g.Available++
		}
	}
	out := make([]repository.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Make+out[i].Model < out[j].Make+out[j].Model
	})
	return out, nil
}

// --- fake customer repository ---

type fakeCustomerRepo struct {
	store *memStore
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	*customer = r.store.addCustomer(*customer)
	return nil
}

func (r *fakeCustomerRepo) Save(_ context.Context, customer *model.Customer) error {
	r.store.customers[customer.ID] = *customer
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uint) error {
	delete(r.store.customers, id)
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uint) (*model.Customer, error) {
	c, ok := r.store.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *fakeCustomerRepo) ExistsByNameAndContact(_ context.Context, name, contact string) (bool, error) {
	for _, c := range r.store.customers {
		if c.Name == name && c.Contact == contact {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCustomerRepo) List(_ context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.store.customers {
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Contact), strings.ToLower(search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// --- fake rental repository ---

type fakeRentalRepo struct {
	store *memStore
}

func (r *fakeRentalRepo) Create(_ context.Context, rental *model.Rental) error {
	r.store.nextRentalID++
	rental.ID = r.store.nextRentalID
	r.store.rentals[rental.ID] = *rental
	return nil
}

func (r *fakeRentalRepo) Save(_ context.Context, rental *model.Rental) error {
	r.store.rentals[rental.ID] = *rental
	return nil
}

func (r *fakeRentalRepo) FindByID(_ context.Context, id uint) (*model.Rental, error) {
	rental, ok := r.store.rentals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	r.attach(&rental)
	return &rental, nil
}

func (r *fakeRentalRepo) attach(rental *model.Rental) {
	if c, ok := r.store.customers[rental.CustomerID]; ok {
		rental.Customer = c
	}
	if v, ok := r.store.vehicles[rental.VehicleID]; ok {
		rental.Vehicle = v
	}
}

func (r *fakeRentalRepo) HasActiveByVehicleID(_ context.Context, vehicleID uint) (bool, error) {
	for _, rental := range r.store.rentals {
		if rental.VehicleID == vehicleID && rental.Status == model.RentalActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRentalRepo) HasActiveByCustomerID(_ context.Context, customerID uint) (bool, error) {
	for _, rental := range r.store.rentals {
		if rental.CustomerID == customerID && rental.Status == model.RentalActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRentalRepo) List(_ context.Context, status string, page, limit int) ([]model.Rental, int64, error) {
	var out []model.Rental
	for _, rental := range r.store.rentals {
		if status != "" && rental.Status != status {
			continue
		}
		r.attach(&rental)
		out = append(out, rental)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeRentalRepo) Recent(ctx context.Context, limit int) ([]model.Rental, error) {
	out, _, err := r.List(ctx, "", 1, limit)
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRentalRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var count int64
	for _, rental := range r.store.rentals {
		if rental.Status == status {
			count++
		}
	}
	return count, nil
}

// --- fake user repository ---

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.store.users[user.Username] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range r.store.users {
		if u.ID.String() == id {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.store.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.store.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, int64(len(out)), nil
}
