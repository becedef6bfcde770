package service

import (
	"context"
	"errors"
	"fmt"

	"carrental/internal/apperrors"
	"carrental/internal/model"
	"carrental/internal/repository"

	"gorm.io/gorm"
)

// contactLength is the exact digit count required for a contact number.
const contactLength = 11

// --- DTOs ---

type CreateCustomerRequest struct {
	Name           string `json:"name" binding:"required"`
	Contact        string `json:"contact" binding:"required"`
	LicenseDetails string `json:"license_details"`
}

type CustomerResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Contact        string `json:"contact"`
	LicenseDetails string `json:"license_details"`
}

// --- Interface ---

type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (CustomerResponse, error)
	// DeleteCustomer returns false without error when the id does not resolve.
	DeleteCustomer(ctx context.Context, id uint) (bool, error)
	ListCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	rentalRepo   repository.RentalRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	rentalRepo repository.RentalRepository,
	txManager repository.TransactionManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		rentalRepo:   rentalRepo,
		txManager:    txManager,
	}
}

func validContact(contact string) bool {
	if len(contact) != contactLength {
		return false
	}
	for _, r := range contact {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (CustomerResponse, error) {
	if req.Name == "" || req.Contact == "" {
		return CustomerResponse{}, apperrors.E(apperrors.KindInvalidInput, "name and contact are required")
	}
	if !validContact(req.Contact) {
		return CustomerResponse{}, apperrors.E(apperrors.KindInvalidInput,
			"contact must be exactly %d digits", contactLength)
	}

	customer := model.Customer{
		Name:           req.Name,
		Contact:        req.Contact,
		LicenseDetails: req.LicenseDetails,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.customerRepo.ExistsByNameAndContact(txCtx, req.Name, req.Contact)
		if err != nil {
			return fmt.Errorf("failed to check customers: %w", err)
		}
		if exists {
			return apperrors.E(apperrors.KindConflict,
				"a customer named '%s' with that contact number already exists", req.Name)
		}
		return s.customerRepo.Create(txCtx, &customer)
	})
	if err != nil {
		return CustomerResponse{}, err
	}
	return toCustomerResponse(customer), nil
}

// DeleteCustomer removes a customer unless an Active rental references them.
// The restriction check and the delete share one transaction.
func (s *customerService) DeleteCustomer(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		active, err := s.rentalRepo.HasActiveByCustomerID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to check rentals: %w", err)
		}
		if active {
			return apperrors.E(apperrors.KindRestriction, "cannot delete customer with an active rental")
		}

		if _, err := s.customerRepo.FindByID(txCtx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load customer: %w", err)
		}
		if err := s.customerRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (s *customerService) ListCustomers(ctx context.Context, search string, page, limit int) ([]CustomerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	customers, total, err := s.customerRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	res := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		res = append(res, toCustomerResponse(c))
	}
	return res, total, nil
}

func toCustomerResponse(c model.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		Contact:        c.Contact,
		LicenseDetails: c.LicenseDetails,
	}
}
