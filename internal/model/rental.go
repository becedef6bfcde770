package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rental status constants
const (
	RentalActive    = "Active"
	RentalCompleted = "Completed"
	RentalCancelled = "Cancelled"
)

// Rental links one customer to one vehicle for a date range. TotalCost is
// computed once at creation and never recalculated. A vehicle is Rented if
// and only if it has exactly one Active rental.
type Rental struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"not null;index" json:"customer_id"`
	Customer   Customer        `gorm:"foreignKey:CustomerID" json:"customer"`
	VehicleID  uint            `gorm:"not null;index" json:"vehicle_id"`
	Vehicle    Vehicle         `gorm:"foreignKey:VehicleID" json:"vehicle"`
	RentalDate time.Time       `gorm:"type:date;not null" json:"rental_date"`
	ReturnDate *time.Time      `gorm:"type:date" json:"return_date"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_cost"`
	Status     string          `gorm:"type:varchar(20);not null;default:'Active';index" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
