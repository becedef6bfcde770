package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle status constants
const (
	VehicleAvailable   = "Available"
	VehicleRented      = "Rented"
	VehicleMaintenance = "Maintenance"
)

// Vehicle represents one physical unit in the fleet. Units sharing the same
// make/model/year/daily_rate form an implicit configuration group; the group
// is derived on demand, never stored.
type Vehicle struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Make         string          `gorm:"type:varchar(100);not null;index:idx_vehicle_config" json:"make"`
	Model        string          `gorm:"type:varchar(100);not null;index:idx_vehicle_config" json:"model"`
	Year         int             `gorm:"type:int;not null;index:idx_vehicle_config" json:"year"`
	Registration string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"registration"`
	Status       string          `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	DailyRate    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"daily_rate"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
