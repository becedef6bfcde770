package model

import "time"

// Customer represents a rental customer. No two customers may share the same
// (name, contact) pair; the service layer enforces this before insert.
type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Contact        string    `gorm:"type:varchar(20);not null" json:"contact"`
	LicenseDetails string    `gorm:"type:varchar(255);not null" json:"license_details"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
