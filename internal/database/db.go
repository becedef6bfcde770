package database

import (
	"errors"
	"log"
	"os"

	"carrental/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Vehicle{},
		&model.Rental{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// SeedAdminUser creates the default admin account when no user with that
// username exists yet. The password comes from ADMIN_PASSWORD, with a dev
// fallback, and is stored bcrypt-hashed.
func SeedAdminUser(db *gorm.DB) error {
	var existing model.User
	err := db.First(&existing, "username = ?", "admin").Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "password"
		log.Println("ADMIN_PASSWORD not set, seeding admin with the default dev password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Username: "admin",
		Password: string(hashed),
		Role:     model.RoleAdmin,
	}
	return db.Create(&admin).Error
}
