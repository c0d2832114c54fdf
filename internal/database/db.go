package database

import (
	"log"

	"voko-backend/internal/config"
	"voko-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.ProductCategory{},
		&models.OrderRound{},
		&models.Product{},
		&models.ProductStock{},
		&models.Order{},
		&models.OrderProduct{},
		&models.Balance{},
		&models.Payment{},
		&models.OrderProductCorrection{},
		&models.DistributionShift{},
		&models.TransportRide{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Println("database connected, migrations done")
}
