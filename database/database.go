// database/database.go
package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"itin/config"
	"itin/models"
)

var DB *gorm.DB

func Connect() error {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(config.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("Connected to database")
	return Migrate(db)
}

// Migrate runs auto-migration for every model. Also used by tests against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.OrganizationalGroup{},
		&models.Location{},
		&models.Asset{},
		&models.Network{},
		&models.Port{},
		&models.NetworkInterface{},
		&models.IPAddress{},
		&models.GuestDevice{},
		&models.NetworkApprovalRequest{},
		&models.TaskRun{},
	)
}

func Disconnect() {
	if DB == nil {
		return
	}
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Database handle error on disconnect: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Database disconnect warning: %v", err)
	}
}
