package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/models"
)

// Connect opens the Postgres handle and runs migrations. The handle is
// returned to the caller and injected everywhere; there is no package-level
// singleton.
func Connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate runs AutoMigrate for every entity. Split out so tests can run it
// against an in-memory database.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Agent{},
		&models.Discussion{},
		&models.Comment{},
		&models.Vote{},
		&models.Review{},
		&models.ReviewImage{},
		&models.ReviewReply{},
		&models.ReviewVote{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
