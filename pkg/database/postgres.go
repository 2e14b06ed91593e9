package database

import (
	"log"

	"github.com/Sspartak/football-app/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Match{}, &models.MatchSlot{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: one slot per user per match; manual entries
	// (user_id IS NULL) are exempt
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_match_slot_user
		ON match_slots (match_id, user_id)
		WHERE user_id IS NOT NULL
	`)

	return db
}
