package db

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-advisor/internal/config"
	"go-advisor/internal/history"
	"go-advisor/internal/user"
)

var DB *gorm.DB

// Init opens the database and migrates the schema. Postgres is the production
// backend; DSNs ending in .db or pointing at :memory: select sqlite, which is
// what local runs and tests use.
func Init(cfg *config.Config) error {
	var dialector gorm.Dialector
	dsn := cfg.Database.DSN
	if strings.HasSuffix(dsn, ".db") || strings.Contains(dsn, ":memory:") {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&user.User{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&history.Conversation{}, &history.TurnRecord{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
