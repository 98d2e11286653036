package config

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	APP_ADDR      string
	DATABASE_URL  string
	SQLITE_PATH   string
	JWT_SECRET    string
	KAFKA_ADDRESS string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string
	LOG_LEVEL     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		APP_ADDR:      os.Getenv("APP_ADDR"),
		DATABASE_URL:  os.Getenv("DATABASE_URL"),
		SQLITE_PATH:   os.Getenv("SQLITE_PATH"),
		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		ES_URL:        os.Getenv("ES_URL"),
		ES_USER:       os.Getenv("ES_USER"),
		ES_PASSWORD:   os.Getenv("ES_PASSWORD"),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),
	}

	if config.APP_ADDR == "" {
		config.APP_ADDR = ":8080"
	}
	if config.SQLITE_PATH == "" {
		config.SQLITE_PATH = "bizflow.db"
	}
	if config.JWT_SECRET == "" {
		return nil, fmt.Errorf("missing required env JWT_SECRET")
	}

	return config, nil
}

// InitDB opens postgres when DATABASE_URL is set, otherwise a local
// sqlite file. Both back the same kv_entries table.
func InitDB(cfg *Config) (*gorm.DB, error) {
	if cfg.DATABASE_URL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DATABASE_URL), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return db, nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.SQLITE_PATH), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLITE_PATH, err)
	}
	return db, nil
}
