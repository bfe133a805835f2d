package store

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tourist-tracker/internal/models"
)

// Config selects the database driver and its connection settings.
type Config struct {
	Driver string `mapstructure:"driver"`
	Debug  bool   `mapstructure:"debug"`
	Mysql  struct {
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Host     string `mapstructure:"host"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mysql"`
	Postgres struct {
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Database string `mapstructure:"database"`
	} `mapstructure:"postgres"`
	Sqlite struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
}

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Store is the database access layer shared by the API server and the
// sweep daemon.
type Store struct {
	dbConn *gorm.DB
}

func getDbConn(cfg Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "mysql":
		if cfg.Mysql.User == "" || cfg.Mysql.Host == "" || cfg.Mysql.Database == "" {
			return nil, fmt.Errorf("missing connection info")
		}

		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Mysql.User, cfg.Mysql.Password, cfg.Mysql.Host, cfg.Mysql.Database)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}

	case "postgres":
		if cfg.Postgres.User == "" || cfg.Postgres.Host == "" || cfg.Postgres.Database == "" {
			return nil, fmt.Errorf("missing connection info")
		}

		port := cfg.Postgres.Port
		if port == 0 {
			port = 5432
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
			cfg.Postgres.Host, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, port)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}

	case "sqlite":
		if cfg.Sqlite.Path == "" {
			return nil, fmt.Errorf("missing sqlite path")
		}

		db, err = gorm.Open(sqlite.Open(cfg.Sqlite.Path), &gorm.Config{})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown db driver %s", cfg.Driver)
	}

	if cfg.Debug {
		db.Logger = db.Logger.LogMode(logger.Info)
	}

	return db, err
}

// New opens the configured database and migrates the schema.
func New(cfg Config) (*Store, error) {
	db, err := getDbConn(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{dbConn: db}

	for _, m := range []interface{}{
		&models.Tourist{},
		&models.Zone{},
		&models.Alert{},
		&models.LocationHistory{},
		&models.Authority{},
	} {
		err = db.AutoMigrate(m)
		if err != nil {
			log.Printf("failed to automigrate database %v", err)
			return nil, err
		}
	}

	return s, nil
}

// newId generates a random record id, hex encoded.
func newId() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NewToken generates a connection token for app connectivity.
func NewToken() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
