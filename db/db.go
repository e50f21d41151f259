package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sidhant-sriv/home-catalog/auth"
	"github.com/sidhant-sriv/home-catalog/config"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the database selected by cfg.DBDriver and checks it answers.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=busy_timeout(5000)")
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	logLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = gormlogger.Info
	}
	sqlLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  cfg.PrettyLog,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: sqlLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// SQLite allows one writer; a single connection serialises
		// transactions instead of failing them with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MakeMigration creates or updates every table the catalog needs.
func MakeMigration(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.CatalogGroup{}, "Owners", &models.CatalogGroupOwner{}); err != nil {
		return fmt.Errorf("failed to set up owners join table: %w", err)
	}
	err := db.AutoMigrate(
		&models.User{},
		&models.CatalogGroup{},
		&models.ItemGroup{},
		&models.ItemDefinition{},
		&models.CatalogEntry{},
		&models.CatalogGroupInvitation{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// EnsureSuperuser creates the configured superuser, or promotes and resets the
// password of an existing user with that username.
func EnsureSuperuser(db *gorm.DB, username, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = db.Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: username, Password: hash, IsSuperuser: true}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create superuser: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up superuser: %w", err)
	default:
		user.Password = hash
		user.IsSuperuser = true
		if err := db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to promote superuser: %w", err)
		}
	}
	return &user, nil
}
