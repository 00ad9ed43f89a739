package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gridflow/internal/config"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var AppDb *gorm.DB

func ConnectDb(l zerolog.Logger) error {
	dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
	)

	level := logger.Info
	if config.AppConfig.Environment == "production" {
		level = logger.Error
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold: time.Second, // Slow SQL threshold
			LogLevel:      level,       // Log level
			Colorful:      config.AppConfig.Environment == "development",
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	AppDb = db
	l.Info().Str("host", config.AppConfig.DBHost).Str("db", config.AppConfig.DBName).Msg("Success connecting to db")

	return nil
}

func CloseDb(l zerolog.Logger) {
	if AppDb == nil {
		return
	}
	sqlDB, err := AppDb.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		l.Error().Err(err).Msg("failed to close db")
		return
	}
	l.Info().Msg("Closing DB")
}
