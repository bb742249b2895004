package database

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnectorFunc func() (*gorm.DB, zerolog.Logger, error)

var ErrDeviceNotFound = fmt.Errorf("device not found")
var ErrDeviceAlreadyExists = fmt.Errorf("device already exists")
var ErrAccountNotFound = fmt.Errorf("account not found")
var ErrAccountAlreadyExists = fmt.Errorf("account already exists")
var ErrRepositoryError = fmt.Errorf("could not fetch data from repository")

func NewSQLiteConnector(log zerolog.Logger) ConnectorFunc {
	var once sync.Once
	var db *gorm.DB
	var err error

	// every repository built from this connector shares the same
	// in memory database
	return func() (*gorm.DB, zerolog.Logger, error) {
		once.Do(func() {
			db, err = gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
				Logger:          logger.Default.LogMode(logger.Silent),
				CreateBatchSize: 1000,
			})

			if err == nil {
				db.Exec("PRAGMA foreign_keys = ON")
				sqldb, _ := db.DB()
				sqldb.SetMaxOpenConns(1)
			}
		})

		return db, log, err
	}
}

func NewPostgreSQLConnector(log zerolog.Logger) ConnectorFunc {
	dbHost := os.Getenv("HWMON_SQLDB_HOST")
	username := os.Getenv("HWMON_SQLDB_USER")
	dbName := os.Getenv("HWMON_SQLDB_NAME")
	password := os.Getenv("HWMON_SQLDB_PASSWORD")
	sslMode := os.Getenv("HWMON_SQLDB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	dbURI := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=%s password=%s", dbHost, username, dbName, sslMode, password)

	return func() (*gorm.DB, zerolog.Logger, error) {
		sublogger := log.With().Str("host", dbHost).Str("database", dbName).Logger()

		sublogger.Info().Msg("connecting to database host")

		db, err := gorm.Open(postgres.Open(dbURI), &gorm.Config{
			Logger: logger.New(
				&sublogger,
				logger.Config{
					SlowThreshold:             time.Second,
					LogLevel:                  logger.Warn,
					IgnoreRecordNotFoundError: true,
					Colorful:                  false,
				},
			),
		})
		if err != nil {
			return nil, sublogger, err
		}

		return db, sublogger, nil
	}
}
