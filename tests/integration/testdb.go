// Package integration exercises the fee engine end to end against a real
// database. Tests run on an in-memory SQLite database migrated from the GORM
// models; everything Postgres-specific (ILIKE search, partial indexes) is
// covered by the sqlmock repository tests instead.
package integration

import (
	"testing"

	"github.com/coachdesk/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB wraps an isolated in-memory database for one test
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB opens a fresh in-memory database and migrates the schema.
// Each call returns a fully isolated database.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(
		&models.BatchModel{},
		&models.CourseModel{},
		&models.StudentModel{},
		&models.ObligationModel{},
		&models.LedgerEntryModel{},
	)
	require.NoError(t, err, "Failed to migrate schema")

	testDB := &TestDB{DB: db, t: t}
	t.Cleanup(testDB.Close)
	return testDB
}

// Close closes the underlying connection
func (tdb *TestDB) Close() {
	sqlDB, err := tdb.DB.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}
