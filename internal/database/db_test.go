package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authgate/internal/models"
)

func TestOpenSQLiteInMemory(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasTable(&models.User{}))
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestUniqueEmailConstraint(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.User{Name: "Ann", Email: "ann@x.com", Password: "hash"}).Error)
	err = db.Create(&models.User{Name: "Copy", Email: "ann@x.com", Password: "hash"}).Error
	require.Error(t, err)
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "auth", Name: "authgate", Password: "pw"})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=localhost")
	require.Contains(t, dsn, "port=5432")
	require.Contains(t, dsn, "dbname=authgate")
	require.Contains(t, dsn, "sslmode=disable")

	_, err = buildPostgresDSN(Config{})
	require.Error(t, err)

	dsn, err = buildPostgresDSN(Config{DSN: "postgres://override"})
	require.NoError(t, err)
	require.Equal(t, "postgres://override", dsn)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "auth", Password: "pw", Name: "authgate"})
	require.NoError(t, err)
	require.Contains(t, dsn, "auth:pw@tcp(127.0.0.1:3306)/authgate")
	require.Contains(t, dsn, "parseTime=True")

	_, err = buildMySQLDSN(Config{})
	require.Error(t, err)
}
