package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
		Enabled: true,
		DBName:  "portal_test",
	}, zap.NewNop()))

	// queries still run with the callbacks installed
	require.NoError(t, db.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO things (name) VALUES (?)", "one").Error)

	var count int64
	require.NoError(t, db.WithContext(context.Background()).Raw("SELECT COUNT(*) FROM things").Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
}
