package dispatch

import (
	"testing"

	"Alertivo/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	// :memory: 对每个连接是独立库，钉死单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func f64(v float64) *float64 { return &v }

func createReport(t *testing.T, db *gorm.DB, typ string, lat, lng float64) *models.EmergencyReport {
	t.Helper()
	r, err := models.CreateEmergencyReport(db, models.CreateReportInput{
		Type:         typ,
		Lat:          &lat,
		Lng:          &lng,
		CreatedByUID: "student-1",
	})
	require.NoError(t, err)
	return r
}

func registerActive(t *testing.T, db *gorm.DB, uid string, lat, lng float64) {
	t.Helper()
	_, err := models.RegisterResponder(db, models.RegisterResponderInput{UID: uid, Name: uid})
	require.NoError(t, err)
	require.NoError(t, models.RecordHeartbeat(db, uid, &lat, &lng))
}
