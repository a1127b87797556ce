package models

import (
	"testing"

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
	require.NoError(t, AutoMigrate(db))
	return db
}

func f64(v float64) *float64 { return &v }

func mustCreateReport(t *testing.T, db *gorm.DB, typ string) *EmergencyReport {
	t.Helper()
	r, err := CreateEmergencyReport(db, CreateReportInput{
		Type:         typ,
		Lat:          f64(8.4799),
		Lng:          f64(4.5418),
		Address:      "Faculty of Engineering",
		Details:      "test emergency",
		CreatedByUID: "student-1",
	})
	require.NoError(t, err)
	return r
}

func mustRegisterActive(t *testing.T, db *gorm.DB, uid string, lat, lng float64) *Responder {
	t.Helper()
	r, err := RegisterResponder(db, RegisterResponderInput{UID: uid, Name: uid})
	require.NoError(t, err)
	require.NoError(t, RecordHeartbeat(db, uid, &lat, &lng))
	return r
}
