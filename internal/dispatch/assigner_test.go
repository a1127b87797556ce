package dispatch

import (
	"testing"

	"Alertivo/internal/models"
	"Alertivo/pkg/util"

	"github.com/stretchr/testify/require"
)

// 伊洛林大学校园附近的坐标
const (
	reportLat = 8.4799
	reportLng = 4.5418
)

func TestAssignNearest(t *testing.T) {
	db := newTestDB(t)
	// far 约 1200m，near 约 500m
	registerActive(t, db, "far", reportLat+0.011, reportLng)
	registerActive(t, db, "near", reportLat+0.0045, reportLng)

	sig := util.NewSignalHub()
	var notified []string
	sig.Connect(models.SigAlertAssigned, func(sender any, params ...any) {
		r := params[0].(*models.Responder)
		notified = append(notified, r.UID)
	})

	report := createReport(t, db, models.ReportTypeSecurity, reportLat, reportLng)
	alert, err := NewAssigner(db, sig).Assign(report)
	require.NoError(t, err)
	require.Equal(t, models.AlertPending, alert.Status)
	require.NotNil(t, alert.AssignedResponder)
	require.Equal(t, "near", *alert.AssignedResponder)
	require.Equal(t, []string{"near"}, notified)

	r, err := models.GetResponder(db, "near")
	require.NoError(t, err)
	require.Equal(t, models.ResponderBusy, r.Status)
	require.Equal(t, report.ID, *r.AssignedEmergency)

	// 远端的人未被占用
	r, err = models.GetResponder(db, "far")
	require.NoError(t, err)
	require.Equal(t, models.ResponderActive, r.Status)
}

func TestAssignSkipsBusyAndLocationless(t *testing.T) {
	db := newTestDB(t)
	registerActive(t, db, "near-busy", reportLat+0.001, reportLng)
	ok, err := models.ClaimResponder(db, "near-busy", "other-emergency")
	require.NoError(t, err)
	require.True(t, ok)

	// active 但从未上报位置，不参与排序
	_, err = models.RegisterResponder(db, models.RegisterResponderInput{UID: "no-location"})
	require.NoError(t, err)
	require.NoError(t, models.RecordHeartbeat(db, "no-location", nil, nil))

	registerActive(t, db, "fallback", reportLat+0.02, reportLng)

	report := createReport(t, db, models.ReportTypeSecurity, reportLat, reportLng)
	alert, err := NewAssigner(db, util.NewSignalHub()).Assign(report)
	require.NoError(t, err)
	require.Equal(t, "fallback", *alert.AssignedResponder)
}

func TestAssignNoCandidates(t *testing.T) {
	db := newTestDB(t)
	report := createReport(t, db, models.ReportTypeSecurity, reportLat, reportLng)

	alert, err := NewAssigner(db, util.NewSignalHub()).Assign(report)
	require.NoError(t, err)
	require.Equal(t, models.AlertPending, alert.Status)
	require.Nil(t, alert.AssignedResponder)
}

func TestAssignRollsBackClaimOnAlertFailure(t *testing.T) {
	db := newTestDB(t)
	registerActive(t, db, "resp-1", reportLat+0.001, reportLng)

	sig := util.NewSignalHub()
	var notified int
	sig.Connect(models.SigAlertAssigned, func(sender any, params ...any) { notified++ })

	report := createReport(t, db, models.ReportTypeSecurity, reportLat, reportLng)
	// 预置同 id 警报，让警报落库撞主键失败
	uid := "resp-1"
	_, err := models.CreateAlert(db, report, &uid)
	require.NoError(t, err)

	_, err = NewAssigner(db, sig).Assign(report)
	require.Error(t, err)
	require.Zero(t, notified)

	// 占用随事务回滚，人还在可用池里
	r, err := models.GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, models.ResponderActive, r.Status)
	require.Nil(t, r.AssignedEmergency)
}

func TestRouterByType(t *testing.T) {
	db := newTestDB(t)
	sig := util.NewSignalHub()
	router := NewRouter(db, sig)

	t.Run("medical goes to clinic", func(t *testing.T) {
		var routed []string
		sig.Connect(models.SigReportRouted, func(sender any, params ...any) {
			routed = append(routed, sender.(*models.EmergencyReport).ID)
		})
		report := createReport(t, db, models.ReportTypeMedical, reportLat, reportLng)
		router.Route(report)

		list, err := models.ListDepartmentEmergencies(db, models.DepartmentClinic)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, []string{report.ID}, routed)
	})

	t.Run("fire goes to fire department", func(t *testing.T) {
		report := createReport(t, db, models.ReportTypeFire, reportLat, reportLng)
		router.Route(report)

		list, err := models.ListDepartmentEmergencies(db, models.DepartmentFireDept)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("security creates alert", func(t *testing.T) {
		report := createReport(t, db, models.ReportTypeSecurity, reportLat, reportLng)
		router.Route(report)

		alert, err := models.GetAlert(db, report.ID)
		require.NoError(t, err)
		require.Equal(t, models.AlertPending, alert.Status)
	})
}
