package models

import (
	"testing"

	"Alertivo/pkg/errors"

	"github.com/stretchr/testify/require"
)

func TestAcceptAlert(t *testing.T) {
	db := newTestDB(t)
	report := mustCreateReport(t, db, ReportTypeSecurity)
	mustRegisterActive(t, db, "resp-1", 8.48, 4.54)
	ok, err := ClaimResponder(db, "resp-1", report.ID)
	require.NoError(t, err)
	require.True(t, ok)
	uid := "resp-1"
	_, err = CreateAlert(db, report, &uid)
	require.NoError(t, err)

	t.Run("pending to accepted", func(t *testing.T) {
		require.NoError(t, AcceptAlert(db, report.ID, "resp-1"))
		a, err := GetAlert(db, report.ID)
		require.NoError(t, err)
		require.Equal(t, AlertAccepted, a.Status)
		require.NotNil(t, a.AcceptedAt)
		require.Equal(t, "resp-1", *a.ResponderUID)
	})

	t.Run("second accept conflicts", func(t *testing.T) {
		err := AcceptAlert(db, report.ID, "resp-2")
		require.True(t, errors.IsCode(err, errors.CodeConflict))
	})

	t.Run("missing alert", func(t *testing.T) {
		err := AcceptAlert(db, "no-such-alert", "resp-1")
		require.True(t, errors.IsCode(err, errors.CodeNotFound))
	})
}

func TestAcceptAlertUnknownResponder(t *testing.T) {
	db := newTestDB(t)
	report := mustCreateReport(t, db, ReportTypeSecurity)
	_, err := CreateAlert(db, report, nil)
	require.NoError(t, err)

	err = AcceptAlert(db, report.ID, "ghost")
	require.True(t, errors.IsCode(err, errors.CodeNotFound))

	// 状态变更随事务回滚
	a, err := GetAlert(db, report.ID)
	require.NoError(t, err)
	require.Equal(t, AlertPending, a.Status)
	require.Nil(t, a.ResponderUID)
}

func TestDeclineAlert(t *testing.T) {
	db := newTestDB(t)
	report := mustCreateReport(t, db, ReportTypeSecurity)
	mustRegisterActive(t, db, "resp-1", 8.48, 4.54)
	ok, err := ClaimResponder(db, "resp-1", report.ID)
	require.NoError(t, err)
	require.True(t, ok)
	uid := "resp-1"
	_, err = CreateAlert(db, report, &uid)
	require.NoError(t, err)

	require.NoError(t, DeclineAlert(db, report.ID))

	a, err := GetAlert(db, report.ID)
	require.NoError(t, err)
	require.Equal(t, AlertDeclined, a.Status)
	require.NotNil(t, a.DeclinedAt)

	// 拒单把人放回可用池
	r, err := GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, ResponderActive, r.Status)
	require.Nil(t, r.AssignedEmergency)

	// declined 是终态
	err = AcceptAlert(db, report.ID, "resp-1")
	require.True(t, errors.IsCode(err, errors.CodeConflict))
	err = DeclineAlert(db, report.ID)
	require.True(t, errors.IsCode(err, errors.CodeConflict))
}

func TestCompleteEmergency(t *testing.T) {
	db := newTestDB(t)
	report := mustCreateReport(t, db, ReportTypeSecurity)
	mustRegisterActive(t, db, "resp-1", 8.48, 4.54)
	ok, err := ClaimResponder(db, "resp-1", report.ID)
	require.NoError(t, err)
	require.True(t, ok)
	uid := "resp-1"
	_, err = CreateAlert(db, report, &uid)
	require.NoError(t, err)
	require.NoError(t, AcceptAlert(db, report.ID, "resp-1"))

	require.NoError(t, CompleteEmergency(db, "resp-1", report.ID))

	r, err := GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, ResponderActive, r.Status)
	require.Nil(t, r.AssignedEmergency)

	got, err := GetReport(db, report.ID)
	require.NoError(t, err)
	require.Equal(t, ReportStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	a, err := GetAlert(db, report.ID)
	require.NoError(t, err)
	require.Equal(t, AlertCompleted, a.Status)

	t.Run("unknown responder", func(t *testing.T) {
		err := CompleteEmergency(db, "ghost", report.ID)
		require.True(t, errors.IsCode(err, errors.CodeNotFound))
	})

	t.Run("unknown emergency", func(t *testing.T) {
		err := CompleteEmergency(db, "resp-1", "no-such-id")
		require.True(t, errors.IsCode(err, errors.CodeNotFound))
	})
}

func TestListAlertsForResponder(t *testing.T) {
	db := newTestDB(t)
	uid := "resp-1"
	mustRegisterActive(t, db, uid, 8.48, 4.54)
	for i := 0; i < 3; i++ {
		report := mustCreateReport(t, db, ReportTypeSecurity)
		_, err := CreateAlert(db, report, &uid)
		require.NoError(t, err)
	}

	all, err := ListAlertsForResponder(db, uid, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, AcceptAlert(db, all[0].ID, uid))
	pending, err := ListAlertsForResponder(db, uid, AlertPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
}
