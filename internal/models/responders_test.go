package models

import (
	"testing"
	"time"

	"Alertivo/pkg/errors"

	"github.com/stretchr/testify/require"
)

func TestRegisterResponder(t *testing.T) {
	db := newTestDB(t)

	r, err := RegisterResponder(db, RegisterResponderInput{UID: "resp-1", Name: "Ada", ExpoPushToken: "tok-1"})
	require.NoError(t, err)
	require.Equal(t, ResponderInactive, r.Status)

	// 重复注册只刷新名称与令牌，不重置状态
	require.NoError(t, RecordHeartbeat(db, "resp-1", nil, nil))
	again, err := RegisterResponder(db, RegisterResponderInput{UID: "resp-1", Name: "Ada L", ExpoPushToken: "tok-2"})
	require.NoError(t, err)
	require.Equal(t, "resp-1", again.UID)

	got, err := GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, "Ada L", got.Name)
	require.Equal(t, "tok-2", got.ExpoPushToken)
	require.Equal(t, ResponderActive, got.Status)

	_, err = RegisterResponder(db, RegisterResponderInput{})
	require.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestRecordHeartbeat(t *testing.T) {
	db := newTestDB(t)

	t.Run("promotes to active and stores location", func(t *testing.T) {
		mustRegisterActive(t, db, "resp-1", 8.48, 4.54)
		r, err := GetResponder(db, "resp-1")
		require.NoError(t, err)
		require.Equal(t, ResponderActive, r.Status)
		require.NotNil(t, r.LastHeartbeat)
		require.NotNil(t, r.Lat)
		require.InDelta(t, 8.48, *r.Lat, 1e-9)
	})

	t.Run("busy responder keeps status", func(t *testing.T) {
		mustRegisterActive(t, db, "resp-2", 8.48, 4.54)
		ok, err := ClaimResponder(db, "resp-2", "emg-1")
		require.NoError(t, err)
		require.True(t, ok)

		// 心跳只刷新时间戳，不能把 busy 改回 active
		require.NoError(t, RecordHeartbeat(db, "resp-2", nil, nil))
		r, err := GetResponder(db, "resp-2")
		require.NoError(t, err)
		require.Equal(t, ResponderBusy, r.Status)
		require.Equal(t, "emg-1", *r.AssignedEmergency)
		require.WithinDuration(t, time.Now(), *r.LastHeartbeat, time.Minute)
	})

	t.Run("unknown responder", func(t *testing.T) {
		err := RecordHeartbeat(db, "ghost", nil, nil)
		require.True(t, errors.IsCode(err, errors.CodeNotFound))
	})
}

func TestClaimResponder(t *testing.T) {
	db := newTestDB(t)
	mustRegisterActive(t, db, "resp-1", 8.48, 4.54)

	ok, err := ClaimResponder(db, "resp-1", "emg-1")
	require.NoError(t, err)
	require.True(t, ok)

	// 已 busy 的人不能被第二个警情抢走
	ok, err = ClaimResponder(db, "resp-1", "emg-2")
	require.NoError(t, err)
	require.False(t, ok)

	r, err := GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, "emg-1", *r.AssignedEmergency)

	require.NoError(t, ReleaseResponder(db, "resp-1"))
	r, err = GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, ResponderActive, r.Status)
	require.Nil(t, r.AssignedEmergency)
	require.NotNil(t, r.LastActiveAt)
	require.WithinDuration(t, time.Now(), *r.LastActiveAt, time.Minute)
}

func TestSetResponderStatus(t *testing.T) {
	db := newTestDB(t)
	mustRegisterActive(t, db, "resp-1", 8.48, 4.54)

	require.NoError(t, SetResponderStatus(db, "resp-1", ResponderInactive))
	r, err := GetResponder(db, "resp-1")
	require.NoError(t, err)
	require.Equal(t, ResponderInactive, r.Status)

	err = SetResponderStatus(db, "resp-1", "sleeping")
	require.True(t, errors.IsCode(err, errors.CodeValidation))

	err = SetResponderStatus(db, "ghost", ResponderActive)
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestListActiveResponders(t *testing.T) {
	db := newTestDB(t)
	mustRegisterActive(t, db, "resp-1", 8.48, 4.54)
	mustRegisterActive(t, db, "resp-2", 8.49, 4.55)
	_, err := RegisterResponder(db, RegisterResponderInput{UID: "resp-3"}) // inactive
	require.NoError(t, err)

	active, err := ListActiveResponders(db)
	require.NoError(t, err)
	require.Len(t, active, 2)
}
