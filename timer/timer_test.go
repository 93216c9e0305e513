package timer

import (
	"testing"
	"time"

	"github.com/Seednode/partybox-client/clock/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func TestHandle_StopIsIdempotentAndNilSafe(t *testing.T) {
	var nilHandle *Handle
	nilHandle.Stop()
	assert.False(t, nilHandle.Active())

	ctrl := gomock.NewController(t)
	backing := mocks.NewMockTimer(ctrl)
	backing.EXPECT().Stop().Return(true).Times(1)

	h := &Handle{}
	h.Bind(backing)
	require.True(t, h.Active())

	h.Stop()
	h.Stop()
	assert.False(t, h.Active())
}

func TestFire_DropsStoppedHandle(t *testing.T) {
	h := &Handle{}
	h.Stop()

	ran := false
	assert.False(t, Fire(h, func() { ran = true }))
	assert.False(t, ran)
}

func TestFire_RunsOnce(t *testing.T) {
	h := &Handle{}

	calls := 0
	assert.True(t, Fire(h, func() { calls++ }))
	assert.False(t, Fire(h, func() { calls++ }))
	assert.Equal(t, 1, calls)
}

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := NewManual(epoch)

	var order []string
	m.After(3*time.Second, func() { order = append(order, "c") })
	m.After(1*time.Second, func() { order = append(order, "a") })
	m.After(2*time.Second, func() { order = append(order, "b") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, m.Pending())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, epoch.Add(3*time.Second), m.Now())
}

func TestManual_StoppedHandleNeverFires(t *testing.T) {
	m := NewManual(epoch)

	ran := false
	h := m.After(time.Second, func() { ran = true })
	h.Stop()

	m.Advance(time.Minute)
	assert.False(t, ran)
	assert.Zero(t, m.Pending())
}

func TestManual_ChainedSchedulesInsideWindow(t *testing.T) {
	m := NewManual(epoch)

	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 5 {
			m.After(time.Second, tick)
		}
	}
	m.After(time.Second, tick)

	m.Advance(3 * time.Second)
	assert.Equal(t, 3, ticks)

	m.Advance(10 * time.Second)
	assert.Equal(t, 5, ticks)
}
