package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fireteam/internal/game/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_AdvanceMovesNow(t *testing.T) {
	c := clock.NewManual(epoch)
	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), c.Now())
}

func TestManual_AfterFiresAtDeadline(t *testing.T) {
	c := clock.NewManual(epoch)
	ch := c.After(time.Second)
	require.Equal(t, 1, c.Pending())

	c.Advance(999 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(time.Second), got)
	default:
		t.Fatal("did not fire at deadline")
	}
	assert.Equal(t, 0, c.Pending())
}

func TestManual_AfterNonPositiveFiresImmediately(t *testing.T) {
	c := clock.NewManual(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) must fire immediately")
	}
}

func TestManual_AdvanceNegativePanics(t *testing.T) {
	c := clock.NewManual(epoch)
	assert.Panics(t, func() { c.Advance(-time.Second) })
}

func TestSystem_NowIsRecent(t *testing.T) {
	c := clock.System()
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)
}

func TestManual_TickerFiresEachPeriod(t *testing.T) {
	c := clock.NewManual(epoch)
	tk := c.NewTicker(100 * time.Millisecond)
	defer tk.Stop()

	c.Advance(50 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticked early")
	default:
	}

	c.Advance(50 * time.Millisecond)
	select {
	case got := <-tk.C():
		assert.Equal(t, epoch.Add(100*time.Millisecond), got)
	default:
		t.Fatal("did not tick at the period")
	}

	c.Advance(350 * time.Millisecond)
	select {
	case <-tk.C():
	default:
		t.Fatal("did not tick after several periods")
	}
	select {
	case <-tk.C():
		t.Fatal("several periods in one advance must coalesce into one tick")
	default:
	}
}

func TestManual_StoppedTickerIsSilent(t *testing.T) {
	c := clock.NewManual(epoch)
	tk := c.NewTicker(time.Millisecond)
	tk.Stop()
	c.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestManual_NewTickerPanicsOnNonPositive(t *testing.T) {
	assert.Panics(t, func() { clock.NewManual(epoch).NewTicker(0) })
}

func TestSystem_TickerTicks(t *testing.T) {
	tk := clock.System().NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(2 * time.Second):
		t.Fatal("system ticker did not tick")
	}
}
