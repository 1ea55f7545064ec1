package timeutil

import (
	"testing"
	"time"
)

func TestRealClockBasics(t *testing.T) {
	var clock Clock = RealClock{}

	before := time.Now()
	now := clock.Now()
	if now.Before(before) {
		t.Errorf("Now went backwards: %v < %v", now, before)
	}
	if clock.Since(before) < 0 {
		t.Error("Since returned a negative duration")
	}

	ticker := clock.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not tick")
	}
}

func TestMockClockNowAndAdvance(t *testing.T) {
	start := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Now = %v, want %v", clock.Now(), start)
	}

	clock.Advance(time.Minute)
	if got := clock.Since(start); got != time.Minute {
		t.Errorf("Since = %v, want 1m", got)
	}

	clock.Set(start)
	if !clock.Now().Equal(start) {
		t.Errorf("Set did not reset the clock")
	}
}

func TestMockClockSleepRecords(t *testing.T) {
	clock := NewMockClock(time.Now())

	done := make(chan struct{})
	go func() {
		clock.Sleep(50 * time.Millisecond)
		clock.Sleep(100 * time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mock Sleep blocked")
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 50*time.Millisecond || sleeps[1] != 100*time.Millisecond {
		t.Errorf("Sleeps = %v", sleeps)
	}
}

func TestMockClockAfter(t *testing.T) {
	clock := NewMockClock(time.Now())
	ch := clock.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("After fired before the deadline")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired early")
	default:
	}

	clock.Advance(30 * time.Second)
	select {
	case <-ch:
	default:
		t.Fatal("After did not fire at the deadline")
	}
}

func TestMockTicker(t *testing.T) {
	clock := NewMockClock(time.Now())
	ticker := clock.NewTicker(time.Minute)

	clock.Advance(time.Minute)
	select {
	case <-ticker.C():
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	// Stopped tickers stay quiet.
	ticker.Stop()
	clock.Advance(time.Hour)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerTrigger(t *testing.T) {
	clock := NewMockClock(time.Now())
	ticker := clock.NewTicker(time.Hour).(*MockTicker)

	now := time.Now()
	ticker.Trigger(now)
	select {
	case got := <-ticker.C():
		if !got.Equal(now) {
			t.Errorf("tick time = %v, want %v", got, now)
		}
	default:
		t.Fatal("Trigger did not deliver a tick")
	}
}
