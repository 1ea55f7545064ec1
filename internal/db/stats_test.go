package db

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

func TestStatsSince(t *testing.T) {
	database := newTestDB(t)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	readings := []ld2410.SensorReading{
		{TargetState: ld2410.TargetMotion, MotionEnergy: 10, StaticEnergy: 5, DetectionDistanceCM: 100, CapturedAt: base},
		{TargetState: ld2410.TargetNone, MotionEnergy: 20, StaticEnergy: 5, DetectionDistanceCM: 200, CapturedAt: base.Add(time.Second)},
		{TargetState: ld2410.TargetBoth, MotionEnergy: 30, StaticEnergy: 5, DetectionDistanceCM: 300, CapturedAt: base.Add(2 * time.Second)},
	}
	for _, r := range readings {
		if err := database.RecordObservation(r); err != nil {
			t.Fatalf("RecordObservation: %v", err)
		}
	}

	now := base.Add(time.Minute)
	stats, err := database.StatsSince(base, now)
	if err != nil {
		t.Fatalf("StatsSince: %v", err)
	}

	if stats.Count != 3 {
		t.Fatalf("Count = %d, want 3", stats.Count)
	}
	if stats.PresentCount != 2 {
		t.Errorf("PresentCount = %d, want 2", stats.PresentCount)
	}
	if math.Abs(stats.PresenceRatio-2.0/3.0) > 1e-9 {
		t.Errorf("PresenceRatio = %f, want 2/3", stats.PresenceRatio)
	}
	if stats.MotionEnergyMean != 20 {
		t.Errorf("MotionEnergyMean = %f, want 20", stats.MotionEnergyMean)
	}
	// Sample standard deviation of {10, 20, 30}.
	if math.Abs(stats.MotionEnergyStdDev-10) > 1e-9 {
		t.Errorf("MotionEnergyStdDev = %f, want 10", stats.MotionEnergyStdDev)
	}
	if stats.StaticEnergyStdDev != 0 {
		t.Errorf("StaticEnergyStdDev = %f, want 0 for constant samples", stats.StaticEnergyStdDev)
	}
	if stats.DetectionDistanceMeanCM != 200 {
		t.Errorf("DetectionDistanceMeanCM = %f, want 200", stats.DetectionDistanceMeanCM)
	}
}

func TestStatsSinceWindowing(t *testing.T) {
	database := newTestDB(t)

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	old := testReading(base.Add(-time.Hour))
	if err := database.RecordObservation(old); err != nil {
		t.Fatalf("RecordObservation: %v", err)
	}
	if err := database.RecordObservation(testReading(base)); err != nil {
		t.Fatalf("RecordObservation: %v", err)
	}

	stats, err := database.StatsSince(base, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("StatsSince: %v", err)
	}
	if stats.Count != 1 {
		t.Errorf("Count = %d, want 1 (older observation excluded)", stats.Count)
	}
}

func TestStatsSinceEmptyWindow(t *testing.T) {
	database := newTestDB(t)

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	stats, err := database.StatsSince(now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("StatsSince: %v", err)
	}
	if stats.Count != 0 || stats.PresenceRatio != 0 {
		t.Errorf("empty window stats = %+v, want zeros", stats)
	}
	// Means must be zero, not NaN, so the struct encodes to JSON.
	if math.IsNaN(stats.MotionEnergyMean) || math.IsNaN(stats.MotionEnergyStdDev) {
		t.Error("stats contain NaN for empty window")
	}
}
