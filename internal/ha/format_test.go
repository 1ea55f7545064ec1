package ha

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

func TestFormatState(t *testing.T) {
	r := ld2410.SensorReading{
		TargetState:         ld2410.TargetBoth,
		MotionDistanceCM:    150,
		MotionEnergy:        80,
		StaticDistanceCM:    200,
		StaticEnergy:        40,
		DetectionDistanceCM: 150,
		CapturedAt:          time.Date(2026, 8, 25, 12, 30, 0, 0, time.UTC),
	}

	raw, err := FormatState(r)
	if err != nil {
		t.Fatalf("FormatState: %v", err)
	}

	var got StateBody
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := StateBody{
		State: "on",
		Attributes: StateAttributes{
			FriendlyName:        "mmWave Presence",
			DeviceClass:         "occupancy",
			TargetState:         "motion+static",
			MotionDistanceCM:    150,
			MotionEnergy:        80,
			StaticDistanceCM:    200,
			StaticEnergy:        40,
			DetectionDistanceCM: 150,
			CapturedAt:          "2026-08-25T12:30:00Z",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state body mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatStateOffWhenVacant(t *testing.T) {
	raw, err := FormatState(ld2410.SensorReading{TargetState: ld2410.TargetNone})
	if err != nil {
		t.Fatalf("FormatState: %v", err)
	}
	var got StateBody
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.State != "off" {
		t.Errorf("state = %q, want off", got.State)
	}
	if got.Attributes.TargetState != "none" {
		t.Errorf("target_state = %q, want none", got.Attributes.TargetState)
	}
}
