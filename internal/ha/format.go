// Package ha pushes presence state to a Home Assistant instance over its
// REST API. The sensor appears as a binary occupancy sensor whose
// attributes carry the raw radar measurements.
package ha

import (
	"encoding/json"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

// StateAttributes is the attribute block attached to the entity state.
type StateAttributes struct {
	FriendlyName        string `json:"friendly_name"`
	DeviceClass         string `json:"device_class"`
	TargetState         string `json:"target_state"`
	MotionDistanceCM    uint16 `json:"motion_distance_cm"`
	MotionEnergy        uint8  `json:"motion_energy"`
	StaticDistanceCM    uint16 `json:"static_distance_cm"`
	StaticEnergy        uint8  `json:"static_energy"`
	DetectionDistanceCM uint16 `json:"detection_distance_cm"`
	CapturedAt          string `json:"captured_at"`
}

// StateBody is the JSON body POSTed to /api/states/<entity>.
type StateBody struct {
	State      string          `json:"state"`
	Attributes StateAttributes `json:"attributes"`
}

// FormatState renders one reading as a Home Assistant state update. The
// entity state is "on" while any target is present.
func FormatState(r ld2410.SensorReading) ([]byte, error) {
	state := "off"
	if r.TargetState.Present() {
		state = "on"
	}
	body := StateBody{
		State: state,
		Attributes: StateAttributes{
			FriendlyName:        "mmWave Presence",
			DeviceClass:         "occupancy",
			TargetState:         r.TargetState.String(),
			MotionDistanceCM:    r.MotionDistanceCM,
			MotionEnergy:        r.MotionEnergy,
			StaticDistanceCM:    r.StaticDistanceCM,
			StaticEnergy:        r.StaticEnergy,
			DetectionDistanceCM: r.DetectionDistanceCM,
			CapturedAt:          r.CapturedAt.UTC().Format(time.RFC3339),
		},
	}
	return json.Marshal(body)
}
