// Package ld2410 implements the wire protocol of the HLK-LD2410 24GHz mmWave
// radar: a resynchronizing frame parser for the non-delimited UART byte
// stream, a command frame encoder, and a decoder for standard and
// engineering-mode target reports.
package ld2410

import "time"

// Protocol constants. Header and tail values are the little-endian
// interpretation of the 4 bytes as they appear on the wire.
const (
	DataHeader uint32 = 0xF4F3F2F1
	DataTail   uint32 = 0xF8F7F6F5
	CmdHeader  uint32 = 0xFDFCFBFA
	CmdTail    uint32 = 0x04030201

	// MaxFrameLen bounds a complete frame: header(4) + length(2) + payload +
	// tail(4). The declared payload length is attacker-controllable and must
	// never be allowed to exceed MaxFrameLen-10.
	MaxFrameLen = 64

	// MaxGates is the number of range gates (0-8) reported in engineering
	// mode. Each gate covers GateDistanceCM of range.
	MaxGates       = 9
	GateDistanceCM = 75

	DefaultBaudRate = 256000
)

// TargetState reports what the sensor currently sees.
type TargetState uint8

const (
	TargetNone   TargetState = 0x00
	TargetMotion TargetState = 0x01
	TargetStatic TargetState = 0x02
	TargetBoth   TargetState = 0x03
)

func (s TargetState) String() string {
	switch s {
	case TargetNone:
		return "none"
	case TargetMotion:
		return "motion"
	case TargetStatic:
		return "static"
	case TargetBoth:
		return "motion+static"
	default:
		return "unknown"
	}
}

// Present reports whether any target is detected.
func (s TargetState) Present() bool {
	return s == TargetMotion || s == TargetStatic || s == TargetBoth
}

// SensorReading is one decoded standard target report. Immutable once
// produced; a new reading supersedes it rather than mutating in place.
type SensorReading struct {
	TargetState         TargetState `json:"target_state"`
	MotionDistanceCM    uint16      `json:"motion_distance_cm"`
	MotionEnergy        uint8       `json:"motion_energy"`
	StaticDistanceCM    uint16      `json:"static_distance_cm"`
	StaticEnergy        uint8       `json:"static_energy"`
	DetectionDistanceCM uint16      `json:"detection_distance_cm"`
	CapturedAt          time.Time   `json:"captured_at"`
}

// EngineeringReading extends a SensorReading with per-gate energy levels,
// populated only while engineering mode is active.
type EngineeringReading struct {
	Basic            SensorReading   `json:"basic"`
	MotionGateEnergy [MaxGates]uint8 `json:"motion_gate_energy"`
	StaticGateEnergy [MaxGates]uint8 `json:"static_gate_energy"`
}
