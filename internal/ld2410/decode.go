package ld2410

import (
	"encoding/binary"
	"errors"
	"time"
)

// Data-frame payload discriminators.
const (
	dataTypeEngineering = 0x01
	dataTypeStandard    = 0x02
	headMarker          = 0xAA
)

var (
	// ErrInvalidDataType means the payload's discriminator byte was neither
	// the standard nor the engineering report type. Command-response frames
	// routed here by mistake fail with this error.
	ErrInvalidDataType = errors.New("ld2410: invalid data type byte")

	// ErrMissingHeadMarker means the fixed 0xAA marker after the
	// discriminator was absent.
	ErrMissingHeadMarker = errors.New("ld2410: missing 0xAA head marker")

	// ErrPayloadTooShort means the payload ended before the fixed basic
	// fields.
	ErrPayloadTooShort = errors.New("ld2410: payload too short")
)

// basicReportLen covers type(1) + head(1) + state(1) + motion dist(2) +
// motion energy(1) + static dist(2) + static energy(1) + detect dist(2).
const basicReportLen = 11

// engGateOffset is the payload offset where the motion gate energies begin
// in an engineering report.
const engGateOffset = 11

// DecodeReading interprets a completed data frame's payload.
//
// The basic reading is always returned for well-formed payloads. The
// engineering gate arrays are populated only when the payload carries the
// engineering discriminator AND engMode is true; the decode clamps to the
// bytes actually present so a short payload never causes an out-of-bounds
// read. eng is nil when no engineering data was decoded.
func DecodeReading(payload []byte, engMode bool, now time.Time) (SensorReading, *EngineeringReading, error) {
	if len(payload) < 2 {
		return SensorReading{}, nil, ErrPayloadTooShort
	}

	dataType := payload[0]
	if dataType != dataTypeStandard && dataType != dataTypeEngineering {
		return SensorReading{}, nil, ErrInvalidDataType
	}
	if payload[1] != headMarker {
		return SensorReading{}, nil, ErrMissingHeadMarker
	}
	if len(payload) < basicReportLen {
		return SensorReading{}, nil, ErrPayloadTooShort
	}

	reading := SensorReading{
		TargetState:         TargetState(payload[2]),
		MotionDistanceCM:    binary.LittleEndian.Uint16(payload[3:5]),
		MotionEnergy:        payload[5],
		StaticDistanceCM:    binary.LittleEndian.Uint16(payload[6:8]),
		StaticEnergy:        payload[8],
		DetectionDistanceCM: binary.LittleEndian.Uint16(payload[9:11]),
		CapturedAt:          now,
	}

	if dataType != dataTypeEngineering || !engMode {
		return reading, nil, nil
	}

	eng := &EngineeringReading{Basic: reading}
	for i := 0; i < MaxGates && engGateOffset+i < len(payload); i++ {
		eng.MotionGateEnergy[i] = payload[engGateOffset+i]
	}
	for i := 0; i < MaxGates && engGateOffset+MaxGates+i < len(payload); i++ {
		eng.StaticGateEnergy[i] = payload[engGateOffset+MaxGates+i]
	}
	return reading, eng, nil
}
