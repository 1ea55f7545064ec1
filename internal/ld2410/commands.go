package ld2410

import (
	"encoding/binary"
	"fmt"
)

// Command opcodes. All configuration commands other than EnableConfig and
// DisableConfig are only accepted by the sensor while config mode is active.
const (
	CmdEnableConfig   uint16 = 0x00FF
	CmdDisableConfig  uint16 = 0x00FE
	CmdSetMaxGate     uint16 = 0x0060
	CmdReadConfig     uint16 = 0x0061
	CmdEngModeOn      uint16 = 0x0062
	CmdEngModeOff     uint16 = 0x0063
	CmdSetSensitivity uint16 = 0x0064
	CmdReadFirmware   uint16 = 0x00A0
	CmdSetBaudRate    uint16 = 0x00A1
	CmdFactoryReset   uint16 = 0x00A2
	CmdRestart        uint16 = 0x00A3
)

// EnableConfigData is the fixed parameter value carried by the
// enable-config command.
var EnableConfigData = []byte{0x01, 0x00}

// appendParamWord appends one parameter in the sensor's word encoding: a
// 16-bit little-endian word index followed by a 32-bit little-endian value.
func appendParamWord(data []byte, index uint16, value uint32) []byte {
	data = binary.LittleEndian.AppendUint16(data, index)
	data = binary.LittleEndian.AppendUint32(data, value)
	return data
}

// SensitivityData builds the parameter block for CmdSetSensitivity: gate
// select (word 0), motion threshold (word 1), static threshold (word 2).
// Thresholds are percentages 0-100.
func SensitivityData(gate, motionThreshold, staticThreshold uint8) ([]byte, error) {
	if gate >= MaxGates {
		return nil, fmt.Errorf("ld2410: gate %d out of range 0-%d", gate, MaxGates-1)
	}
	data := make([]byte, 0, 18)
	data = appendParamWord(data, 0x0000, uint32(gate))
	data = appendParamWord(data, 0x0001, uint32(motionThreshold))
	data = appendParamWord(data, 0x0002, uint32(staticThreshold))
	return data, nil
}

// Baud rate indices accepted by CmdSetBaudRate. The selected rate takes
// effect after the module restarts.
const (
	Baud9600 uint16 = iota + 1
	Baud19200
	Baud38400
	Baud57600
	Baud115200
	Baud230400
	Baud256000
	Baud460800
)

// BaudRateData builds the parameter block for CmdSetBaudRate.
func BaudRateData(index uint16) ([]byte, error) {
	if index < Baud9600 || index > Baud460800 {
		return nil, fmt.Errorf("ld2410: baud rate index %d out of range %d-%d", index, Baud9600, Baud460800)
	}
	return binary.LittleEndian.AppendUint16(nil, index), nil
}

// MaxGateData builds the parameter block for CmdSetMaxGate: maximum motion
// gate (word 0), maximum static gate (word 1), and the no-presence timeout
// in seconds (word 2).
func MaxGateData(maxMotionGate, maxStaticGate uint8, timeoutS uint16) ([]byte, error) {
	if maxMotionGate >= MaxGates {
		return nil, fmt.Errorf("ld2410: motion gate %d out of range 0-%d", maxMotionGate, MaxGates-1)
	}
	if maxStaticGate >= MaxGates {
		return nil, fmt.Errorf("ld2410: static gate %d out of range 0-%d", maxStaticGate, MaxGates-1)
	}
	data := make([]byte, 0, 18)
	data = appendParamWord(data, 0x0000, uint32(maxMotionGate))
	data = appendParamWord(data, 0x0001, uint32(maxStaticGate))
	data = appendParamWord(data, 0x0002, uint32(timeoutS))
	return data, nil
}
