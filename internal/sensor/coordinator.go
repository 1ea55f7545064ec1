package sensor

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

// ErrShortWrite is returned when the serial port accepts fewer bytes than
// a full command frame.
var ErrShortWrite = errors.New("sensor: short write to serial port")

// settleDelay is how long the sensor needs after each command frame before
// it will accept the next one.
const settleDelay = 50 * time.Millisecond

// writeCommand encodes and writes one command frame, then waits out the
// sensor's settle time. Callers must hold commandMu.
func (e *Engine) writeCommand(opcode uint16, data []byte) error {
	frame, err := ld2410.EncodeCommand(opcode, data)
	if err != nil {
		return err
	}
	n, err := e.port.Write(frame)
	if err != nil {
		return fmt.Errorf("sensor: write command 0x%04X: %w", opcode, err)
	}
	if n != len(frame) {
		return ErrShortWrite
	}
	e.clock.Sleep(settleDelay)
	return nil
}

// withConfigMode runs fn with the sensor held in config mode. The command
// mutex serializes all command writers, so two transactions can never
// interleave their enable/disable pairs. Config mode is exited even when
// fn fails, so the sensor is not left stuck mid-configuration.
func (e *Engine) withConfigMode(fn func() error) error {
	e.commandMu.Lock()
	defer e.commandMu.Unlock()

	if err := e.writeCommand(ld2410.CmdEnableConfig, ld2410.EnableConfigData); err != nil {
		return fmt.Errorf("enter config mode: %w", err)
	}

	runErr := fn()
	exitErr := e.writeCommand(ld2410.CmdDisableConfig, nil)

	if runErr != nil {
		return runErr
	}
	if exitErr != nil {
		return fmt.Errorf("exit config mode: %w", exitErr)
	}
	return nil
}

// SetGateSensitivity sets the motion and static energy thresholds for one
// range gate. Thresholds are percentages 0-100; a gate only reports a
// target when its measured energy exceeds the threshold.
func (e *Engine) SetGateSensitivity(gate, motionThreshold, staticThreshold uint8) error {
	data, err := ld2410.SensitivityData(gate, motionThreshold, staticThreshold)
	if err != nil {
		return err
	}
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdSetSensitivity, data)
	})
}

// SetMaxGates limits the detection range to the given motion and static
// gates and sets the no-presence timeout in seconds.
func (e *Engine) SetMaxGates(maxMotionGate, maxStaticGate uint8, timeoutS uint16) error {
	data, err := ld2410.MaxGateData(maxMotionGate, maxStaticGate, timeoutS)
	if err != nil {
		return err
	}
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdSetMaxGate, data)
	})
}

// SetEngineeringMode switches the sensor between standard and engineering
// report formats. The engine's decoder follows the new mode only after the
// command sequence succeeds.
func (e *Engine) SetEngineeringMode(on bool) error {
	opcode := ld2410.CmdEngModeOff
	if on {
		opcode = ld2410.CmdEngModeOn
	}
	err := e.withConfigMode(func() error {
		return e.writeCommand(opcode, nil)
	})
	if err != nil {
		return err
	}
	e.engMode.Store(on)
	return nil
}

// SetBaudRate reconfigures the sensor's serial baud rate. The new rate
// takes effect after the next restart, at which point the port must be
// reopened at the new speed.
func (e *Engine) SetBaudRate(index uint16) error {
	data, err := ld2410.BaudRateData(index)
	if err != nil {
		return err
	}
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdSetBaudRate, data)
	})
}

// RequestConfig asks the sensor to report its current configuration. The
// response arrives asynchronously as a command frame on the report stream.
func (e *Engine) RequestConfig() error {
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdReadConfig, nil)
	})
}

// RequestFirmware asks the sensor to report its firmware version. The
// response arrives asynchronously as a command frame on the report stream.
func (e *Engine) RequestFirmware() error {
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdReadFirmware, nil)
	})
}

// FactoryReset restores the sensor's factory default configuration. A
// restart is required before the defaults take effect.
func (e *Engine) FactoryReset() error {
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdFactoryReset, nil)
	})
}

// Restart reboots the sensor module. The trailing exit from config mode is
// best effort; the module may already be rebooting when it is written.
func (e *Engine) Restart() error {
	return e.withConfigMode(func() error {
		return e.writeCommand(ld2410.CmdRestart, nil)
	})
}
