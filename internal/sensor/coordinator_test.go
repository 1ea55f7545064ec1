package sensor

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/serialmux"
	"github.com/banshee-data/presence.report/internal/timeutil"
)

func newTestEngine() (*Engine, *serialmux.TestableSerialPort, *timeutil.MockClock) {
	port := serialmux.NewTestableSerialPort()
	clock := timeutil.NewMockClock(time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC))
	return NewEngine(port, clock), port, clock
}

// writtenOpcodes reparses everything written to the port and returns the
// opcode of each complete command frame, in write order.
func writtenOpcodes(t *testing.T, port *serialmux.TestableSerialPort) []uint16 {
	t.Helper()
	var p ld2410.Parser
	var ops []uint16
	for _, b := range port.GetWrittenData() {
		if !p.Feed(b) {
			continue
		}
		payload := p.Payload()
		require.GreaterOrEqual(t, len(payload), 2)
		ops = append(ops, binary.LittleEndian.Uint16(payload[:2]))
	}
	require.Zero(t, p.FramesErr, "coordinator wrote malformed frames")
	return ops
}

func TestSetGateSensitivityTransaction(t *testing.T) {
	e, port, clock := newTestEngine()

	require.NoError(t, e.SetGateSensitivity(3, 40, 30))

	ops := writtenOpcodes(t, port)
	assert.Equal(t, []uint16{ld2410.CmdEnableConfig, ld2410.CmdSetSensitivity, ld2410.CmdDisableConfig}, ops)

	// One settle delay per frame written.
	assert.Equal(t, []time.Duration{settleDelay, settleDelay, settleDelay}, clock.Sleeps())
}

func TestSetMaxGatesTransaction(t *testing.T) {
	e, port, _ := newTestEngine()

	require.NoError(t, e.SetMaxGates(8, 6, 5))

	ops := writtenOpcodes(t, port)
	assert.Equal(t, []uint16{ld2410.CmdEnableConfig, ld2410.CmdSetMaxGate, ld2410.CmdDisableConfig}, ops)
}

func TestInvalidParametersWriteNothing(t *testing.T) {
	e, port, _ := newTestEngine()

	assert.Error(t, e.SetGateSensitivity(9, 40, 30))
	assert.Error(t, e.SetMaxGates(0, 12, 5))
	assert.Error(t, e.SetBaudRate(0))
	assert.Zero(t, port.WriteCalls)
}

func TestShortWriteStillExitsConfigMode(t *testing.T) {
	e, port, _ := newTestEngine()

	// Enable-config succeeds, the sensitivity frame is cut short.
	port.ShortWriteOnCall = 2
	port.ShortWriteBy = 3

	err := e.SetGateSensitivity(0, 50, 50)
	require.ErrorIs(t, err, ErrShortWrite)

	// The transaction still attempted to leave config mode.
	ops := writtenOpcodes(t, port)
	require.NotEmpty(t, ops)
	assert.Equal(t, ld2410.CmdDisableConfig, ops[len(ops)-1])
}

func TestEnableConfigFailureAbortsCommand(t *testing.T) {
	e, port, _ := newTestEngine()

	port.WriteError = errors.New("port unplugged")

	err := e.SetEngineeringMode(true)
	require.Error(t, err)
	assert.Equal(t, 1, port.WriteCalls)
	assert.False(t, e.EngineeringMode())
}

func TestSetEngineeringModeTogglesDecoder(t *testing.T) {
	e, port, _ := newTestEngine()

	require.NoError(t, e.SetEngineeringMode(true))
	assert.True(t, e.EngineeringMode())
	assert.Contains(t, writtenOpcodes(t, port), ld2410.CmdEngModeOn)

	port.Reset()
	require.NoError(t, e.SetEngineeringMode(false))
	assert.False(t, e.EngineeringMode())
	assert.Contains(t, writtenOpcodes(t, port), ld2410.CmdEngModeOff)
}

func TestMaintenanceCommands(t *testing.T) {
	tests := []struct {
		name   string
		run    func(*Engine) error
		opcode uint16
	}{
		{"request config", (*Engine).RequestConfig, ld2410.CmdReadConfig},
		{"request firmware", (*Engine).RequestFirmware, ld2410.CmdReadFirmware},
		{"factory reset", (*Engine).FactoryReset, ld2410.CmdFactoryReset},
		{"restart", (*Engine).Restart, ld2410.CmdRestart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, port, _ := newTestEngine()
			require.NoError(t, tt.run(e))
			ops := writtenOpcodes(t, port)
			assert.Equal(t, []uint16{ld2410.CmdEnableConfig, tt.opcode, ld2410.CmdDisableConfig}, ops)
		})
	}
}

func TestSetBaudRateWritesIndex(t *testing.T) {
	e, port, _ := newTestEngine()

	require.NoError(t, e.SetBaudRate(ld2410.Baud115200))

	var p ld2410.Parser
	var payloads [][]byte
	for _, b := range port.GetWrittenData() {
		if p.Feed(b) {
			payloads = append(payloads, append([]byte(nil), p.Payload()...))
		}
	}
	require.Len(t, payloads, 3)
	assert.Equal(t, []byte{0xA1, 0x00, 0x05, 0x00}, payloads[1])
}

// TestConcurrentTransactionsNeverInterleave hammers the coordinator from
// several goroutines and verifies every enable-config is matched by a
// disable-config before the next enable appears in the write stream.
func TestConcurrentTransactionsNeverInterleave(t *testing.T) {
	e, port, _ := newTestEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(gate uint8) {
			defer wg.Done()
			assert.NoError(t, e.SetGateSensitivity(gate%ld2410.MaxGates, 50, 50))
		}(uint8(i))
	}
	wg.Wait()

	inConfig := false
	for _, op := range writtenOpcodes(t, port) {
		switch op {
		case ld2410.CmdEnableConfig:
			require.False(t, inConfig, "nested enable-config")
			inConfig = true
		case ld2410.CmdDisableConfig:
			require.True(t, inConfig, "disable-config outside a transaction")
			inConfig = false
		default:
			require.True(t, inConfig, "command 0x%04X outside config mode", op)
		}
	}
	assert.False(t, inConfig, "transaction left open")
}
