package sensor

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/serialmux"
)

// standardPayload decodes to: motion target at 150cm energy 80, static
// target at 200cm energy 40, detection distance 150cm.
var standardPayload = []byte{0x02, 0xAA, 0x01, 0x96, 0x00, 0x50, 0xC8, 0x00, 0x28, 0x96, 0x00}

func dataFrame(payload []byte) []byte {
	frame := binary.LittleEndian.AppendUint32(nil, ld2410.DataHeader)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	return binary.LittleEndian.AppendUint32(frame, ld2410.DataTail)
}

func startMonitor(t *testing.T, e *Engine) (cancel func(), errCh chan error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	errCh = make(chan error, 1)
	go func() {
		errCh <- e.Monitor(ctx)
	}()
	return cancelCtx, errCh
}

func waitForReading(t *testing.T, ch chan ld2410.SensorReading) ld2410.SensorReading {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no reading within deadline")
	}
	return ld2410.SensorReading{}
}

func TestMonitorDecodesAndPublishes(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	_, ch := e.Subscribe()
	port.AddReadData(dataFrame(standardPayload))

	cancel, errCh := startMonitor(t, e)
	defer cancel()

	got := waitForReading(t, ch)
	assert.Equal(t, ld2410.TargetMotion, got.TargetState)
	assert.Equal(t, uint16(150), got.MotionDistanceCM)
	assert.Equal(t, uint8(80), got.MotionEnergy)
	assert.False(t, got.CapturedAt.IsZero())

	latest, ok := e.Latest()
	require.True(t, ok)
	assert.Equal(t, got, latest)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestMonitorResyncsThroughGarbage(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	_, ch := e.Subscribe()
	stream := append([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0xF4}, dataFrame(standardPayload)...)
	port.AddReadData(stream)

	cancel, _ := startMonitor(t, e)
	defer cancel()

	got := waitForReading(t, ch)
	assert.Equal(t, ld2410.TargetMotion, got.TargetState)
}

func TestMonitorCountsDecodeErrors(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	// Framing is valid but the payload discriminator is garbage, then a
	// good frame follows so the test can observe completion.
	_, ch := e.Subscribe()
	port.AddReadData(dataFrame([]byte{0x07, 0xAA, 0x00}))
	port.AddReadData(dataFrame(standardPayload))

	cancel, _ := startMonitor(t, e)
	defer cancel()

	waitForReading(t, ch)

	stats := e.Stats()
	assert.Equal(t, uint64(1), stats.DecodeErrors)
	assert.Equal(t, uint64(1), stats.ReadingsDecoded)
	assert.Equal(t, uint64(2), stats.FramesOK)
}

func TestMonitorSurvivesReadErrors(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	_, ch := e.Subscribe()
	port.ReadError = assert.AnError
	port.AddReadData(dataFrame(standardPayload))

	cancel, _ := startMonitor(t, e)
	defer cancel()

	waitForReading(t, ch)
	assert.Equal(t, uint64(1), e.Stats().ReadErrors)
}

func TestSlowSubscriberDoesNotStallMonitor(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	// Never drained: its buffer fills and further sends to it are dropped.
	// The loop must keep decoding for everyone else regardless.
	e.Subscribe()
	_, live := e.Subscribe()

	const frames = subscriberBuffer * 2
	for i := 0; i < frames; i++ {
		port.AddReadData(dataFrame(standardPayload))
	}

	cancel, _ := startMonitor(t, e)
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for e.Stats().ReadingsDecoded < frames {
		if time.Now().After(deadline) {
			t.Fatalf("decoded %d of %d readings before deadline", e.Stats().ReadingsDecoded, frames)
		}
		time.Sleep(time.Millisecond)
	}

	// The drained subscriber saw readings; dropped sends to the full buffer
	// never blocked the loop.
	waitForReading(t, live)
	assert.Equal(t, uint64(frames), e.Stats().ReadingsDecoded)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	e := NewEngine(serialmux.NewTestableSerialPort(), nil)

	id, ch := e.Subscribe()
	assert.Equal(t, 1, e.Stats().Subscribers)

	e.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, e.Stats().Subscribers)

	// Unknown IDs are a no-op.
	e.Unsubscribe("nope")
}

func TestCloseStopsMonitorCleanly(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	_, ch := e.Subscribe()
	_, errCh := startMonitor(t, e)

	require.NoError(t, e.Close())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return after Close")
	}

	_, open := <-ch
	assert.False(t, open)
	assert.True(t, port.Closed)
}

func TestMonitorCountsCommandFrames(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	e := NewEngine(port, nil)

	ack := binary.LittleEndian.AppendUint32(nil, ld2410.CmdHeader)
	ack = binary.LittleEndian.AppendUint16(ack, 4)
	ack = append(ack, 0xFF, 0x01, 0x00, 0x00)
	ack = binary.LittleEndian.AppendUint32(ack, ld2410.CmdTail)

	_, ch := e.Subscribe()
	port.AddReadData(ack)
	port.AddReadData(dataFrame(standardPayload))

	cancel, _ := startMonitor(t, e)
	defer cancel()

	waitForReading(t, ch)
	assert.Equal(t, uint64(1), e.Stats().CommandFrames)
}
