// Package sensor drives an LD2410 presence radar over a serial port: a
// single-reader poll loop that parses and decodes the report stream, a
// cache of the latest readings, and a coordinator that serializes
// configuration commands to the device.
package sensor

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/serialmux"
	"github.com/banshee-data/presence.report/internal/timeutil"
)

const (
	// idleBackoff is how long the poll loop sleeps after a zero-byte read
	// (a serial read timeout with no pending data).
	idleBackoff = 10 * time.Millisecond

	// errorBackoff is how long the poll loop sleeps after a read error
	// before retrying the port.
	errorBackoff = 100 * time.Millisecond

	// subscriberBuffer is the per-subscriber channel capacity. A subscriber
	// that falls further behind than this misses readings rather than
	// stalling the poll loop.
	subscriberBuffer = 16
)

// Engine owns the serial port connected to the sensor. Exactly one
// goroutine reads the port (Monitor); command writes from any goroutine are
// serialized by the coordinator in coordinator.go.
type Engine struct {
	port  serialmux.SerialPorter
	clock timeutil.Clock

	parser ld2410.Parser
	cache  readingCache

	commandMu sync.Mutex

	subscriberMu sync.Mutex
	subscribers  map[string]chan ld2410.SensorReading

	engMode atomic.Bool

	framesOK        atomic.Uint64
	framesErr       atomic.Uint64
	readingsDecoded atomic.Uint64
	decodeErrs      atomic.Uint64
	commandFrames   atomic.Uint64
	readErrs        atomic.Uint64

	closing   bool
	closingMu sync.Mutex
}

// Stats is a point-in-time snapshot of the engine's counters.
type Stats struct {
	FramesOK        uint64 `json:"frames_ok"`
	FramesErr       uint64 `json:"frames_err"`
	ReadingsDecoded uint64 `json:"readings_decoded"`
	DecodeErrors    uint64 `json:"decode_errors"`
	CommandFrames   uint64 `json:"command_frames"`
	ReadErrors      uint64 `json:"read_errors"`
	Subscribers     int    `json:"subscribers"`
	EngineeringMode bool   `json:"engineering_mode"`
}

// NewEngine creates an Engine reading from the given port. A nil clock
// falls back to the real clock.
func NewEngine(port serialmux.SerialPorter, clock timeutil.Clock) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Engine{
		port:        port,
		clock:       clock,
		subscribers: make(map[string]chan ld2410.SensorReading),
	}
}

// randomID generates a random subscriber ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel receiving every decoded reading. The
// returned ID identifies the channel when unsubscribing.
func (e *Engine) Subscribe() (string, chan ld2410.SensorReading) {
	id := randomID()
	ch := make(chan ld2410.SensorReading, subscriberBuffer)
	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	e.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (e *Engine) Unsubscribe(id string) {
	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	if ch, ok := e.subscribers[id]; ok {
		close(ch)
		delete(e.subscribers, id)
	}
}

func (e *Engine) broadcast(r ld2410.SensorReading) {
	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- r:
		default:
			// slow subscriber, drop rather than stall the poll loop
		}
	}
}

// Monitor reads the serial port one byte at a time, feeding the frame
// parser and publishing decoded readings to the cache and subscribers. It
// runs until the context is cancelled or the engine is closed. Monitor is
// the only reader of the port.
func (e *Engine) Monitor(ctx context.Context) error {
	buf := make([]byte, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := e.port.Read(buf)
		if err != nil {
			if e.isClosing() {
				return nil
			}
			e.readErrs.Add(1)
			monitoring.Logf("sensor: serial read: %v", err)
			e.clock.Sleep(errorBackoff)
			continue
		}
		if n == 0 {
			// read timeout, nothing pending
			e.clock.Sleep(idleBackoff)
			continue
		}

		complete := e.parser.Feed(buf[0])
		e.framesOK.Store(e.parser.FramesOK)
		e.framesErr.Store(e.parser.FramesErr)
		if !complete {
			continue
		}

		switch e.parser.FrameKind() {
		case ld2410.FrameCommand:
			// Command responses are not correlated with requests; count
			// them so the stats surface shows the sensor is acknowledging.
			e.commandFrames.Add(1)
		case ld2410.FrameData:
			reading, eng, err := ld2410.DecodeReading(e.parser.Payload(), e.engMode.Load(), e.clock.Now())
			if err != nil {
				e.decodeErrs.Add(1)
				continue
			}
			e.readingsDecoded.Add(1)
			e.cache.publish(reading, eng)
			e.broadcast(reading)
		}
	}
}

// Latest returns the most recent decoded reading. ok is false before the
// first report arrives.
func (e *Engine) Latest() (ld2410.SensorReading, bool) {
	return e.cache.latest()
}

// LatestEngineering returns the last captured per-gate energies and when
// they were captured. Gates persist after engineering mode is disabled.
func (e *Engine) LatestEngineering() (ld2410.EngineeringReading, time.Time, bool) {
	return e.cache.latestEngineering()
}

// EngineeringMode reports whether the engine currently expects
// engineering-format reports from the sensor.
func (e *Engine) EngineeringMode() bool {
	return e.engMode.Load()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.subscriberMu.Lock()
	subs := len(e.subscribers)
	e.subscriberMu.Unlock()

	return Stats{
		FramesOK:        e.framesOK.Load(),
		FramesErr:       e.framesErr.Load(),
		ReadingsDecoded: e.readingsDecoded.Load(),
		DecodeErrors:    e.decodeErrs.Load(),
		CommandFrames:   e.commandFrames.Load(),
		ReadErrors:      e.readErrs.Load(),
		Subscribers:     subs,
		EngineeringMode: e.engMode.Load(),
	}
}

func (e *Engine) isClosing() bool {
	e.closingMu.Lock()
	defer e.closingMu.Unlock()
	return e.closing
}

// Close closes all subscriber channels and the serial port. Monitor
// returns once it observes the closed port.
func (e *Engine) Close() error {
	e.closingMu.Lock()
	e.closing = true
	e.closingMu.Unlock()

	e.subscriberMu.Lock()
	for id, ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, id)
	}
	e.subscriberMu.Unlock()

	return e.port.Close()
}
