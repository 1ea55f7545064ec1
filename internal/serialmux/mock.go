package serialmux

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// TestableSerialPort implements TimeoutSerialPorter with configurable
// behaviour for testing. It provides fine-grained control over reads,
// writes, errors, and latency. An empty read buffer behaves like a real
// port read timeout: Read returns (0, nil).
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWriteBy trims that many bytes off the next reported write count.
	// If ShortWriteOnCall is non-zero the trim applies to that write call
	// (1-based) instead of the next one.
	ShortWriteBy     int
	ShortWriteOnCall int

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// WriteCalls records the number of Write calls
	WriteCalls int

	// ReadTimeout is the current read timeout
	ReadTimeout time.Duration
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Read reads from the read buffer. An exhausted buffer reads as a timed-out
// poll, not EOF, so the poll loop keeps retrying like it would against real
// hardware.
func (t *TestableSerialPort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	if t.ReadBuffer.Len() == 0 {
		return 0, nil
	}

	return t.ReadBuffer.Read(p)
}

// Write writes to the write buffer, optionally simulating errors and short
// writes.
func (t *TestableSerialPort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	n, err = t.WriteBuffer.Write(p)
	if err == nil && t.ShortWriteBy > 0 && (t.ShortWriteOnCall == 0 || t.ShortWriteOnCall == t.WriteCalls) {
		n -= t.ShortWriteBy
		t.ShortWriteBy = 0
		t.ShortWriteOnCall = 0
		if n < 0 {
			n = 0
		}
	}
	return n, err
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	return t.CloseError
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
}

// GetWrittenData returns all data written to the port.
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}

// Reset clears all buffers and resets state.
func (t *TestableSerialPort) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Reset()
	t.WriteBuffer.Reset()
	t.ReadCalls = 0
	t.WriteCalls = 0
	t.Closed = false
	t.ReadError = nil
	t.WriteError = nil
	t.CloseError = nil
	t.ShortWriteBy = 0
	t.ShortWriteOnCall = 0
}

// ReplayPort replays canned radar frames on a fixed interval, simulating a
// live sensor for dev mode. Writes are captured but otherwise ignored.
type ReplayPort struct {
	*TestableSerialPort
	done chan struct{}
	once sync.Once
}

// NewReplayPort starts a ReplayPort cycling through the given frames, one
// per interval. Close stops the replay goroutine.
func NewReplayPort(frames [][]byte, interval time.Duration) *ReplayPort {
	rp := &ReplayPort{
		TestableSerialPort: NewTestableSerialPort(),
		done:               make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-rp.done:
				return
			case <-ticker.C:
				if len(frames) == 0 {
					continue
				}
				rp.AddReadData(frames[i%len(frames)])
				i++
			}
		}
	}()

	return rp
}

// Close stops the replay goroutine and closes the underlying port.
func (rp *ReplayPort) Close() error {
	rp.once.Do(func() { close(rp.done) })
	return rp.TestableSerialPort.Close()
}
