package sensor

import (
	"sync"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

// readingCache holds the most recent decoded readings for concurrent
// consumers. Readings are replaced wholesale under the write lock, so a
// reader can never observe a half-updated value.
type readingCache struct {
	mu sync.RWMutex

	reading    ld2410.SensorReading
	hasReading bool

	// Engineering gate energies persist across standard-only reports so a
	// consumer polling after engineering mode is switched off still sees the
	// last captured gates. engAt records when they were captured.
	eng    ld2410.EngineeringReading
	engAt  time.Time
	hasEng bool
}

func (c *readingCache) publish(r ld2410.SensorReading, eng *ld2410.EngineeringReading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reading = r
	c.hasReading = true

	if eng != nil {
		c.eng = *eng
		c.engAt = r.CapturedAt
		c.hasEng = true
	}
}

// latest returns the most recent reading. ok is false until the first
// report has been decoded.
func (c *readingCache) latest() (ld2410.SensorReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading, c.hasReading
}

// latestEngineering returns the last captured engineering reading and its
// capture time. The gates may be older than the latest standard reading;
// callers decide how much staleness they tolerate.
func (c *readingCache) latestEngineering() (ld2410.EngineeringReading, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.eng, c.engAt, c.hasEng
}
