package ha

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/timeutil"
)

// DefaultHeartbeat is how often an unchanged state is re-pushed so Home
// Assistant can tell a quiet room from a dead sensor.
const DefaultHeartbeat = time.Minute

// ReadingSource is the subscription surface the reporter consumes,
// satisfied by the sensor engine.
type ReadingSource interface {
	Subscribe() (string, chan ld2410.SensorReading)
	Unsubscribe(id string)
}

// Reporter watches the reading stream and pushes a state update whenever
// presence flips, plus a periodic heartbeat while it is unchanged.
type Reporter struct {
	client    *Client
	source    ReadingSource
	clock     timeutil.Clock
	heartbeat time.Duration

	pushed   atomic.Uint64
	pushErrs atomic.Uint64
}

// NewReporter creates a Reporter. A nil clock uses the real clock; a
// non-positive heartbeat uses DefaultHeartbeat.
func NewReporter(client *Client, source ReadingSource, clock timeutil.Clock, heartbeat time.Duration) *Reporter {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Reporter{
		client:    client,
		source:    source,
		clock:     clock,
		heartbeat: heartbeat,
	}
}

// Stats reports push counters.
func (rep *Reporter) Stats() (pushed, errors uint64) {
	return rep.pushed.Load(), rep.pushErrs.Load()
}

// Run consumes readings until the context is cancelled or the source
// closes the subscription. Push failures are logged and counted; the
// reporter keeps running so a Home Assistant outage does not take the
// daemon down with it.
func (rep *Reporter) Run(ctx context.Context) error {
	id, ch := rep.source.Subscribe()
	defer rep.source.Unsubscribe(id)

	var (
		havePushed  bool
		lastPresent bool
		lastPush    time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-ch:
			if !ok {
				return nil
			}

			present := r.TargetState.Present()
			changed := !havePushed || present != lastPresent
			due := rep.clock.Since(lastPush) >= rep.heartbeat
			if !changed && !due {
				continue
			}

			if err := rep.client.PushState(ctx, r); err != nil {
				rep.pushErrs.Add(1)
				monitoring.Logf("ha: push failed: %v", err)
				continue
			}
			rep.pushed.Add(1)
			havePushed = true
			lastPresent = present
			lastPush = rep.clock.Now()
		}
	}
}
