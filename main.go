// Command presence-report runs the LD2410 presence daemon: it monitors the
// sensor over a serial port, caches and records readings, pushes presence
// state to Home Assistant, and serves the HTTP API and dashboard.
package main

import (
	"context"
	"embed"
	"encoding/binary"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/presence.report/internal/api"
	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/ha"
	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/sensor"
	"github.com/banshee-data/presence.report/internal/serialmux"
	"github.com/banshee-data/presence.report/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode       = flag.Bool("dev", false, "Run against a replayed sensor instead of real hardware")
	listen        = flag.String("listen", ":8080", "Listen address")
	serialPath    = flag.String("serial", "/dev/ttyUSB0", "Serial port connected to the sensor")
	baudRate      = flag.Int("baud", 0, "Serial baud rate (0 uses the persisted or default rate)")
	dbFile        = flag.String("db", "presence.db", "SQLite database path")
	migrationsDir = flag.String("migrations", "migrations", "Migrations directory")
	retentionDays = flag.Int("retention-days", 14, "Days of observations to keep (0 disables pruning)")
	haHeartbeat   = flag.Duration("ha-heartbeat", ha.DefaultHeartbeat, "How often to re-push an unchanged state to Home Assistant")
)

// readTimeout bounds each serial read so the poll loop can observe context
// cancellation between reads.
const readTimeout = 100 * time.Millisecond

// recordInterval is how often an unchanged reading is persisted. Presence
// flips are always persisted immediately.
const recordInterval = 10 * time.Second

func replayFrame(state ld2410.TargetState, distanceCM uint16, energy uint8) []byte {
	payload := []byte{0x02, 0xAA, byte(state)}
	payload = binary.LittleEndian.AppendUint16(payload, distanceCM)
	payload = append(payload, energy)
	payload = binary.LittleEndian.AppendUint16(payload, distanceCM+50)
	payload = append(payload, energy/2)
	payload = binary.LittleEndian.AppendUint16(payload, distanceCM)

	frame := binary.LittleEndian.AppendUint32(nil, ld2410.DataHeader)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	return binary.LittleEndian.AppendUint32(frame, ld2410.DataTail)
}

// replayFrames is the canned report cycle for dev mode: an empty room, an
// approaching target, a lingering static target, and empty again.
func replayFrames() [][]byte {
	return [][]byte{
		replayFrame(ld2410.TargetNone, 0, 0),
		replayFrame(ld2410.TargetMotion, 300, 75),
		replayFrame(ld2410.TargetMotion, 150, 90),
		replayFrame(ld2410.TargetBoth, 120, 85),
		replayFrame(ld2410.TargetStatic, 120, 60),
		replayFrame(ld2410.TargetStatic, 120, 55),
		replayFrame(ld2410.TargetNone, 0, 0),
	}
}

func openPort(database *db.DB) (serialmux.SerialPorter, error) {
	if *devMode {
		return serialmux.NewReplayPort(replayFrames(), 500*time.Millisecond), nil
	}

	opts, err := database.LoadPortOptions()
	if err != nil {
		return nil, err
	}
	if *baudRate > 0 {
		opts.BaudRate = *baudRate
	}
	return serialmux.Open(*serialPath, opts, readTimeout)
}

// recordLoop persists readings: every presence flip, plus a sample of the
// steady state every recordInterval.
func recordLoop(ctx context.Context, engine *sensor.Engine, database *db.DB) {
	id, ch := engine.Subscribe()
	defer engine.Unsubscribe(id)

	var (
		haveRecorded bool
		lastPresent  bool
		lastRecord   time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			present := r.TargetState.Present()
			if haveRecorded && present == lastPresent && time.Since(lastRecord) < recordInterval {
				continue
			}
			if err := database.RecordObservation(r); err != nil {
				log.Printf("failed to record observation: %v", err)
				continue
			}
			haveRecorded = true
			lastPresent = present
			lastRecord = time.Now()
		}
	}
}

// retentionLoop prunes old observations once an hour.
func retentionLoop(ctx context.Context, database *db.DB) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -*retentionDays)
			deleted, err := database.DeleteObservationsBefore(cutoff)
			if err != nil {
				log.Printf("retention sweep failed: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("retention sweep deleted %d observations", deleted)
			}
		}
	}
}

func main() {
	flag.Parse()

	log.Printf("presence-report %s starting", version.String())

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	port, err := openPort(database)
	if err != nil {
		log.Fatalf("Failed to open serial port: %v", err)
	}

	engine := sensor.NewEngine(port, nil)
	defer engine.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// poll loop: the only reader of the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		recordLoop(ctx, engine, database)
		log.Print("recorder routine terminated")
	}()

	if *retentionDays > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			retentionLoop(ctx, database)
		}()
	}

	// Home Assistant reporter, if a push target is configured.
	settings, err := database.AllSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	haCfg := ha.ConfigFromSettings(settings)
	if haCfg.Configured() {
		reporter := ha.NewReporter(ha.NewClient(haCfg, nil), engine, nil, *haHeartbeat)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reporter.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("home assistant reporter stopped: %v", err)
			}
			log.Print("reporter routine terminated")
		}()
	} else {
		log.Print("home assistant push not configured; set it via /api/ha/config")
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(engine, database, nil, nil).ServeMux()

		// admin debugging routes (accessible only locally or over Tailscale)
		database.AttachAdminRoutes(mux)

		// embedded static dashboard in production, local ./static in dev for
		// easier iteration without restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticHandler = http.FileServer(http.FS(staticFiles))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
