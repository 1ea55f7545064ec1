// Package api exposes the daemon's HTTP surface: sensor status and gate
// energies, observation history and statistics, sensor configuration
// commands, and the Home Assistant push settings.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/sensor"
	"github.com/banshee-data/presence.report/internal/timeutil"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	engine *sensor.Engine
	db     *db.DB
	http   httputil.HTTPClient
	clock  timeutil.Clock
}

// NewServer creates the API server. httpClient is used for outbound Home
// Assistant pushes; nil uses the default client. A nil clock uses the real
// clock.
func NewServer(engine *sensor.Engine, database *db.DB, httpClient httputil.HTTPClient, clock timeutil.Clock) *Server {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		engine: engine,
		db:     database,
		http:   httpClient,
		clock:  clock,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/gates", s.handleGates)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/observations", s.handleObservations)
	mux.HandleFunc("/api/commands", s.handleCommands)
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/api/config/sensitivity", s.handleSensitivity)
	mux.HandleFunc("/api/config/maxgate", s.handleMaxGate)
	mux.HandleFunc("/api/config/engineering", s.handleEngineering)
	mux.HandleFunc("/api/config/serial", s.handleSerialConfig)
	mux.HandleFunc("/api/ha/config", s.handleHAConfig)
	mux.HandleFunc("/api/ha/push", s.handleHAPush)
	mux.HandleFunc("/report", s.handleReport)
	return mux
}
