package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/sensor"
)

type statusResponse struct {
	HasReading      bool                  `json:"has_reading"`
	Present         bool                  `json:"present"`
	EngineeringMode bool                  `json:"engineering_mode"`
	Reading         *ld2410.SensorReading `json:"reading,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	resp := statusResponse{EngineeringMode: s.engine.EngineeringMode()}
	if reading, ok := s.engine.Latest(); ok {
		resp.HasReading = true
		resp.Present = reading.TargetState.Present()
		resp.Reading = &reading
	}
	httputil.WriteJSONOK(w, resp)
}

type gatesResponse struct {
	HasGates         bool                   `json:"has_gates"`
	CapturedAt       time.Time              `json:"captured_at,omitzero"`
	AgeSeconds       float64                `json:"age_seconds"`
	GateDistanceCM   int                    `json:"gate_distance_cm"`
	MotionGateEnergy [ld2410.MaxGates]uint8 `json:"motion_gate_energy"`
	StaticGateEnergy [ld2410.MaxGates]uint8 `json:"static_gate_energy"`
}

func (s *Server) handleGates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	resp := gatesResponse{GateDistanceCM: ld2410.GateDistanceCM}
	if eng, capturedAt, ok := s.engine.LatestEngineering(); ok {
		resp.HasGates = true
		resp.CapturedAt = capturedAt
		resp.AgeSeconds = s.clock.Since(capturedAt).Seconds()
		resp.MotionGateEnergy = eng.MotionGateEnergy
		resp.StaticGateEnergy = eng.StaticGateEnergy
	}
	httputil.WriteJSONOK(w, resp)
}

type statsResponse struct {
	Engine       sensor.Stats        `json:"engine"`
	Observations db.ObservationStats `json:"observations"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'hours' parameter")
			return
		}
		hours = parsed
	}

	now := s.clock.Now()
	obsStats, err := s.db.StatsSince(now.Add(-time.Duration(hours)*time.Hour), now)
	if err != nil {
		httputil.InternalServerError(w, "failed to compute observation stats")
		return
	}
	httputil.WriteJSONOK(w, statsResponse{
		Engine:       s.engine.Stats(),
		Observations: obsStats,
	})
}

func parseLimit(r *http.Request, def int) (int, bool) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(l)
	if err != nil || parsed < 1 {
		return 0, false
	}
	return parsed, true
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	limit, ok := parseLimit(r, 100)
	if !ok {
		httputil.BadRequest(w, "invalid 'limit' parameter")
		return
	}

	obs, err := s.db.RecentObservations(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to query observations")
		return
	}
	if obs == nil {
		obs = []db.Observation{}
	}
	httputil.WriteJSONOK(w, obs)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	limit, ok := parseLimit(r, 50)
	if !ok {
		httputil.BadRequest(w, "invalid 'limit' parameter")
		return
	}

	records, err := s.db.RecentCommands(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to query command log")
		return
	}
	if records == nil {
		records = []db.CommandRecord{}
	}
	httputil.WriteJSONOK(w, records)
}
