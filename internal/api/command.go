package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/banshee-data/presence.report/internal/db"
	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/ld2410"
	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/serialmux"
)

type commandResponse struct {
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// audit records a sensor command in the command log. Audit failures are
// logged but never surfaced to the API caller; the command itself already
// ran.
func (s *Server) audit(opcode uint16, params string, cmdErr error) string {
	id, err := s.db.LogCommand(opcode, params, cmdErr)
	if err != nil {
		monitoring.Logf("api: failed to record command audit: %v", err)
	}
	return id
}

func (s *Server) writeCommandResult(w http.ResponseWriter, id string, cmdErr error) {
	resp := commandResponse{CommandID: id, Status: db.CommandStatusOK}
	if cmdErr != nil {
		resp.Status = db.CommandStatusFailed
		resp.Error = cmdErr.Error()
		httputil.WriteJSON(w, http.StatusBadGateway, resp)
		return
	}
	httputil.WriteJSONOK(w, resp)
}

type commandRequest struct {
	Action    string `json:"action"`
	BaudIndex uint16 `json:"baud_index,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	var (
		opcode uint16
		params string
		cmdErr error
	)
	switch req.Action {
	case "restart":
		opcode = ld2410.CmdRestart
		cmdErr = s.engine.Restart()
	case "factory_reset":
		opcode = ld2410.CmdFactoryReset
		cmdErr = s.engine.FactoryReset()
	case "read_config":
		opcode = ld2410.CmdReadConfig
		cmdErr = s.engine.RequestConfig()
	case "read_firmware":
		opcode = ld2410.CmdReadFirmware
		cmdErr = s.engine.RequestFirmware()
	case "set_baud":
		if req.BaudIndex < ld2410.Baud9600 || req.BaudIndex > ld2410.Baud460800 {
			httputil.BadRequest(w, "invalid 'baud_index'")
			return
		}
		opcode = ld2410.CmdSetBaudRate
		params = fmt.Sprintf("baud_index=%d", req.BaudIndex)
		cmdErr = s.engine.SetBaudRate(req.BaudIndex)
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown action %q", req.Action))
		return
	}

	id := s.audit(opcode, params, cmdErr)
	s.writeCommandResult(w, id, cmdErr)
}

type sensitivityRequest struct {
	Gate            uint8 `json:"gate"`
	MotionThreshold uint8 `json:"motion_threshold"`
	StaticThreshold uint8 `json:"static_threshold"`
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req sensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}
	if req.Gate >= ld2410.MaxGates {
		httputil.BadRequest(w, fmt.Sprintf("gate must be 0-%d", ld2410.MaxGates-1))
		return
	}
	if req.MotionThreshold > 100 || req.StaticThreshold > 100 {
		httputil.BadRequest(w, "thresholds are percentages 0-100")
		return
	}

	cmdErr := s.engine.SetGateSensitivity(req.Gate, req.MotionThreshold, req.StaticThreshold)
	params := fmt.Sprintf("gate=%d motion=%d static=%d", req.Gate, req.MotionThreshold, req.StaticThreshold)
	id := s.audit(ld2410.CmdSetSensitivity, params, cmdErr)
	s.writeCommandResult(w, id, cmdErr)
}

type maxGateRequest struct {
	MaxMotionGate uint8  `json:"max_motion_gate"`
	MaxStaticGate uint8  `json:"max_static_gate"`
	TimeoutS      uint16 `json:"timeout_s"`
}

func (s *Server) handleMaxGate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req maxGateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}
	if req.MaxMotionGate >= ld2410.MaxGates || req.MaxStaticGate >= ld2410.MaxGates {
		httputil.BadRequest(w, fmt.Sprintf("gates must be 0-%d", ld2410.MaxGates-1))
		return
	}

	cmdErr := s.engine.SetMaxGates(req.MaxMotionGate, req.MaxStaticGate, req.TimeoutS)
	params := fmt.Sprintf("max_motion=%d max_static=%d timeout_s=%d", req.MaxMotionGate, req.MaxStaticGate, req.TimeoutS)
	id := s.audit(ld2410.CmdSetMaxGate, params, cmdErr)
	s.writeCommandResult(w, id, cmdErr)
}

type engineeringRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleEngineering(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, engineeringRequest{Enabled: s.engine.EngineeringMode()})
	case http.MethodPost:
		var req engineeringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid request body")
			return
		}
		opcode := ld2410.CmdEngModeOff
		if req.Enabled {
			opcode = ld2410.CmdEngModeOn
		}
		cmdErr := s.engine.SetEngineeringMode(req.Enabled)
		id := s.audit(opcode, fmt.Sprintf("enabled=%v", req.Enabled), cmdErr)
		s.writeCommandResult(w, id, cmdErr)
	default:
		httputil.MethodNotAllowed(w)
	}
}

type serialConfigResponse struct {
	Options         serialmux.PortOptions `json:"options"`
	RestartRequired bool                  `json:"restart_required,omitempty"`
}

// handleSerialConfig reads or updates the persisted serial port options.
// Updates take effect when the daemon next opens the port.
func (s *Server) handleSerialConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		opts, err := s.db.LoadPortOptions()
		if err != nil {
			httputil.InternalServerError(w, "failed to load serial options")
			return
		}
		httputil.WriteJSONOK(w, serialConfigResponse{Options: opts})
	case http.MethodPost:
		var opts serialmux.PortOptions
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			httputil.BadRequest(w, "invalid request body")
			return
		}
		if err := s.db.SavePortOptions(opts); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		saved, err := s.db.LoadPortOptions()
		if err != nil {
			httputil.InternalServerError(w, "failed to reload serial options")
			return
		}
		httputil.WriteJSONOK(w, serialConfigResponse{Options: saved, RestartRequired: true})
	default:
		httputil.MethodNotAllowed(w)
	}
}
