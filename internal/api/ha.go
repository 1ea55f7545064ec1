package api

import (
	"encoding/json"
	"net/http"

	"github.com/banshee-data/presence.report/internal/ha"
	"github.com/banshee-data/presence.report/internal/httputil"
)

type haConfigResponse struct {
	URL      string `json:"url"`
	EntityID string `json:"entity_id"`
	TokenSet bool   `json:"token_set"`
}

type haConfigRequest struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	EntityID string `json:"entity_id"`
}

func (s *Server) loadHAConfig() (ha.Config, error) {
	settings, err := s.db.AllSettings()
	if err != nil {
		return ha.Config{}, err
	}
	return ha.ConfigFromSettings(settings), nil
}

// handleHAConfig reads or updates the Home Assistant connection settings.
// The token is write-only: reads only report whether one is set.
func (s *Server) handleHAConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.loadHAConfig()
		if err != nil {
			httputil.InternalServerError(w, "failed to load settings")
			return
		}
		httputil.WriteJSONOK(w, haConfigResponse{
			URL:      cfg.BaseURL,
			EntityID: cfg.EntityID,
			TokenSet: cfg.Token != "",
		})
	case http.MethodPost:
		var req haConfigRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid request body")
			return
		}
		if req.URL == "" {
			httputil.BadRequest(w, "'url' is required")
			return
		}
		if err := s.db.SetSetting(ha.SettingURL, req.URL); err != nil {
			httputil.InternalServerError(w, "failed to save settings")
			return
		}
		// An empty token leaves any existing token in place.
		if req.Token != "" {
			if err := s.db.SetSetting(ha.SettingToken, req.Token); err != nil {
				httputil.InternalServerError(w, "failed to save settings")
				return
			}
		}
		if req.EntityID != "" {
			if err := s.db.SetSetting(ha.SettingEntity, req.EntityID); err != nil {
				httputil.InternalServerError(w, "failed to save settings")
				return
			}
		}

		cfg, err := s.loadHAConfig()
		if err != nil {
			httputil.InternalServerError(w, "failed to load settings")
			return
		}
		httputil.WriteJSONOK(w, haConfigResponse{
			URL:      cfg.BaseURL,
			EntityID: cfg.EntityID,
			TokenSet: cfg.Token != "",
		})
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleHAPush pushes the latest reading to Home Assistant immediately,
// outside the reporter's change/heartbeat schedule.
func (s *Server) handleHAPush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	reading, ok := s.engine.Latest()
	if !ok {
		httputil.WriteJSONError(w, http.StatusConflict, "no reading available yet")
		return
	}

	cfg, err := s.loadHAConfig()
	if err != nil {
		httputil.InternalServerError(w, "failed to load settings")
		return
	}
	if !cfg.Configured() {
		httputil.BadRequest(w, "home assistant is not configured")
		return
	}

	client := ha.NewClient(cfg, s.http)
	if err := client.PushState(r.Context(), reading); err != nil {
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "pushed", "entity_id": cfg.EntityID})
}
