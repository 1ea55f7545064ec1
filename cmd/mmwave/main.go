// Command mmwave is a small CLI for the presence daemon. Without flags it
// prints the current presence status; flags issue sensor configuration
// commands through the daemon's HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	addr        = flag.String("addr", "http://localhost:8080", "Daemon address")
	jsonOut     = flag.Bool("j", false, "Print raw JSON responses")
	engMode     = flag.String("e", "", "Set engineering mode: on or off")
	sensitivity = flag.String("w", "", "Write gate sensitivity as gate:motion:static (e.g. 3:40:30)")
	maxGates    = flag.String("g", "", "Set max gates as motion:static:timeout_s (e.g. 8:6:5)")
	baudIndex   = flag.Int("b", 0, "Set baud rate index 1-8 (effective after restart)")
	restart     = flag.Bool("r", false, "Restart the sensor module")
	factory     = flag.Bool("f", false, "Factory reset the sensor module")
	gates       = flag.Bool("gates", false, "Show per-gate energy levels")
)

func client() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func get(path string) ([]byte, error) {
	resp, err := client().Get(*addr + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func post(path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := client().Post(*addr+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// splitUints parses n colon-separated unsigned values, like 3:40:30.
func splitUints(s string, n int) ([]uint64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d colon-separated values, got %q", n, s)
	}
	vals := make([]uint64, n)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %v", p, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func emit(body []byte) {
	if *jsonOut {
		fmt.Println(string(body))
		return
	}
	var resp struct {
		CommandID string `json:"command_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.CommandID != "" {
		fmt.Printf("%s (command %s)\n", resp.Status, resp.CommandID)
		return
	}
	fmt.Println(string(body))
}

func showStatus() error {
	body, err := get("/api/status")
	if err != nil {
		return err
	}
	if *jsonOut {
		fmt.Println(string(body))
		return nil
	}

	var status struct {
		HasReading bool `json:"has_reading"`
		Present    bool `json:"present"`
		Reading    struct {
			TargetState         string `json:"target_state"`
			MotionDistanceCM    uint16 `json:"motion_distance_cm"`
			MotionEnergy        uint8  `json:"motion_energy"`
			StaticDistanceCM    uint16 `json:"static_distance_cm"`
			StaticEnergy        uint8  `json:"static_energy"`
			DetectionDistanceCM uint16 `json:"detection_distance_cm"`
		} `json:"reading"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return err
	}
	if !status.HasReading {
		fmt.Println("no reading yet")
		return nil
	}
	if status.Present {
		fmt.Printf("present (%s)\n", status.Reading.TargetState)
	} else {
		fmt.Println("vacant")
	}
	fmt.Printf("  motion:    %4d cm @ %3d%%\n", status.Reading.MotionDistanceCM, status.Reading.MotionEnergy)
	fmt.Printf("  static:    %4d cm @ %3d%%\n", status.Reading.StaticDistanceCM, status.Reading.StaticEnergy)
	fmt.Printf("  detection: %4d cm\n", status.Reading.DetectionDistanceCM)
	return nil
}

func showGates() error {
	body, err := get("/api/gates")
	if err != nil {
		return err
	}
	if *jsonOut {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		HasGates         bool    `json:"has_gates"`
		GateDistanceCM   int     `json:"gate_distance_cm"`
		MotionGateEnergy []uint8 `json:"motion_gate_energy"`
		StaticGateEnergy []uint8 `json:"static_gate_energy"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}
	if !resp.HasGates {
		fmt.Println("no engineering data; enable engineering mode first (-e on)")
		return nil
	}
	fmt.Println("gate  range      motion  static")
	for i := range resp.MotionGateEnergy {
		fmt.Printf("%4d  %4d cm    %5d  %6d\n",
			i, i*resp.GateDistanceCM, resp.MotionGateEnergy[i], resp.StaticGateEnergy[i])
	}
	return nil
}

func run() error {
	switch {
	case *sensitivity != "":
		vals, err := splitUints(*sensitivity, 3)
		if err != nil {
			return err
		}
		body, err := post("/api/config/sensitivity", map[string]uint64{
			"gate": vals[0], "motion_threshold": vals[1], "static_threshold": vals[2],
		})
		if err != nil {
			return err
		}
		emit(body)

	case *maxGates != "":
		vals, err := splitUints(*maxGates, 3)
		if err != nil {
			return err
		}
		body, err := post("/api/config/maxgate", map[string]uint64{
			"max_motion_gate": vals[0], "max_static_gate": vals[1], "timeout_s": vals[2],
		})
		if err != nil {
			return err
		}
		emit(body)

	case *engMode != "":
		if *engMode != "on" && *engMode != "off" {
			return fmt.Errorf("-e takes on or off, got %q", *engMode)
		}
		body, err := post("/api/config/engineering", map[string]bool{"enabled": *engMode == "on"})
		if err != nil {
			return err
		}
		emit(body)

	case *baudIndex != 0:
		body, err := post("/api/command", map[string]any{"action": "set_baud", "baud_index": *baudIndex})
		if err != nil {
			return err
		}
		emit(body)

	case *restart:
		body, err := post("/api/command", map[string]string{"action": "restart"})
		if err != nil {
			return err
		}
		emit(body)

	case *factory:
		body, err := post("/api/command", map[string]string{"action": "factory_reset"})
		if err != nil {
			return err
		}
		emit(body)

	case *gates:
		return showGates()

	default:
		return showStatus()
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mmwave:", err)
		os.Exit(1)
	}
}
