package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/presence.report/internal/httputil"
	"github.com/banshee-data/presence.report/internal/ld2410"
)

// handleReport renders a quick HTML report of the sensor: per-gate energy
// levels and the recent observation history. Debugging aid, no auth.
// Query params:
//   - hours (optional; default 24) history window for the timeline
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		if parsed, err := strconv.Atoi(h); err == nil && parsed >= 1 && parsed <= 24*30 {
			hours = parsed
		}
	}

	page := components.NewPage()
	page.PageTitle = "Presence Report"
	page.AddCharts(s.gateEnergyChart(), s.historyChart(hours))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render report: %v", err))
	}
}

func (s *Server) gateEnergyChart() *charts.Bar {
	bar := charts.NewBar()

	subtitle := "no engineering data captured yet"
	var motion, static []opts.BarData
	labels := make([]string, 0, ld2410.MaxGates)
	for i := 0; i < ld2410.MaxGates; i++ {
		labels = append(labels, fmt.Sprintf("%d (%dcm)", i, i*ld2410.GateDistanceCM))
	}

	if eng, capturedAt, ok := s.engine.LatestEngineering(); ok {
		subtitle = "captured " + capturedAt.UTC().Format(time.RFC3339)
		for i := 0; i < ld2410.MaxGates; i++ {
			motion = append(motion, opts.BarData{Value: eng.MotionGateEnergy[i]})
			static = append(static, opts.BarData{Value: eng.StaticGateEnergy[i]})
		}
	}

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Gate Energy", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("motion", motion).
		AddSeries("static", static)
	return bar
}

func (s *Server) historyChart(hours int) *charts.Line {
	line := charts.NewLine()

	now := s.clock.Now()
	subtitle := fmt.Sprintf("last %dh", hours)
	var times []string
	var distance, motionEnergy []opts.LineData

	obs, err := s.db.ObservationsSince(now.Add(-time.Duration(hours) * time.Hour))
	if err != nil {
		subtitle = "failed to load observations"
	}
	for _, o := range obs {
		times = append(times, o.CapturedAt.Format("15:04:05"))
		distance = append(distance, opts.LineData{Value: o.DetectionDistanceCM})
		motionEnergy = append(motionEnergy, opts.LineData{Value: o.MotionEnergy})
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Observation History", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(times).
		AddSeries("detection distance (cm)", distance).
		AddSeries("motion energy", motionEnergy)
	return line
}
