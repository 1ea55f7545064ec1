package db

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

// ObservationStats summarises the observations in a time window.
type ObservationStats struct {
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`

	Count         int     `json:"count"`
	PresentCount  int     `json:"present_count"`
	PresenceRatio float64 `json:"presence_ratio"`

	MotionEnergyMean   float64 `json:"motion_energy_mean"`
	MotionEnergyStdDev float64 `json:"motion_energy_stddev"`
	StaticEnergyMean   float64 `json:"static_energy_mean"`
	StaticEnergyStdDev float64 `json:"static_energy_stddev"`

	DetectionDistanceMeanCM   float64 `json:"detection_distance_mean_cm"`
	DetectionDistanceStdDevCM float64 `json:"detection_distance_stddev_cm"`
}

// StatsSince computes summary statistics over all observations captured at
// or after since.
func (db *DB) StatsSince(since time.Time, now time.Time) (ObservationStats, error) {
	obs, err := db.ObservationsSince(since)
	if err != nil {
		return ObservationStats{}, fmt.Errorf("failed to load observations for stats: %w", err)
	}

	s := ObservationStats{
		Since: since,
		Until: now,
		Count: len(obs),
	}
	if len(obs) == 0 {
		return s, nil
	}

	motion := make([]float64, 0, len(obs))
	static := make([]float64, 0, len(obs))
	distance := make([]float64, 0, len(obs))
	for _, o := range obs {
		if ld2410.TargetState(o.TargetState).Present() {
			s.PresentCount++
		}
		motion = append(motion, float64(o.MotionEnergy))
		static = append(static, float64(o.StaticEnergy))
		distance = append(distance, float64(o.DetectionDistanceCM))
	}
	s.PresenceRatio = float64(s.PresentCount) / float64(s.Count)

	s.MotionEnergyMean = stat.Mean(motion, nil)
	s.StaticEnergyMean = stat.Mean(static, nil)
	s.DetectionDistanceMeanCM = stat.Mean(distance, nil)

	// StdDev needs at least two samples; gonum returns NaN otherwise, which
	// does not survive JSON encoding.
	if len(obs) > 1 {
		s.MotionEnergyStdDev = stat.StdDev(motion, nil)
		s.StaticEnergyStdDev = stat.StdDev(static, nil)
		s.DetectionDistanceStdDevCM = stat.StdDev(distance, nil)
	}

	return s, nil
}
