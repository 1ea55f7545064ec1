package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

// Observation is one persisted sensor reading.
type Observation struct {
	ID                  int64     `json:"id"`
	TargetState         uint8     `json:"target_state"`
	MotionDistanceCM    uint16    `json:"motion_distance_cm"`
	MotionEnergy        uint8     `json:"motion_energy"`
	StaticDistanceCM    uint16    `json:"static_distance_cm"`
	StaticEnergy        uint8     `json:"static_energy"`
	DetectionDistanceCM uint16    `json:"detection_distance_cm"`
	CapturedAt          time.Time `json:"captured_at"`
}

// RecordObservation stores one decoded reading.
func (db *DB) RecordObservation(r ld2410.SensorReading) error {
	_, err := db.Exec(
		`INSERT INTO observations (
			target_state, motion_distance_cm, motion_energy,
			static_distance_cm, static_energy, detection_distance_cm,
			captured_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uint8(r.TargetState), r.MotionDistanceCM, r.MotionEnergy,
		r.StaticDistanceCM, r.StaticEnergy, r.DetectionDistanceCM,
		r.CapturedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record observation: %w", err)
	}
	return nil
}

const observationColumns = `id, target_state, motion_distance_cm, motion_energy,
	static_distance_cm, static_energy, detection_distance_cm, captured_at_ms`

func scanObservations(rows *sql.Rows) ([]Observation, error) {
	var obs []Observation
	for rows.Next() {
		var o Observation
		var capturedMs int64
		if err := rows.Scan(
			&o.ID, &o.TargetState, &o.MotionDistanceCM, &o.MotionEnergy,
			&o.StaticDistanceCM, &o.StaticEnergy, &o.DetectionDistanceCM,
			&capturedMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.CapturedAt = time.UnixMilli(capturedMs).UTC()
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return obs, nil
}

// RecentObservations returns the newest observations, most recent first.
func (db *DB) RecentObservations(limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT `+observationColumns+` FROM observations
		 ORDER BY captured_at_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// ObservationsSince returns observations captured at or after since, oldest
// first.
func (db *DB) ObservationsSince(since time.Time) ([]Observation, error) {
	rows, err := db.Query(
		`SELECT `+observationColumns+` FROM observations
		 WHERE captured_at_ms >= ? ORDER BY captured_at_ms ASC`,
		since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

// DeleteObservationsBefore removes observations captured before cutoff and
// reports how many were deleted. Used by the retention sweep.
func (db *DB) DeleteObservationsBefore(cutoff time.Time) (int64, error) {
	res, err := db.Exec(
		`DELETE FROM observations WHERE captured_at_ms < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete observations: %w", err)
	}
	return res.RowsAffected()
}
