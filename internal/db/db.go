// Package db persists sensor observations, the command audit log, and
// daemon settings in SQLite.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the SQLite database at path and ensures
// the base schema exists. Schema changes beyond the base tables are managed
// by the migrations in migrate.go.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS observations (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			target_state          INTEGER NOT NULL,
			motion_distance_cm    INTEGER NOT NULL,
			motion_energy         INTEGER NOT NULL,
			static_distance_cm    INTEGER NOT NULL,
			static_energy         INTEGER NOT NULL,
			detection_distance_cm INTEGER NOT NULL,
			captured_at_ms        BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS command_log (
			command_id        TEXT PRIMARY KEY,
			opcode            INTEGER NOT NULL,
			params            TEXT,
			status            TEXT NOT NULL,
			error             TEXT,
			created_at_ms     BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS settings (
			key               TEXT PRIMARY KEY,
			value             TEXT NOT NULL,
			updated_at_ms     BIGINT NOT NULL
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// AttachAdminRoutes mounts database debugging endpoints under /debug/ on
// the given mux. These routes are only reachable over localhost/Tailscale.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://presence.db", db.DB, &tailsql.DBOptions{
		Label: "Presence DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
