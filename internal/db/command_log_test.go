package db

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

func TestLogCommandSuccess(t *testing.T) {
	database := newTestDB(t)

	id, err := database.LogCommand(ld2410.CmdSetSensitivity, "gate=3 motion=40 static=30", nil)
	if err != nil {
		t.Fatalf("LogCommand: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("command ID %q is not a UUID: %v", id, err)
	}

	records, err := database.RecentCommands(10)
	if err != nil {
		t.Fatalf("RecentCommands: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != id {
		t.Errorf("ID = %q, want %q", rec.ID, id)
	}
	if rec.Opcode != ld2410.CmdSetSensitivity {
		t.Errorf("Opcode = 0x%04X, want 0x%04X", rec.Opcode, ld2410.CmdSetSensitivity)
	}
	if rec.Status != CommandStatusOK {
		t.Errorf("Status = %q, want %q", rec.Status, CommandStatusOK)
	}
	if rec.Error != "" {
		t.Errorf("Error = %q, want empty", rec.Error)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestLogCommandFailure(t *testing.T) {
	database := newTestDB(t)

	if _, err := database.LogCommand(ld2410.CmdRestart, "", errors.New("short write")); err != nil {
		t.Fatalf("LogCommand: %v", err)
	}

	records, err := database.RecentCommands(10)
	if err != nil {
		t.Fatalf("RecentCommands: %v", err)
	}
	if records[0].Status != CommandStatusFailed {
		t.Errorf("Status = %q, want %q", records[0].Status, CommandStatusFailed)
	}
	if records[0].Error != "short write" {
		t.Errorf("Error = %q, want short write", records[0].Error)
	}
}

func TestRecentCommandsOrderAndLimit(t *testing.T) {
	database := newTestDB(t)

	for i := 0; i < 5; i++ {
		if _, err := database.LogCommand(ld2410.CmdReadConfig, "", nil); err != nil {
			t.Fatalf("LogCommand: %v", err)
		}
	}

	records, err := database.RecentCommands(3)
	if err != nil {
		t.Fatalf("RecentCommands: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
}
