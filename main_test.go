package main

import (
	"testing"
	"time"

	"github.com/banshee-data/presence.report/internal/ld2410"
)

func TestReplayFramesParse(t *testing.T) {
	frames := replayFrames()
	if len(frames) == 0 {
		t.Fatal("no replay frames")
	}

	var p ld2410.Parser
	for i, frame := range frames {
		done := false
		for _, b := range frame {
			done = p.Feed(b)
		}
		if !done {
			t.Fatalf("frame %d did not complete the parser", i)
		}
		if p.FrameKind() != ld2410.FrameData {
			t.Fatalf("frame %d parsed as a command frame", i)
		}
		if _, _, err := ld2410.DecodeReading(p.Payload(), false, time.Now()); err != nil {
			t.Fatalf("frame %d failed to decode: %v", i, err)
		}
	}
}

func TestReplayCycleCoversStates(t *testing.T) {
	seen := make(map[ld2410.TargetState]bool)

	var p ld2410.Parser
	for _, frame := range replayFrames() {
		for _, b := range frame {
			if !p.Feed(b) {
				continue
			}
			r, _, err := ld2410.DecodeReading(p.Payload(), false, time.Now())
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			seen[r.TargetState] = true
		}
	}

	for _, state := range []ld2410.TargetState{
		ld2410.TargetNone, ld2410.TargetMotion, ld2410.TargetStatic, ld2410.TargetBoth,
	} {
		if !seen[state] {
			t.Errorf("replay cycle never produced state %s", state)
		}
	}
}
