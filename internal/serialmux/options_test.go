package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 256000 {
		t.Errorf("BaudRate = %d, want 256000", opts.BaudRate)
	}
	if opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v, want 8N1", opts)
	}
}

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"bad data bits", PortOptions{DataBits: 9}},
		{"bad stop bits", PortOptions{StopBits: 3}},
		{"bad parity", PortOptions{Parity: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v) accepted, want error", tt.opts)
			}
		})
	}
}

func TestNormalizeParityAliases(t *testing.T) {
	for _, alias := range []string{"none", "NONE", "n", " N "} {
		opts, err := PortOptions{Parity: alias}.Normalize()
		if err != nil {
			t.Fatalf("Normalize(parity=%q): %v", alias, err)
		}
		if opts.Parity != "N" {
			t.Errorf("parity %q normalized to %q, want N", alias, opts.Parity)
		}
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, Parity: "even"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want EvenParity", mode.Parity)
	}
	if mode.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", mode.DataBits)
	}
}
