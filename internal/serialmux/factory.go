package serialmux

import (
	"time"

	"go.bug.st/serial"
)

// realPort wraps a go.bug.st serial.Port so it satisfies
// TimeoutSerialPorter.
type realPort struct {
	serial.Port
}

func (p realPort) SetReadTimeout(timeout time.Duration) error {
	return p.Port.SetReadTimeout(timeout)
}

// Open opens a real serial port at the given path with the provided options
// and a bounded read timeout suitable for the poll loop.
func Open(path string, opts PortOptions, readTimeout time.Duration) (TimeoutSerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}

	return realPort{port}, nil
}
