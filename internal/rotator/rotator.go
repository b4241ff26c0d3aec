// Package rotator drives the antenna positioner over its serial link.
// Commands are plain ASCII az/el pairs; a missing or failing port degrades
// to logging the command so a pass can always run without hardware.
package rotator

import (
	"fmt"
	"io"
	"log"
	"time"

	"go.bug.st/serial"
)

// Port is the minimal serial surface the rotator needs. go.bug.st/serial
// ports satisfy it; tests use TestPort.
type Port interface {
	io.Writer
	Close() error
}

// settleDelay gives USB rotator controllers time to reset after the port
// opens before the first command arrives.
const settleDelay = 2 * time.Second

// Open opens the serial device at 8N1 and waits for the controller to
// settle.
func Open(device string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	time.Sleep(settleDelay)
	return port, nil
}

// Command formats one steering command. The rotator protocol is fixed
// width: azimuth 000.0-359.9, elevation 00.0-90.0.
func Command(az, el float64) string {
	return fmt.Sprintf("AZ%06.1f EL%05.1f\r\n", az, el)
}

// Rotator sends steering commands to an optional port. With no port, or
// when a write fails, the command goes to the log and steering continues;
// serial trouble is never fatal to a pass.
type Rotator struct {
	port Port
	log  *log.Logger
}

// New wraps port (which may be nil) with logging.
func New(port Port, logger *log.Logger) *Rotator {
	return &Rotator{port: port, log: logger}
}

// Point commands the rotator to az/el degrees.
func (r *Rotator) Point(az, el float64) {
	cmd := Command(az, el)
	if r.port == nil {
		r.log.Printf("rotator: no port, would send %q", cmd)
		return
	}
	if _, err := r.port.Write([]byte(cmd)); err != nil {
		r.log.Printf("rotator: write failed: %v (command %q)", err, cmd)
	}
}

// Close releases the port if one is open.
func (r *Rotator) Close() error {
	if r.port == nil {
		return nil
	}
	return r.port.Close()
}
