package source

import (
	"fmt"
	"github.com/rotblauer/potholed/eventdb/flat"
	"go.bug.st/serial"
	"io"
	"os"
	"strings"
)

// OpenInput opens a recorded or piped record stream.
// An empty path or "-" reads stdin; a .gz path is decompressed.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if strings.HasSuffix(path, ".gz") {
		r, err := flat.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		return r, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// OpenSerial opens a serial device emitting newline-delimited records, 8N1.
func OpenSerial(path string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = 115200
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return port, nil
}
