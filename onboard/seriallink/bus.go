package seriallink

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/CodedInternet/motorlink/onboard/errors"
	"github.com/CodedInternet/motorlink/onboard/hardware"
	"go.bug.st/serial"
)

const (
	BAUD_RATE    = 115200
	READ_TIMEOUT = time.Second

	readChunk = 256
	// longest partial line kept before it is flushed as a line of its own
	MAX_LINE = 4096
)

// Port is the byte level duplex channel. Read must return (0, nil) once the
// read timeout elapses without data. Read and Write may be called concurrently.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a named port.
type Opener func(name string, baud int, timeout time.Duration) (Port, error)

// PortLister enumerates the ports an operator may pick from.
type PortLister func() ([]string, error)

// OpenPort opens a real serial device.
func OpenPort(name string, baud int, timeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	if err = port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, err
	}

	return port, nil
}

func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Link wraps an open port with command framing and line assembly.
type Link struct {
	Name string

	port Port
	lock sync.Mutex // serialises writers
	buf  []byte     // partial inbound line, owned by the single reader
}

func NewLink(name string, port Port) *Link {
	return &Link{
		Name: name,
		port: port,
	}
}

// WriteCommand encodes and writes a single command line.
func (l *Link) WriteCommand(cmd hardware.MotorCommand) error {
	raw := Encode(cmd)

	l.lock.Lock()
	defer l.lock.Unlock()

	_, err := l.port.Write(raw)
	if err != nil {
		return errors.ConnectionError{Port: l.Name, Op: "write", Err: err}
	}
	return nil
}

// ReadLine returns the next complete inbound line without its terminator.
// ok is false when the read timed out before a full line arrived; any
// partial data is kept for the next call. Data with no terminator is
// returned in MAX_LINE pieces.
func (l *Link) ReadLine() (line string, ok bool, err error) {
	for {
		if i := bytes.IndexByte(l.buf, '\n'); i >= 0 {
			line = string(l.buf[:i])
			l.buf = l.buf[i+1:]
			return strings.TrimSuffix(line, "\r"), true, nil
		}
		if len(l.buf) >= MAX_LINE {
			line = string(l.buf[:MAX_LINE])
			l.buf = l.buf[MAX_LINE:]
			return line, true, nil
		}

		chunk := make([]byte, readChunk)
		n, err := l.port.Read(chunk)
		if n > 0 {
			l.buf = append(l.buf, chunk[:n]...)
		}
		if err != nil {
			return "", false, errors.ConnectionError{Port: l.Name, Op: "read", Err: err}
		}
		if n == 0 {
			return "", false, nil
		}
	}
}

func (l *Link) Close() error {
	return l.port.Close()
}
