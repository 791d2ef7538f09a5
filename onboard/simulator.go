package onboard

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/CodedInternet/motorlink/onboard/hardware"
	"github.com/CodedInternet/motorlink/onboard/seriallink"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	SIM_PORT     = "sim0"
	SIM_INTERVAL = time.Second / 10
	// ticks between unsolicited status lines
	SIM_REPORT_TICKS = 10
)

var ErrSimulatorClosed = errors.New("simulated port has been closed")

// SimulatedBoard stands in for the motor controller: it accepts command lines
// and reports speeds and shaft angles as telemetry.
type SimulatedBoard struct {
	lock    sync.Mutex
	command hardware.MotorCommand
	angles  mgl64.Vec3 // degrees, one component per motor
	rx      []byte     // partial command line
	tx      []byte     // telemetry not yet read

	telemetry chan string
	timeout   time.Duration
	closed    chan struct{}
	closeOnce sync.Once
}

func NewSimulatedBoard(timeout time.Duration) (board *SimulatedBoard) {
	board = &SimulatedBoard{
		telemetry: make(chan string, 64),
		timeout:   timeout,
		closed:    make(chan struct{}),
	}
	board.report("Simulated motor board ready")
	go board.update()
	return
}

// OpenSimulatedPort satisfies seriallink.Opener.
func OpenSimulatedPort(name string, baud int, timeout time.Duration) (seriallink.Port, error) {
	if name != SIM_PORT {
		return nil, fmt.Errorf("no such simulated port %s", name)
	}
	return NewSimulatedBoard(timeout), nil
}

// ListSimulatedPorts satisfies seriallink.PortLister.
func ListSimulatedPorts() ([]string, error) {
	return []string{SIM_PORT}, nil
}

func (b *SimulatedBoard) Write(p []byte) (int, error) {
	select {
	case <-b.closed:
		return 0, ErrSimulatorClosed
	default:
	}

	b.lock.Lock()
	b.rx = append(b.rx, p...)
	var lines []string
	for {
		i := bytes.IndexByte(b.rx, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(b.rx[:i]))
		b.rx = b.rx[i+1:]
	}
	b.lock.Unlock()

	for _, line := range lines {
		cmd, err := seriallink.ParseCommand(line)
		if err != nil {
			b.report(fmt.Sprintf("ERR bad command %q: %v", line, err))
			continue
		}
		b.lock.Lock()
		changed := cmd != b.command
		b.command = cmd
		b.lock.Unlock()
		if changed {
			b.report(b.status())
		}
	}

	return len(p), nil
}

// Read blocks for at most the read timeout, returning (0, nil) if no
// telemetry became available.
func (b *SimulatedBoard) Read(p []byte) (int, error) {
	b.lock.Lock()
	if len(b.tx) > 0 {
		n := copy(p, b.tx)
		b.tx = b.tx[n:]
		b.lock.Unlock()
		return n, nil
	}
	b.lock.Unlock()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-b.closed:
		return 0, ErrSimulatorClosed

	case line := <-b.telemetry:
		b.lock.Lock()
		defer b.lock.Unlock()
		b.tx = append(b.tx, line...)
		n := copy(p, b.tx)
		b.tx = b.tx[n:]
		return n, nil

	case <-timer.C:
		return 0, nil
	}
}

func (b *SimulatedBoard) Close() error {
	b.closeOnce.Do(func() {
		close(b.closed)
	})
	return nil
}

func (b *SimulatedBoard) Command() hardware.MotorCommand {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.command
}

func (b *SimulatedBoard) Angles() mgl64.Vec3 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.angles
}

// report queues a telemetry line, dropping it if the reader is not keeping up.
func (b *SimulatedBoard) report(line string) {
	select {
	case b.telemetry <- line + "\r\n":
	default:
	}
}

func (b *SimulatedBoard) status() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	c := b.command
	return fmt.Sprintf("RPM %d %d %d DIR %d %d %d POS %.1f %.1f %.1f",
		c.Speed1, c.Speed2, c.Speed3, c.Dir1, c.Dir2, c.Dir3,
		b.angles.X(), b.angles.Y(), b.angles.Z())
}

func signedRPM(speed int, dir hardware.Direction) float64 {
	if dir == hardware.CCW {
		return -float64(speed)
	}
	return float64(speed)
}

// step advances the shaft angles by dt at the commanded speeds.
func (b *SimulatedBoard) step(dt time.Duration) {
	b.lock.Lock()
	defer b.lock.Unlock()

	c := b.command
	rpm := mgl64.Vec3{
		signedRPM(c.Speed1, c.Dir1),
		signedRPM(c.Speed2, c.Dir2),
		signedRPM(c.Speed3, c.Dir3),
	}
	// rpm -> degrees per second
	b.angles = b.angles.Add(rpm.Mul(6 * dt.Seconds()))
	for i := range b.angles {
		b.angles[i] = math.Mod(b.angles[i], 360)
	}
}

func (b *SimulatedBoard) update() {
	ticker := time.NewTicker(SIM_INTERVAL)
	defer ticker.Stop()

	for tick := 1; ; tick++ {
		select {
		case <-b.closed:
			return
		case <-ticker.C:
			b.step(SIM_INTERVAL)
			if tick%SIM_REPORT_TICKS == 0 {
				b.report(b.status())
			}
		}
	}
}
