package onboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CodedInternet/motorlink/logger"
	"github.com/CodedInternet/motorlink/onboard/errors"
	"github.com/CodedInternet/motorlink/onboard/hardware"
	"github.com/CodedInternet/motorlink/onboard/seriallink"
)

// Sink receives the operator facing streams.
type Sink interface {
	Sent(msg string)
	Telemetry(msg string)
	ValidationError(msg string)
}

// Controller is the operator surface of a Device.
type Controller interface {
	KeyPress(key string) bool
	KeyRelease(key string)
	SetSpeedDiff(raw string) error
	Connect(port string) error
	Disconnect() error
	Ports() ([]string, error)
	State() DeviceState
}

type DeviceState struct {
	Motors    hardware.MotorState `json:"motors"`
	Active    string              `json:"active,omitempty"`
	Connected bool                `json:"connected"`
	Port      string              `json:"port,omitempty"`
	PairLabel string              `json:"pair_label"`
	M3Label   string              `json:"m3_label"`
}

// Device owns the motor state and the Idle/Active key state machine. All
// operator events are serialised through lock; the sender and the telemetry
// reader run on their own goroutines.
type Device struct {
	Opener seriallink.Opener
	Lister seriallink.PortLister

	lock      sync.Mutex
	motors    *hardware.MotorState
	active    hardware.Selector
	pairLabel string
	m3Label   string

	baud    int
	timeout time.Duration
	sender  *ContinuousSender
	sink    Sink

	linkLock   sync.RWMutex
	link       *seriallink.Link
	stopReader context.CancelFunc
}

func NewDevice(config *MotorConfig, sink Sink) (d *Device, err error) {
	motors, err := config.MotorState()
	if err != nil {
		return nil, err
	}

	d = &Device{
		Opener:  seriallink.OpenPort,
		Lister:  seriallink.ListPorts,
		motors:  motors,
		baud:    config.Serial.Baud,
		timeout: config.Serial.Timeout,
		sink:    sink,
	}
	d.pairLabel = fmt.Sprintf("Speed: %d RPM", motors.Motor1Speed)
	d.m3Label = fmt.Sprintf("Speed: %d RPM", motors.Motor3Speed)
	d.sender = NewContinuousSender(config.Sender.Period, d.transmit)

	return d, nil
}

// KeyPress handles a key going down. Mutation keys always apply; a command
// key starts a hold only from Idle. Returns true if the press changed state.
func (d *Device) KeyPress(key string) bool {
	binding, ok := hardware.LookupKey(key)
	if !ok {
		return false
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if !binding.IsCommand() {
		binding.Mutation.Apply(d.motors)
		if binding.Mutation.DrivesMotor3() {
			d.m3Label = fmt.Sprintf("Speed: %d RPM", d.motors.Motor3Speed)
		} else {
			d.pairLabel = fmt.Sprintf("Speed: %d RPM", d.motors.Motor1Speed)
		}
		return true
	}

	if d.active != hardware.SEL_NONE {
		// key repeat or a second key while one is held
		return false
	}

	d.active = binding.Selector
	if binding.Selector.DrivesMotor3() {
		d.m3Label = binding.Selector.Label(*d.motors)
	} else {
		d.pairLabel = binding.Selector.Label(*d.motors)
	}

	logger.Debug("hold %s started", binding.Selector)
	d.sender.Start(binding.Selector, *d.motors)
	return true
}

// KeyRelease returns the device to Idle and emits one neutral command. The
// release of a mutation key does not end a hold.
func (d *Device) KeyRelease(key string) {
	binding, bound := hardware.LookupKey(key)

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.active != hardware.SEL_NONE && bound && !binding.IsCommand() {
		return
	}
	d.releaseHold()
}

// releaseHold must be called with lock held.
func (d *Device) releaseHold() {
	if d.active != hardware.SEL_NONE {
		logger.Debug("hold %s released", d.active)
		d.active = hardware.SEL_NONE
		d.sender.Stop()
	} else {
		d.transmit(hardware.Neutral)
	}

	d.pairLabel = "Speed: 0 RPM"
	d.m3Label = "Speed: 0 RPM"
}

func (d *Device) SetSpeedDiff(raw string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	n, err := hardware.ParseSpeedDiff(raw)
	if err == nil {
		err = d.motors.SetSpeedDiff(n)
	}
	if err != nil {
		d.sink.ValidationError(err.Error())
		return err
	}

	d.sink.Sent(fmt.Sprintf("Motor speed difference set to %d RPM", n))
	return nil
}

func (d *Device) Connect(name string) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if name == "" {
		return errors.ErrNoPort
	}
	if d.currentLink() != nil {
		return errors.ErrAlreadyConnected
	}

	port, err := d.Opener(name, d.baud, d.timeout)
	if err != nil {
		connErr := errors.ConnectionError{Port: name, Op: "open", Err: err}
		logger.Error("%v", connErr)
		d.sink.Sent(connErr.Error())
		return connErr
	}

	link := seriallink.NewLink(name, port)
	ctx, cancel := context.WithCancel(context.Background())

	d.linkLock.Lock()
	d.link = link
	d.stopReader = cancel
	d.linkLock.Unlock()

	reader := NewTelemetryReader(link, d.sink.Telemetry, func(err error) {
		d.connectionLost(link, err)
	})
	go reader.Run(ctx)

	logger.Info("connected to %s at %d baud", name, d.baud)
	d.sink.Sent("Connected to " + name)
	return nil
}

// Disconnect ends any hold while the port is still open, then closes it.
// It does not wait for the telemetry reader to exit.
func (d *Device) Disconnect() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	link := d.currentLink()
	if link == nil {
		return errors.ErrNotConnected
	}

	d.releaseHold()
	d.detach(link)

	logger.Info("disconnected from %s", link.Name)
	d.sink.Sent("Disconnected from serial port")
	return nil
}

func (d *Device) connectionLost(link *seriallink.Link, err error) {
	d.sink.Sent(fmt.Sprintf("Serial read error: %v", err))

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.currentLink() != link {
		return
	}

	logger.Warn("connection to %s lost: %v", link.Name, err)
	if d.active != hardware.SEL_NONE {
		d.releaseHold()
	}
	d.detach(link)
}

// detach makes all further sends no-ops and closes the port.
func (d *Device) detach(link *seriallink.Link) {
	d.linkLock.Lock()
	d.link = nil
	stop := d.stopReader
	d.stopReader = nil
	d.linkLock.Unlock()

	if stop != nil {
		stop()
	}
	if err := link.Close(); err != nil {
		logger.Warn("closing %s: %v", link.Name, err)
	}
}

func (d *Device) currentLink() *seriallink.Link {
	d.linkLock.RLock()
	defer d.linkLock.RUnlock()
	return d.link
}

// transmit writes cmd if a link is attached, otherwise it is a no-op. The
// read lock is held across the write so a detach cannot race it.
func (d *Device) transmit(cmd hardware.MotorCommand) {
	d.linkLock.RLock()
	defer d.linkLock.RUnlock()

	if d.link == nil {
		return
	}

	if err := d.link.WriteCommand(cmd); err != nil {
		logger.Warn("%v", err)
		d.sink.Sent(fmt.Sprintf("Send error: %v", err))
		return
	}
	d.sink.Sent(cmd.String())
}

func (d *Device) Ports() ([]string, error) {
	return d.Lister()
}

func (d *Device) State() DeviceState {
	d.lock.Lock()
	defer d.lock.Unlock()

	state := DeviceState{
		Motors:    *d.motors,
		PairLabel: d.pairLabel,
		M3Label:   d.m3Label,
	}
	if d.active != hardware.SEL_NONE {
		state.Active = d.active.String()
	}
	if link := d.currentLink(); link != nil {
		state.Connected = true
		state.Port = link.Name
	}
	return state
}

// Close disconnects if connected.
func (d *Device) Close() {
	if err := d.Disconnect(); err != nil && err != errors.ErrNotConnected {
		logger.Warn("closing device: %v", err)
	}
}
