package comms

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/CodedInternet/motorlink/logger"
	"github.com/CodedInternet/motorlink/onboard"
	"github.com/CodedInternet/motorlink/onboard/broadcast"
	deviceerrors "github.com/CodedInternet/motorlink/onboard/errors"
	"github.com/CodedInternet/motorlink/onboard/hardware"
	"github.com/gorilla/websocket"
)

const (
	CLIENT_BUFFER = 256
	WRITE_TIMEOUT = time.Second

	STREAM_PORTS = "ports"
)

// Cmd is a single operator action received from a remote console.
type Cmd struct {
	Cmd   string  `json:"cmd"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`
}

type Conductor struct {
	Device onboard.Controller
	Hub    *broadcast.Hub

	lock   sync.Mutex
	holder *console // console whose press started the running hold, nil if none
}

// console identifies one attached websocket.
type console struct {
	addr string
}

type ConductorInterface interface {
	ProcessCommand(cmd Cmd) error
}

func NewConductor(device onboard.Controller, hub *broadcast.Hub) *Conductor {
	return &Conductor{
		Device: device,
		Hub:    hub,
	}
}

func (c *Conductor) ProcessCommand(cmd Cmd) error {
	return c.process(nil, cmd)
}

func (c *Conductor) process(from *console, cmd Cmd) (err error) {
	switch cmd.Cmd {
	case "keydown":
		c.keyDown(from, cmd.Name)

	case "keyup":
		c.keyUp(cmd.Name)

	case "set_diff":
		raw := cmd.Name
		if raw == "" {
			raw = strconv.FormatFloat(cmd.Value, 'f', -1, 64)
		}
		err = c.Device.SetSpeedDiff(raw)

	case "connect":
		err = c.Device.Connect(cmd.Name)

	case "disconnect":
		err = c.Device.Disconnect()

	case "ports":
		var ports []string
		ports, err = c.Device.Ports()
		if err == nil {
			c.Hub.Publish(broadcast.Message{Stream: STREAM_PORTS, Data: ports})
		}

	case "state":

	default:
		return fmt.Errorf("unable to process command %q", cmd.Cmd)
	}

	c.PublishState()
	return err
}

// keyDown records from as the holder only when the press starts a hold;
// speed keys and ignored presses leave the holder alone.
func (c *Conductor) keyDown(from *console, key string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	binding, bound := hardware.LookupKey(key)
	if c.Device.KeyPress(key) && bound && binding.IsCommand() {
		c.holder = from
	}
}

// keyUp mirrors the device: releasing a speed key does not end a hold.
func (c *Conductor) keyUp(key string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	binding, bound := hardware.LookupKey(key)
	c.Device.KeyRelease(key)
	if !bound || binding.IsCommand() {
		c.holder = nil
	}
}

// releaseFrom ends the running hold if from started it.
func (c *Conductor) releaseFrom(from *console) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if from != nil && c.holder == from {
		c.Device.KeyRelease("")
		c.holder = nil
	}
}

func (c *Conductor) PublishState() {
	c.Hub.Publish(broadcast.Message{
		Stream: broadcast.STREAM_STATE,
		Data:   NewStatePayload(c.Device.State()),
	})
}

// Serve runs a remote console over conn until it closes. A hold started by
// this console and still running when it goes away is released.
func (c *Conductor) Serve(conn *websocket.Conn) {
	id, messages := c.Hub.Subscribe(CLIENT_BUFFER)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("console %s write: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}()

	self := &console{addr: conn.RemoteAddr().String()}
	logger.Info("console %s attached", self.addr)
	c.PublishState()

	for {
		var cmd Cmd
		if err := conn.ReadJSON(&cmd); err != nil {
			logger.Debug("console %s read: %v", conn.RemoteAddr(), err)
			break
		}

		if err := c.process(self, cmd); err != nil && !reportedByDevice(err) {
			c.Hub.Sent(err.Error())
		}
	}

	c.releaseFrom(self)

	c.Hub.Unsubscribe(id)
	<-done
	logger.Info("console %s detached", conn.RemoteAddr())
}

// the device already surfaces validation and transport failures to the sink
func reportedByDevice(err error) bool {
	var validation deviceerrors.ValidationError
	var connection deviceerrors.ConnectionError
	return errors.As(err, &validation) || errors.As(err, &connection)
}
