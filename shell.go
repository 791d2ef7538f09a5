package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	. "github.com/CodedInternet/motorlink/onboard"
	"github.com/CodedInternet/motorlink/onboard/broadcast"
	"github.com/CodedInternet/motorlink/onboard/hardware"
	"github.com/abiosoft/ishell/v2"
)

const SHELL_BUFFER = 64

var errUsage = errors.New("incorrect number of arguments")

// operatorShell is the local console. It drives the same Controller as the
// remote consoles and prints every stream the hub carries.
type operatorShell struct {
	shell  *ishell.Shell
	device Controller
	hub    *broadcast.Hub
}

func newShell(device Controller, hub *broadcast.Hub) *operatorShell {
	s := &operatorShell{
		shell:  ishell.New(),
		device: device,
		hub:    hub,
	}
	s.shell.Println("Motor controller shell")
	s.shell.ShowPrompt(true)
	s.addCommands()
	return s
}

// Run blocks until the shell exits.
func (s *operatorShell) Run() {
	id, messages := s.hub.Subscribe(SHELL_BUFFER)
	defer s.hub.Unsubscribe(id)

	go func() {
		for msg := range messages {
			if line := formatMessage(msg); line != "" {
				s.shell.Println(line)
			}
		}
	}()

	s.shell.Run()
}

func formatMessage(msg broadcast.Message) string {
	switch msg.Stream {
	case broadcast.STREAM_SENT:
		return "> " + msg.Text
	case broadcast.STREAM_TELEMETRY:
		return "< " + msg.Text
	case broadcast.STREAM_VALIDATION:
		return "! " + msg.Text
	default:
		return ""
	}
}

func (s *operatorShell) keyNames(args []string) []string {
	return hardware.BoundKeys()
}

func (s *operatorShell) portNames(args []string) []string {
	ports, err := s.device.Ports()
	if err != nil {
		return nil
	}
	return ports
}

func (s *operatorShell) addCommands() {
	s.shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list available serial ports",
		Func: func(c *ishell.Context) {
			ports, err := s.device.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			c.Println(strings.Join(ports, "\n"))
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name:      "connect",
		Help:      "connect <port>",
		Completer: s.portNames,
		Func: func(c *ishell.Context) {
			var port string
			if len(c.Args) >= 1 {
				port = c.Args[0]
			}
			if err := s.device.Connect(port); err != nil {
				c.Err(err)
			}
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name: "disconnect",
		Help: "close the serial port",
		Func: func(c *ishell.Context) {
			if err := s.device.Disconnect(); err != nil {
				c.Err(err)
			}
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name:      "press",
		Help:      "press <key>",
		Completer: s.keyNames,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errUsage)
				return
			}
			if !s.device.KeyPress(c.Args[0]) {
				c.Printf("Key %s ignored\n", c.Args[0])
			}
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name:      "release",
		Help:      "release <key>",
		Completer: s.keyNames,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errUsage)
				return
			}
			s.device.KeyRelease(c.Args[0])
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name:      "hold",
		Help:      "hold <key> <duration>",
		Completer: s.keyNames,
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(errUsage)
				return
			}
			duration, err := time.ParseDuration(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}

			key := c.Args[0]
			if !s.device.KeyPress(key) {
				c.Printf("Key %s ignored\n", key)
				return
			}
			time.Sleep(duration)
			s.device.KeyRelease(key)
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name: "diff",
		Help: "diff <rpm>",
		Func: func(c *ishell.Context) {
			var raw string
			if len(c.Args) >= 1 {
				raw = c.Args[0]
			} else {
				c.ShowPrompt(false)
				c.Print("Speed difference: ")
				raw = c.ReadLine()
				c.ShowPrompt(true)
			}
			// rejected values are already shown on the validation stream
			s.device.SetSpeedDiff(raw)
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "show motor speeds and connection",
		Func: func(c *ishell.Context) {
			c.Println(formatState(s.device.State()))
		},
	})

	s.shell.AddCmd(&ishell.Cmd{
		Name: "createoperator",
		Help: "createoperator <name> <password>",
		Func: func(c *ishell.Context) {
			// disable the '>>>' for cleaner same line input.
			c.ShowPrompt(false)
			defer c.ShowPrompt(true) // yes, revert when done.

			var name string
			if len(c.Args) >= 1 {
				name = c.Args[0]
			} else {
				c.Print("Name: ")
				name = c.ReadLine()
			}

			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			if err := CreateOperator(ENV.DB, name, password); err != nil {
				c.Err(err)
				return
			}
			c.Println("Operator created")
		},
	})
}

func formatState(state DeviceState) string {
	connection := "Disconnected"
	if state.Connected {
		connection = "Connected to " + state.Port
	}
	active := state.Active
	if active == "" {
		active = "idle"
	}
	return fmt.Sprintf("%s\nActive: %s\nMotor 1 & 2: %s\nMotor 3: %s\nSpeed difference: %d RPM",
		connection, active, state.PairLabel, state.M3Label, state.Motors.SpeedDiff)
}
