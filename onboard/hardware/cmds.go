package hardware

import (
	"fmt"
	"strings"
)

// MotorCommand is the unit actually transmitted to the board. All six fields
// are always sent; motors not driven by a command are sent as 0 CW.
type MotorCommand struct {
	Speed1 int
	Dir1   Direction
	Speed2 int
	Dir2   Direction
	Speed3 int
	Dir3   Direction
}

// Neutral stops every motor.
var Neutral = MotorCommand{}

func (c MotorCommand) String() string {
	return fmt.Sprintf("M1: %d RPM, Dir: %s | M2: %d RPM, Dir: %s | M3: %d RPM, Dir: %s",
		c.Speed1, c.Dir1, c.Speed2, c.Dir2, c.Speed3, c.Dir3)
}

// Selector identifies which continuous command a held key produces. The
// command itself is computed from a MotorState every time it is sent.
type Selector int

const (
	SEL_NONE Selector = iota
	SEL_UP
	SEL_DOWN
	SEL_LEFT
	SEL_RIGHT
	SEL_DIFF_CW
	SEL_DIFF_CCW
	SEL_M3_FORWARD
	SEL_M3_REVERSE
)

var selectorNames = map[Selector]string{
	SEL_NONE:       "none",
	SEL_UP:         "up",
	SEL_DOWN:       "down",
	SEL_LEFT:       "left",
	SEL_RIGHT:      "right",
	SEL_DIFF_CW:    "d",
	SEL_DIFF_CCW:   "a",
	SEL_M3_FORWARD: "w",
	SEL_M3_REVERSE: "s",
}

func (s Selector) String() string {
	if name, ok := selectorNames[s]; ok {
		return name
	}
	return fmt.Sprintf("selector(%d)", int(s))
}

// Command evaluates the selector against the given state.
func (s Selector) Command(m MotorState) MotorCommand {
	switch s {
	case SEL_UP:
		return MotorCommand{m.Motor1Speed, CW, m.Motor2Speed, CCW, 0, CW}
	case SEL_DOWN:
		return MotorCommand{m.Motor1Speed, CCW, m.Motor2Speed, CW, 0, CW}
	case SEL_LEFT:
		return MotorCommand{m.Motor1Speed, CW, m.Motor2Speed, CW, 0, CW}
	case SEL_RIGHT:
		return MotorCommand{m.Motor1Speed, CCW, m.Motor2Speed, CCW, 0, CW}
	case SEL_DIFF_CW:
		return MotorCommand{m.Motor1Speed, CW, m.Motor1Speed + m.SpeedDiff, CW, 0, CW}
	case SEL_DIFF_CCW:
		return MotorCommand{m.Motor1Speed, CCW, m.Motor1Speed + m.SpeedDiff, CCW, 0, CW}
	case SEL_M3_FORWARD:
		return MotorCommand{0, CW, 0, CW, m.Motor3Speed, CW}
	case SEL_M3_REVERSE:
		return MotorCommand{0, CW, 0, CW, m.Motor3Speed, CCW}
	default:
		return Neutral
	}
}

// DrivesMotor3 reports whether the selector's label belongs to the motor 3 display.
func (s Selector) DrivesMotor3() bool {
	return s == SEL_M3_FORWARD || s == SEL_M3_REVERSE
}

// Label is the speed display text shown while the selector is held.
func (s Selector) Label(m MotorState) string {
	switch s {
	case SEL_UP, SEL_DOWN:
		return fmt.Sprintf("Speed: %d RPM (Opposite)", m.Motor1Speed)
	case SEL_LEFT:
		return fmt.Sprintf("Speed: %d RPM (Same CW)", m.Motor1Speed)
	case SEL_RIGHT:
		return fmt.Sprintf("Speed: %d RPM (Same CCW)", m.Motor1Speed)
	case SEL_DIFF_CW, SEL_DIFF_CCW:
		return fmt.Sprintf("Speed: %d & %d RPM", m.Motor1Speed, m.Motor1Speed+m.SpeedDiff)
	case SEL_M3_FORWARD:
		return fmt.Sprintf("Speed: %d RPM (CW)", m.Motor3Speed)
	case SEL_M3_REVERSE:
		return fmt.Sprintf("Speed: %d RPM (CCW)", m.Motor3Speed)
	default:
		return "Speed: 0 RPM"
	}
}

// Mutation is a speed adjustment bound to a key. Mutations never start sending.
type Mutation int

const (
	MUT_NONE Mutation = iota
	MUT_PAIR_UP
	MUT_PAIR_DOWN
	MUT_M3_UP
	MUT_M3_DOWN
)

// Apply mutates m in place.
func (mu Mutation) Apply(m *MotorState) {
	switch mu {
	case MUT_PAIR_UP:
		m.IncreasePairSpeed()
	case MUT_PAIR_DOWN:
		m.DecreasePairSpeed()
	case MUT_M3_UP:
		m.IncreaseM3Speed()
	case MUT_M3_DOWN:
		m.DecreaseM3Speed()
	}
}

func (mu Mutation) DrivesMotor3() bool {
	return mu == MUT_M3_UP || mu == MUT_M3_DOWN
}

// KeyBinding maps a key to exactly one of a Selector or a Mutation.
type KeyBinding struct {
	Key      string
	Selector Selector
	Mutation Mutation
}

func (b KeyBinding) IsCommand() bool {
	return b.Selector != SEL_NONE
}

var keyBindings = map[string]KeyBinding{
	"up":    {Key: "up", Selector: SEL_UP},
	"down":  {Key: "down", Selector: SEL_DOWN},
	"left":  {Key: "left", Selector: SEL_LEFT},
	"right": {Key: "right", Selector: SEL_RIGHT},
	"d":     {Key: "d", Selector: SEL_DIFF_CW},
	"a":     {Key: "a", Selector: SEL_DIFF_CCW},
	"w":     {Key: "w", Selector: SEL_M3_FORWARD},
	"s":     {Key: "s", Selector: SEL_M3_REVERSE},
	"+":     {Key: "+", Mutation: MUT_PAIR_UP},
	"=":     {Key: "=", Mutation: MUT_PAIR_UP},
	"-":     {Key: "-", Mutation: MUT_PAIR_DOWN},
	"]":     {Key: "]", Mutation: MUT_M3_UP},
	"[":     {Key: "[", Mutation: MUT_M3_DOWN},
}

// key names as reported by Tk keysyms and browser KeyboardEvent.key
var keyAliases = map[string]string{
	"arrowup":      "up",
	"arrowdown":    "down",
	"arrowleft":    "left",
	"arrowright":   "right",
	"plus":         "+",
	"equal":        "=",
	"minus":        "-",
	"bracketright": "]",
	"bracketleft":  "[",
}

func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

// LookupKey returns the binding for a key, ok is false for unbound keys.
func LookupKey(key string) (binding KeyBinding, ok bool) {
	binding, ok = keyBindings[NormalizeKey(key)]
	return
}

// BoundKeys lists every bound key, used for shell completion.
func BoundKeys() []string {
	return []string{"up", "down", "left", "right", "d", "a", "w", "s", "+", "=", "-", "]", "["}
}
