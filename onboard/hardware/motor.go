package hardware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CodedInternet/motorlink/onboard/errors"
)

const (
	SPEED_MIN = 0
	SPEED_MAX = 30

	DIFF_MIN = 1
	DIFF_MAX = 10

	DEFAULT_SPEED = 1
	DEFAULT_DIFF  = 5
)

type Direction uint8

const (
	CW  Direction = 0
	CCW Direction = 1
)

func (d Direction) String() string {
	if d == CCW {
		return "CCW"
	}
	return "CW"
}

// MotorState is the operator controlled speed model. Motor 1 and 2 are always
// adjusted together; motor 3 has its own controls.
type MotorState struct {
	Motor1Speed int `json:"motor1_speed"`
	Motor2Speed int `json:"motor2_speed"`
	Motor3Speed int `json:"motor3_speed"`
	SpeedDiff   int `json:"speed_diff"`
}

func NewMotorState() *MotorState {
	return &MotorState{
		Motor1Speed: DEFAULT_SPEED,
		Motor2Speed: DEFAULT_SPEED,
		Motor3Speed: DEFAULT_SPEED,
		SpeedDiff:   DEFAULT_DIFF,
	}
}

func clampSpeed(speed int) int {
	if speed < SPEED_MIN {
		return SPEED_MIN
	}
	if speed > SPEED_MAX {
		return SPEED_MAX
	}
	return speed
}

func (m *MotorState) IncreasePairSpeed() {
	m.Motor1Speed = clampSpeed(m.Motor1Speed + 1)
	m.Motor2Speed = m.Motor1Speed
}

func (m *MotorState) DecreasePairSpeed() {
	m.Motor1Speed = clampSpeed(m.Motor1Speed - 1)
	m.Motor2Speed = m.Motor1Speed
}

func (m *MotorState) IncreaseM3Speed() {
	m.Motor3Speed = clampSpeed(m.Motor3Speed + 1)
}

func (m *MotorState) DecreaseM3Speed() {
	m.Motor3Speed = clampSpeed(m.Motor3Speed - 1)
}

// SetSpeedDiff replaces the differential offset. Out of range values leave the
// state untouched.
func (m *MotorState) SetSpeedDiff(n int) error {
	if n < DIFF_MIN || n > DIFF_MAX {
		return errors.ValidationError{
			Field:  "speed_diff",
			Value:  strconv.Itoa(n),
			Reason: fmt.Sprintf("speed difference must be between %d and %d RPM", DIFF_MIN, DIFF_MAX),
		}
	}
	m.SpeedDiff = n
	return nil
}

// ParseSpeedDiff converts operator input into a speed difference value.
func ParseSpeedDiff(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.ValidationError{
			Field:  "speed_diff",
			Value:  raw,
			Reason: "please enter a valid integer",
		}
	}
	return n, nil
}

// SetPairSpeed is used when seeding the state from config.
func (m *MotorState) SetPairSpeed(speed int) error {
	if speed < SPEED_MIN || speed > SPEED_MAX {
		return errors.ValidationError{
			Field:  "pair_speed",
			Value:  strconv.Itoa(speed),
			Reason: fmt.Sprintf("speed must be between %d and %d RPM", SPEED_MIN, SPEED_MAX),
		}
	}
	m.Motor1Speed = speed
	m.Motor2Speed = speed
	return nil
}

func (m *MotorState) SetM3Speed(speed int) error {
	if speed < SPEED_MIN || speed > SPEED_MAX {
		return errors.ValidationError{
			Field:  "m3_speed",
			Value:  strconv.Itoa(speed),
			Reason: fmt.Sprintf("speed must be between %d and %d RPM", SPEED_MIN, SPEED_MAX),
		}
	}
	m.Motor3Speed = speed
	return nil
}
