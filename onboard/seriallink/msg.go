package seriallink

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CodedInternet/motorlink/onboard/hardware"
)

const FIELD_COUNT = 6

// Encode renders a command as "<s1> <d1> <s2> <d2> <s3> <d3>\n".
func Encode(cmd hardware.MotorCommand) []byte {
	return []byte(fmt.Sprintf("%d %d %d %d %d %d\n",
		cmd.Speed1, cmd.Dir1, cmd.Speed2, cmd.Dir2, cmd.Speed3, cmd.Dir3))
}

// ParseCommand is the inverse of Encode, used by the simulated board.
func ParseCommand(line string) (cmd hardware.MotorCommand, err error) {
	fields := strings.Fields(line)
	if len(fields) != FIELD_COUNT {
		return cmd, fmt.Errorf("expected %d fields, got %d", FIELD_COUNT, len(fields))
	}

	var values [FIELD_COUNT]int
	for i, f := range fields {
		values[i], err = strconv.Atoi(f)
		if err != nil {
			return cmd, fmt.Errorf("field %d: %v", i+1, err)
		}
		if i%2 == 1 && values[i] != int(hardware.CW) && values[i] != int(hardware.CCW) {
			return cmd, fmt.Errorf("field %d: direction must be 0 or 1, got %d", i+1, values[i])
		}
	}

	cmd = hardware.MotorCommand{
		Speed1: values[0], Dir1: hardware.Direction(values[1]),
		Speed2: values[2], Dir2: hardware.Direction(values[3]),
		Speed3: values[4], Dir3: hardware.Direction(values[5]),
	}
	return cmd, nil
}

// DecodeTelemetry trims a telemetry line. ok is false for lines that should
// not be forwarded.
func DecodeTelemetry(line string) (msg string, ok bool) {
	msg = strings.TrimSpace(strings.ToValidUTF8(line, "�"))
	return msg, msg != ""
}
