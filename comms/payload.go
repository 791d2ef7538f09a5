package comms

import (
	"github.com/CodedInternet/motorlink/onboard"
	"github.com/CodedInternet/motorlink/onboard/hardware"
)

type StatePayload struct {
	onboard.DeviceState
	Keys []string `json:"keys"`
}

func NewStatePayload(state onboard.DeviceState) StatePayload {
	return StatePayload{
		DeviceState: state,
		Keys:        hardware.BoundKeys(),
	}
}
