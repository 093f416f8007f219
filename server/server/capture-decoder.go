package server

import (
	"github.com/derktes/rf-signal-collector/pulsecode"
)

type protocolID int

const (
	protocolPWM protocolID = iota
	protocolRaw
	protocolUnknown
)

func (pid protocolID) String() string {
	switch pid {
	case protocolPWM:
		return "PWM"
	case protocolRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

func (pid *protocolID) parse(protocolIDString string) {
	switch protocolIDString {
	case "PWM":
		*pid = protocolPWM
	case "Raw":
		*pid = protocolRaw
	default:
		*pid = protocolUnknown
	}
}

// MarshalText lets protocol IDs appear by name in JSON.
func (pid protocolID) MarshalText() ([]byte, error) {
	return []byte(pid.String()), nil
}

// decodedCapture is a capture reduced to its code.
type decodedCapture struct {
	protocol  protocolID
	code      pulsecode.Code
	bits      string
	durations []uint32
}

// decodeCapture decodes the capture and tells fixed-code remotes, whose
// pattern reads as bits, from anything else.
func decodeCapture(pTaggedCapture *taggedCapture, opts pulsecode.Options) (decodedCapture, error) {
	durations := pTaggedCapture.getDurations()
	code, err := pulsecode.DecodeTrain(pulsecode.NewTrain(durations), opts)
	if err != nil {
		return decodedCapture{}, err
	}
	d := decodedCapture{protocol: protocolRaw, code: code, durations: durations}
	if bits, err := code.Bits(); err == nil && bits.Length > 0 {
		d.protocol = protocolPWM
		d.bits = bits.String()
	}
	return d, nil
}
