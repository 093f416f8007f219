package server

import (
	"errors"
	"fmt"

	"github.com/derktes/rf-signal-collector/pulsecode"
)

// defaultUnit is the short pulse width used when bits are encoded without
// one; most PT2262 style remotes sit around 350 µs.
const defaultUnit = 350

// maxEncodeRepeats bounds how many copies of a code one request may ask for.
const maxEncodeRepeats = 100

// encodeRequest asks for a transmittable pulse train, either for a code as
// returned by the decoder or for a fixed-code bit value.
type encodeRequest struct {
	Code    *pulsecode.Code `json:"code,omitempty"`
	Bits    string          `json:"bits,omitempty"`
	Unit    uint32          `json:"unit,omitempty"`
	Gap     uint32          `json:"gap,omitempty"`
	Repeats int             `json:"repeats"`
}

func (r *encodeRequest) validate() error {
	if r.Repeats > maxEncodeRepeats {
		return fmt.Errorf("%w: %d exceeds %d", pulsecode.ErrInvalidRepeatCount, r.Repeats, maxEncodeRepeats)
	}
	return nil
}

func (r *encodeRequest) getCode() (pulsecode.Code, error) {
	switch {
	case r.Code != nil && r.Bits != "":
		return pulsecode.Code{}, errors.New("Request must carry either a code or bits, not both")
	case r.Code != nil:
		return *r.Code, nil
	case r.Bits != "":
		bits, err := pulsecode.ParseBits(r.Bits)
		if err != nil {
			return pulsecode.Code{}, fmt.Errorf("%w: %v", pulsecode.ErrInvalidCode, err)
		}
		unit := r.Unit
		if unit == 0 {
			unit = defaultUnit
		}
		return bits.Code(unit, r.Gap)
	default:
		return pulsecode.Code{}, errors.New("Request carries neither a code nor bits")
	}
}
