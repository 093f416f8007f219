package server

import (
	"errors"
	"fmt"
	"math"

	"github.com/derktes/rf-signal-collector/pulsecode"
)

// taggedCapture is a raw capture as published by a collector.
type taggedCapture struct {
	CollectorID string      `json:"collectorId"`
	Capture     captureData `json:"capture"`
}

// captureData holds pulse durations in units of Resolution microseconds,
// starting with a high pulse.
type captureData struct {
	Resolution int      `json:"resolution"`
	Data       []uint32 `json:"data"`
}

func (c *taggedCapture) validate() error {
	if c.CollectorID == "" {
		return errors.New("Capture has no collector ID")
	}
	if len(c.Capture.Data) < 1 {
		return errors.New("Capture has no pulses")
	}
	if c.Capture.Resolution < 0 {
		return fmt.Errorf("Capture has negative resolution %d", c.Capture.Resolution)
	}
	res := c.resolution()
	for _, d := range c.Capture.Data {
		if uint64(d)*res > math.MaxUint32 {
			return fmt.Errorf("Capture pulse %d overflows at resolution %d", d, res)
		}
	}
	return nil
}

// resolution is the capture's resolution, with zero read as one.
func (c *taggedCapture) resolution() uint64 {
	if c.Capture.Resolution == 0 {
		return 1
	}
	return uint64(c.Capture.Resolution)
}

// getDurations scales the capture to microseconds. It expects a capture
// that passed validate.
func (c *taggedCapture) getDurations() []uint32 {
	res := c.resolution()
	durations := make([]uint32, len(c.Capture.Data))
	for i, d := range c.Capture.Data {
		durations[i] = uint32(uint64(d) * res)
	}
	return durations
}

func (c *taggedCapture) getTrain() pulsecode.Train {
	return pulsecode.NewTrain(c.getDurations())
}

func (c *taggedCapture) getRawPulses() []pulsecode.MarkSpace {
	return c.getTrain().Pairs()
}
