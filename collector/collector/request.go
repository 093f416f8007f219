package collector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// taggedCapture is the capture as published to the server.
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

var errNoPulses = errors.New("line holds no pulses")

// parseCaptureLine reads one receiver line such as
//
//	Pulses: 350 10850 350 1050 1050 350
//
// The label is optional and durations may be separated by spaces, tabs
// or commas.
func parseCaptureLine(line string) ([]uint32, error) {
	line = strings.TrimSpace(line)
	if pos := strings.Index(line, ":"); pos >= 0 {
		line = line[pos+1:]
	}
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) == 0 {
		return nil, errNoPulses
	}
	durations := make([]uint32, 0, len(fields))
	for _, f := range fields {
		d, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", f, err)
		}
		durations = append(durations, uint32(d))
	}
	return durations, nil
}
