package server

import (
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
)

//
type simpleCodeSummary struct {
	Key      string `json:"key"`
	Protocol string `json:"protocol"`
	Bits     string `json:"bits,omitempty"`
	Count    int    `json:"count"`
}
type simpleCodeSummaryList []simpleCodeSummary
type simpleCollectorCodeMap map[string]simpleCodeSummaryList

type newCodeEvent struct {
	ID          string         `json:"id"`
	CollectorID string         `json:"collectorId"`
	ProtocolID  string         `json:"protocolID"`
	Key         string         `json:"key"`
	Bits        string         `json:"bits,omitempty"`
	New         bool           `json:"new"`
	Code        pulsecode.Code `json:"code"`
	Received    time.Time      `json:"received"`
}

// encodeResponse is a synthesized pulse train, both as plain durations and
// as mark/space pairs.
type encodeResponse struct {
	Durations []uint32              `json:"durations"`
	Pairs     []pulsecode.MarkSpace `json:"pairs"`
}
