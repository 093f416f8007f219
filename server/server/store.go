package server

import (
	"sort"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/google/uuid"
)

// codeEntry is one learned button of a collector with the raw captures
// that decoded to it.
type codeEntry struct {
	Key      string         `json:"key"`
	Protocol protocolID     `json:"protocol"`
	Bits     string         `json:"bits,omitempty"`
	Code     pulsecode.Code `json:"code"`
	Count    int            `json:"count"`
	Captures [][]uint32     `json:"captures"`
}

// codeStore holds the entries of one collector. Fixed-code captures match
// by their bits, everything else by code equality.
type codeStore struct {
	entries     []*codeEntry
	opts        pulsecode.Options
	maxCaptures int
}

func newCodeStore(opts pulsecode.Options, maxCaptures int) *codeStore {
	return &codeStore{opts: opts, maxCaptures: maxCaptures}
}

func (s *codeStore) find(d decodedCapture) *codeEntry {
	for _, e := range s.entries {
		if e.Protocol != d.protocol {
			continue
		}
		if d.protocol == protocolPWM {
			if e.Bits == d.bits {
				return e
			}
			continue
		}
		if e.Code.Equal(d.code, s.opts) {
			return e
		}
	}
	return nil
}

// add files the capture under a matching entry or a new one and reports
// whether the entry was created.
func (s *codeStore) add(d decodedCapture) (*codeEntry, bool) {
	entry := s.find(d)
	created := entry == nil
	if created {
		key := d.bits
		if d.protocol != protocolPWM {
			key = uuid.NewString()
		}
		entry = &codeEntry{Key: key, Protocol: d.protocol, Bits: d.bits, Code: d.code}
		s.entries = append(s.entries, entry)
	}
	entry.Count++
	durationsCopy := make([]uint32, len(d.durations))
	copy(durationsCopy, d.durations)
	entry.Captures = append(entry.Captures, durationsCopy)
	if s.maxCaptures > 0 && len(entry.Captures) > s.maxCaptures {
		entry.Captures = entry.Captures[len(entry.Captures)-s.maxCaptures:]
	}
	return entry, created
}

func (s *codeStore) get(key string) (*codeEntry, bool) {
	for _, e := range s.entries {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

func (s *codeStore) protocols() []protocolID {
	seen := make(map[protocolID]bool)
	var list []protocolID
	for _, e := range s.entries {
		if !seen[e.Protocol] {
			seen[e.Protocol] = true
			list = append(list, e.Protocol)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

func (s *codeStore) keys(pid protocolID) []string {
	var keys []string
	for _, e := range s.entries {
		if e.Protocol == pid {
			keys = append(keys, e.Key)
		}
	}
	return keys
}
