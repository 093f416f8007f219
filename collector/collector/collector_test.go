package collector

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	captures []taggedCapture
}

func (f *fakePublisher) publishTaggedCaptureJSON(taggedCaptureJSON []byte) (int, error) {
	var tc taggedCapture
	if err := json.Unmarshal(taggedCaptureJSON, &tc); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures = append(f.captures, tc)
	return 201, nil
}

type fakeCodePublisher struct {
	codes []pulsecode.Code
}

func (f *fakeCodePublisher) publishCode(collectorID string, code pulsecode.Code) error {
	f.codes = append(f.codes, code)
	return nil
}

func newTestCollector() (*collector, *fakePublisher, *fakeCodePublisher) {
	config := DefaultConfig()
	config.CollectorID = "porch"
	pub := &fakePublisher{}
	codes := &fakeCodePublisher{}
	return &collector{config: config, publisher: pub, codes: codes}, pub, codes
}

func TestCollector_Run(t *testing.T) {
	c, pub, codes := newTestCollector()
	input := strings.Join([]string{
		"RF receiver ready",
		"Pulses: 500 1500 500 9000 500 1500 500 9000",
		"",
		"Pulses: 500",
		"500,1000,500,1000,500,9000,500,1000,500,1000,500",
	}, "\n")

	require.NoError(t, c.run(strings.NewReader(input)))

	require.Len(t, pub.captures, 3)
	for _, tc := range pub.captures {
		assert.Equal(t, "porch", tc.CollectorID)
		assert.Equal(t, 1, tc.Capture.Resolution)
	}
	// every capture goes to the server, decoded or not
	require.Len(t, codes.codes, 2)
	assert.Equal(t, 2, codes.codes[0].Repeats)
	assert.Equal(t, []uint32{500, 1500}, codes.codes[0].Durations)
	assert.Equal(t, 2, codes.codes[1].Repeats)
	// records are only kept for --csv
	assert.Empty(t, c.records)
}

func TestCollector_Resolution(t *testing.T) {
	c, pub, codes := newTestCollector()
	c.config.Resolution = 10

	require.NoError(t, c.run(strings.NewReader("Pulses: 50 150 50 900 50 150 50 900\n")))

	require.Len(t, pub.captures, 1)
	assert.Equal(t, 10, pub.captures[0].Capture.Resolution)
	assert.Equal(t, []uint32{50, 150, 50, 900, 50, 150, 50, 900}, pub.captures[0].Capture.Data)
	require.Len(t, codes.codes, 1)
	assert.Equal(t, uint32(9000), codes.codes[0].Gap)
}

func TestCollector_ResolutionOverflow(t *testing.T) {
	c, pub, codes := newTestCollector()
	c.config.Resolution = 1 << 20
	c.config.CSV = "captures.csv"

	require.NoError(t, c.run(strings.NewReader("Pulses: 5000 15000 5000 90000\nPulses: 5 15 5 90 5 15 5 90\n")))

	require.Len(t, pub.captures, 1)
	assert.Equal(t, []uint32{5, 15, 5, 90, 5, 15, 5, 90}, pub.captures[0].Capture.Data)
	assert.Len(t, codes.codes, 1)
	assert.Len(t, c.records, 1)
}

func TestScaleDurations(t *testing.T) {
	scaled, err := scaleDurations([]uint32{35, 105}, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint32{350, 1050}, scaled)

	_, err = scaleDurations([]uint32{35, 1 << 30}, 8)
	assert.Error(t, err)
}

func TestCollector_WriteCSV(t *testing.T) {
	c, _, _ := newTestCollector()
	c.codes = nil
	c.config.CSV = "captures.csv"
	require.NoError(t, c.run(strings.NewReader("Pulses: 500 1500 500 9000 500 1500 500 9000\nPulses: 7\n")))

	var buf bytes.Buffer
	require.NoError(t, c.writeCSV(&buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "porch", records[1][1])
	assert.Equal(t, "2x [0 1 0] {500 1500} gap 9000", records[1][2])
	assert.Equal(t, "500 1500 500 9000 500 1500 500 9000", records[1][3])
	assert.Contains(t, records[2][2], pulsecode.ErrClassification.Error())
}

func TestLoadConfigFromFlags(t *testing.T) {
	t.Setenv("RF_COLLECTOR_ID", "")
	config, err := loadConfig([]string{"-s", "/dev/ttyUSB0", "-c", "porch", "-b", "115200", "--server", "rf.local", "-p", "9000"})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", config.Serial)
	assert.Equal(t, "porch", config.CollectorID)
	assert.Equal(t, 115200, config.Baud)
	assert.Equal(t, "rf.local", config.Server)
	assert.Equal(t, 9000, config.Port)
	assert.Equal(t, 1, config.Resolution)

	_, err = loadConfig([]string{"-s", "/dev/ttyUSB0"})
	assert.Error(t, err)
	_, err = loadConfig([]string{"-c", "porch"})
	assert.Error(t, err)
	_, err = loadConfig([]string{"--no-such-flag"})
	assert.Error(t, err)
}
