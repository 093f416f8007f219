package collector

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCodeMessage(t *testing.T) {
	code, err := pulsecode.Bits{Value: 0xa5, Length: 8}.Code(350, 0)
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	topic, data, err := buildCodeMessage("rf", "porch", code, now)
	require.NoError(t, err)
	assert.Equal(t, "rf/porch/code", topic)

	var msg codeMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "porch", msg.CollectorID)
	assert.Equal(t, "a5", msg.Bits)
	assert.Equal(t, 8, msg.BitLength)
	assert.Equal(t, code.String(), msg.Summary)
	assert.Equal(t, uint32(350*31), msg.Code.Gap)
	assert.True(t, now.Equal(msg.Timestamp))
}

func TestBuildCodeMessage_RawCode(t *testing.T) {
	code, err := pulsecode.NewCode([]pulsecode.Symbol{0, 1, 0}, []uint32{500, 1000}, 2)
	require.NoError(t, err)

	_, data, err := buildCodeMessage("rf", "porch", code, time.Now())
	require.NoError(t, err)
	var msg codeMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Empty(t, msg.Bits)
	assert.Zero(t, msg.BitLength)
	assert.Equal(t, 2, msg.Code.Repeats)
}
