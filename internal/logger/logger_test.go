package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	log.Debug("hidden")
	log.Info("shown", "rows", 3)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "run_id")

	buf.Reset()
	New(&buf, true).Debug("step done", "empty", "")
	require.Contains(t, buf.String(), "step done")
	require.NotContains(t, buf.String(), "empty")
}

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2019, 4, 19, 8, 46, 0, 123_456_789, time.FixedZone("EST", -5*3600))
	require.Equal(t, "2019-04-19T13:46:00.123Z", formatRFC3339Millis(ts))
}
