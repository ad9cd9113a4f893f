package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = original })
	return &buf
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest("POST", "/panel/reply", nil)
	req.RemoteAddr = "10.0.0.7"
	req.Header.Set("User-Agent", "panel-test")

	LogFromRequest(req, Event{
		Type:      EventManualReply,
		SessionID: "sess-1",
		Contact:   "50688887777",
		Details:   map[string]interface{}{"messages": 2, "paused": true},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "panel", line["audit"])
	assert.Equal(t, "manual_reply", line["event_type"])
	assert.Equal(t, "sess-1", line["panel_session"])
	assert.Equal(t, "50688887777", line["contact"])
	assert.Equal(t, "10.0.0.7", line["ip"])
	assert.Equal(t, "panel-test", line["user_agent"])
	assert.Equal(t, float64(2), line["messages"])
	assert.Equal(t, true, line["paused"])
	assert.Equal(t, "panel audit event", line["message"])
}
