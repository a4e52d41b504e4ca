package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("timesheet-service", &buf).
		WithComponent("importer").
		WithRequestID("req-1").
		WithEmployee("emp-1").
		WithPass("positions")

	log.Info().Int("created", 3).Msg("import pass completed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "timesheet-service", line["service"])
	assert.Equal(t, "importer", line["component"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "emp-1", line["employee_id"])
	assert.Equal(t, "positions", line["pass"])
	assert.Equal(t, float64(3), line["created"])
	assert.Equal(t, "import pass completed", line["message"])
}

func TestNew_LevelFollowsEnvironment(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("svc", "development").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("svc", "production").GetLevel())
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error().Msg("dropped")
	})
}
