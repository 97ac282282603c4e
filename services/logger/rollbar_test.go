package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

func TestRollbarLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	std := logrus.New()
	std.SetOutput(&buf)
	std.SetFormatter(new(logrus.JSONFormatter))

	logger := NewRollbarLogger(std, &core.Config{Env: "TEST", Debug: true})
	usr := user.User{ID: 42, Email: "alice@example.com", Role: user.RoleStudent}

	logger.Error("sending email", errors.New("boom"), map[string]interface{}{"event": "assessment_created"}, usr)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sending email", entry["msg"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "assessment_created", entry["event"])
	assert.Equal(t, float64(42), entry["user_id"])
	assert.Equal(t, "alice@example.com", entry["user_email"])
}

func TestRollbarLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	std := logrus.New()
	std.SetOutput(&buf)

	NewRollbarLogger(std, &core.Config{Env: "PROD"}).Debug("hidden")
	assert.Empty(t, buf.String())

	NewRollbarLogger(std, &core.Config{Env: "DEV", Debug: true}).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
