package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONWithLogLevelKey(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.WithField("wallet_id", "abc").Info("Wallet.Open.Complete")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["loglevel"])
	assert.Equal(t, "Wallet.Open.Complete", entry["msg"])
	assert.Equal(t, "abc", entry["wallet_id"])
	assert.NotContains(t, entry, "level")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetupLogging_InvalidLevel(t *testing.T) {
	_, err := SetupLogging("loud")
	assert.Error(t, err)
}
