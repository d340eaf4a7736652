package logger

import (
	"path/filepath"
	"testing"

	"storefront/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New(config.LogConfig{Level: "debug", Type: config.LogTypeConsole})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log, err = New(config.LogConfig{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_FileLogger(t *testing.T) {
	_, err := New(config.LogConfig{Level: "info", Type: config.LogTypeFile})
	assert.Error(t, err)

	log, err := New(config.LogConfig{
		Level:    "warning",
		Type:     config.LogTypeFile,
		FilePath: filepath.Join(t.TempDir(), "app.log"),
		MaxSize:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestNew_InvalidSettings(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(config.LogConfig{Level: "info", Type: "syslog"})
	assert.Error(t, err)
}
