package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var envVars = []string{
	"PORT", "ENV", "DATABASE_URL",
	"VISCA_TRANSPORT", "VISCA_DEVICE", "VISCA_BAUD", "VISCA_ADDRESS",
	"VISCA_CAMERAS", "VISCA_PAN_MAX", "VISCA_TILT_MAX", "VISCA_ZOOM_MAX", "VISCA_FOCUS_MAX",
	"VISCA_POLL_ENABLED", "VISCA_POLL_INTERVAL", "VISCA_FRAME_TIMEOUT",
	"MQTT_ENABLED", "MQTT_SERVER", "MQTT_PORT", "MQTT_CLIENT_PREFIX",
}

// unsetEnv clears the bridge variables for the duration of the test.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		if value, ok := os.LookupEnv(key); ok {
			_ = os.Unsetenv(key)
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "file:./visca-bridge.db", cfg.DatabaseURL)
	assert.Equal(t, "serial", cfg.Transport)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.Equal(t, 7, cfg.Cameras)
	assert.Equal(t, 800, cfg.Limits.PanMax)
	assert.Equal(t, 212, cfg.Limits.TiltMax)
	assert.Equal(t, 2305, cfg.Limits.ZoomMax)
	assert.Equal(t, 65535, cfg.Limits.FocusMax)
	assert.True(t, cfg.PollEnabled)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.FrameTimeout)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, "192.168.2.11", cfg.MQTTServer)
	assert.Equal(t, "1883", cfg.MQTTPort)
	assert.Equal(t, "VISCABridge-", cfg.MQTTClientPrefix)
}

func TestLoad_CustomEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("VISCA_TRANSPORT", "udp")
	t.Setenv("VISCA_ADDRESS", "10.0.0.5:52381")
	t.Setenv("VISCA_BAUD", "38400")
	t.Setenv("VISCA_CAMERAS", "3")
	t.Setenv("VISCA_PAN_MAX", "1023")
	t.Setenv("VISCA_TILT_MAX", "255")
	t.Setenv("VISCA_POLL_ENABLED", "false")
	t.Setenv("VISCA_POLL_INTERVAL", "250")
	t.Setenv("VISCA_FRAME_TIMEOUT", "0")
	t.Setenv("MQTT_ENABLED", "false")
	t.Setenv("MQTT_SERVER", "broker.local")
	t.Setenv("MQTT_PORT", "8883")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "udp", cfg.Transport)
	assert.Equal(t, 38400, cfg.BaudRate)
	assert.Equal(t, 3, cfg.Cameras)
	assert.Equal(t, 1023, cfg.Limits.PanMax)
	assert.Equal(t, 255, cfg.Limits.TiltMax)
	assert.False(t, cfg.PollEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.FrameTimeout)
	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "broker.local", cfg.MQTTServer)
	assert.Equal(t, "8883", cfg.MQTTPort)

	link := cfg.LinkConfig()
	assert.Equal(t, "udp", link.Kind)
	assert.Equal(t, "10.0.0.5:52381", link.Address)
	assert.Equal(t, 38400, link.BaudRate)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("VISCA_BAUD", "fast")
	t.Setenv("VISCA_POLL_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 9600, cfg.BaudRate)
	assert.True(t, cfg.PollEnabled)
}
