// Package config provides configuration management for the VISCA bridge.
package config

import (
	"os"
	"strconv"
	"time"

	"visca-bridge/internal/transport"
	"visca-bridge/internal/visca"
)

// Config holds all configuration values for the bridge.
type Config struct {
	// Server configuration
	Port string
	Env  string

	// Database configuration
	DatabaseURL string

	// VISCA link
	Transport string
	Device    string
	BaudRate  int
	Address   string // host:port for tcp/udp links

	// Camera bus
	Cameras      int
	Limits       visca.Limits
	PollEnabled  bool
	PollInterval time.Duration
	FrameTimeout time.Duration

	// Message bus
	MQTTEnabled      bool
	MQTTServer       string
	MQTTPort         string
	MQTTClientPrefix string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() *Config {
	limits := visca.DefaultLimits()

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "file:./visca-bridge.db"),

		// VISCA link
		Transport: getEnv("VISCA_TRANSPORT", transport.KindSerial),
		Device:    getEnv("VISCA_DEVICE", "/dev/ttyUSB0"),
		BaudRate:  getEnvInt("VISCA_BAUD", 9600),
		Address:   getEnv("VISCA_ADDRESS", ""),

		// Camera bus
		Cameras: getEnvInt("VISCA_CAMERAS", visca.MaxCameras),
		Limits: visca.Limits{
			PanMax:   getEnvInt("VISCA_PAN_MAX", limits.PanMax),
			TiltMax:  getEnvInt("VISCA_TILT_MAX", limits.TiltMax),
			ZoomMax:  getEnvInt("VISCA_ZOOM_MAX", limits.ZoomMax),
			FocusMax: getEnvInt("VISCA_FOCUS_MAX", limits.FocusMax),
		},
		PollEnabled:  getEnvBool("VISCA_POLL_ENABLED", true),
		PollInterval: getEnvMillis("VISCA_POLL_INTERVAL", 1000),
		FrameTimeout: getEnvMillis("VISCA_FRAME_TIMEOUT", 500),

		// Message bus
		MQTTEnabled:      getEnvBool("MQTT_ENABLED", true),
		MQTTServer:       getEnv("MQTT_SERVER", "192.168.2.11"),
		MQTTPort:         getEnv("MQTT_PORT", "1883"),
		MQTTClientPrefix: getEnv("MQTT_CLIENT_PREFIX", "VISCABridge-"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LinkConfig returns the transport configuration.
func (c *Config) LinkConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Kind = c.Transport
	cfg.Device = c.Device
	cfg.BaudRate = c.BaudRate
	cfg.Address = c.Address
	return cfg
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvMillis reads a millisecond count as a duration.
func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}
