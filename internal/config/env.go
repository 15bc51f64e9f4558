// Package config provides environment helpers shared by the go-soccerbot
// commands. Flags parsed in cmd/*/main.go take precedence over these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultSerialPort    = "/dev/ttyUSB0"
	DefaultDriveAddr     = ":8090"
	DefaultDashboardPort = "8080"
	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = "soccerbot"
	DefaultPoseSource    = "redis"
)

// String returns the value of key, or def when unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of key, or def when unset or unparsable.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Duration returns the duration value of key (e.g. "250ms"), or def when
// unset or unparsable.
func Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
