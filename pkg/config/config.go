// Package config loads the application's own YAML configuration — the
// serial device, archive file locations, and dispatcher tuning this
// host needs to talk to a console. It has nothing to do with the
// console's EEPROM configuration store (internal/eeprom), which lives
// on the console itself and is read/written over the wire.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the root application configuration object.
type Config struct {
	Console    ConsoleConfig    `yaml:"console"`
	Archive    ArchiveConfig    `yaml:"archive,omitempty"`
	Alarms     AlarmsConfig     `yaml:"alarms,omitempty"`
	Dispatcher DispatcherConfig `yaml:"dispatcher,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	HTTPServer HTTPServerConfig `yaml:"http-server,omitempty"`
}

// ConsoleConfig describes how to reach the console.
type ConsoleConfig struct {
	SerialDevice string `yaml:"serialdevice"`
	Baud         int    `yaml:"baud,omitempty"`
}

// ArchiveConfig locates the on-disk archive file and its backup
// directory.
type ArchiveConfig struct {
	Path       string `yaml:"path"`
	BackupDir  string `yaml:"backup-dir,omitempty"`
	SyncPeriod string `yaml:"sync-period,omitempty"`
}

// SyncInterval parses SyncPeriod, defaulting to 5 minutes when unset.
func (a ArchiveConfig) SyncInterval() (time.Duration, error) {
	if a.SyncPeriod == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(a.SyncPeriod)
}

// AlarmsConfig locates the alarm event history and storm archive
// files internal/alarm appends to.
type AlarmsConfig struct {
	HistoryPath string `yaml:"history-path,omitempty"`
	StormPath   string `yaml:"storm-path,omitempty"`
}

// DispatcherConfig tunes the command dispatcher's worker queues.
type DispatcherConfig struct {
	ConsoleQueueDepth int `yaml:"console-queue-depth,omitempty"`
	DataQueueDepth    int `yaml:"data-queue-depth,omitempty"`
}

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	Debug      bool `yaml:"debug,omitempty"`
	BufferSize int  `yaml:"buffer-size,omitempty"`
}

// HTTPServerConfig configures cmd/vantaged-server's optional JSON
// command front door. Left unset, ListenAddr defaults to ":8080".
type HTTPServerConfig struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
}

// Addr returns ListenAddr, defaulting to ":8080" when unset.
func (h HTTPServerConfig) Addr() string {
	if h.ListenAddr == "" {
		return ":8080"
	}
	return h.ListenAddr
}

// LoadConfig reads and parses the YAML configuration at filename.
func LoadConfig(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filename, err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filename, err)
	}
	if c.Console.SerialDevice == "" {
		return nil, fmt.Errorf("config: console.serialdevice is required")
	}
	return c, nil
}
