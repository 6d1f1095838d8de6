package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProbeConfig holds the NATS transport settings shared by the probe and the
// collector.
type ProbeConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// CollectorConfig holds the streaming collector settings.
type CollectorConfig struct {
	SnapshotInterval    string `yaml:"snapshot_interval"`
	SizeOfPacketChannel int    `yaml:"size_of_packet_channel"`
}

// Interval parses the snapshot interval, rejecting zero and negative
// durations.
func (c CollectorConfig) Interval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.SnapshotInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot_interval: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("snapshot_interval must be a positive duration")
	}
	return interval, nil
}

// CSVSinkConfig configures the CSV flow sink.
type CSVSinkConfig struct {
	Dir string `yaml:"dir"`
}

// GobSinkConfig configures the gob snapshot sink.
type GobSinkConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig configures the ClickHouse sink and the query API.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SinkDef defines one flow sink entry in the config file.
type SinkDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	CSV        CSVSinkConfig    `yaml:"csv"`
	Gob        GobSinkConfig    `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// APIConfig holds the HTTP query API settings.
type APIConfig struct {
	ListenAddr string           `yaml:"listen_addr"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Probe     ProbeConfig     `yaml:"probe"`
	Collector CollectorConfig `yaml:"collector"`
	Sinks     []SinkDef       `yaml:"sinks"`
	API       APIConfig       `yaml:"api"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config
// struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
