package cubewire

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration file.
type Config struct {
	Listen          string           `yaml:"listen"`
	ShutdownTimeout time.Duration    `yaml:"shutdown_timeout"`
	Bans            []IPMask         `yaml:"bans"`
	Connection      ConnectionConfig `yaml:"connection"`
	Logging         LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig tunes each connection.
type ConnectionConfig struct {
	BufferSize     int           `yaml:"buffer_size"`
	MaxMessageSize int           `yaml:"max_message_size"`
	Heartbeat      time.Duration `yaml:"heartbeat"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:28785",
		Connection: ConnectionConfig{
			BufferSize:     64,
			MaxMessageSize: defaultMaxPackageLength,
			Heartbeat:      defaultHeartbeat,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML configuration. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes config as YAML, creating the directory if needed.
func SaveConfig(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", c.Listen); err != nil {
		return errors.Wrapf(err, "invalid listen address %q", c.Listen)
	}
	if c.Connection.MaxMessageSize < 0 || c.Connection.BufferSize < 0 || c.Connection.Heartbeat < 0 {
		return errors.New("connection limits must not be negative")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must not be negative")
	}
	return nil
}

// BanList returns the configured bans as an AccessList.
func (c *Config) BanList() *AccessList {
	return NewAccessList(c.Bans...)
}

// ServerOptions returns the server options the configuration implies.
func (c *Config) ServerOptions() []ServerOption {
	return []ServerOption{
		ServerBanListOption(c.BanList()),
		ServerShutdownTimeoutOption(c.ShutdownTimeout),
	}
}

// ConnOptions returns the connection options the configuration implies.
func (c *Config) ConnOptions() []Option {
	return []Option{
		BufferSizeOption(c.Connection.BufferSize),
		MessageMaxSize(c.Connection.MaxMessageSize),
		HeartbeatOption(c.Connection.Heartbeat),
	}
}
