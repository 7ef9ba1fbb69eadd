// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the paykitd configuration.
type Config struct {
	Owner struct {
		WebID string `yaml:"webid"`
		// Optional overrides; derived from the WebID when empty.
		InboxURL   string `yaml:"inbox_url"`
		OffersURL  string `yaml:"offers_url"`
		PrivateURL string `yaml:"private_url"`
	} `yaml:"owner"`

	Solid struct {
		TokenURL     string `yaml:"token_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"solid"`

	Chain struct {
		RPCURL string `yaml:"rpc_url"`
	} `yaml:"chain"`

	Schedule struct {
		// Six-field cron specs with a seconds column.
		Processor string `yaml:"processor"`
		Sweeper   string `yaml:"sweeper"`
	} `yaml:"schedule"`

	Status struct {
		Port int `yaml:"port"`
	} `yaml:"status"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Defaults applied when the file leaves a field empty.
const (
	DefaultSchedule = "0 */1 * * * *"
	DefaultLogLevel = "info"
)

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Schedule.Processor == "" {
		c.Schedule.Processor = DefaultSchedule
	}
	if c.Schedule.Sweeper == "" {
		c.Schedule.Sweeper = DefaultSchedule
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) validate() error {
	if c.Owner.WebID == "" {
		return fmt.Errorf("config: owner.webid is required")
	}
	if c.Solid.TokenURL == "" || c.Solid.ClientID == "" {
		return fmt.Errorf("config: solid.token_url and solid.client_id are required")
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("config: chain.rpc_url is required")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Schedule.Processor); err != nil {
		return fmt.Errorf("config: bad processor schedule %q: %w", c.Schedule.Processor, err)
	}
	if _, err := parser.Parse(c.Schedule.Sweeper); err != nil {
		return fmt.Errorf("config: bad sweeper schedule %q: %w", c.Schedule.Sweeper, err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: bad log level %q: %w", c.Log.Level, err)
	}
	if c.Status.Port < 0 || c.Status.Port > 65535 {
		return fmt.Errorf("config: status.port out of range")
	}
	return nil
}

// LogLevel returns the parsed logrus level. Only valid after Load.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
