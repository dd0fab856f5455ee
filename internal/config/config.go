// Package config provides YAML-based configuration loading for Switchboard.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Switchboard configuration, loaded from switchboard.yaml.
type Config struct {
	Database  DatabaseConfig   `yaml:"database"`
	API       APIConfig        `yaml:"api"`
	Operators []OperatorConfig `yaml:"operators"`
	Notify    NotifyConfig     `yaml:"notify"`
	Schedule  ScheduleConfig   `yaml:"schedule"`
}

// DatabaseConfig selects and locates the backing database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	Port int `yaml:"port"`
}

// OperatorConfig seeds one operator into the roster.
type OperatorConfig struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Status        string   `yaml:"status"`
	Skills        []string `yaml:"skills"`
	MaxConcurrent int      `yaml:"max_concurrent"`
}

// NotifyConfig lists the notification sinks to deliver to.
type NotifyConfig struct {
	Command   string        `yaml:"command"`
	QueueSize int           `yaml:"queue_size"`
	Slack     SlackConfig   `yaml:"slack"`
	Discord   DiscordConfig `yaml:"discord"`
	AMQP      AMQPConfig    `yaml:"amqp"`
}

// SlackConfig enables the Slack sink when BotToken is set.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig enables the Discord sink when BotToken is set.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// AMQPConfig enables the RabbitMQ sink when URL is set.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// ScheduleConfig holds 5-field cron expressions for background jobs.
type ScheduleConfig struct {
	DailyReset string `yaml:"daily_reset"`
	SLASweep   string `yaml:"sla_sweep"`
}

// Environment overrides for secrets, applied when the YAML field is empty.
const (
	EnvSlackToken   = "SWITCHBOARD_SLACK_TOKEN"
	EnvDiscordToken = "SWITCHBOARD_DISCORD_TOKEN"
	EnvAMQPURL      = "SWITCHBOARD_AMQP_URL"
)

// CronParser accepts standard 5-field cron expressions.
var CronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

var validStatuses = map[string]bool{
	"available": true,
	"busy":      true,
	"break":     true,
	"offline":   true,
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv fills empty secret fields from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if c.Notify.Slack.BotToken == "" {
		c.Notify.Slack.BotToken = getenv(EnvSlackToken)
	}
	if c.Notify.Discord.BotToken == "" {
		c.Notify.Discord.BotToken = getenv(EnvDiscordToken)
	}
	if c.Notify.AMQP.URL == "" {
		c.Notify.AMQP.URL = getenv(EnvAMQPURL)
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "switchboard.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "switchboard"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 256
	}
	if c.Notify.AMQP.Exchange == "" {
		c.Notify.AMQP.Exchange = "switchboard.notifications"
	}
	if c.Schedule.DailyReset == "" {
		c.Schedule.DailyReset = "0 0 * * *"
	}
	if c.Schedule.SLASweep == "" {
		c.Schedule.SLASweep = "* * * * *"
	}
	for i := range c.Operators {
		if c.Operators[i].Status == "" {
			c.Operators[i].Status = "available"
		}
		if c.Operators[i].MaxConcurrent == 0 {
			c.Operators[i].MaxConcurrent = 3
		}
		if c.Operators[i].Name == "" {
			c.Operators[i].Name = c.Operators[i].ID
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Database.Driver != "sqlite" && c.Database.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	seen := make(map[string]bool)
	for i, op := range c.Operators {
		if op.ID == "" {
			errs = append(errs, fmt.Sprintf("operators[%d].id is required", i))
		} else if seen[op.ID] {
			errs = append(errs, fmt.Sprintf("operators[%d].id %q is duplicated", i, op.ID))
		}
		seen[op.ID] = true
		if !validStatuses[op.Status] {
			errs = append(errs, fmt.Sprintf("operators[%d].status %q is invalid", i, op.Status))
		}
		if op.MaxConcurrent < 0 {
			errs = append(errs, fmt.Sprintf("operators[%d].max_concurrent must be positive", i))
		}
	}
	if _, err := CronParser.Parse(c.Schedule.DailyReset); err != nil {
		errs = append(errs, fmt.Sprintf("schedule.daily_reset: %v", err))
	}
	if _, err := CronParser.Parse(c.Schedule.SLASweep); err != nil {
		errs = append(errs, fmt.Sprintf("schedule.sla_sweep: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
