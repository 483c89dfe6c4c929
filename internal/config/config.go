// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var globalConfig *Config

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Chat      ChatConfig      `yaml:"chat"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"` // listen address
	Port int    `yaml:"port"` // listen port
}

// WebSocketConfig holds websocket transport settings.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	PingPeriod      time.Duration `yaml:"ping_period"`
	PongWait        time.Duration `yaml:"pong_wait"`
}

// RedisConfig holds lead store settings.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns the host:port dial address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RabbitMQConfig holds notification publisher settings.
type RabbitMQConfig struct {
	URL           string        `yaml:"url"`
	Exchange      string        `yaml:"exchange"`
	RoutingKey    string        `yaml:"routing_key"`
	DialAttempts  int           `yaml:"dial_attempts"`
	DialBaseDelay time.Duration `yaml:"dial_base_delay"`
}

// ChatConfig holds the dialogue engine timings and thresholds.
type ChatConfig struct {
	ResponseDelay      time.Duration `yaml:"response_delay"`       // staged assistant reply
	AutoOfferDelay     time.Duration `yaml:"auto_offer_delay"`     // soft upsell after a reply
	StepPromptDelay    time.Duration `yaml:"step_prompt_delay"`    // lead form after the upsell
	ConfirmationDelay  time.Duration `yaml:"confirmation_delay"`   // confirmation after submit
	InactivityTimeout  time.Duration `yaml:"inactivity_timeout"`   // reminder when visitor idles
	AutoOfferThreshold int           `yaml:"auto_offer_threshold"` // exchanges before upsell
	LeadRecipient      string        `yaml:"lead_recipient"`       // notification email target
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GetConfig returns the global configuration instance.
func GetConfig() *Config {
	return globalConfig
}

// Load reads and validates configuration from a yaml file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// applyDefaults fills unset fields with their defaults.
func applyDefaults(config *Config) {
	if config.WebSocket.ReadBufferSize == 0 {
		config.WebSocket.ReadBufferSize = 1024
	}
	if config.WebSocket.WriteBufferSize == 0 {
		config.WebSocket.WriteBufferSize = 1024
	}
	if config.WebSocket.PingPeriod == 0 {
		config.WebSocket.PingPeriod = 30 * time.Second
	}
	if config.WebSocket.PongWait == 0 {
		config.WebSocket.PongWait = 60 * time.Second
	}
	if config.RabbitMQ.DialAttempts == 0 {
		config.RabbitMQ.DialAttempts = 5
	}
	if config.RabbitMQ.DialBaseDelay == 0 {
		config.RabbitMQ.DialBaseDelay = time.Second
	}
	if config.Chat.ResponseDelay == 0 {
		config.Chat.ResponseDelay = 800 * time.Millisecond
	}
	if config.Chat.AutoOfferDelay == 0 {
		config.Chat.AutoOfferDelay = 1500 * time.Millisecond
	}
	if config.Chat.StepPromptDelay == 0 {
		config.Chat.StepPromptDelay = time.Second
	}
	if config.Chat.ConfirmationDelay == 0 {
		config.Chat.ConfirmationDelay = 500 * time.Millisecond
	}
	if config.Chat.InactivityTimeout == 0 {
		config.Chat.InactivityTimeout = 40 * time.Second
	}
	if config.Chat.AutoOfferThreshold == 0 {
		config.Chat.AutoOfferThreshold = 3
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

// validateConfig checks that the configuration is usable.
func validateConfig(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server host must not be empty")
	}
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port must be greater than 0")
	}
	if config.Redis.Host == "" {
		return fmt.Errorf("redis host must not be empty")
	}
	if config.Redis.Port <= 0 {
		return fmt.Errorf("redis port must be greater than 0")
	}
	if config.RabbitMQ.URL == "" {
		return fmt.Errorf("rabbitmq url must not be empty")
	}
	if config.RabbitMQ.Exchange == "" {
		return fmt.Errorf("rabbitmq exchange must not be empty")
	}
	if config.Chat.LeadRecipient == "" {
		return fmt.Errorf("chat lead recipient must not be empty")
	}
	return nil
}
