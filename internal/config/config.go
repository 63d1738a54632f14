// Package config loads the relay configuration once at startup. Values come
// from an optional YAML file with environment variables layered on top, so a
// plain `SMTP_RELAY_SERVER=smtp.example.com spoolmail` works without any
// file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRelayPort     = 587
	defaultSMTPListen    = ":1025"
	defaultHTTPListen    = ":8025"
	defaultHostname      = "local-relay"
	defaultMaxMessage    = 1024 * 1024
	defaultMaxRecipients = 50
	defaultPreviewLines  = 20
)

type Config struct {
	SMTP  SMTPConfig `yaml:"smtp"`
	HTTP  HTTPConfig `yaml:"http"`
	Relay *Relay     `yaml:"relay"`
}

// SMTPConfig configures the inbound listener.
type SMTPConfig struct {
	Listen         string `yaml:"listen"`
	Hostname       string `yaml:"hostname"`
	MaxMessageSize int64  `yaml:"max_message_size"`
	MaxRecipients  int    `yaml:"max_recipients"`
}

// HTTPConfig configures the message listing endpoint.
type HTTPConfig struct {
	Listen       string `yaml:"listen"`
	PreviewLines int    `yaml:"preview_lines"`
}

// Relay describes the static outbound relay. When nil, delivery goes
// straight to the recipient domain's MX hosts.
type Relay struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	StartTLS *bool  `yaml:"starttls"`
}

// Addr returns the dial address for the relay, defaulting the port to 587.
func (r *Relay) Addr() string {
	port := r.Port
	if port == 0 {
		port = DefaultRelayPort
	}
	return fmt.Sprintf("%s:%d", r.Host, port)
}

// UseStartTLS reports whether the relay session should be upgraded with
// STARTTLS. Enabled unless the config explicitly turns it off.
func (r *Relay) UseStartTLS() bool {
	return r.StartTLS == nil || *r.StartTLS
}

// Load builds the configuration from environment variables alone.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	cfg.normalise()
	return cfg, nil
}

// LoadFromFile reads a YAML file as the base layer, then applies environment
// variables on top. Environment variables always win.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	cfg.normalise()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.SMTP.Listen = defaultSMTPListen
	c.SMTP.Hostname = defaultHostname
	c.SMTP.MaxMessageSize = defaultMaxMessage
	c.SMTP.MaxRecipients = defaultMaxRecipients
	c.HTTP.Listen = defaultHTTPListen
	c.HTTP.PreviewLines = defaultPreviewLines
}

func (c *Config) applyEnvVars() error {
	if v := os.Getenv("SPOOLMAIL_SMTP_LISTEN"); v != "" {
		c.SMTP.Listen = v
	}
	if v := os.Getenv("SPOOLMAIL_HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v := os.Getenv("SMTP_RELAY_SERVER"); v != "" {
		c.relay().Host = v
	}
	if v := os.Getenv("SMTP_RELAY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_RELAY_PORT %q is not a number: %w", v, err)
		}
		c.relay().Port = port
	}
	if v := os.Getenv("SMTP_RELAY_USERNAME"); v != "" {
		c.relay().Username = v
	}
	if v := os.Getenv("SMTP_RELAY_PASSWORD"); v != "" {
		c.relay().Password = v
	}
	if v := os.Getenv("SMTP_RELAY_STARTTLS"); v != "" {
		b := truthy(v)
		c.relay().StartTLS = &b
	}
	return nil
}

// normalise drops a relay section that never named a host, so consumers can
// treat a non-nil Relay as fully configured.
func (c *Config) normalise() {
	if c.Relay != nil && c.Relay.Host == "" {
		c.Relay = nil
	}
}

func (c *Config) relay() *Relay {
	if c.Relay == nil {
		c.Relay = &Relay{}
	}
	return c.Relay
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
