package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the module (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// WifiSSID is the access point to associate with on startup
	WifiSSID string `yaml:"wifi_ssid"`
	// WifiPassword is the access point passphrase
	WifiPassword string `yaml:"wifi_password"`
	// BrokerHost is the MQTT broker the module connects to
	BrokerHost string `yaml:"broker_host"`
	// BrokerPort is the MQTT broker port
	BrokerPort int `yaml:"broker_port"`
	// ClientID identifies this gateway's MQTT session
	ClientID string `yaml:"client_id"`
	// Username is the MQTT username (optional)
	Username string `yaml:"username"`
	// Password is the MQTT password (optional)
	Password string `yaml:"password"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.BrokerPort = 1883
		c.ClientID = "espgw"
		return nil
	}
}

// WithFile loads configuration from a YAML file. An empty path is a
// no-op so the flag can stay optional.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %q: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}
		if port := os.Getenv("SERIAL_PORT"); port != "" {
			c.SerialPort = port
		}
		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}
		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}
		if ssid := os.Getenv("WIFI_SSID"); ssid != "" {
			c.WifiSSID = ssid
		}
		if pass := os.Getenv("WIFI_PASSWORD"); pass != "" {
			c.WifiPassword = pass
		}
		if host := os.Getenv("BROKER_HOST"); host != "" {
			c.BrokerHost = host
		}
		if port := os.Getenv("BROKER_PORT"); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				c.BrokerPort = p
			}
		}
		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.ClientID = id
		}
		if user := os.Getenv("MQTT_USERNAME"); user != "" {
			c.Username = user
		}
		if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
			c.Password = pass
		}
		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "wifi-ssid":
				c.WifiSSID = f.Value.String()
			case "wifi-password":
				c.WifiPassword = f.Value.String()
			case "broker-host":
				c.BrokerHost = f.Value.String()
			case "broker-port":
				if p, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BrokerPort = p
				}
			case "client-id":
				c.ClientID = f.Value.String()
			}
		})
		return nil
	}
}
