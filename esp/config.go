package esp

import (
	"time"
)

// Config holds Device construction settings.
type Config struct {
	// Dialer opens the transport to the module. Required.
	Dialer Dialer
	// ATTimeout is the default deadline for short command exchanges.
	ATTimeout time.Duration
	// JoinTimeout is the deadline for WiFi association, which can take
	// far longer than an ordinary exchange.
	JoinTimeout time.Duration
	// PollInterval is the sleep between unsuccessful transport polls.
	PollInterval time.Duration
	// Probe controls whether New verifies module liveness with a probe
	// command before returning.
	Probe bool
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.ATTimeout == 0 {
		c.ATTimeout = 2 * time.Second
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = 20 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Millisecond
	}
}

// ConfigBuilder assembles a Config fluently and validates it on Build.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder preloaded with nothing; defaults
// are applied on Build.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithJoinTimeout(d time.Duration) *ConfigBuilder {
	b.config.JoinTimeout = d
	return b
}

func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.PollInterval = d
	return b
}

func (b *ConfigBuilder) WithProbe(probe bool) *ConfigBuilder {
	b.config.Probe = probe
	return b
}

// Build validates the assembled configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	config := b.config
	config.setDefaults()
	return config, nil
}
