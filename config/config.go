package config

import (
	"fmt"
	"io"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config represents configuration for the lookup tool
type Config struct {
	Lookup struct {
		Method    string   `yaml:"method"`
		Timeout   duration `yaml:"timeout"`
		RateLimit duration `yaml:"rate-limit"`
		// Retries is a pointer so an explicit `retries: 0` is
		// distinguishable from an absent key.
		Retries *int `yaml:"retries"`
	} `yaml:"lookup"`

	Cache struct {
		Disabled bool     `yaml:"disabled"`
		Dir      string   `yaml:"dir"`
		TTL      duration `yaml:"ttl"`
	} `yaml:"cache"`

	Workers struct {
		Max        int  `yaml:"max"`
		NoParallel bool `yaml:"no-parallel"`
	} `yaml:"workers"`

	Output struct {
		Format string `yaml:"format"`
	} `yaml:"output"`

	DNS struct {
		Nameserver string `yaml:"nameserver"`
	} `yaml:"dns"`
}

// Methods lists the accepted lookup method names, `auto` first.
var Methods = []string{"auto", "rdap", "whois", "rdns", "system"}

type duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (d *duration) UnmarshalYAML(unmashal func(interface{}) error) error {
	var s string
	if err := unmashal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(dur)
	return nil
}

// Duration is a convenience getter.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Set updates the underlying duration.
func (d *duration) Set(dur time.Duration) {
	*d = duration(dur)
}

// FromYAML reads YAML from reader and unmarshals it to Config
func FromYAML(r io.Reader) (*Config, error) {
	c := &Config{}
	err := yaml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks values that would otherwise fail deep inside a lookup.
func (c *Config) Validate() error {
	if !ValidMethod(c.Lookup.Method) {
		return fmt.Errorf("unknown lookup method %q", c.Lookup.Method)
	}
	if c.Lookup.Timeout.Duration() <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}
	if c.Lookup.Retries != nil && *c.Lookup.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if c.Workers.Max < 1 {
		return fmt.Errorf("max workers must be at least 1")
	}
	switch c.Output.Format {
	case "csv", "json", "text":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	return nil
}

// ValidMethod reports whether method names a known lookup method.
func ValidMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}
