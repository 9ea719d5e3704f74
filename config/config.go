// Package config loads page-loader settings from a TOML file.
//
//	output = "/tmp/pages"
//	logLevel = "DEBUG"
//
//	[fetcher]
//	timeout = "5s"
//	retries = 2
//	proxy = ["http://127.0.0.1:8888"]
//
//	[[fetcher.limits]]
//	eventCount = 10
//	eventDuration = "1s"
//	bucket = 5
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/wenzapen/page-loader/collect"
)

// Duration accepts Go duration strings such as "1500ms" or "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Output   string  `toml:"output"`
	LogLevel string  `toml:"logLevel"`
	LogFile  string  `toml:"logFile"`
	Workers  int     `toml:"workers"`
	Progress bool    `toml:"progress"`
	Fetcher  Fetcher `toml:"fetcher"`
}

type Fetcher struct {
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"userAgent"`
	Cookie    string   `toml:"cookie"`
	Proxy     []string `toml:"proxy"`
	Retries   int      `toml:"retries"`
	RetryBase Duration `toml:"retryBase"`
	// Bandwidth is in bytes per second, zero means unlimited.
	Bandwidth int64         `toml:"bandwidth"`
	Limits    []LimitConfig `toml:"limits"`
}

type LimitConfig struct {
	EventCount    int      `toml:"eventCount"`
	EventDuration Duration `toml:"eventDuration"`
	Bucket        int      `toml:"bucket"` // size of bucket
}

func Default() Config {
	return Config{
		LogLevel: "WARN",
		Workers:  8,
		Progress: true,
		Fetcher: Fetcher{
			Timeout:   Duration{collect.DefaultTimeout},
			UserAgent: collect.DefaultUserAgent,
			Retries:   2,
			RetryBase: Duration{collect.DefaultRetryBase},
		},
	}
}

// Load reads path on top of the defaults. Unknown keys are an error so that
// typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Fetcher.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("fetcher timeout must be positive, got %s", c.Fetcher.Timeout))
	}
	if c.Fetcher.Retries < 0 {
		errs = append(errs, fmt.Errorf("fetcher retries must not be negative, got %d", c.Fetcher.Retries))
	}
	if c.Fetcher.Bandwidth < 0 {
		errs = append(errs, fmt.Errorf("fetcher bandwidth must not be negative, got %d", c.Fetcher.Bandwidth))
	}
	for i, l := range c.Fetcher.Limits {
		if l.EventCount < 1 || l.EventDuration.Duration <= 0 || l.Bucket < 1 {
			errs = append(errs, fmt.Errorf("fetcher limit %d: eventCount, eventDuration and bucket must be positive", i))
		}
	}
	return errors.Join(errs...)
}
