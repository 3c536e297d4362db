// Package config loads vsladmin settings from defaults, an optional HCL file,
// and VSLADMIN_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"golang.org/x/text/language"

	"github.com/vslplatform/vsladmin/internal/logging"
)

const (
	dirName  = ".vsladmin"
	fileName = "config.hcl"

	// DefaultSystemUptime is shown on the uptime card. The Stats API does not
	// report uptime, so the value is configuration, not data.
	DefaultSystemUptime = 99.9

	DefaultServer  = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
	DefaultLocale  = "en-US"
	DefaultListen  = "127.0.0.1:3000"
)

// Config holds resolved settings.
type Config struct {
	Server          string
	Token           string // only from VSLADMIN_TOKEN; never read from the file
	Timeout         time.Duration
	Locale          string
	SystemUptime    float64
	ShowFetchErrors bool
	LogLevel        string
	LogFormat       string
	Web             WebConfig

	// Path is the config file that was read, empty when none was found.
	Path string
}

// WebConfig configures the local web console.
type WebConfig struct {
	Listen    string
	RateLimit float64 // requests per second per client IP
	Burst     int
}

// hclFile mirrors the on-disk format:
//
//	server            = "https://vsl.example.com"
//	timeout           = "10s"
//	locale            = "vi-VN"
//	system_uptime     = 99.9
//	show_fetch_errors = true
//
//	web {
//	  listen     = "127.0.0.1:3000"
//	  rate_limit = 5
//	  burst      = 10
//	}
type hclFile struct {
	Server          *string  `hcl:"server,optional"`
	Timeout         *string  `hcl:"timeout,optional"`
	Locale          *string  `hcl:"locale,optional"`
	SystemUptime    *float64 `hcl:"system_uptime,optional"`
	ShowFetchErrors *bool    `hcl:"show_fetch_errors,optional"`
	LogLevel        *string  `hcl:"log_level,optional"`
	LogFormat       *string  `hcl:"log_format,optional"`
	Web             *hclWeb  `hcl:"web,block"`
}

type hclWeb struct {
	Listen    *string  `hcl:"listen,optional"`
	RateLimit *float64 `hcl:"rate_limit,optional"`
	Burst     *int     `hcl:"burst,optional"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server:       DefaultServer,
		Timeout:      DefaultTimeout,
		Locale:       DefaultLocale,
		SystemUptime: DefaultSystemUptime,
		LogLevel:     "info",
		LogFormat:    logging.FormatConsole,
		Web: WebConfig{
			Listen:    DefaultListen,
			RateLimit: 5,
			Burst:     10,
		},
	}
}

// DefaultDir returns ~/.vsladmin, or $VSLADMIN_HOME when set.
func DefaultDir() (string, error) {
	if dir := os.Getenv("VSLADMIN_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Load resolves the configuration. An empty path means the default file,
// which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, fileName)
	}

	src, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(path, src); err != nil {
			return nil, err
		}
		cfg.Path = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no config file, defaults apply
	default:
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string, src []byte) error {
	var f hclFile
	if err := hclsimple.Decode(path, src, nil, &f); err != nil {
		if diags, ok := err.(hcl.Diagnostics); ok {
			for _, diag := range diags {
				if diag.Severity == hcl.DiagError {
					return fmt.Errorf("config parse error at %s: %s", diag.Subject, diag.Detail)
				}
			}
		}
		return fmt.Errorf("config parse error: %w", err)
	}

	if f.Server != nil {
		c.Server = *f.Server
	}
	if f.Timeout != nil {
		d, err := time.ParseDuration(*f.Timeout)
		if err != nil {
			return fmt.Errorf("config: invalid timeout %q: %w", *f.Timeout, err)
		}
		c.Timeout = d
	}
	if f.Locale != nil {
		c.Locale = *f.Locale
	}
	if f.SystemUptime != nil {
		c.SystemUptime = *f.SystemUptime
	}
	if f.ShowFetchErrors != nil {
		c.ShowFetchErrors = *f.ShowFetchErrors
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		c.LogFormat = *f.LogFormat
	}
	if f.Web != nil {
		if f.Web.Listen != nil {
			c.Web.Listen = *f.Web.Listen
		}
		if f.Web.RateLimit != nil {
			c.Web.RateLimit = *f.Web.RateLimit
		}
		if f.Web.Burst != nil {
			c.Web.Burst = *f.Web.Burst
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("VSLADMIN_SERVER"); ok && v != "" {
		c.Server = v
	}
	if v, ok := os.LookupEnv("VSLADMIN_TOKEN"); ok {
		c.Token = v
	}
	if v, ok := os.LookupEnv("VSLADMIN_LOCALE"); ok && v != "" {
		c.Locale = v
	}
	if v, ok := os.LookupEnv("VSLADMIN_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("VSLADMIN_LISTEN"); ok && v != "" {
		c.Web.Listen = v
	}
	if v, ok := os.LookupEnv("VSLADMIN_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VSLADMIN_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v, ok := os.LookupEnv("VSLADMIN_SYSTEM_UPTIME"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("VSLADMIN_SYSTEM_UPTIME: %w", err)
		}
		c.SystemUptime = f
	}
	return nil
}

// Validate normalizes the server URL and rejects out-of-range settings.
func (c *Config) Validate() error {
	c.Server = strings.TrimRight(strings.TrimSpace(c.Server), "/")
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server URL must start with http:// or https:// (got %q)", c.Server)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.SystemUptime < 0 || c.SystemUptime > 100 {
		return fmt.Errorf("system_uptime must be between 0 and 100 (got %v)", c.SystemUptime)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Web.RateLimit < 0 || c.Web.Burst < 0 {
		return fmt.Errorf("web rate_limit and burst must not be negative")
	}
	return nil
}

// LocaleTag returns the parsed locale. Validate has already rejected bad tags.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}
