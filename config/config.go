// Package config loads this module's command-line configuration,
// grounded on config/config.go's YAML-file-or-flags pattern: a config
// file, if given, takes priority over individual flags, defaults are
// filled in first, then the merged result is validated.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/git-lfs/lfscore/lfsconfig"
)

// Config is this module's complete runtime configuration: where
// objects live locally, which paths get tracked, which remote to talk
// to, and how the transfer engine should behave.
type Config struct {
	Dir string `yaml:"dir"`

	Track lfsconfig.TrackConfig `yaml:"track"`

	RemoteURL        string            `yaml:"remote_url"`
	AccessToken      string            `yaml:"access_token"`
	Headers          map[string]string `yaml:"headers"`
	ConcurrencyLimit int               `yaml:"concurrency_limit"`
	UserAgent        string            `yaml:"user_agent"`

	AccessLogLevel string `yaml:"access_log_level"`
	MetricsAddress string `yaml:"metrics_address"`
}

type yamlConfig struct {
	Config `yaml:",inline"`
}

func defaults() Config {
	return Config{
		ConcurrencyLimit: 8,
		UserAgent:        "lfscore",
		AccessLogLevel:   "all",
	}
}

// Get builds a Config from ctx: a "config_file" flag, if set, is
// parsed as YAML and takes priority over the individual flags;
// otherwise the Config is assembled directly from flags.
func Get(ctx *cli.Context) (*Config, error) {
	var cfg Config
	if path := ctx.String("config_file"); path != "" {
		c, err := fromYAMLFile(path)
		if err != nil {
			return nil, err
		}
		cfg = *c
	} else {
		cfg = fromFlags(ctx)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fromFlags(ctx *cli.Context) Config {
	cfg := defaults()
	cfg.Dir = ctx.String("dir")
	cfg.Track.Extensions = splitNonEmpty(ctx.String("track_extensions"))
	cfg.Track.MaxSize = ctx.Int64("track_max_size")
	cfg.RemoteURL = ctx.String("remote_url")
	cfg.AccessToken = ctx.String("access_token")
	cfg.ConcurrencyLimit = ctx.Int("concurrency_limit")
	cfg.UserAgent = ctx.String("user_agent")
	cfg.AccessLogLevel = ctx.String("access_log_level")
	cfg.MetricsAddress = ctx.String("metrics_address")
	if h := ctx.StringSlice("header"); len(h) > 0 {
		cfg.Headers = make(map[string]string, len(h))
		for _, kv := range h {
			k, v, ok := strings.Cut(kv, ":")
			if ok {
				cfg.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}
	return cfg
}

func fromYAMLFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %q: %v", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %v", path, err)
	}

	yc := yamlConfig{Config: defaults()}
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %v", err)
	}
	c := yc.Config
	return &c, nil
}

func validate(c *Config) error {
	if c.Dir == "" {
		return errors.New("the 'dir' flag/key is required")
	}
	if c.RemoteURL == "" {
		return errors.New("the 'remote_url' flag/key is required")
	}
	if c.ConcurrencyLimit <= 0 {
		return errors.New("concurrency_limit must be > 0")
	}
	if c.Track.MaxSize < 0 {
		return errors.New("track_max_size must be >= 0")
	}
	return nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
