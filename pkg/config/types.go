package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent kataru configuration stored as config.toml
// in the .kataru/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Story    StoryConfig    `toml:"story"`
	Bookmark BookmarkConfig `toml:"bookmark"`
	Storage  StorageConfig  `toml:"storage"`
	Run      RunConfig      `toml:"run"`
	Serve    ServeConfig    `toml:"serve"`
	Events   EventsConfig   `toml:"events"`
	Log      LogConfig      `toml:"log"`
}

// StoryConfig points at the story source and controls load-time validation.
type StoryConfig struct {
	Path     string `toml:"path,omitempty"`
	Validate bool   `toml:"validate"`
}

// BookmarkConfig holds settings for where play state is resumed from and
// saved to. Path is an explicit bookmark file; when empty the named save
// slot under .kataru/saves/ is used.
type BookmarkConfig struct {
	Path string `toml:"path,omitempty"`
	Slot string `toml:"slot,omitempty"`
}

// StorageConfig holds the snapshot archive settings.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// RunConfig holds interpreter limits for CLI play.
type RunConfig struct {
	MaxSteps uint `toml:"max_steps,omitempty"`
}

// ServeConfig holds settings for the "kataru serve" API server.
type ServeConfig struct {
	Listen string `toml:"listen,omitempty"`
	MCP    bool   `toml:"mcp"`
}

// EventsConfig holds the session event stream settings. Events are only
// published when KafkaBrokers is set.
type EventsConfig struct {
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug  bool `toml:"debug"`
	JSON   bool `toml:"json"`
	Pretty bool `toml:"pretty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"story.path": {
		get: func(c *Config) string { return c.Story.Path },
		set: func(c *Config, v string) error { c.Story.Path = v; return nil },
	},
	"story.validate": boolKey("story.validate", func(c *Config) *bool { return &c.Story.Validate }),
	"bookmark.path": {
		get: func(c *Config) string { return c.Bookmark.Path },
		set: func(c *Config, v string) error { c.Bookmark.Path = v; return nil },
	},
	"bookmark.slot": {
		get: func(c *Config) string { return c.Bookmark.Slot },
		set: func(c *Config, v string) error { c.Bookmark.Slot = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"serve.listen": {
		get: func(c *Config) string { return c.Serve.Listen },
		set: func(c *Config, v string) error { c.Serve.Listen = v; return nil },
	},
	"serve.mcp": boolKey("serve.mcp", func(c *Config) *bool { return &c.Serve.MCP }),
	"events.kafka_brokers": {
		get: func(c *Config) string { return c.Events.KafkaBrokers },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = v; return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
	"run.max_steps": {
		get: func(c *Config) string {
			if c.Run.MaxSteps == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Run.MaxSteps), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for run.max_steps: %w", err)
			}
			c.Run.MaxSteps = uint(n)
			return nil
		},
	},
	"log.debug":  boolKey("log.debug", func(c *Config) *bool { return &c.Log.Debug }),
	"log.json":   boolKey("log.json", func(c *Config) *bool { return &c.Log.JSON }),
	"log.pretty": boolKey("log.pretty", func(c *Config) *bool { return &c.Log.Pretty }),
}
