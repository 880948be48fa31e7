package config

import (
	"github.com/papercomputeco/kataru/pkg/dotdir"
	"github.com/papercomputeco/kataru/pkg/interp"
)

const (
	defaultStoryPath  = "story"
	defaultListenAddr = ":8090"
	defaultKafkaTopic = "kataru.sessions"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Story: StoryConfig{
			Path:     defaultStoryPath,
			Validate: true,
		},
		Bookmark: BookmarkConfig{
			Slot: dotdir.DefaultSlot,
		},
		Run: RunConfig{
			MaxSteps: interp.DefaultMaxSteps,
		},
		Serve: ServeConfig{
			Listen: defaultListenAddr,
			MCP:    true,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
		Log: LogConfig{
			Pretty: true,
		},
	}
}
