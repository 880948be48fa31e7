package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --story
// on "kataru run", "kataru validate" and "kataru script").
type Flag struct {
	// Name is the long flag name (e.g. "story").
	Name string

	// Shorthand is the one-letter short flag (e.g. "s"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "story.path").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagStory    = "story"
	FlagValidate = "validate"
	FlagBookmark = "bookmark"
	FlagSlot     = "slot"
	FlagSQLite   = "sqlite"
	FlagMaxSteps = "max-steps"
	FlagDebug    = "debug"
	FlagJSON     = "json"
	FlagListen   = "listen"
	FlagMCP      = "mcp"
	FlagPostgres = "postgres"
	FlagBrokers  = "kafka-brokers"
	FlagTopic    = "kafka-topic"
)

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddPersistentBoolFlag registers a bool flag on cmd and all of its
// subcommands from the given FlagSet.
func AddPersistentBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	cmd.PersistentFlags().BoolVarP(target, def.Name, def.Shorthand, defaultBool(def.ViperKey), def.Description)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}

// KataruFlags is the registry of flags shared by kataru commands.
var KataruFlags = FlagSet{
	FlagStory:    {Name: "story", Shorthand: "s", ViperKey: "story.path", Description: "Path to the story file or directory"},
	FlagValidate: {Name: "validate", ViperKey: "story.validate", Description: "Validate the story when loading it"},
	FlagBookmark: {Name: "bookmark", Shorthand: "b", ViperKey: "bookmark.path", Description: "Bookmark file to resume from and save to (default: the save slot)"},
	FlagSlot:     {Name: "slot", ViperKey: "bookmark.slot", Description: "Save slot under .kataru/saves/"},
	FlagSQLite:   {Name: "sqlite", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite snapshot archive"},
	FlagMaxSteps: {Name: "max-steps", ViperKey: "run.max_steps", Description: "Maximum silent lines evaluated per advance"},
	FlagDebug:    {Name: "debug", Shorthand: "d", ViperKey: "log.debug", Description: "Enable debug logging"},
	FlagJSON:     {Name: "json", ViperKey: "log.json", Description: "Emit JSON logs"},
	FlagListen:   {Name: "listen", Shorthand: "l", ViperKey: "serve.listen", Description: "Address for the API server to listen on"},
	FlagMCP:      {Name: "mcp", ViperKey: "serve.mcp", Description: "Serve MCP tools at /mcp"},
	FlagPostgres: {Name: "postgres", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string for the snapshot archive (overrides --sqlite)"},
	FlagBrokers:  {Name: "kafka-brokers", ViperKey: "events.kafka_brokers", Description: "Comma separated Kafka brokers for session events"},
	FlagTopic:    {Name: "kafka-topic", ViperKey: "events.kafka_topic", Description: "Kafka topic for session events"},
}
