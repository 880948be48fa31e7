// Package settings resolves layered configuration for kataru commands.
package settings

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/kataru/pkg/config"
	"github.com/papercomputeco/kataru/pkg/logger"
)

// Load initializes viper from the command's --config-dir and binds the
// given registry flags so flag > env > config file > default.
func Load(cmd *cobra.Command, registryKeys ...string) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	keys := append([]string{config.FlagDebug, config.FlagJSON}, registryKeys...)
	config.BindRegisteredFlags(v, cmd, config.KataruFlags, keys)

	return v, nil
}

// Logger builds the command logger from the log.* keys.
func Logger(v *viper.Viper, w io.Writer) *slog.Logger {
	return logger.New(
		logger.WithDebug(v.GetBool("log.debug")),
		logger.WithJSON(v.GetBool("log.json")),
		logger.WithPretty(v.GetBool("log.pretty")),
		logger.WithWriter(w),
	)
}
