package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.username", "")
	viper.SetDefault("auth.password", "")

	viper.SetDefault("storage.base_path", "")
	viper.SetDefault("storage.database", "stremerd.db")

	viper.SetDefault("camera.enabled", false)
	viper.SetDefault("camera.exposure_min", -12)
	viper.SetDefault("camera.exposure_max", 12)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func readConfig(cmd *cobra.Command) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		slog.Warn("failed to bind flags", "err", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("STREMER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			slog.Warn("error reading config file", "err", err)
		}
	}
}
