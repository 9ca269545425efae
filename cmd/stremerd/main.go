package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stremer/stremerd/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "stremerd",
	Short:   "LAN media/file server with camera streaming",
	Long: `Stremerd exposes a set of storage locations over HTTP on the local
network: authenticated directory browsing, byte-range media streaming,
recursive search, thumbnails, and an on-demand camera feed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		readConfig(cmd)
		setupLogging(config.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "media index database path (default: stremerd.db, env: STREMER_STORAGE_DATABASE)")
	rootCmd.PersistentFlags().String("base-path", "", "serve this directory via the direct-path backend (env: STREMER_STORAGE_BASE_PATH)")

	_ = viper.BindPFlag("storage.database", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("storage.base_path", rootCmd.PersistentFlags().Lookup("base-path"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
