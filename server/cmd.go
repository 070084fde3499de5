package server

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	listenAddr string
)

var CMD = &cobra.Command{
	Use:   "server",
	Short: "start the reference backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Listen = listenAddr
		}
		return Main(cfg)
	},
}

func init() {
	CMD.Flags().StringVar(&configPath, "config", "", "Path to config file")
	CMD.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
}
