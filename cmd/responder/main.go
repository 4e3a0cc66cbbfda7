package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/incident-responder/internal/config"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:   "responder",
		Short: "Incident investigation service",
		Long: "responder ingests incident alerts, investigates them through a\n" +
			"collector/analyst/supervisor pipeline and serves the resulting\n" +
			"step traces and reports over HTTP.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml")

	root.AddCommand(serveCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(indexCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		path = "config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	return config.Load(path)
}
