// Command featured serves the feature pipeline over HTTP.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/app"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "application config file (defaults to config.yaml or configs/config.yaml)")
	port := flag.Int("port", 0, "listen port (overrides FEATURES_SERVER_PORT)")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("%s %s\n", config.AppName, config.AppVersion)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
