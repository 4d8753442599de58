package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/soocke/detect-view-go/app"
	"github.com/soocke/detect-view-go/config"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to the JSON config file")
	debugFlag := flag.Bool("debug", false, "enable debug logging and leak diagnostics")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [image]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if *debugFlag {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}

	apiBase, err := cfg.ResolveAPIBase()
	if err != nil {
		logger.Error("resolve api base", "error", err)
		os.Exit(2)
	}
	logger.Info("detection api", "base", apiBase)

	application := app.NewApp("Object Detection", cfg, *cfgPath, apiBase, logger, flag.Args())
	application.Start()
}
