// SECV mask annotation tool

package main

import (
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"github.com/andres-fr/secv-guis/internal/config"
	"github.com/andres-fr/secv-guis/internal/core"
	"github.com/andres-fr/secv-guis/internal/gui"
	"github.com/andres-fr/secv-guis/internal/io"
)

const (
	AppName    = "SECV Mask Annotator"
	AppID      = "com.github.andres-fr.secv-guis"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a TOML config file (default: user config dir)")
	imagePath := flag.String("image", "", "Image to open at startup")
	flag.Parse()

	logger := initLogger(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
	}).Info("Starting " + AppName)

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	loader := io.NewImageLoader(logger, cfg.Extensions()...)
	session, err := core.NewSession(cfg, loader, logger)
	if err != nil {
		logger.WithError(err).Fatal("Could not create annotation session")
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, session, logger)
	if *imagePath != "" {
		mainApp.LoadImageFromPath(*imagePath)
	}
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

// loadConfig reads the config file, falling back to the user config dir
func loadConfig(path string, logger *logrus.Logger) (config.Config, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			logger.WithError(err).Warn("No user config dir, using defaults")
			return config.Default(), nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	logger.WithField("path", path).Debug("Configuration loaded")
	return cfg, nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
