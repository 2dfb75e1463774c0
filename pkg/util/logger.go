package util

import (
	"io"
	"os"

	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/config"
)

// SetupLogger creates the logger configured by the command line and makes
// it the default logger.
func SetupLogger(cfg *config.CliArgs) (*log.Logger, error) {
	var logger *log.Logger
	if cfg.LogConfig != "" {
		logCfg, err := log.LoadConfig(cfg.LogConfig)
		if err != nil {
			return nil, err
		}
		if cfg.LogLevel != "" {
			logCfg.DefaultLevel = cfg.LogLevel
		}
		if cfg.LogFile != "" {
			logCfg.Zap.OutputPaths = []string{cfg.LogFile}
		}
		if logger, err = log.FromConfig(logCfg); err != nil {
			return nil, err
		}
		log.ResetDefault(logger)
		return logger, nil
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	switch cfg.LogFormat {
	case "json":
		logger = log.New(
			w,
			parseLogLevel(cfg.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			w,
			parseLogLevel(cfg.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}

	log.ResetDefault(logger)
	return logger, nil
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}
