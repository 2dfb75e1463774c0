package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the content of a --log-config file.
//
// Example:
//
//	defaultLevel: info
//	loggers:
//	  session: debug
//	  session.durations: warn
//	zap:
//	  encoding: console
//	  outputPaths: [stderr]
type Config struct {
	DefaultLevel string            `yaml:"defaultLevel"`
	Loggers      map[string]string `yaml:"loggers"`
	Zap          zap.Config        `yaml:"zap"`
}

func DefaultDevConfig() *Config {
	z := zap.NewDevelopmentConfig()
	z.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return &Config{
		DefaultLevel: "debug",
		Loggers:      map[string]string{},
		Zap:          z,
	}
}

func DefaultProdConfig() *Config {
	return &Config{
		DefaultLevel: "info",
		Loggers:      map[string]string{},
		Zap:          zap.NewProductionConfig(),
	}
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultProdConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
