package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger builds the service logger. Output goes to stdout; format is
// either "json" (the default) or "text".
func InitLogger(level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	switch format {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, &ConfigurationError{Name: "LOG_FORMAT", Value: format, Reason: "must be json or text"}
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(lvl)

	return log, nil
}
