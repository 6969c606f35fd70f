// Package logging configures the process-wide structured logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON-formatted logger with a service field attached to
// every entry. The level comes from PERCH_LOG_LEVEL (default info).
func New(service string) *logrus.Entry {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)
	log.SetLevel(level())
	return log.WithField("service", service)
}

func level() logrus.Level {
	lvl, err := logrus.ParseLevel(os.Getenv("PERCH_LOG_LEVEL"))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
