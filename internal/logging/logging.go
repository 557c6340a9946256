// Package logging builds the process-wide zap logger.
package logging

import (
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// NewLogger provides a sugared logger: human-readable development output
// when DEBUG is set, JSON production output otherwise. Components get
// their own view of it via Named.
func NewLogger() *zap.SugaredLogger {
	dev, _ := strconv.ParseBool(os.Getenv("DEBUG"))

	var l *zap.Logger
	var err error

	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		// Nothing to log with yet
		log.Fatalf("error creating logger: %s", err)
	}

	return l.Sugar()
}
