// SPDX-License-Identifier: Unlicense OR MIT

// Package log configures the process logger.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"touchio.org/config"
)

// New returns a logger writing to out, or stderr if out is nil,
// at the level and in the format of cfg.
func New(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log: unsupported format %q", cfg.Format)
	}
	return l, nil
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
