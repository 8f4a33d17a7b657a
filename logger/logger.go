// Package logger holds the process-wide logrus logger.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is usable before Init; Init only adjusts its level and formatter.
var Log = logrus.New()

// Init configures Log. Unknown levels fall back to info, and any format other
// than "text" produces JSON.
func Init(level, format string) {
	Log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "text") {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
