package screenshotter

import (
	"github.com/root4loot/goutils/log"
)

func init() {
	Init()
}

// Init resets the package logger to info level on stderr.
func Init() {
	log.Init("screenshotter")
	log.SetLevel(log.InfoLevel)
}

// SetDebug enables or disables debug logging.
func SetDebug(debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
