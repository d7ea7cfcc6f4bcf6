package screenshotter

import (
	"testing"

	"github.com/root4loot/goutils/log"
)

func TestSetDebug(t *testing.T) {
	defer Init()

	SetDebug(true)
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("Expected debug level, got %v", log.GetLevel())
	}

	SetDebug(false)
	if log.GetLevel() != log.InfoLevel {
		t.Errorf("Expected info level, got %v", log.GetLevel())
	}
}
