package app

import (
	"os"
	"sync"
)

const testModeEnv = "NUSANTARA_TEST_MODE"

var (
	testModeOnce sync.Once
	testMode     bool
)

// InTestMode reports whether the binaries should skip runtime side effects
// such as opening database pools. Set NUSANTARA_TEST_MODE=1 in smoke tests.
func InTestMode() bool {
	testModeOnce.Do(func() {
		switch os.Getenv(testModeEnv) {
		case "1", "true":
			testMode = true
		}
	})
	return testMode
}
