package app

import (
	"os"
	"sync"
)

const testModeEnv = "PEERCHAMPS_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether the process should skip runtime side effects
// such as binding listeners. Package-level _test harnesses set the flag
// before any main runs.
func InTestMode() bool {
	return inTestMode()
}
