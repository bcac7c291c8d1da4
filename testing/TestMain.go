// Package testing flips the process into test mode before any package init
// can observe the flag. Handler tests blank-import it so main() guards stay
// inert under go test.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	_ = os.Setenv("PEERCHAMPS_TEST_MODE", "1")
}

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
