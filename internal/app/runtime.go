package app

import (
	"os"
	"sync"
)

const testModeEnv = "BIZDASH_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})

// InTestMode reports whether binaries should skip runtime side effects such as
// opening database pools or binding ports.
func InTestMode() bool {
	return testMode()
}
