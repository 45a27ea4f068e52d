// Package guard forces test mode before any package under test runs init
// code with runtime side effects. Import it blank from _test files that
// exercise HTTP handlers or workers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ONEVIEW_TEST_MODE") == "" {
			_ = os.Setenv("ONEVIEW_TEST_MODE", "1")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}
