// Package guard forces test mode for binaries exercised from tests. Import it
// for side effects before calling a main function.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ORBIT_TEST_MODE") == "" {
			_ = os.Setenv("ORBIT_TEST_MODE", "1")
		}
	})
}
