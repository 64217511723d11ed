package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STUDIO_TEST_MODE") == "" {
			_ = os.Setenv("STUDIO_TEST_MODE", "1")
		}
	})
}
