package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("OCTABOX_TEST_MODE") == "" {
			_ = os.Setenv("OCTABOX_TEST_MODE", "1")
		}
	})
}
