package instance

import (
	"os"
	"sync"

	"github.com/google/uuid"
)

var (
	once sync.Once
	id   string
)

// GetID returns a stable identifier for this process. Cart-change broadcasts
// carry it so the originating instance can skip its own messages.
func GetID() string {
	once.Do(func() {
		if v := os.Getenv("STOREFRONT_INSTANCE_ID"); v != "" {
			id = v
			return
		}
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "storefront"
		}
		id = host + "-" + uuid.NewString()[:8]
	})
	return id
}
