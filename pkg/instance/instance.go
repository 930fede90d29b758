package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

// GetID returns the process instance identifier used in startup logs: the
// explicit STOREFRONT_INSTANCE_ID, the platform's DYNO, the hostname, or
// "local" as a last resort.
func GetID() string {
	if id := env.Get("STOREFRONT_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
