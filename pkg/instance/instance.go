// Package instance names the running process for logs and lock owners.
package instance

import "os"

const fallbackID = "local"

var idEnvVars = []string{"PAINTREF_INSTANCE_ID", "DYNO", "HOSTNAME"}

// GetID returns the first instance identifier the platform provides.
func GetID() string {
	for _, key := range idEnvVars {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return fallbackID
}
