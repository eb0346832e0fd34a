// Package util provides small helpers shared by the inventory packages.
package util

import "github.com/google/uuid"

// GenerateUUID returns a random v4 UUID string, used to tag log lines of one CLI session.
func GenerateUUID() string {
	return uuid.NewString()
}
