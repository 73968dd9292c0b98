// Package memory implements the repositories on in-process maps. It backs
// unit tests and the "memory" storage driver for local runs.
package memory

import (
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
